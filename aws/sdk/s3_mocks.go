package sdk

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MockedS3Client knows only the buckets in ExistingBuckets.
type MockedS3Client struct {
	ExistingBuckets []string
}

func (m *MockedS3Client) HeadBucket(ctx context.Context, input *s3.HeadBucketInput, options ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	bucketName := aws.ToString(input.Bucket)
	for _, bucket := range m.ExistingBuckets {
		if bucket == bucketName {
			return &s3.HeadBucketOutput{}, nil
		}
	}
	return nil, &s3Types.NotFound{Message: aws.String("Not Found")}
}
