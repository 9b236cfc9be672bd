package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/internal"
)

func TestPrintBaselineStatus(t *testing.T) {
	internal.MockFileSystem(true)
	defer internal.MockFileSystem(false)

	s3Client := &sdk.MockedS3Client{
		ExistingBuckets: []string{TfStateBucketName("222222222222", "us-east-1")},
	}
	m := BaselineModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		STSClient:           &sdk.MockedSTSClient{},
		S3ClientFactory: func(creds aws.Credentials, region string) sdk.S3ClientInterface {
			return s3Client
		},
		Caller:     testCaller(),
		AWSProfile: "unittest",
		Goroutines: 1,
		Region:     "us-east-1",
	}
	m.PrintBaselineStatus("rightstart-output", 1)

	if len(m.output.Body) != 2 {
		t.Fatalf("expected a row per member account, got %d", len(m.output.Body))
	}
	status := map[string]string{}
	for _, row := range m.output.Body {
		status[row[1]] = row[3]
	}
	if status["222222222222"] != "Yes" {
		t.Errorf("expected the baselined account to report Yes, got %q", status["222222222222"])
	}
	if status["333333333333"] != "No" {
		t.Errorf("expected the unbaselined account to report No, got %q", status["333333333333"])
	}
}

func TestCheckAccountBaselineAssumeFailure(t *testing.T) {
	m := BaselineModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		STSClient: &sdk.MockedSTSClient{
			DenyRoles: []string{sdk.RoleArn("222222222222", "OrganizationAccountAccessRole")},
		},
		S3ClientFactory: func(creds aws.Credentials, region string) sdk.S3ClientInterface {
			return &sdk.MockedS3Client{}
		},
		Caller:     testCaller(),
		AWSProfile: "unittest",
		Region:     "us-east-1",
	}
	_, _, err := m.CheckAccountBaseline("222222222222")
	if err == nil {
		t.Fatal("expected an error when the role cannot be assumed")
	}
}
