package sdk

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	stsTypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/rightstart-io/rightstart/internal"
)

// MockedSTSClient hands out fake credentials. DenyRoles lists role ARNs
// whose assumption fails with AccessDenied; DenySCPRoles fail with the
// service control policy explicit-deny message.
type MockedSTSClient struct {
	mu           sync.Mutex
	DenyRoles    []string
	DenySCPRoles []string
	AssumedArns  []string
}

func (m *MockedSTSClient) AssumeRole(ctx context.Context, input *sts.AssumeRoleInput, options ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roleArn := aws.ToString(input.RoleArn)
	if internal.Contains(roleArn, m.DenySCPRoles) {
		return nil, fmt.Errorf("operation error STS: AssumeRole, https response error StatusCode: 403, api error AccessDenied: User is not authorized to perform: sts:AssumeRole on resource: %s with an explicit deny in a service control policy", roleArn)
	}
	if internal.Contains(roleArn, m.DenyRoles) {
		return nil, fmt.Errorf("operation error STS: AssumeRole, https response error StatusCode: 403, api error AccessDenied: User is not authorized to perform: sts:AssumeRole on resource: %s", roleArn)
	}
	m.AssumedArns = append(m.AssumedArns, roleArn)
	return &sts.AssumeRoleOutput{
		Credentials: &stsTypes.Credentials{
			AccessKeyId:     aws.String("ASIAMOCKEDKEYID"),
			SecretAccessKey: aws.String("mockedSecretAccessKey"),
			SessionToken:    aws.String("mockedSessionToken"),
		},
	}, nil
}

func (m *MockedSTSClient) GetCallerIdentity(ctx context.Context, input *sts.GetCallerIdentityInput, options ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{
		Account: aws.String("111111111111"),
		Arn:     aws.String("arn:aws:iam::111111111111:user/admin"),
		UserId:  aws.String("AIDAMOCKEDUSERID"),
	}, nil
}
