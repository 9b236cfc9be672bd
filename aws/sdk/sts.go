package sdk

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type STSClientInterface interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// RoleArn builds the ARN of a named role in a member account.
func RoleArn(accountID string, roleName string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, roleName)
}

// STSAssumeRole assumes a role in a member account and returns its temporary
// credentials. Credentials are scoped to the single operation that requested
// them and are never cached or persisted.
func STSAssumeRole(client STSClientInterface, accountID string, roleName string, sessionName string) (aws.Credentials, error) {
	AssumeRole, err := client.AssumeRole(
		context.TODO(),
		&sts.AssumeRoleInput{
			RoleArn:         aws.String(RoleArn(accountID, roleName)),
			RoleSessionName: aws.String(sessionName),
		},
	)
	if err != nil {
		return aws.Credentials{}, err
	}
	if AssumeRole.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("assume role for %s returned no credentials", accountID)
	}

	return aws.Credentials{
		AccessKeyID:     aws.ToString(AssumeRole.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(AssumeRole.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(AssumeRole.Credentials.SessionToken),
	}, nil
}
