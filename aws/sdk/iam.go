package sdk

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamTypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rightstart-io/rightstart/globals"
)

type IAMClientInterface interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
}

type trustPolicyStatement struct {
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal"`
	Action    string            `json:"Action"`
	Condition map[string]any    `json:"Condition"`
}

type trustPolicyDocument struct {
	Version   string                 `json:"Version"`
	Statement []trustPolicyStatement `json:"Statement"`
}

// IAMRoleExists distinguishes "role literally does not exist" from
// "exists but we cannot see/assume it". NoSuchEntity maps to the boolean;
// everything else propagates.
func IAMRoleExists(client IAMClientInterface, roleName string) (bool, error) {
	_, err := client.GetRole(
		context.TODO(),
		&iam.GetRoleInput{
			RoleName: aws.String(roleName),
		},
	)
	if err != nil {
		var noSuchEntity *iamTypes.NoSuchEntityException
		if errors.As(err, &noSuchEntity) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IAMCreateAdminRole creates a role trusted by the organization management
// account and attaches full administrative permissions to it.
func IAMCreateAdminRole(client IAMClientInterface, managementAccountID string, roleName string) error {
	trustPolicy, err := json.Marshal(trustPolicyDocument{
		Version: "2012-10-17",
		Statement: []trustPolicyStatement{
			{
				Effect: "Allow",
				Principal: map[string]string{
					"AWS": "arn:aws:iam::" + managementAccountID + ":root",
				},
				Action:    "sts:AssumeRole",
				Condition: map[string]any{},
			},
		},
	})
	if err != nil {
		return err
	}

	_, err = client.CreateRole(
		context.TODO(),
		&iam.CreateRoleInput{
			RoleName:                 aws.String(roleName),
			AssumeRolePolicyDocument: aws.String(string(trustPolicy)),
			Description:              aws.String("Role for AWS Control Tower Execution"),
		},
	)
	if err != nil {
		return err
	}

	_, err = client.AttachRolePolicy(
		context.TODO(),
		&iam.AttachRolePolicyInput{
			RoleName:  aws.String(roleName),
			PolicyArn: aws.String(globals.ADMINISTRATOR_ACCESS_POLICY_ARN),
		},
	)
	return err
}
