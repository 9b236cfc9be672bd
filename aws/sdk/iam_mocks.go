package sdk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamTypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// MockedIAMClient pretends the roles in ExistingRoles are present.
// CreateRole records the created names and makes them visible to GetRole.
type MockedIAMClient struct {
	mu              sync.Mutex
	ExistingRoles   []string
	CreatedRoles    []string
	AttachedArns    []string
	CreateRoleError error
}

func (m *MockedIAMClient) roleExists(roleName string) bool {
	for _, name := range m.ExistingRoles {
		if name == roleName {
			return true
		}
	}
	for _, name := range m.CreatedRoles {
		if name == roleName {
			return true
		}
	}
	return false
}

func (m *MockedIAMClient) GetRole(ctx context.Context, input *iam.GetRoleInput, options ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roleName := aws.ToString(input.RoleName)
	if !m.roleExists(roleName) {
		return nil, &iamTypes.NoSuchEntityException{
			Message: aws.String(fmt.Sprintf("The role with name %s cannot be found.", roleName)),
		}
	}
	return &iam.GetRoleOutput{
		Role: &iamTypes.Role{
			RoleName:   aws.String(roleName),
			Arn:        aws.String("arn:aws:iam::222222222222:role/" + roleName),
			CreateDate: aws.Time(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	}, nil
}

func (m *MockedIAMClient) CreateRole(ctx context.Context, input *iam.CreateRoleInput, options ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateRoleError != nil {
		return nil, m.CreateRoleError
	}
	roleName := aws.ToString(input.RoleName)
	m.CreatedRoles = append(m.CreatedRoles, roleName)
	return &iam.CreateRoleOutput{
		Role: &iamTypes.Role{
			RoleName: aws.String(roleName),
			Arn:      aws.String("arn:aws:iam::222222222222:role/" + roleName),
		},
	}, nil
}

func (m *MockedIAMClient) AttachRolePolicy(ctx context.Context, input *iam.AttachRolePolicyInput, options ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AttachedArns = append(m.AttachedArns, aws.ToString(input.PolicyArn))
	return &iam.AttachRolePolicyOutput{}, nil
}
