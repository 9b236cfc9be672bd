package sdk

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgTypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
)

// MockedOrganizationsClient models a small organization:
//
//	r-0000 (root)
//	├── account 111111111111 "Management"
//	├── ou-0000-aaaaaaaa "Workloads"
//	│   ├── account 222222222222 "Dev Tools"
//	│   └── ou-0000-bbbbbbbb "Prod OU"
//	│       └── account 333333333333 "Prod"
//	└── ou-0000-cccccccc "Sandbox"     (empty)
//
// Parents is mutable so tests can observe MoveAccount traffic.
type MockedOrganizationsClient struct {
	mu      sync.Mutex
	Parents map[string]string
	Moves   []string
}

func (m *MockedOrganizationsClient) parents() map[string]string {
	if m.Parents == nil {
		m.Parents = map[string]string{
			"111111111111": "r-0000",
			"222222222222": "ou-0000-aaaaaaaa",
			"333333333333": "ou-0000-bbbbbbbb",
		}
	}
	return m.Parents
}

func (m *MockedOrganizationsClient) ListAccounts(ctx context.Context, input *organizations.ListAccountsInput, options ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	return &organizations.ListAccountsOutput{
		Accounts: []orgTypes.Account{
			{
				Id:     aws.String("111111111111"),
				Arn:    aws.String("arn:aws:organizations::111111111111:account/o-exampleorgid/111111111111"),
				Name:   aws.String("Management"),
				Email:  aws.String("root@example.com"),
				Status: orgTypes.AccountStatusActive,
			},
			{
				Id:     aws.String("222222222222"),
				Arn:    aws.String("arn:aws:organizations::111111111111:account/o-exampleorgid/222222222222"),
				Name:   aws.String("Dev Tools"),
				Email:  aws.String("dev@example.com"),
				Status: orgTypes.AccountStatusActive,
			},
			{
				Id:     aws.String("333333333333"),
				Arn:    aws.String("arn:aws:organizations::111111111111:account/o-exampleorgid/333333333333"),
				Name:   aws.String("Prod"),
				Email:  aws.String("prod@example.com"),
				Status: orgTypes.AccountStatusActive,
			},
		},
	}, nil
}

func (m *MockedOrganizationsClient) ListAccountsForParent(ctx context.Context, input *organizations.ListAccountsForParentInput, options ...func(*organizations.Options)) (*organizations.ListAccountsForParentOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parentID := aws.ToString(input.ParentId)
	ListAccounts, _ := m.ListAccounts(ctx, &organizations.ListAccountsInput{})
	var accounts []orgTypes.Account
	for _, account := range ListAccounts.Accounts {
		if m.parents()[aws.ToString(account.Id)] == parentID {
			accounts = append(accounts, account)
		}
	}
	return &organizations.ListAccountsForParentOutput{Accounts: accounts}, nil
}

func (m *MockedOrganizationsClient) ListOrganizationalUnitsForParent(ctx context.Context, input *organizations.ListOrganizationalUnitsForParentInput, options ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error) {
	switch aws.ToString(input.ParentId) {
	case "r-0000":
		return &organizations.ListOrganizationalUnitsForParentOutput{
			OrganizationalUnits: []orgTypes.OrganizationalUnit{
				{
					Id:   aws.String("ou-0000-aaaaaaaa"),
					Arn:  aws.String("arn:aws:organizations::111111111111:ou/o-exampleorgid/ou-0000-aaaaaaaa"),
					Name: aws.String("Workloads"),
				},
				{
					Id:   aws.String("ou-0000-cccccccc"),
					Arn:  aws.String("arn:aws:organizations::111111111111:ou/o-exampleorgid/ou-0000-cccccccc"),
					Name: aws.String("Sandbox"),
				},
			},
		}, nil
	case "ou-0000-aaaaaaaa":
		return &organizations.ListOrganizationalUnitsForParentOutput{
			OrganizationalUnits: []orgTypes.OrganizationalUnit{
				{
					Id:   aws.String("ou-0000-bbbbbbbb"),
					Arn:  aws.String("arn:aws:organizations::111111111111:ou/o-exampleorgid/ou-0000-bbbbbbbb"),
					Name: aws.String("Prod OU"),
				},
			},
		}, nil
	default:
		return &organizations.ListOrganizationalUnitsForParentOutput{}, nil
	}
}

func (m *MockedOrganizationsClient) ListRoots(ctx context.Context, input *organizations.ListRootsInput, options ...func(*organizations.Options)) (*organizations.ListRootsOutput, error) {
	return &organizations.ListRootsOutput{
		Roots: []orgTypes.Root{
			{
				Id:   aws.String("r-0000"),
				Arn:  aws.String("arn:aws:organizations::111111111111:root/o-exampleorgid/r-0000"),
				Name: aws.String("Root"),
			},
		},
	}, nil
}

func (m *MockedOrganizationsClient) ListParents(ctx context.Context, input *organizations.ListParentsInput, options ...func(*organizations.Options)) (*organizations.ListParentsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	childID := aws.ToString(input.ChildId)
	parentID, ok := m.parents()[childID]
	if !ok {
		return nil, fmt.Errorf("ChildNotFoundException: %s", childID)
	}
	parentType := orgTypes.ParentTypeOrganizationalUnit
	if parentID == "r-0000" {
		parentType = orgTypes.ParentTypeRoot
	}
	return &organizations.ListParentsOutput{
		Parents: []orgTypes.Parent{
			{
				Id:   aws.String(parentID),
				Type: parentType,
			},
		},
	}, nil
}

func (m *MockedOrganizationsClient) DescribeOrganization(ctx context.Context, input *organizations.DescribeOrganizationInput, options ...func(*organizations.Options)) (*organizations.DescribeOrganizationOutput, error) {
	return &organizations.DescribeOrganizationOutput{
		Organization: &orgTypes.Organization{
			Id:                 aws.String("o-exampleorgid"),
			Arn:                aws.String("arn:aws:organizations::111111111111:organization/o-exampleorgid"),
			MasterAccountId:    aws.String("111111111111"),
			MasterAccountArn:   aws.String("arn:aws:organizations::111111111111:account/o-exampleorgid/111111111111"),
			MasterAccountEmail: aws.String("root@example.com"),
			FeatureSet:         orgTypes.OrganizationFeatureSetAll,
		},
	}, nil
}

func (m *MockedOrganizationsClient) DescribeAccount(ctx context.Context, input *organizations.DescribeAccountInput, options ...func(*organizations.Options)) (*organizations.DescribeAccountOutput, error) {
	ListAccounts, _ := m.ListAccounts(ctx, &organizations.ListAccountsInput{})
	for _, account := range ListAccounts.Accounts {
		if aws.ToString(account.Id) == aws.ToString(input.AccountId) {
			found := account
			return &organizations.DescribeAccountOutput{Account: &found}, nil
		}
	}
	return nil, fmt.Errorf("AccountNotFoundException: %s", aws.ToString(input.AccountId))
}

func (m *MockedOrganizationsClient) MoveAccount(ctx context.Context, input *organizations.MoveAccountInput, options ...func(*organizations.Options)) (*organizations.MoveAccountOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	accountID := aws.ToString(input.AccountId)
	source := aws.ToString(input.SourceParentId)
	destination := aws.ToString(input.DestinationParentId)
	if m.parents()[accountID] != source {
		return nil, fmt.Errorf("AccountNotFoundException: %s is not under %s", accountID, source)
	}
	m.parents()[accountID] = destination
	m.Moves = append(m.Moves, fmt.Sprintf("%s:%s->%s", accountID, source, destination))
	return &organizations.MoveAccountOutput{}, nil
}
