package sdk

import (
	"context"
	"encoding/gob"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgTypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/patrickmn/go-cache"
	"github.com/rightstart-io/rightstart/internal"
)

type OrganizationsClientInterface interface {
	ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error)
	ListAccountsForParent(ctx context.Context, params *organizations.ListAccountsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsForParentOutput, error)
	ListOrganizationalUnitsForParent(ctx context.Context, params *organizations.ListOrganizationalUnitsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error)
	ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error)
	ListParents(ctx context.Context, params *organizations.ListParentsInput, optFns ...func(*organizations.Options)) (*organizations.ListParentsOutput, error)
	DescribeOrganization(ctx context.Context, params *organizations.DescribeOrganizationInput, optFns ...func(*organizations.Options)) (*organizations.DescribeOrganizationOutput, error)
	DescribeAccount(ctx context.Context, params *organizations.DescribeAccountInput, optFns ...func(*organizations.Options)) (*organizations.DescribeAccountOutput, error)
	MoveAccount(ctx context.Context, params *organizations.MoveAccountInput, optFns ...func(*organizations.Options)) (*organizations.MoveAccountOutput, error)
}

func RegisterOrganizationsTypes() {
	gob.Register([]orgTypes.Account{})
	gob.Register([]orgTypes.OrganizationalUnit{})
}

// CachedOrganizationsListAccounts returns every account in the organization
// (flat, not per-parent) following pagination until the service signals no
// more pages.
func CachedOrganizationsListAccounts(client OrganizationsClientInterface, accountID string) ([]orgTypes.Account, error) {
	var PaginationControl *string
	var accounts []orgTypes.Account
	cacheKey := fmt.Sprintf("%s-organizations-ListAccounts", accountID)
	cached, found := internal.Cache.Get(cacheKey)
	if found {
		return cached.([]orgTypes.Account), nil
	}

	for {
		ListAccounts, err := client.ListAccounts(
			context.TODO(),
			&organizations.ListAccountsInput{
				NextToken: PaginationControl,
			},
		)

		if err != nil {
			return accounts, err
		}

		accounts = append(accounts, ListAccounts.Accounts...)

		//pagination
		if ListAccounts.NextToken == nil {
			break
		}
		PaginationControl = ListAccounts.NextToken
	}
	internal.Cache.Set(cacheKey, accounts, cache.DefaultExpiration)

	return accounts, nil
}

// CachedOrganizationsListAccountsForParent returns the accounts directly
// under one OU or root.
func CachedOrganizationsListAccountsForParent(client OrganizationsClientInterface, accountID string, parentID string) ([]orgTypes.Account, error) {
	var PaginationControl *string
	var accounts []orgTypes.Account
	cacheKey := fmt.Sprintf("%s-organizations-ListAccountsForParent-%s", accountID, parentID)
	cached, found := internal.Cache.Get(cacheKey)
	if found {
		return cached.([]orgTypes.Account), nil
	}

	for {
		ListAccountsForParent, err := client.ListAccountsForParent(
			context.TODO(),
			&organizations.ListAccountsForParentInput{
				ParentId:  aws.String(parentID),
				NextToken: PaginationControl,
			},
		)

		if err != nil {
			return accounts, err
		}

		accounts = append(accounts, ListAccountsForParent.Accounts...)

		//pagination
		if ListAccountsForParent.NextToken == nil {
			break
		}
		PaginationControl = ListAccountsForParent.NextToken
	}
	internal.Cache.Set(cacheKey, accounts, cache.DefaultExpiration)

	return accounts, nil
}

// CachedOrganizationsListOrganizationalUnitsForParent returns the OUs
// directly under one OU or root.
func CachedOrganizationsListOrganizationalUnitsForParent(client OrganizationsClientInterface, accountID string, parentID string) ([]orgTypes.OrganizationalUnit, error) {
	var PaginationControl *string
	var ous []orgTypes.OrganizationalUnit
	cacheKey := fmt.Sprintf("%s-organizations-ListOrganizationalUnitsForParent-%s", accountID, parentID)
	cached, found := internal.Cache.Get(cacheKey)
	if found {
		return cached.([]orgTypes.OrganizationalUnit), nil
	}

	for {
		ListOUs, err := client.ListOrganizationalUnitsForParent(
			context.TODO(),
			&organizations.ListOrganizationalUnitsForParentInput{
				ParentId:  aws.String(parentID),
				NextToken: PaginationControl,
			},
		)

		if err != nil {
			return ous, err
		}

		ous = append(ous, ListOUs.OrganizationalUnits...)

		//pagination
		if ListOUs.NextToken == nil {
			break
		}
		PaginationControl = ListOUs.NextToken
	}
	internal.Cache.Set(cacheKey, ous, cache.DefaultExpiration)

	return ous, nil
}

// OrganizationsGetRootId returns the id of the organization root. In the
// current release an organization has exactly one root.
func OrganizationsGetRootId(client OrganizationsClientInterface) (string, error) {
	ListRoots, err := client.ListRoots(
		context.TODO(),
		&organizations.ListRootsInput{},
	)
	if err != nil {
		return "", err
	}
	if len(ListRoots.Roots) == 0 {
		return "", fmt.Errorf("organization has no roots")
	}
	return aws.ToString(ListRoots.Roots[0].Id), nil
}

// OrganizationsGetParent returns the current parent of an account or OU.
// Never cached: the role bootstrap recovery path moves accounts around and
// needs fresh reads.
func OrganizationsGetParent(client OrganizationsClientInterface, childID string) (orgTypes.Parent, error) {
	// https://docs.aws.amazon.com/organizations/latest/APIReference/API_ListParents.html
	// In the current release, a child can have only a single parent.
	ListParents, err := client.ListParents(
		context.TODO(),
		&organizations.ListParentsInput{
			ChildId: aws.String(childID),
		},
	)
	if err != nil {
		return orgTypes.Parent{}, err
	}
	if len(ListParents.Parents) == 0 {
		return orgTypes.Parent{}, fmt.Errorf("no parent found for %s", childID)
	}
	return ListParents.Parents[0], nil
}

func CachedOrganizationsDescribeOrganization(client OrganizationsClientInterface, accountID string) (*orgTypes.Organization, error) {
	var organization *orgTypes.Organization
	cacheKey := fmt.Sprintf("%s-organizations-DescribeOrganization", accountID)
	cached, found := internal.Cache.Get(cacheKey)
	if found {
		return cached.(*orgTypes.Organization), nil
	}

	DescribeOrganization, err := client.DescribeOrganization(
		context.TODO(),
		&organizations.DescribeOrganizationInput{},
	)

	if err != nil {
		return organization, err
	}

	organization = DescribeOrganization.Organization
	internal.Cache.Set(cacheKey, organization, cache.DefaultExpiration)

	return organization, nil
}

func CachedOrganizationsDescribeAccount(client OrganizationsClientInterface, accountID string, targetAccountID string) (orgTypes.Account, error) {
	cacheKey := fmt.Sprintf("%s-organizations-DescribeAccount-%s", accountID, targetAccountID)
	cached, found := internal.Cache.Get(cacheKey)
	if found {
		return cached.(orgTypes.Account), nil
	}

	DescribeAccount, err := client.DescribeAccount(
		context.TODO(),
		&organizations.DescribeAccountInput{
			AccountId: aws.String(targetAccountID),
		},
	)

	if err != nil {
		return orgTypes.Account{}, err
	}

	if DescribeAccount.Account == nil {
		return orgTypes.Account{}, fmt.Errorf("describe account returned no account for %s", targetAccountID)
	}
	account := *DescribeAccount.Account
	internal.Cache.Set(cacheKey, account, cache.DefaultExpiration)

	return account, nil
}

// OrganizationsMoveAccount moves an account from one parent to another.
// A mutation, never cached.
func OrganizationsMoveAccount(client OrganizationsClientInterface, accountID string, sourceParentID string, destinationParentID string) error {
	_, err := client.MoveAccount(
		context.TODO(),
		&organizations.MoveAccountInput{
			AccountId:           aws.String(accountID),
			SourceParentId:      aws.String(sourceParentID),
			DestinationParentId: aws.String(destinationParentID),
		},
	)
	return err
}
