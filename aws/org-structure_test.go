package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/internal"
)

func TestGetOrgStructure(t *testing.T) {
	client := &sdk.MockedOrganizationsClient{}
	structure, err := GetOrgStructure(client, "111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if structure.OrganizationID != "o-exampleorgid" {
		t.Errorf("expected organization o-exampleorgid, got %s", structure.OrganizationID)
	}
	if structure.ManagementAccountID != "111111111111" {
		t.Errorf("expected management account 111111111111, got %s", structure.ManagementAccountID)
	}
	if structure.Root.ID != "r-0000" {
		t.Errorf("expected root r-0000, got %s", structure.Root.ID)
	}
	if len(structure.Root.Children) != 2 {
		t.Fatalf("expected 2 OUs under the root, got %d", len(structure.Root.Children))
	}
}

func TestAllAccountsFlattensEachAccountOnce(t *testing.T) {
	client := &sdk.MockedOrganizationsClient{}
	structure, err := GetOrgStructure(client, "111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	accounts := structure.AllAccounts()
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts under OUs, got %d", len(accounts))
	}

	seen := map[string]int{}
	for _, account := range accounts {
		seen[account.ID]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("account %s appears %d times", id, count)
		}
	}
	// The management account sits directly under the root, outside any OU,
	// and must not show up in the walk.
	if _, found := seen["111111111111"]; found {
		t.Errorf("management account should not be part of the OU walk")
	}
	if _, found := seen["222222222222"]; !found {
		t.Errorf("expected account 222222222222 in the walk")
	}
	if _, found := seen["333333333333"]; !found {
		t.Errorf("expected account 333333333333 in the walk")
	}
}

func TestAccountsByOUPath(t *testing.T) {
	client := &sdk.MockedOrganizationsClient{}
	structure, err := GetOrgStructure(client, "111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	paths := structure.AccountsByOUPath()
	workloads, found := paths["Root/Workloads"]
	if !found || len(workloads) != 1 || workloads[0].Name != "Dev Tools" {
		t.Errorf("expected Dev Tools under Root/Workloads, got %+v", workloads)
	}
	prod, found := paths["Root/Workloads/Prod OU"]
	if !found || len(prod) != 1 || prod[0].ID != "333333333333" {
		t.Errorf("expected 333333333333 under Root/Workloads/Prod OU, got %+v", prod)
	}
}

func TestPrintOrgStructure(t *testing.T) {
	internal.MockFileSystem(true)
	defer internal.MockFileSystem(false)

	m := OrgModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		Caller: sts.GetCallerIdentityOutput{
			Account: aws.String("111111111111"),
			Arn:     aws.String("arn:aws:iam::111111111111:user/admin"),
			UserId:  aws.String("AIDAMOCKEDUSERID"),
		},
		AWSProfile: "unittest",
		Goroutines: 3,
	}
	m.PrintOrgStructure("rightstart-output", 2)

	if len(m.output.Body) != 2 {
		t.Errorf("expected 2 table rows, got %d", len(m.output.Body))
	}
}
