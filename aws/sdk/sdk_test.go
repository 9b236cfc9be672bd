package sdk

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ramTypes "github.com/aws/aws-sdk-go-v2/service/ram/types"
)

func TestIAMRoleExists(t *testing.T) {
	client := &MockedIAMClient{ExistingRoles: []string{"AWSControlTowerExecution"}}

	exists, err := IAMRoleExists(client, "AWSControlTowerExecution")
	if err != nil || !exists {
		t.Errorf("expected the role to exist, got exists=%t err=%v", exists, err)
	}

	// A missing role is a boolean answer, not an error.
	exists, err = IAMRoleExists(client, "OrganizationAccountAccessRole")
	if err != nil {
		t.Errorf("unexpected error for a missing role: %s", err)
	}
	if exists {
		t.Error("expected the role to be missing")
	}
}

func TestS3BucketExists(t *testing.T) {
	client := &MockedS3Client{ExistingBuckets: []string{"terraform-state-abc"}}

	exists, err := S3BucketExists(client, "terraform-state-abc")
	if err != nil || !exists {
		t.Errorf("expected the bucket to exist, got exists=%t err=%v", exists, err)
	}

	exists, err = S3BucketExists(client, "terraform-state-missing")
	if err != nil {
		t.Errorf("unexpected error for a missing bucket: %s", err)
	}
	if exists {
		t.Error("expected the bucket to be missing")
	}
}

func TestOrganizationsMoveAccountTracksParents(t *testing.T) {
	client := &MockedOrganizationsClient{}

	if err := OrganizationsMoveAccount(client, "222222222222", "ou-0000-aaaaaaaa", "r-0000"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	parent, err := OrganizationsGetParent(client, "222222222222")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if aws.ToString(parent.Id) != "r-0000" {
		t.Errorf("expected parent r-0000, got %s", aws.ToString(parent.Id))
	}

	// Moving from the wrong source parent fails like the real service.
	if err := OrganizationsMoveAccount(client, "222222222222", "ou-0000-aaaaaaaa", "r-0000"); err == nil {
		t.Error("expected a move with a stale source parent to fail")
	}
}

func TestRAMResourceShareAssociations(t *testing.T) {
	client := &MockedRAMClient{}
	shares, err := RAMResourceShares(client, "us-east-1")
	if err != nil || len(shares) != 1 {
		t.Fatalf("expected one share, got %d (err=%v)", len(shares), err)
	}

	resources, err := RAMResourceShareAssociations(client, "us-east-1", ramTypes.ResourceShareAssociationTypeResource, []string{aws.ToString(shares[0].ResourceShareArn)})
	if err != nil || len(resources) != 2 {
		t.Fatalf("expected two resource associations, got %d (err=%v)", len(resources), err)
	}

	principals, err := RAMResourceShareAssociations(client, "us-east-1", ramTypes.ResourceShareAssociationTypePrincipal, []string{aws.ToString(shares[0].ResourceShareArn)})
	if err != nil || len(principals) != 2 {
		t.Fatalf("expected two principal associations, got %d (err=%v)", len(principals), err)
	}
}

func TestRoleArn(t *testing.T) {
	got := RoleArn("222222222222", "OrganizationAccountAccessRole")
	want := "arn:aws:iam::222222222222:role/OrganizationAccountAccessRole"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
