package aws

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/internal"
)

func TestEnvironmentDigest(t *testing.T) {
	digest := EnvironmentDigest("222222222222", "us-east-1")

	if len(digest) != 40 {
		t.Fatalf("expected a 40 character digest, got %d: %s", len(digest), digest)
	}
	for _, c := range digest {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("digest is not lowercase hex: %s", digest)
		}
	}

	if digest != EnvironmentDigest("222222222222", "us-east-1") {
		t.Error("digest is not deterministic")
	}
	if digest == EnvironmentDigest("222222222222", "eu-west-1") {
		t.Error("different regions must produce different digests")
	}
	if digest == EnvironmentDigest("333333333333", "us-east-1") {
		t.Error("different accounts must produce different digests")
	}
}

func TestRenderTfBackend(t *testing.T) {
	rendered := RenderTfBackend("222222222222", "us-east-1")
	digest := EnvironmentDigest("222222222222", "us-east-1")

	for _, want := range []string{
		"# Account: 222222222222",
		fmt.Sprintf("bucket         = \"terraform-state-%s\"", digest),
		fmt.Sprintf("dynamodb_table = \"terraform-state-lock-%s\"", digest),
		"key            = \"terraform/main/main.tfstate\"",
		"region         = \"us-east-1\"",
		"encrypt        = true",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered backend is missing %q:\n%s", want, rendered)
		}
	}
}

func TestGenerateBackendFileAllAccounts(t *testing.T) {
	internal.MockFileSystem(true)
	defer internal.MockFileSystem(false)

	m := TfBackendModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		Caller:              testCaller(),
		AWSProfile:          "unittest",
		Region:              "us-east-1",
		OutputFile:          "env/backend_all_accounts.tf",
	}
	if err := m.GenerateBackendFile("rightstart-output", 1); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	contents, err := internal.ReadArtifactFile("env/backend_all_accounts.tf")
	if err != nil {
		t.Fatalf("backend file was not written: %s", err)
	}
	if got := strings.Count(contents, "backend \"s3\""); got != 3 {
		t.Errorf("expected one block per active account (3), got %d:\n%s", got, contents)
	}
	for _, accountID := range []string{"111111111111", "222222222222", "333333333333"} {
		if !strings.Contains(contents, RenderTfBackend(accountID, "us-east-1")) {
			t.Errorf("backend file is missing the block for %s", accountID)
		}
	}
}

func TestGenerateBackendFileSingleAccount(t *testing.T) {
	internal.MockFileSystem(true)
	defer internal.MockFileSystem(false)

	m := TfBackendModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		Caller:              testCaller(),
		AWSProfile:          "unittest",
		AccountID:           "222222222222",
		Region:              "us-east-1",
		OutputFile:          "env/dev/backend.tf",
	}
	if err := m.GenerateBackendFile("rightstart-output", 1); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	contents, err := internal.ReadArtifactFile("env/dev/backend.tf")
	if err != nil {
		t.Fatalf("backend file was not written: %s", err)
	}
	if contents != RenderTfBackend("222222222222", "us-east-1") {
		t.Errorf("backend file does not match the rendered block:\n%s", contents)
	}
}

func TestGenerateBackendFileUnknownAccount(t *testing.T) {
	internal.MockFileSystem(true)
	defer internal.MockFileSystem(false)

	m := TfBackendModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		Caller:              testCaller(),
		AWSProfile:          "unittest",
		AccountID:           "999999999999",
		Region:              "us-east-1",
		OutputFile:          "env/none.tf",
	}
	if err := m.GenerateBackendFile("rightstart-output", 1); err == nil {
		t.Fatal("expected an error for an account outside the organization")
	}
}
