package aws

import (
	"strings"
	"testing"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/internal"
)

func TestSSOProfileName(t *testing.T) {
	tests := []struct {
		name          string
		accountName   string
		permissionSet string
		prefix        string
		postfix       string
		multiple      bool
		want          string
	}{
		{"spaces become hyphens", "Dev Tools", "AdministratorAccess", "", "", false, "dev-tools"},
		{"lowercased", "Prod", "AdministratorAccess", "", "", false, "prod"},
		{"permission set appended when multiple", "Dev Tools", "ReadOnlyAccess", "", "", true, "dev-tools-ReadOnlyAccess"},
		{"prefix and postfix", "Prod", "AdministratorAccess", "org-", "-use1", false, "org-prod-use1"},
		{"permission set lands after the postfix", "Dev Tools", "ReadOnlyAccess", "org-", "-use1", true, "org-dev-tools-use1-ReadOnlyAccess"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SSOProfileName(tt.accountName, tt.permissionSet, tt.prefix, tt.postfix, tt.multiple)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderSSOProfilesSingleSet(t *testing.T) {
	accounts := []Account{
		{ID: "333333333333", Name: "Prod"},
		{ID: "222222222222", Name: "Dev Tools"},
	}
	rendered := RenderSSOProfiles(accounts, "https://example.awsapps.com/start", "us-east-1", []string{"AdministratorAccess"}, "", "")

	wantDevBlock := `[profile dev-tools]
sso_start_url = https://example.awsapps.com/start
sso_region = us-east-1
sso_account_id = 222222222222
sso_role_name = AdministratorAccess
region = us-east-1
output = json
`
	if !strings.Contains(rendered, wantDevBlock) {
		t.Errorf("missing or mismatched dev-tools block:\n%s", rendered)
	}

	// Sorted by account name, so Dev Tools comes before Prod.
	if strings.Index(rendered, "[profile dev-tools]") > strings.Index(rendered, "[profile prod]") {
		t.Error("profiles are not sorted by account name")
	}

	// Single permission set keeps short names.
	if strings.Contains(rendered, "dev-tools-AdministratorAccess") {
		t.Error("permission set must not be appended for a single set")
	}
}

func TestRenderSSOProfilesMultipleSets(t *testing.T) {
	accounts := []Account{{ID: "222222222222", Name: "Dev Tools"}}
	rendered := RenderSSOProfiles(accounts, "https://example.awsapps.com/start", "us-east-1", []string{"AdministratorAccess", "ReadOnlyAccess"}, "", "")

	for _, want := range []string{
		"[profile dev-tools-AdministratorAccess]",
		"[profile dev-tools-ReadOnlyAccess]",
		"sso_role_name = AdministratorAccess",
		"sso_role_name = ReadOnlyAccess",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("missing %q in rendered profiles:\n%s", want, rendered)
		}
	}
}

func TestGenerateSSOConfig(t *testing.T) {
	internal.MockFileSystem(true)
	defer internal.MockFileSystem(false)

	m := SSOConfigModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		Caller:              testCaller(),
		AWSProfile:          "unittest",
		SSOStartURL:         "https://example.awsapps.com/start",
		SSORegion:           "us-east-1",
		PermissionSets:      []string{"AdministratorAccess"},
		OutputFile:          "sso/config",
	}
	if err := m.GenerateSSOConfig("rightstart-output", 1); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	contents, err := internal.ReadArtifactFile("sso/config")
	if err != nil {
		t.Fatalf("config file was not written: %s", err)
	}
	for _, want := range []string{
		"[profile dev-tools]",
		"[profile prod]",
		"sso_account_id = 222222222222",
		"sso_account_id = 333333333333",
		"output = json",
	} {
		if !strings.Contains(contents, want) {
			t.Errorf("missing %q in generated config", want)
		}
	}
}

func TestGenerateSSOConfigRequiresPermissionSets(t *testing.T) {
	m := SSOConfigModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		Caller:              testCaller(),
		AWSProfile:          "unittest",
		SSOStartURL:         "https://example.awsapps.com/start",
		SSORegion:           "us-east-1",
	}
	if err := m.GenerateSSOConfig("rightstart-output", 1); err == nil {
		t.Fatal("expected an error with no permission sets")
	}
}
