package aws

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/internal"
)

// SSOConfigModule generates the ~/.aws/config profile blocks for every
// account in the organization, one per permission set.
type SSOConfigModule struct {
	OrganizationsClient sdk.OrganizationsClientInterface

	Caller         sts.GetCallerIdentityOutput
	AWSProfile     string
	SSOStartURL    string
	SSORegion      string
	PermissionSets []string
	Prefix         string
	Postfix        string
	OutputFile     string

	output internal.OutputData2
	modLog *logrus.Entry
}

// SSOProfileName derives the profile name from the account name: lowercase,
// spaces to hyphens, optional prefix and postfix. The permission set is only
// appended when more than one is in play, so the common single-set case keeps
// short names. It goes after the postfix, keeping its original case, so the
// name ends with the role it grants.
func SSOProfileName(accountName string, permissionSet string, prefix string, postfix string, multiplePermissionSets bool) string {
	name := prefix + strings.ToLower(strings.ReplaceAll(accountName, " ", "-")) + postfix
	if multiplePermissionSets {
		name = name + "-" + permissionSet
	}
	return name
}

// RenderSSOProfiles produces the config file body for the given accounts.
// Accounts are sorted by name so reruns are diffable.
func RenderSSOProfiles(accounts []Account, startURL string, ssoRegion string, permissionSets []string, prefix string, postfix string) string {
	sorted := make([]Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	multiple := len(permissionSets) > 1
	var builder strings.Builder
	for _, account := range sorted {
		for _, permissionSet := range permissionSets {
			profileName := SSOProfileName(account.Name, permissionSet, prefix, postfix, multiple)
			fmt.Fprintf(&builder, "[profile %s]\n", profileName)
			fmt.Fprintf(&builder, "sso_start_url = %s\n", startURL)
			fmt.Fprintf(&builder, "sso_region = %s\n", ssoRegion)
			fmt.Fprintf(&builder, "sso_account_id = %s\n", account.ID)
			fmt.Fprintf(&builder, "sso_role_name = %s\n", permissionSet)
			fmt.Fprintf(&builder, "region = %s\n", ssoRegion)
			fmt.Fprintf(&builder, "output = json\n")
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

// GenerateSSOConfig enumerates the organization and writes the profile file.
func (m *SSOConfigModule) GenerateSSOConfig(outputDirectory string, verbosity int) error {
	m.output.Verbosity = verbosity
	m.output.Directory = outputDirectory
	m.output.CallingModule = "gen-sso-config"
	m.modLog = internal.TxtLog.WithFields(logrus.Fields{
		"module": m.output.CallingModule,
	})

	if len(m.PermissionSets) == 0 {
		return fmt.Errorf("at least one permission set is required")
	}

	structure, err := GetOrgStructure(m.OrganizationsClient, aws.ToString(m.Caller.Account))
	if err != nil {
		m.modLog.Error(err.Error())
		return fmt.Errorf("enumerate organization: %w", err)
	}
	accounts := structure.AllAccounts()
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts found under any organizational unit")
	}

	outputPath := m.OutputFile
	if outputPath == "" {
		outputPath = filepath.Join(outputDirectory, "aws", internal.BuildAWSPath(m.Caller), m.output.CallingModule, "sso-config")
	}

	contents := RenderSSOProfiles(accounts, m.SSOStartURL, m.SSORegion, m.PermissionSets, m.Prefix, m.Postfix)
	if err := internal.WriteArtifactFile(outputPath, contents); err != nil {
		m.modLog.Error(err.Error())
		return fmt.Errorf("write sso config: %w", err)
	}
	fmt.Printf("[%s][%s] %s profiles for %d accounts written to [%s]\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), green(len(accounts)*len(m.PermissionSets)), len(accounts), outputPath)
	return nil
}
