package aws

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	orgTypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/globals"
	"github.com/rightstart-io/rightstart/internal"
)

// EnvironmentDigest hashes an account/region pair into the 40-hex token that
// names that environment's state resources. Existing buckets were created
// with exactly this digest, so the formula is frozen.
func EnvironmentDigest(accountID string, region string) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s-%s", accountID, region)))
	return hex.EncodeToString(sum[:])
}

func TfStateBucketName(accountID string, region string) string {
	return globals.TF_STATE_BUCKET_PREFIX + EnvironmentDigest(accountID, region)
}

func TfStateLockTableName(accountID string, region string) string {
	return globals.TF_STATE_LOCK_TABLE_PREFIX + EnvironmentDigest(accountID, region)
}

// RenderTfBackend produces the backend block for one account's environment,
// prefixed with a comment naming the account.
func RenderTfBackend(accountID string, region string) string {
	return fmt.Sprintf(`# ---------------------------------------------------------------------------
# Account: %s
# ---------------------------------------------------------------------------
terraform {
  backend "s3" {
    bucket         = %q
    key            = "terraform/main/main.tfstate"
    region         = %q
    encrypt        = true
    dynamodb_table = %q
  }
}

`, accountID, TfStateBucketName(accountID, region), region, TfStateLockTableName(accountID, region))
}

// TfBackendModule writes one .tf file holding a backend block for every
// ACTIVE account in the organization, or for a single account when AccountID
// is set.
type TfBackendModule struct {
	OrganizationsClient sdk.OrganizationsClientInterface

	Caller     sts.GetCallerIdentityOutput
	AWSProfile string
	AccountID  string
	Region     string
	OutputFile string

	output internal.OutputData2
	modLog *logrus.Entry
}

func (m *TfBackendModule) GenerateBackendFile(outputDirectory string, verbosity int) error {
	m.output.Verbosity = verbosity
	m.output.Directory = outputDirectory
	m.output.CallingModule = "gen-tf-backend"
	m.modLog = internal.TxtLog.WithFields(logrus.Fields{
		"module": m.output.CallingModule,
	})

	accounts, err := sdk.CachedOrganizationsListAccounts(m.OrganizationsClient, aws.ToString(m.Caller.Account))
	if err != nil {
		m.modLog.Error(err.Error())
		return fmt.Errorf("list accounts: %w", err)
	}

	var blocks []string
	for _, account := range accounts {
		accountID := aws.ToString(account.Id)
		if account.Status != orgTypes.AccountStatusActive {
			continue
		}
		if m.AccountID != "" && accountID != m.AccountID {
			continue
		}
		blocks = append(blocks, RenderTfBackend(accountID, m.Region))
	}
	if len(blocks) == 0 {
		return fmt.Errorf("no active account matched in the organization")
	}

	outputPath := m.OutputFile
	if outputPath == "" {
		outputPath = filepath.Join(outputDirectory, "aws", internal.BuildAWSPath(m.Caller), m.output.CallingModule, "backend_all_accounts.tf")
	}

	if err := internal.WriteArtifactFile(outputPath, strings.Join(blocks, "")); err != nil {
		m.modLog.Error(err.Error())
		return fmt.Errorf("write backend file: %w", err)
	}
	fmt.Printf("[%s][%s] %s backend blocks for region %s written to [%s]\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), green(len(blocks)), m.Region, outputPath)
	return nil
}
