package aws

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/console"
	"github.com/rightstart-io/rightstart/globals"
	"github.com/rightstart-io/rightstart/internal"
)

// BaselineModule verifies that each member account carries its Terraform
// state bucket for a region.
type BaselineModule struct {
	OrganizationsClient sdk.OrganizationsClientInterface
	STSClient           sdk.STSClientInterface
	S3ClientFactory     func(creds aws.Credentials, region string) sdk.S3ClientInterface

	Caller         sts.GetCallerIdentityOutput
	AWSProfile     string
	Goroutines     int
	WrapTable      bool
	Region         string
	CommandCounter console.CommandCounter

	output internal.OutputData2
	modLog *logrus.Entry
	mu     sync.Mutex
}

// PrintBaselineStatus fans out across member accounts and tables whether the
// expected state bucket exists in each.
func (m *BaselineModule) PrintBaselineStatus(outputDirectory string, verbosity int) {
	m.output.Verbosity = verbosity
	m.output.Directory = outputDirectory
	m.output.CallingModule = "check-baseline"
	m.modLog = internal.TxtLog.WithFields(logrus.Fields{
		"module": m.output.CallingModule,
	})

	fmt.Printf("[%s][%s] Checking Terraform state baselines in %s.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), m.Region)

	structure, err := GetOrgStructure(m.OrganizationsClient, aws.ToString(m.Caller.Account))
	if err != nil {
		m.modLog.Error(err.Error())
		fmt.Printf("[%s][%s] Could not enumerate the organization: %s\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), err)
		return
	}
	accountsByID := map[string]Account{}
	var accountIDs []string
	for _, account := range structure.AllAccounts() {
		if account.ID == aws.ToString(m.Caller.Account) {
			continue
		}
		accountsByID[account.ID] = account
		accountIDs = append(accountIDs, account.ID)
	}

	done := make(chan bool)
	go console.SpinUntil(m.output.CallingModule, &m.CommandCounter, done, "accounts")

	fanOut := internal.FanOut{CallingModule: m.output.CallingModule, Goroutines: m.Goroutines}
	fanOut.Run(accountIDs, &m.CommandCounter, func(accountID string) error {
		bucketName, exists, err := m.CheckAccountBaseline(accountID)
		status := yesNo(exists)
		if err != nil {
			status = "error: " + err.Error()
		}
		m.mu.Lock()
		m.output.Body = append(m.output.Body, []string{
			accountsByID[accountID].Name,
			accountID,
			bucketName,
			status,
		})
		m.mu.Unlock()
		return err
	})

	done <- true
	<-done

	m.output.Headers = []string{
		"Account Name",
		"Account ID",
		"State Bucket",
		"Exists",
	}
	m.output.FilePath = filepath.Join(m.output.Directory, "aws", internal.BuildAWSPath(m.Caller))
	internal.OutputSelector(verbosity, "table", m.output.Headers, m.output.Body, m.output.FilePath, m.output.CallingModule, m.output.CallingModule, m.WrapTable, m.AWSProfile)
}

// CheckAccountBaseline probes one account's state bucket through the
// organization access role.
func (m *BaselineModule) CheckAccountBaseline(accountID string) (string, bool, error) {
	bucketName := TfStateBucketName(accountID, m.Region)
	creds, err := AssumeRoleCredentials(m.STSClient, accountID, globals.ORG_ACCESS_ROLE_NAME)
	if err != nil {
		return bucketName, false, fmt.Errorf("assume %s in %s: %w", globals.ORG_ACCESS_ROLE_NAME, accountID, err)
	}
	exists, err := sdk.S3BucketExists(m.S3ClientFactory(creds, m.Region), bucketName)
	if err != nil {
		return bucketName, false, fmt.Errorf("head bucket %s: %w", bucketName, err)
	}
	return bucketName, exists, nil
}
