package aws

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/bishopfox/awsservicemap"
	"github.com/sirupsen/logrus"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/console"
	"github.com/rightstart-io/rightstart/globals"
	"github.com/rightstart-io/rightstart/internal"
)

// VpcsModule removes the default VPCs that AWS seeds into every region of
// every new account. The default pass only reports; deletion requires Force.
type VpcsModule struct {
	OrganizationsClient sdk.OrganizationsClientInterface
	STSClient           sdk.STSClientInterface
	EC2ClientFactory    func(creds aws.Credentials, region string) sdk.EC2ClientInterface

	Caller         sts.GetCallerIdentityOutput
	AWSProfile     string
	Goroutines     int
	WrapTable      bool
	Force          bool
	Regions        []string
	CommandCounter console.CommandCounter

	output internal.OutputData2
	modLog *logrus.Entry
	mu     sync.Mutex
}

// ProcessDefaultVpcs fans out over every member account, walks its enabled
// regions, and reports or deletes each default VPC found. A VPC with network
// interfaces still attached is never deleted, Force or not.
func (m *VpcsModule) ProcessDefaultVpcs(outputDirectory string, verbosity int) {
	m.output.Verbosity = verbosity
	m.output.Directory = outputDirectory
	m.output.CallingModule = "process-vpcs"
	m.modLog = internal.TxtLog.WithFields(logrus.Fields{
		"module": m.output.CallingModule,
	})

	if m.Force {
		fmt.Printf("[%s][%s] Deleting default VPCs in every member account. VPCs with attached network interfaces are skipped.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile))
	} else {
		fmt.Printf("[%s][%s] Dry run: listing default VPCs that a --force run would delete.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile))
	}

	structure, err := GetOrgStructure(m.OrganizationsClient, aws.ToString(m.Caller.Account))
	if err != nil {
		m.modLog.Error(err.Error())
		fmt.Printf("[%s][%s] Could not enumerate the organization: %s\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), err)
		return
	}

	var accountIDs []string
	for _, account := range structure.AllAccounts() {
		if account.ID != aws.ToString(m.Caller.Account) {
			accountIDs = append(accountIDs, account.ID)
		}
	}

	done := make(chan bool)
	go console.SpinUntil(m.output.CallingModule, &m.CommandCounter, done, "accounts")

	fanOut := internal.FanOut{CallingModule: m.output.CallingModule, Goroutines: m.Goroutines}
	fanOut.Run(accountIDs, &m.CommandCounter, func(accountID string) error {
		return m.processAccount(accountID)
	})

	done <- true
	<-done

	m.output.Headers = []string{
		"Account ID",
		"Region",
		"VPC ID",
		"CIDR",
		"Result",
	}
	m.output.FilePath = filepath.Join(m.output.Directory, "aws", internal.BuildAWSPath(m.Caller))
	internal.OutputSelector(verbosity, "table", m.output.Headers, m.output.Body, m.output.FilePath, m.output.CallingModule, m.output.CallingModule, m.WrapTable, m.AWSProfile)
}

func (m *VpcsModule) processAccount(accountID string) error {
	creds, err := AssumeRoleCredentials(m.STSClient, accountID, globals.ORG_ACCESS_ROLE_NAME)
	if err != nil {
		return fmt.Errorf("assume %s in %s: %w", globals.ORG_ACCESS_ROLE_NAME, accountID, err)
	}

	regions := m.Regions
	if len(regions) == 0 {
		regions, err = sdk.CachedEC2DescribeRegions(m.EC2ClientFactory(creds, "us-east-1"), accountID)
		if err != nil {
			// Some accounts deny ec2:DescribeRegions. Fall back to the full
			// commercial region list and let the per-region calls fail soft.
			servicemap := &awsservicemap.AwsServiceMap{
				JsonFileSource: "EMBEDDED_IN_PACKAGE",
			}
			regions, err = servicemap.GetAllRegions()
			if err != nil {
				return fmt.Errorf("describe regions in %s: %w", accountID, err)
			}
		}
	}

	// Regions get their own pool under the account pool, so aggregate
	// concurrency is the product of the two levels.
	regionFanOut := internal.FanOut{CallingModule: m.output.CallingModule, Goroutines: m.Goroutines}
	results := regionFanOut.Run(regions, &m.CommandCounter, func(region string) error {
		if err := m.processRegion(accountID, creds, region); err != nil {
			m.modLog.Errorf("%s/%s: %s", accountID, region, err)
			return err
		}
		return nil
	})
	if failed := internal.Failures(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d regions failed in %s", len(failed), len(results), accountID)
	}
	return nil
}

func (m *VpcsModule) processRegion(accountID string, creds aws.Credentials, region string) error {
	ec2Client := m.EC2ClientFactory(creds, region)
	vpcs, err := sdk.EC2DefaultVpcs(ec2Client, region)
	if err != nil {
		return err
	}

	for _, vpc := range vpcs {
		vpcID := aws.ToString(vpc.VpcId)
		result := m.processVpc(ec2Client, region, vpcID)
		m.mu.Lock()
		m.output.Body = append(m.output.Body, []string{
			accountID,
			region,
			vpcID,
			aws.ToString(vpc.CidrBlock),
			result,
		})
		m.mu.Unlock()
	}
	return nil
}

func (m *VpcsModule) processVpc(ec2Client sdk.EC2ClientInterface, region string, vpcID string) string {
	enis, err := sdk.EC2NetworkInterfacesByVpc(ec2Client, region, vpcID)
	if err != nil {
		return "error: " + err.Error()
	}
	if len(enis) > 0 {
		return fmt.Sprintf("skipped, %d network interfaces in use", len(enis))
	}
	if !m.Force {
		return "would delete"
	}
	if err := m.deleteVpc(ec2Client, region, vpcID); err != nil {
		return "error: " + err.Error()
	}
	return "deleted"
}

// deleteVpc tears down the VPC dependencies in order: subnets, then internet
// gateways, then the VPC itself.
func (m *VpcsModule) deleteVpc(ec2Client sdk.EC2ClientInterface, region string, vpcID string) error {
	subnets, err := sdk.EC2SubnetsByVpc(ec2Client, region, vpcID)
	if err != nil {
		return err
	}
	for _, subnet := range subnets {
		if err := sdk.EC2DeleteSubnet(ec2Client, region, aws.ToString(subnet.SubnetId)); err != nil {
			return fmt.Errorf("delete subnet %s: %w", aws.ToString(subnet.SubnetId), err)
		}
	}

	gateways, err := sdk.EC2InternetGatewaysByVpc(ec2Client, region, vpcID)
	if err != nil {
		return err
	}
	for _, gateway := range gateways {
		if err := sdk.EC2DeleteInternetGateway(ec2Client, region, vpcID, aws.ToString(gateway.InternetGatewayId)); err != nil {
			return fmt.Errorf("delete internet gateway %s: %w", aws.ToString(gateway.InternetGatewayId), err)
		}
	}

	if err := sdk.EC2DeleteVpc(ec2Client, region, vpcID); err != nil {
		return fmt.Errorf("delete vpc %s: %w", vpcID, err)
	}
	return nil
}
