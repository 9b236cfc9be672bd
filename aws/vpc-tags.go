package aws

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	ramTypes "github.com/aws/aws-sdk-go-v2/service/ram/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/console"
	"github.com/rightstart-io/rightstart/globals"
	"github.com/rightstart-io/rightstart/internal"
)

// ValidSubnetTypes are the tier names a shared subnet may carry in its Name
// tag. Subnets named outside this convention are not copied.
var ValidSubnetTypes = []string{"public", "private", "db", "intra"}

var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

// VpcTagsModule copies the networking account's naming onto RAM-shared
// subnets (and their VPC) in every account participating in the share. Tags
// do not cross account boundaries on shared resources, so without this every
// participant sees bare subnet ids. Each shared subnet gets Name, Type, and
// AvailabilityZoneId tags.
type VpcTagsModule struct {
	OrganizationsClient sdk.OrganizationsClientInterface
	STSClient           sdk.STSClientInterface
	EC2ClientFactory    func(creds aws.Credentials, region string) sdk.EC2ClientInterface
	RAMClientFactory    func(creds aws.Credentials, region string) sdk.RAMClientInterface

	Caller            sts.GetCallerIdentityOutput
	AWSProfile        string
	Goroutines        int
	WrapTable         bool
	DryRun            bool
	NetworkingAccount string
	VpcName           string
	Region            string
	CommandCounter    console.CommandCounter

	output internal.OutputData2
	modLog *logrus.Entry
	mu     sync.Mutex
}

// ParseSubnetName splits a subnet Name tag laid out as
// <vpc-name>-<type>-<az-id>. The AZ id itself contains a hyphen
// (use1-az1), so the type is matched against the known tier names rather
// than split positionally.
func ParseSubnetName(name string, vpcName string) (subnetType string, azID string, ok bool) {
	rest, found := strings.CutPrefix(name, vpcName+"-")
	if !found {
		return "", "", false
	}
	for _, tier := range ValidSubnetTypes {
		if after, found := strings.CutPrefix(rest, tier+"-"); found && after != "" {
			return tier, after, true
		}
	}
	return "", "", false
}

// SubnetIDFromArn pulls the subnet id out of a RAM resource association ARN.
func SubnetIDFromArn(arn string) string {
	if idx := strings.LastIndex(arn, "/"); idx >= 0 {
		return arn[idx+1:]
	}
	return arn
}

// CopyVpcTags discovers the share participants through RAM and fans the tag
// copy out across them.
func (m *VpcTagsModule) CopyVpcTags(outputDirectory string, verbosity int) {
	m.output.Verbosity = verbosity
	m.output.Directory = outputDirectory
	m.output.CallingModule = "copy-vpc-tags"
	m.modLog = internal.TxtLog.WithFields(logrus.Fields{
		"module": m.output.CallingModule,
	})

	if m.DryRun {
		fmt.Printf("[%s][%s] Dry run: listing the tags a real run would copy.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile))
	}
	fmt.Printf("[%s][%s] Copying tags for VPC %s shared from account %s.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), m.VpcName, m.NetworkingAccount)

	plan, err := m.buildPlan()
	if err != nil {
		m.modLog.Error(err.Error())
		fmt.Printf("[%s][%s] Could not build the tag copy plan: %s\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), err)
		return
	}
	if len(plan.Subnets) == 0 {
		fmt.Printf("[%s][%s] No shared subnets of VPC %s follow the naming convention, nothing to copy.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), m.VpcName)
		return
	}

	done := make(chan bool)
	go console.SpinUntil(m.output.CallingModule, &m.CommandCounter, done, "accounts")

	fanOut := internal.FanOut{CallingModule: m.output.CallingModule, Goroutines: m.Goroutines}
	fanOut.Run(plan.ParticipantAccountIDs, &m.CommandCounter, func(accountID string) error {
		return m.tagParticipant(accountID, plan)
	})

	done <- true
	<-done

	m.output.Headers = []string{
		"Account ID",
		"Resource ID",
		"Name Tag",
		"Result",
	}
	m.output.FilePath = filepath.Join(m.output.Directory, "aws", internal.BuildAWSPath(m.Caller))
	internal.OutputSelector(verbosity, "table", m.output.Headers, m.output.Body, m.output.FilePath, m.output.CallingModule, m.output.CallingModule, m.WrapTable, m.AWSProfile)
}

// sharedSubnet is what the networking account knows about one shared subnet:
// the tier parsed out of its Name tag and its AZ id. The AZ id is the same in
// every participant; the AZ name is not.
type sharedSubnet struct {
	Type string
	AZID string
}

// tagCopyPlan is everything learned from the networking account before any
// participant is touched.
type tagCopyPlan struct {
	VpcID                 string
	Subnets               map[string]sharedSubnet
	ParticipantAccountIDs []string
}

func (m *VpcTagsModule) buildPlan() (*tagCopyPlan, error) {
	creds, err := AssumeRoleCredentials(m.STSClient, m.NetworkingAccount, globals.ORG_ACCESS_ROLE_NAME)
	if err != nil {
		return nil, fmt.Errorf("assume %s in networking account %s: %w", globals.ORG_ACCESS_ROLE_NAME, m.NetworkingAccount, err)
	}

	ramClient := m.RAMClientFactory(creds, m.Region)
	shares, err := sdk.RAMResourceShares(ramClient, m.Region)
	if err != nil {
		return nil, fmt.Errorf("list resource shares: %w", err)
	}
	if len(shares) == 0 {
		return nil, fmt.Errorf("account %s owns no resource shares in %s", m.NetworkingAccount, m.Region)
	}
	var shareArns []string
	for _, share := range shares {
		shareArns = append(shareArns, aws.ToString(share.ResourceShareArn))
	}

	sharedSubnetIDs, err := m.sharedSubnetIDs(ramClient, shareArns)
	if err != nil {
		return nil, err
	}
	participants, err := m.participantAccountIDs(ramClient, shareArns)
	if err != nil {
		return nil, err
	}

	ec2Client := m.EC2ClientFactory(creds, m.Region)
	vpc, err := sdk.EC2VpcByNameTag(ec2Client, m.Region, m.VpcName)
	if err != nil {
		return nil, err
	}
	vpcID := aws.ToString(vpc.VpcId)

	subnets, err := sdk.EC2SubnetsByVpc(ec2Client, m.Region, vpcID)
	if err != nil {
		return nil, err
	}

	shared := map[string]sharedSubnet{}
	for _, subnet := range subnets {
		subnetID := aws.ToString(subnet.SubnetId)
		if !sharedSubnetIDs[subnetID] {
			continue
		}
		name := sdk.TagValue(subnet.Tags, "Name")
		subnetType, _, ok := ParseSubnetName(name, m.VpcName)
		if !ok {
			m.modLog.Warnf("shared subnet %s has a non-conforming Name tag %q, skipping", subnetID, name)
			continue
		}
		shared[subnetID] = sharedSubnet{
			Type: subnetType,
			AZID: aws.ToString(subnet.AvailabilityZoneId),
		}
	}

	return &tagCopyPlan{
		VpcID:                 vpcID,
		Subnets:               shared,
		ParticipantAccountIDs: participants,
	}, nil
}

func (m *VpcTagsModule) sharedSubnetIDs(ramClient sdk.RAMClientInterface, shareArns []string) (map[string]bool, error) {
	associations, err := sdk.RAMResourceShareAssociations(ramClient, m.Region, ramTypes.ResourceShareAssociationTypeResource, shareArns)
	if err != nil {
		return nil, fmt.Errorf("list resource associations: %w", err)
	}
	subnetIDs := map[string]bool{}
	for _, association := range associations {
		if association.Status != ramTypes.ResourceShareAssociationStatusAssociated {
			continue
		}
		entity := aws.ToString(association.AssociatedEntity)
		if !strings.Contains(entity, ":subnet/") {
			continue
		}
		subnetIDs[SubnetIDFromArn(entity)] = true
	}
	return subnetIDs, nil
}

// participantAccountIDs resolves the share principals to plain account ids.
// An OU principal stands for every account currently under that OU.
func (m *VpcTagsModule) participantAccountIDs(ramClient sdk.RAMClientInterface, shareArns []string) ([]string, error) {
	associations, err := sdk.RAMResourceShareAssociations(ramClient, m.Region, ramTypes.ResourceShareAssociationTypePrincipal, shareArns)
	if err != nil {
		return nil, fmt.Errorf("list principal associations: %w", err)
	}

	var accountIDs []string
	for _, association := range associations {
		if association.Status != ramTypes.ResourceShareAssociationStatusAssociated {
			continue
		}
		principal := aws.ToString(association.AssociatedEntity)
		switch {
		case accountIDPattern.MatchString(principal):
			accountIDs = append(accountIDs, principal)
		case strings.Contains(principal, ":ou/"):
			ouID := principal[strings.LastIndex(principal, "/")+1:]
			accounts, err := sdk.CachedOrganizationsListAccountsForParent(m.OrganizationsClient, aws.ToString(m.Caller.Account), ouID)
			if err != nil {
				return nil, fmt.Errorf("expand OU principal %s: %w", ouID, err)
			}
			for _, account := range accounts {
				accountIDs = append(accountIDs, aws.ToString(account.Id))
			}
		case strings.Contains(principal, ":account/"):
			accountIDs = append(accountIDs, principal[strings.LastIndex(principal, "/")+1:])
		default:
			m.modLog.Warnf("unrecognized share principal %q, skipping", principal)
		}
	}

	// The owner sees its own tags already.
	var participants []string
	for _, accountID := range internal.RemoveDuplicateStr(accountIDs) {
		if accountID != m.NetworkingAccount {
			participants = append(participants, accountID)
		}
	}
	return participants, nil
}

func (m *VpcTagsModule) tagParticipant(accountID string, plan *tagCopyPlan) error {
	creds, err := AssumeRoleCredentials(m.STSClient, accountID, globals.ORG_ACCESS_ROLE_NAME)
	if err != nil {
		return fmt.Errorf("assume %s in %s: %w", globals.ORG_ACCESS_ROLE_NAME, accountID, err)
	}
	ec2Client := m.EC2ClientFactory(creds, m.Region)

	// A participant that has not accepted the share yet cannot see the VPC
	// at all; tagging would throw InvalidVpcID.NotFound.
	if _, err := sdk.EC2VpcById(ec2Client, m.Region, plan.VpcID); err != nil {
		m.addRow(accountID, plan.VpcID, m.VpcName, "shared VPC not visible")
		return fmt.Errorf("shared VPC %s not visible in %s: %w", plan.VpcID, accountID, err)
	}

	// The Name tag is rebuilt with the participant's own AZ name; the same
	// shared subnet can surface under a different zone letter per account.
	subnets, err := sdk.EC2SubnetsByVpc(ec2Client, m.Region, plan.VpcID)
	if err != nil {
		return fmt.Errorf("list subnets of %s in %s: %w", plan.VpcID, accountID, err)
	}
	azNames := map[string]string{}
	for _, subnet := range subnets {
		azNames[aws.ToString(subnet.SubnetId)] = aws.ToString(subnet.AvailabilityZone)
	}

	apply := func(resourceID string, tags map[string]string) error {
		if m.DryRun {
			m.addRow(accountID, resourceID, tags["Name"], "would tag")
			return nil
		}
		if err := sdk.EC2CreateTags(ec2Client, m.Region, resourceID, tags); err != nil {
			m.addRow(accountID, resourceID, tags["Name"], "error: "+err.Error())
			return err
		}
		m.addRow(accountID, resourceID, tags["Name"], "tagged")
		return nil
	}

	var firstErr error
	if err := apply(plan.VpcID, map[string]string{"Name": m.VpcName}); err != nil {
		firstErr = err
	}
	for subnetID, info := range plan.Subnets {
		azName, visible := azNames[subnetID]
		if !visible {
			m.addRow(accountID, subnetID, "", "subnet not visible")
			continue
		}
		tags := map[string]string{
			"Name":               fmt.Sprintf("%s-%s-%s", m.VpcName, info.Type, azName),
			"Type":               info.Type,
			"AvailabilityZoneId": info.AZID,
		}
		if err := apply(subnetID, tags); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *VpcTagsModule) addRow(accountID string, resourceID string, name string, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.output.Body = append(m.output.Body, []string{accountID, resourceID, name, result})
}
