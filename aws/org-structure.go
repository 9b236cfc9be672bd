package aws

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/internal"
)

// maxOrgDepth bounds the OU recursion. The Organizations service caps OU
// nesting at five levels; anything deeper means a cycle or a corrupted
// listing, and the walk aborts rather than spinning.
const maxOrgDepth = 16

type Account struct {
	ID     string
	Arn    string
	Name   string
	Email  string
	Status string
}

// OrgNode is one organizational unit (or the root) with the accounts parked
// directly under it.
type OrgNode struct {
	ID       string
	Name     string
	Accounts []Account
	Children []*OrgNode
}

type OrgStructure struct {
	OrganizationID      string
	ManagementAccountID string
	Root                *OrgNode
}

// GetOrgStructure walks the organization tree from the root down. Accounts
// parked directly under the organization root are transient (mid-move or
// freshly invited) and are left out of the walk on purpose.
func GetOrgStructure(client sdk.OrganizationsClientInterface, callerAccountID string) (*OrgStructure, error) {
	organization, err := sdk.CachedOrganizationsDescribeOrganization(client, callerAccountID)
	if err != nil {
		return nil, fmt.Errorf("describe organization: %w", err)
	}

	rootID, err := sdk.OrganizationsGetRootId(client)
	if err != nil {
		return nil, fmt.Errorf("list roots: %w", err)
	}

	root := &OrgNode{ID: rootID, Name: "Root"}
	ous, err := sdk.CachedOrganizationsListOrganizationalUnitsForParent(client, callerAccountID, rootID)
	if err != nil {
		return nil, err
	}
	for _, ou := range ous {
		child, err := getOrgNode(client, callerAccountID, aws.ToString(ou.Id), aws.ToString(ou.Name), 1)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}

	return &OrgStructure{
		OrganizationID:      aws.ToString(organization.Id),
		ManagementAccountID: aws.ToString(organization.MasterAccountId),
		Root:                root,
	}, nil
}

func getOrgNode(client sdk.OrganizationsClientInterface, callerAccountID string, ouID string, ouName string, depth int) (*OrgNode, error) {
	if depth > maxOrgDepth {
		return nil, fmt.Errorf("organizational unit nesting exceeds %d levels at %s", maxOrgDepth, ouID)
	}

	node := &OrgNode{ID: ouID, Name: ouName}

	accounts, err := sdk.CachedOrganizationsListAccountsForParent(client, callerAccountID, ouID)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		node.Accounts = append(node.Accounts, Account{
			ID:     aws.ToString(account.Id),
			Arn:    aws.ToString(account.Arn),
			Name:   aws.ToString(account.Name),
			Email:  aws.ToString(account.Email),
			Status: string(account.Status),
		})
	}

	ous, err := sdk.CachedOrganizationsListOrganizationalUnitsForParent(client, callerAccountID, ouID)
	if err != nil {
		return nil, err
	}
	for _, ou := range ous {
		child, err := getOrgNode(client, callerAccountID, aws.ToString(ou.Id), aws.ToString(ou.Name), depth+1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// AllAccounts flattens the tree. Each account appears exactly once even if
// the same listing shows up on multiple pages.
func (s *OrgStructure) AllAccounts() []Account {
	seen := map[string]bool{}
	var accounts []Account
	var walk func(node *OrgNode)
	walk = func(node *OrgNode) {
		for _, account := range node.Accounts {
			if !seen[account.ID] {
				seen[account.ID] = true
				accounts = append(accounts, account)
			}
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(s.Root)
	return accounts
}

// AccountIDs is AllAccounts projected to the id column, for fan-out unit
// lists.
func (s *OrgStructure) AccountIDs() []string {
	var ids []string
	for _, account := range s.AllAccounts() {
		ids = append(ids, account.ID)
	}
	return ids
}

// AccountsByOUPath returns each account with the slash-joined OU path above
// it, for the table view.
func (s *OrgStructure) AccountsByOUPath() map[string][]Account {
	paths := map[string][]Account{}
	var walk func(node *OrgNode, prefix string)
	walk = func(node *OrgNode, prefix string) {
		path := node.Name
		if prefix != "" {
			path = prefix + "/" + node.Name
		}
		if len(node.Accounts) > 0 {
			paths[path] = append(paths[path], node.Accounts...)
		}
		for _, child := range node.Children {
			walk(child, path)
		}
	}
	walk(s.Root, "")
	return paths
}

type OrgModule struct {
	OrganizationsClient sdk.OrganizationsClientInterface
	Caller              sts.GetCallerIdentityOutput
	AWSProfile          string
	Goroutines          int
	WrapTable           bool

	output internal.OutputData2
	modLog *logrus.Entry
}

// PrintOrgStructure renders the tree to the console and writes the account
// inventory table.
func (m *OrgModule) PrintOrgStructure(outputDirectory string, verbosity int) {
	m.output.Verbosity = verbosity
	m.output.Directory = outputDirectory
	m.output.CallingModule = "show-org"
	m.modLog = internal.TxtLog.WithFields(logrus.Fields{
		"module": m.output.CallingModule,
	})

	fmt.Printf("[%s][%s] Enumerating the organization for account %s.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), aws.ToString(m.Caller.Account))

	structure, err := GetOrgStructure(m.OrganizationsClient, aws.ToString(m.Caller.Account))
	if err != nil {
		m.modLog.Error(err.Error())
		fmt.Printf("[%s][%s] Could not enumerate the organization: %s\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), err)
		return
	}

	fmt.Printf("[%s][%s] Organization %s (management account %s)\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), structure.OrganizationID, structure.ManagementAccountID)
	m.printNode(structure.Root, 0)

	m.output.Headers = []string{
		"Account Name",
		"Account ID",
		"Email",
		"Status",
		"Organizational Unit",
	}
	for path, accounts := range structure.AccountsByOUPath() {
		for _, account := range accounts {
			m.output.Body = append(m.output.Body, []string{
				account.Name,
				account.ID,
				account.Email,
				account.Status,
				path,
			})
		}
	}

	if len(m.output.Body) > 0 {
		m.output.FilePath = filepath.Join(m.output.Directory, "aws", internal.BuildAWSPath(m.Caller))
		internal.OutputSelector(verbosity, "table", m.output.Headers, m.output.Body, m.output.FilePath, m.output.CallingModule, m.output.CallingModule, m.WrapTable, m.AWSProfile)
		fmt.Printf("[%s][%s] %s accounts found.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), green(len(m.output.Body)))
	} else {
		fmt.Printf("[%s][%s] No accounts found under any organizational unit.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile))
	}

	m.reportParkedAccounts(structure)
}

// reportParkedAccounts flags accounts sitting directly under the root,
// outside every OU. They are usually mid-move leftovers and they run with no
// service control policies applied.
func (m *OrgModule) reportParkedAccounts(structure *OrgStructure) {
	allAccounts, err := sdk.CachedOrganizationsListAccounts(m.OrganizationsClient, aws.ToString(m.Caller.Account))
	if err != nil {
		m.modLog.Error(err.Error())
		return
	}

	walked := map[string]bool{}
	for _, account := range structure.AllAccounts() {
		walked[account.ID] = true
	}
	for _, account := range allAccounts {
		accountID := aws.ToString(account.Id)
		if walked[accountID] || accountID == structure.ManagementAccountID {
			continue
		}
		fmt.Printf("[%s][%s] Account %s (%s) sits directly under the organization root with no OU or SCPs.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), aws.ToString(account.Name), accountID)
	}
}

func (m *OrgModule) printNode(node *OrgNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s %s (%s)\n", indent, magenta("➜"), node.Name, node.ID)
	for _, account := range node.Accounts {
		fmt.Printf("%s  %s %s (%s)\n", indent, green("•"), account.Name, account.ID)
	}
	for _, child := range node.Children {
		m.printNode(child, depth+1)
	}
}
