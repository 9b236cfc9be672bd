package aws

import (
	"errors"
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

// maxBootstrapAttempts bounds the per-account bootstrap loop: one attempt in
// place, one retry from under the organization root where no service control
// policy applies. There is no third position to retry from.
const maxBootstrapAttempts = 2

// ErrBothRolesMissing means an account exposes neither assumable baseline
// role, so there is no credential path left to create one with.
var ErrBothRolesMissing = errors.New("neither baseline role is assumable; account needs manual intervention")

// RoleBootstrapStatus records which baseline roles an account exposes to the
// management account. "Exposes" means assumable, not merely existing.
type RoleBootstrapStatus struct {
	OrgAccessRole   bool
	CtExecutionRole bool
}

// RoleToCreate resolves the status into the next bootstrap step: which role
// to assume and which role to create through it. Both empty means nothing to
// do.
func (s RoleBootstrapStatus) RoleToCreate() (existingRole string, missingRole string, err error) {
	switch {
	case s.OrgAccessRole && s.CtExecutionRole:
		return "", "", nil
	case s.OrgAccessRole:
		return globals.ORG_ACCESS_ROLE_NAME, globals.CT_EXECUTION_ROLE_NAME, nil
	case s.CtExecutionRole:
		return globals.CT_EXECUTION_ROLE_NAME, globals.ORG_ACCESS_ROLE_NAME, nil
	default:
		return "", "", ErrBothRolesMissing
	}
}

type RolesModule struct {
	OrganizationsClient sdk.OrganizationsClientInterface
	STSClient           sdk.STSClientInterface
	IAMClientFactory    func(creds aws.Credentials) sdk.IAMClientInterface

	Caller         sts.GetCallerIdentityOutput
	AWSProfile     string
	Goroutines     int
	WrapTable      bool
	DryRun         bool
	CommandCounter console.CommandCounter

	output internal.OutputData2
	modLog *logrus.Entry
	mu     sync.Mutex
}

func (m *RolesModule) logger(moduleName string) *logrus.Entry {
	if m.modLog == nil {
		m.modLog = internal.TxtLog.WithFields(logrus.Fields{
			"module": moduleName,
		})
	}
	return m.modLog
}

// CheckRoleStatus probes both baseline roles in one account by attempting to
// assume them. AccessDenied means the role is missing or unusable from here;
// any other failure says nothing about the role and propagates as the unit's
// error instead of being folded into the status.
func (m *RolesModule) CheckRoleStatus(accountID string) (RoleBootstrapStatus, error) {
	var status RoleBootstrapStatus
	var err error
	if status.OrgAccessRole, err = m.probeRole(accountID, globals.ORG_ACCESS_ROLE_NAME); err != nil {
		return status, err
	}
	if status.CtExecutionRole, err = m.probeRole(accountID, globals.CT_EXECUTION_ROLE_NAME); err != nil {
		return status, err
	}
	return status, nil
}

func (m *RolesModule) probeRole(accountID string, roleName string) (bool, error) {
	_, err := AssumeRoleCredentials(m.STSClient, accountID, roleName)
	if err == nil {
		return true, nil
	}
	if IsAccessDenied(err) {
		return false, nil
	}
	return false, fmt.Errorf("assume %s in %s: %w", roleName, accountID, err)
}

// PrintRoleStatus fans out across every member account and tables which
// baseline roles each one exposes, plus the action a create-roles run would
// take.
func (m *RolesModule) PrintRoleStatus(outputDirectory string, verbosity int) {
	m.output.Verbosity = verbosity
	m.output.Directory = outputDirectory
	m.output.CallingModule = "check-roles"
	m.logger(m.output.CallingModule)

	fmt.Printf("[%s][%s] Checking baseline roles in every member account.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile))

	structure, err := GetOrgStructure(m.OrganizationsClient, aws.ToString(m.Caller.Account))
	if err != nil {
		m.modLog.Error(err.Error())
		fmt.Printf("[%s][%s] Could not enumerate the organization: %s\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), err)
		return
	}
	accountsByID := map[string]Account{}
	for _, account := range structure.AllAccounts() {
		accountsByID[account.ID] = account
	}

	done := make(chan bool)
	go console.SpinUntil(m.output.CallingModule, &m.CommandCounter, done, "accounts")

	fanOut := internal.FanOut{CallingModule: m.output.CallingModule, Goroutines: m.Goroutines}
	fanOut.Run(m.memberAccountIDs(structure), &m.CommandCounter, func(accountID string) error {
		status, err := m.CheckRoleStatus(accountID)
		if err != nil {
			m.mu.Lock()
			m.output.Body = append(m.output.Body, []string{
				accountsByID[accountID].Name,
				accountID,
				"-",
				"-",
				"error: " + err.Error(),
			})
			m.mu.Unlock()
			return err
		}
		action := "none"
		_, missingRole, err := status.RoleToCreate()
		if err != nil {
			action = "MANUAL INTERVENTION"
		} else if missingRole != "" {
			action = "create " + missingRole
		}
		m.mu.Lock()
		m.output.Body = append(m.output.Body, []string{
			accountsByID[accountID].Name,
			accountID,
			yesNo(status.OrgAccessRole),
			yesNo(status.CtExecutionRole),
			action,
		})
		m.mu.Unlock()
		return nil
	})

	done <- true
	<-done

	m.output.Headers = []string{
		"Account Name",
		"Account ID",
		globals.ORG_ACCESS_ROLE_NAME,
		globals.CT_EXECUTION_ROLE_NAME,
		"Action",
	}
	m.output.FilePath = filepath.Join(m.output.Directory, "aws", internal.BuildAWSPath(m.Caller))
	internal.OutputSelector(verbosity, "table", m.output.Headers, m.output.Body, m.output.FilePath, m.output.CallingModule, m.output.CallingModule, m.WrapTable, m.AWSProfile)
}

// CreateRoles fans out across member accounts and bootstraps the missing
// baseline role wherever exactly one is assumable. Accounts exposing neither
// role are reported, not retried.
func (m *RolesModule) CreateRoles(outputDirectory string, verbosity int) {
	m.output.Verbosity = verbosity
	m.output.Directory = outputDirectory
	m.output.CallingModule = "create-roles"
	m.logger(m.output.CallingModule)

	if m.DryRun {
		fmt.Printf("[%s][%s] Dry run: no roles will be created and no accounts will be moved.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile))
	}

	structure, err := GetOrgStructure(m.OrganizationsClient, aws.ToString(m.Caller.Account))
	if err != nil {
		m.modLog.Error(err.Error())
		fmt.Printf("[%s][%s] Could not enumerate the organization: %s\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), err)
		return
	}
	accountsByID := map[string]Account{}
	for _, account := range structure.AllAccounts() {
		accountsByID[account.ID] = account
	}

	done := make(chan bool)
	go console.SpinUntil(m.output.CallingModule, &m.CommandCounter, done, "accounts")

	fanOut := internal.FanOut{CallingModule: m.output.CallingModule, Goroutines: m.Goroutines}
	results := fanOut.Run(m.memberAccountIDs(structure), &m.CommandCounter, func(accountID string) error {
		result, err := m.BootstrapAccount(accountID)
		m.mu.Lock()
		m.output.Body = append(m.output.Body, []string{
			accountsByID[accountID].Name,
			accountID,
			result,
			errString(err),
		})
		m.mu.Unlock()
		return err
	})

	done <- true
	<-done

	m.output.Headers = []string{
		"Account Name",
		"Account ID",
		"Result",
		"Error",
	}
	m.output.FilePath = filepath.Join(m.output.Directory, "aws", internal.BuildAWSPath(m.Caller))
	internal.OutputSelector(verbosity, "table", m.output.Headers, m.output.Body, m.output.FilePath, m.output.CallingModule, m.output.CallingModule, m.WrapTable, m.AWSProfile)

	if failed := internal.Failures(results); len(failed) > 0 {
		fmt.Printf("[%s][%s] %s of %d accounts could not be bootstrapped.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), red(len(failed)), len(results))
	}
}

// BootstrapAccount drives the state machine for one account and returns a
// short human-readable result.
func (m *RolesModule) BootstrapAccount(accountID string) (string, error) {
	status, err := m.CheckRoleStatus(accountID)
	if err != nil {
		return "failed", err
	}
	existingRole, missingRole, err := status.RoleToCreate()
	if err != nil {
		return "unrecoverable", fmt.Errorf("account %s: %w", accountID, err)
	}
	if missingRole == "" {
		return "both roles present", nil
	}
	if m.DryRun {
		return fmt.Sprintf("would create %s via %s", missingRole, existingRole), nil
	}
	if err := m.bootstrapRole(accountID, existingRole, missingRole); err != nil {
		return "failed", err
	}
	return "created " + missingRole, nil
}

func (m *RolesModule) bootstrapRole(accountID string, existingRole string, missingRole string) error {
	var err error
	for attempt := 1; attempt <= maxBootstrapAttempts; attempt++ {
		if attempt == 1 {
			err = m.createRoleViaExisting(accountID, existingRole, missingRole)
		} else {
			// A policy above the account blocked the first attempt. SCPs do
			// not apply to accounts parked directly under the organization
			// root, so retry from there.
			fmt.Printf("[%s][%s] Account %s is blocked by a service control policy, retrying under the organization root.\n", cyan(m.output.CallingModule), cyan(m.AWSProfile), accountID)
			err = m.executeOnAccountInOrgRoot(accountID, func() error {
				return m.createRoleViaExisting(accountID, existingRole, missingRole)
			})
		}
		if err == nil || !IsSCPExplicitDeny(err) {
			return err
		}
	}
	return err
}

func (m *RolesModule) createRoleViaExisting(accountID string, existingRole string, missingRole string) error {
	creds, err := AssumeRoleCredentials(m.STSClient, accountID, existingRole)
	if err != nil {
		return fmt.Errorf("assume %s in %s: %w", existingRole, accountID, err)
	}
	iamClient := m.IAMClientFactory(creds)

	// The role may exist but not be assumable from here (broken trust
	// policy). Creating on top of it would fail, so report instead.
	exists, err := sdk.IAMRoleExists(iamClient, missingRole)
	if err != nil {
		return fmt.Errorf("get role %s in %s: %w", missingRole, accountID, err)
	}
	if exists {
		m.modLog.Warnf("%s exists in %s but is not assumable, leaving it alone", missingRole, accountID)
		return nil
	}

	if err := sdk.IAMCreateAdminRole(iamClient, aws.ToString(m.Caller.Account), missingRole); err != nil {
		return fmt.Errorf("create role %s in %s: %w", missingRole, accountID, err)
	}
	return nil
}

// executeOnAccountInOrgRoot moves an account directly under the organization
// root, runs the action, and moves it back. The restore runs even when the
// action fails. A failed restore is loud: an account left under the root has
// no service control policies applied to it.
func (m *RolesModule) executeOnAccountInOrgRoot(accountID string, action func() error) error {
	parent, err := sdk.OrganizationsGetParent(m.OrganizationsClient, accountID)
	if err != nil {
		return fmt.Errorf("resolve parent of %s: %w", accountID, err)
	}
	rootID, err := sdk.OrganizationsGetRootId(m.OrganizationsClient)
	if err != nil {
		return fmt.Errorf("resolve organization root: %w", err)
	}
	originalParentID := aws.ToString(parent.Id)
	if originalParentID == rootID {
		return action()
	}

	if err := sdk.OrganizationsMoveAccount(m.OrganizationsClient, accountID, originalParentID, rootID); err != nil {
		return fmt.Errorf("move %s under organization root: %w", accountID, err)
	}
	defer func() {
		if restoreErr := sdk.OrganizationsMoveAccount(m.OrganizationsClient, accountID, rootID, originalParentID); restoreErr != nil {
			m.logger(m.output.CallingModule).Errorf("could not move account %s back under %s: %s", accountID, originalParentID, restoreErr)
			fmt.Printf("[%s][%s] ACCOUNT %s IS STILL UNDER THE ORGANIZATION ROOT, move it back to %s manually: %s\n", red(m.output.CallingModule), red(m.AWSProfile), accountID, originalParentID, restoreErr)
		}
	}()

	return action()
}

// memberAccountIDs is every account except the management account: the
// baseline roles trust the management account, so it never carries them.
func (m *RolesModule) memberAccountIDs(structure *OrgStructure) []string {
	var ids []string
	for _, account := range structure.AllAccounts() {
		if account.ID == aws.ToString(m.Caller.Account) {
			continue
		}
		ids = append(ids, account.ID)
	}
	return ids
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
