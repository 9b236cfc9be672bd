package aws

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/globals"
	"github.com/rightstart-io/rightstart/internal"
)

func testCaller() sts.GetCallerIdentityOutput {
	return sts.GetCallerIdentityOutput{
		Account: aws.String("111111111111"),
		Arn:     aws.String("arn:aws:iam::111111111111:user/admin"),
		UserId:  aws.String("AIDAMOCKEDUSERID"),
	}
}

func TestRoleToCreate(t *testing.T) {
	tests := []struct {
		name         string
		status       RoleBootstrapStatus
		wantExisting string
		wantMissing  string
		wantErr      error
	}{
		{
			name:   "both roles present means nothing to do",
			status: RoleBootstrapStatus{OrgAccessRole: true, CtExecutionRole: true},
		},
		{
			name:         "only org access role present",
			status:       RoleBootstrapStatus{OrgAccessRole: true},
			wantExisting: globals.ORG_ACCESS_ROLE_NAME,
			wantMissing:  globals.CT_EXECUTION_ROLE_NAME,
		},
		{
			name:         "only execution role present",
			status:       RoleBootstrapStatus{CtExecutionRole: true},
			wantExisting: globals.CT_EXECUTION_ROLE_NAME,
			wantMissing:  globals.ORG_ACCESS_ROLE_NAME,
		},
		{
			name:    "neither role present is unrecoverable",
			status:  RoleBootstrapStatus{},
			wantErr: ErrBothRolesMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing, missing, err := tt.status.RoleToCreate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if existing != tt.wantExisting {
				t.Errorf("expected existing %q, got %q", tt.wantExisting, existing)
			}
			if missing != tt.wantMissing {
				t.Errorf("expected missing %q, got %q", tt.wantMissing, missing)
			}
		})
	}
}

func TestBootstrapAccountCreatesMissingRole(t *testing.T) {
	iamClient := &sdk.MockedIAMClient{}
	m := RolesModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		STSClient: &sdk.MockedSTSClient{
			DenyRoles: []string{sdk.RoleArn("222222222222", globals.CT_EXECUTION_ROLE_NAME)},
		},
		IAMClientFactory: func(creds aws.Credentials) sdk.IAMClientInterface { return iamClient },
		Caller:           testCaller(),
		AWSProfile:       "unittest",
		Goroutines:       3,
	}

	result, err := m.BootstrapAccount("222222222222")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result != "created "+globals.CT_EXECUTION_ROLE_NAME {
		t.Errorf("unexpected result %q", result)
	}
	if len(iamClient.CreatedRoles) != 1 || iamClient.CreatedRoles[0] != globals.CT_EXECUTION_ROLE_NAME {
		t.Errorf("expected %s to be created, got %v", globals.CT_EXECUTION_ROLE_NAME, iamClient.CreatedRoles)
	}
	if len(iamClient.AttachedArns) != 1 || iamClient.AttachedArns[0] != globals.ADMINISTRATOR_ACCESS_POLICY_ARN {
		t.Errorf("expected AdministratorAccess to be attached, got %v", iamClient.AttachedArns)
	}
}

func TestBootstrapAccountBothRolesPresent(t *testing.T) {
	iamClient := &sdk.MockedIAMClient{}
	m := RolesModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		STSClient:           &sdk.MockedSTSClient{},
		IAMClientFactory:    func(creds aws.Credentials) sdk.IAMClientInterface { return iamClient },
		Caller:              testCaller(),
		AWSProfile:          "unittest",
	}

	result, err := m.BootstrapAccount("333333333333")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result != "both roles present" {
		t.Errorf("unexpected result %q", result)
	}
	if len(iamClient.CreatedRoles) != 0 {
		t.Errorf("expected no roles created, got %v", iamClient.CreatedRoles)
	}
}

func TestBootstrapAccountBothRolesMissing(t *testing.T) {
	m := RolesModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		STSClient: &sdk.MockedSTSClient{
			DenyRoles: []string{
				sdk.RoleArn("222222222222", globals.ORG_ACCESS_ROLE_NAME),
				sdk.RoleArn("222222222222", globals.CT_EXECUTION_ROLE_NAME),
			},
		},
		IAMClientFactory: func(creds aws.Credentials) sdk.IAMClientInterface { return &sdk.MockedIAMClient{} },
		Caller:           testCaller(),
		AWSProfile:       "unittest",
	}

	result, err := m.BootstrapAccount("222222222222")
	if !errors.Is(err, ErrBothRolesMissing) {
		t.Fatalf("expected ErrBothRolesMissing, got %v", err)
	}
	if result != "unrecoverable" {
		t.Errorf("unexpected result %q", result)
	}
}

// throttlingSTSClient fails every AssumeRole with a non-authorization error.
type throttlingSTSClient struct {
	sdk.MockedSTSClient
}

func (c *throttlingSTSClient) AssumeRole(ctx context.Context, input *sts.AssumeRoleInput, options ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	return nil, fmt.Errorf("operation error STS: AssumeRole, https response error StatusCode: 400, api error ThrottlingException: Rate exceeded")
}

func TestCheckRoleStatusPropagatesRemoteErrors(t *testing.T) {
	m := RolesModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		STSClient:           &throttlingSTSClient{},
		IAMClientFactory:    func(creds aws.Credentials) sdk.IAMClientInterface { return &sdk.MockedIAMClient{} },
		Caller:              testCaller(),
		AWSProfile:          "unittest",
	}

	_, err := m.CheckRoleStatus("222222222222")
	if err == nil {
		t.Fatal("expected the throttle to surface as an error")
	}
	if errors.Is(err, ErrBothRolesMissing) {
		t.Errorf("throttle must not be reported as missing roles: %v", err)
	}

	result, err := m.BootstrapAccount("222222222222")
	if err == nil {
		t.Fatal("expected the throttle to fail the bootstrap")
	}
	if errors.Is(err, ErrBothRolesMissing) {
		t.Errorf("throttle must not be reported as missing roles: %v", err)
	}
	if result != "failed" {
		t.Errorf("unexpected result %q", result)
	}
}

func TestBootstrapAccountDryRunMakesNoChanges(t *testing.T) {
	iamClient := &sdk.MockedIAMClient{}
	orgClient := &sdk.MockedOrganizationsClient{}
	m := RolesModule{
		OrganizationsClient: orgClient,
		STSClient: &sdk.MockedSTSClient{
			DenyRoles: []string{sdk.RoleArn("222222222222", globals.ORG_ACCESS_ROLE_NAME)},
		},
		IAMClientFactory: func(creds aws.Credentials) sdk.IAMClientInterface { return iamClient },
		Caller:           testCaller(),
		AWSProfile:       "unittest",
		DryRun:           true,
	}

	result, err := m.BootstrapAccount("222222222222")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := fmt.Sprintf("would create %s via %s", globals.ORG_ACCESS_ROLE_NAME, globals.CT_EXECUTION_ROLE_NAME)
	if result != want {
		t.Errorf("expected %q, got %q", want, result)
	}
	if len(iamClient.CreatedRoles) != 0 {
		t.Errorf("dry run created roles: %v", iamClient.CreatedRoles)
	}
	if len(orgClient.Moves) != 0 {
		t.Errorf("dry run moved accounts: %v", orgClient.Moves)
	}
}

// scpFlakyIAMClient fails CreateRole with a service control policy denial a
// fixed number of times, then behaves normally.
type scpFlakyIAMClient struct {
	sdk.MockedIAMClient
	failures int
}

func (c *scpFlakyIAMClient) CreateRole(ctx context.Context, input *iam.CreateRoleInput, options ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	if c.failures > 0 {
		c.failures--
		return nil, fmt.Errorf("api error AccessDenied: User is not authorized to perform: iam:CreateRole with an explicit deny in a service control policy")
	}
	return c.MockedIAMClient.CreateRole(ctx, input, options...)
}

func TestBootstrapRetriesUnderOrgRootOnSCPDeny(t *testing.T) {
	iamClient := &scpFlakyIAMClient{failures: 1}
	orgClient := &sdk.MockedOrganizationsClient{}
	m := RolesModule{
		OrganizationsClient: orgClient,
		STSClient: &sdk.MockedSTSClient{
			DenyRoles: []string{sdk.RoleArn("333333333333", globals.ORG_ACCESS_ROLE_NAME)},
		},
		IAMClientFactory: func(creds aws.Credentials) sdk.IAMClientInterface { return iamClient },
		Caller:           testCaller(),
		AWSProfile:       "unittest",
	}

	result, err := m.BootstrapAccount("333333333333")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result != "created "+globals.ORG_ACCESS_ROLE_NAME {
		t.Errorf("unexpected result %q", result)
	}

	wantMoves := []string{
		"333333333333:ou-0000-bbbbbbbb->r-0000",
		"333333333333:r-0000->ou-0000-bbbbbbbb",
	}
	if len(orgClient.Moves) != len(wantMoves) {
		t.Fatalf("expected moves %v, got %v", wantMoves, orgClient.Moves)
	}
	for i := range wantMoves {
		if orgClient.Moves[i] != wantMoves[i] {
			t.Errorf("move %d: expected %s, got %s", i, wantMoves[i], orgClient.Moves[i])
		}
	}
	if orgClient.Parents["333333333333"] != "ou-0000-bbbbbbbb" {
		t.Errorf("account was not restored to its OU, parent is %s", orgClient.Parents["333333333333"])
	}
}

func TestBootstrapGivesUpAfterSecondSCPDeny(t *testing.T) {
	iamClient := &scpFlakyIAMClient{failures: 2}
	orgClient := &sdk.MockedOrganizationsClient{}
	m := RolesModule{
		OrganizationsClient: orgClient,
		STSClient: &sdk.MockedSTSClient{
			DenyRoles: []string{sdk.RoleArn("333333333333", globals.ORG_ACCESS_ROLE_NAME)},
		},
		IAMClientFactory: func(creds aws.Credentials) sdk.IAMClientInterface { return iamClient },
		Caller:           testCaller(),
		AWSProfile:       "unittest",
	}

	_, err := m.BootstrapAccount("333333333333")
	if err == nil {
		t.Fatal("expected the second denial to surface as an error")
	}
	if !IsSCPExplicitDeny(err) {
		t.Errorf("expected an SCP denial, got %s", err)
	}
	// Even on failure the account goes back where it came from.
	if orgClient.Parents["333333333333"] != "ou-0000-bbbbbbbb" {
		t.Errorf("account was not restored to its OU, parent is %s", orgClient.Parents["333333333333"])
	}
}

func TestExecuteOnAccountInOrgRootRestoresOnFailure(t *testing.T) {
	orgClient := &sdk.MockedOrganizationsClient{}
	m := RolesModule{
		OrganizationsClient: orgClient,
		Caller:              testCaller(),
		AWSProfile:          "unittest",
	}

	actionErr := errors.New("boom")
	err := m.executeOnAccountInOrgRoot("222222222222", func() error {
		if orgClient.Parents["222222222222"] != "r-0000" {
			t.Errorf("action did not run under the organization root")
		}
		return actionErr
	})
	if !errors.Is(err, actionErr) {
		t.Fatalf("expected the action error, got %v", err)
	}
	if orgClient.Parents["222222222222"] != "ou-0000-aaaaaaaa" {
		t.Errorf("account was not restored, parent is %s", orgClient.Parents["222222222222"])
	}
}

func TestExecuteOnAccountAlreadyUnderRootSkipsMoves(t *testing.T) {
	orgClient := &sdk.MockedOrganizationsClient{}
	m := RolesModule{
		OrganizationsClient: orgClient,
		Caller:              testCaller(),
		AWSProfile:          "unittest",
	}

	ran := false
	err := m.executeOnAccountInOrgRoot("111111111111", func() error {
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("expected the action to run cleanly, err=%v ran=%t", err, ran)
	}
	if len(orgClient.Moves) != 0 {
		t.Errorf("expected no moves, got %v", orgClient.Moves)
	}
}

func TestCreateRolesSkipsManagementAccount(t *testing.T) {
	internal.MockFileSystem(true)
	defer internal.MockFileSystem(false)

	stsClient := &sdk.MockedSTSClient{
		DenyRoles: []string{sdk.RoleArn("222222222222", globals.CT_EXECUTION_ROLE_NAME)},
	}
	iamClient := &sdk.MockedIAMClient{}
	m := RolesModule{
		OrganizationsClient: &sdk.MockedOrganizationsClient{},
		STSClient:           stsClient,
		IAMClientFactory:    func(creds aws.Credentials) sdk.IAMClientInterface { return iamClient },
		Caller:              testCaller(),
		AWSProfile:          "unittest",
		Goroutines:          2,
	}
	m.CreateRoles("rightstart-output", 1)

	if len(m.output.Body) != 2 {
		t.Fatalf("expected rows for the 2 member accounts, got %d", len(m.output.Body))
	}
	for _, row := range m.output.Body {
		if row[1] == "111111111111" {
			t.Errorf("management account must not be bootstrapped")
		}
	}
	if len(iamClient.CreatedRoles) != 1 || iamClient.CreatedRoles[0] != globals.CT_EXECUTION_ROLE_NAME {
		t.Errorf("expected one created role, got %v", iamClient.CreatedRoles)
	}
}
