package cli

import (
	"fmt"
	"os"
	"path/filepath"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go/ptr"
	"github.com/fatih/color"
	"github.com/kyokomi/emoji"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rightstart-io/rightstart/aws"
	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/globals"
	"github.com/rightstart-io/rightstart/internal"
)

var (
	cyan             = color.New(color.FgCyan).SprintFunc()
	green            = color.New(color.FgGreen).SprintFunc()
	red              = color.New(color.FgRed).SprintFunc()
	defaultOutputDir = ptr.ToString(internal.GetLogDirPath())

	AWSProfile         string
	AWSOutputDirectory string
	Verbosity          int
	Goroutines         int
	AWSWrapTable       bool
	AWSConfirm         bool

	// command flags
	rolesDryRun        bool
	vpcsForce          bool
	vpcsRegions        []string
	tagsDryRun         bool
	tagsVpcName        string
	tagsNetworkAccount string
	awsRegion          string
	tfAccountID        string
	artifactOutputFile string
	ssoStartURL        string
	ssoRegion          string
	ssoPermissionSets  []string
	ssoProfilePrefix   string
	ssoProfilePostfix  string

	AWSCommands = &cobra.Command{
		Use:   "aws",
		Short: "See \"Available Commands\" for AWS Organization management",
		Long: `
Display the organization tree:
` + os.Args[0] + ` aws show-org --profile management

Check and create the baseline cross-account roles:
` + os.Args[0] + ` aws check-roles --profile management
` + os.Args[0] + ` aws create-roles --profile management

Remove the default VPCs everywhere:
` + os.Args[0] + ` aws process-vpcs --profile management --force`,
		PersistentPreRun: awsPreRun,
	}

	ShowOrgCommand = &cobra.Command{
		Use:     "show-org",
		Aliases: []string{"org", "show-organization"},
		Short:   "Display the organization tree of OUs and accounts",
		Run:     runShowOrgCommand,
	}

	CheckRolesCommand = &cobra.Command{
		Use:   "check-roles",
		Short: "Check which baseline roles each member account exposes",
		Run:   runCheckRolesCommand,
	}

	CreateRolesCommand = &cobra.Command{
		Use:   "create-roles",
		Short: "Create the missing baseline role in each member account",
		Run:   runCreateRolesCommand,
	}

	CheckBaselineCommand = &cobra.Command{
		Use:   "check-baseline",
		Short: "Check each member account for its Terraform state bucket",
		Run:   runCheckBaselineCommand,
	}

	ProcessVpcsCommand = &cobra.Command{
		Use:   "process-vpcs",
		Short: "Report or delete the default VPCs in every member account",
		Run:   runProcessVpcsCommand,
	}

	CopyVpcTagsCommand = &cobra.Command{
		Use:   "copy-vpc-tags",
		Short: "Copy Name tags of RAM-shared subnets into participating accounts",
		Run:   runCopyVpcTagsCommand,
	}

	GenTfBackendCommand = &cobra.Command{
		Use:   "gen-tf-backend",
		Short: "Generate Terraform S3 backend blocks for every active account",
		Run:   runGenTfBackendCommand,
	}

	GenSSOConfigCommand = &cobra.Command{
		Use:   "gen-sso-config",
		Short: "Generate AWS SSO profile blocks for every account",
		Run:   runGenSSOConfigCommand,
	}
)

func awsPreRun(cmd *cobra.Command, args []string) {
	sdk.RegisterOrganizationsTypes()
	loadConfigFile()
	applyRoleNameOverrides()

	if AWSProfile == "" {
		AWSProfile = viper.GetString("aws.profile")
	}
	if AWSProfile == "" {
		AWSProfile = os.Getenv("AWS_PROFILE")
	}
	fmt.Printf("[%s] Using AWS profile: %s\n", cyan(emoji.Sprintf(":sunrise:rightstart %s :sunrise:", cmd.Root().Version)), cyan(AWSProfile))
}

// loadConfigFile pulls optional defaults (profile, sso settings) out of
// ~/.rightstart/config.yaml. A missing file is fine.
func loadConfigFile() {
	logger := internal.NewLogger()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Join(os.Getenv("HOME"), globals.RIGHTSTART_LOG_FILE_DIR_NAME))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.ErrorM(fmt.Sprintf("could not read config file: %s", err), "config")
		}
		return
	}
	logger.InfoM(fmt.Sprintf("Loaded configuration from %s", viper.ConfigFileUsed()), "config")
}

// applyRoleNameOverrides lets the config file rename the baseline roles for
// organizations that provision their own instead of the AWS defaults.
func applyRoleNameOverrides() {
	if name := viper.GetString("roles.org-access"); name != "" {
		globals.ORG_ACCESS_ROLE_NAME = name
	}
	if name := viper.GetString("roles.ct-execution"); name != "" {
		globals.CT_EXECUTION_ROLE_NAME = name
	}
}

func callerAndClients(cmd *cobra.Command) (*aws.RolesModule, bool) {
	orgClient, stsClient, caller, err := aws.InitCallerClients(AWSProfile, cmd.Root().Version)
	if err != nil {
		return nil, false
	}
	return &aws.RolesModule{
		OrganizationsClient: orgClient,
		STSClient:           stsClient,
		IAMClientFactory:    aws.DefaultIAMClientFactory,
		Caller:              *caller,
		AWSProfile:          AWSProfile,
		Goroutines:          Goroutines,
		WrapTable:           AWSWrapTable,
	}, true
}

func runShowOrgCommand(cmd *cobra.Command, args []string) {
	orgClient, _, caller, err := aws.InitCallerClients(AWSProfile, cmd.Root().Version)
	if err != nil {
		return
	}
	m := aws.OrgModule{
		OrganizationsClient: orgClient,
		Caller:              *caller,
		AWSProfile:          AWSProfile,
		Goroutines:          Goroutines,
		WrapTable:           AWSWrapTable,
	}
	m.PrintOrgStructure(AWSOutputDirectory, Verbosity)
}

func runCheckRolesCommand(cmd *cobra.Command, args []string) {
	m, ok := callerAndClients(cmd)
	if !ok {
		return
	}
	m.PrintRoleStatus(AWSOutputDirectory, Verbosity)
}

func runCreateRolesCommand(cmd *cobra.Command, args []string) {
	m, ok := callerAndClients(cmd)
	if !ok {
		return
	}
	m.DryRun = rolesDryRun
	if !m.DryRun && !AWSConfirm {
		if !internal.ConfirmAction("Create missing baseline roles across the organization?") {
			fmt.Printf("[%s] Aborted.\n", cyan("create-roles"))
			return
		}
	}
	m.CreateRoles(AWSOutputDirectory, Verbosity)
}

func runCheckBaselineCommand(cmd *cobra.Command, args []string) {
	orgClient, stsClient, caller, err := aws.InitCallerClients(AWSProfile, cmd.Root().Version)
	if err != nil {
		return
	}
	m := aws.BaselineModule{
		OrganizationsClient: orgClient,
		STSClient:           stsClient,
		S3ClientFactory:     aws.DefaultS3ClientFactory,
		Caller:              *caller,
		AWSProfile:          AWSProfile,
		Goroutines:          Goroutines,
		WrapTable:           AWSWrapTable,
		Region:              awsRegion,
	}
	m.PrintBaselineStatus(AWSOutputDirectory, Verbosity)
}

func runProcessVpcsCommand(cmd *cobra.Command, args []string) {
	orgClient, stsClient, caller, err := aws.InitCallerClients(AWSProfile, cmd.Root().Version)
	if err != nil {
		return
	}
	if vpcsForce && !AWSConfirm {
		if !internal.ConfirmAction("Delete every unused default VPC in the organization?") {
			fmt.Printf("[%s] Aborted.\n", cyan("process-vpcs"))
			return
		}
	}
	m := aws.VpcsModule{
		OrganizationsClient: orgClient,
		STSClient:           stsClient,
		EC2ClientFactory:    aws.DefaultEC2ClientFactory,
		Caller:              *caller,
		AWSProfile:          AWSProfile,
		Goroutines:          Goroutines,
		WrapTable:           AWSWrapTable,
		Force:               vpcsForce,
		Regions:             vpcsRegions,
	}
	m.ProcessDefaultVpcs(AWSOutputDirectory, Verbosity)
}

func runCopyVpcTagsCommand(cmd *cobra.Command, args []string) {
	orgClient, stsClient, caller, err := aws.InitCallerClients(AWSProfile, cmd.Root().Version)
	if err != nil {
		return
	}
	if tagsNetworkAccount == "" {
		tagsNetworkAccount = viper.GetString("networking.account")
	}
	if tagsVpcName == "" {
		tagsVpcName = viper.GetString("networking.vpc-name")
	}
	if tagsNetworkAccount == "" || tagsVpcName == "" {
		fmt.Printf("[%s] Both --networking-account and --vpc-name are required.\n", red("copy-vpc-tags"))
		return
	}
	if _, err := sdk.CachedOrganizationsDescribeAccount(orgClient, awssdk.ToString(caller.Account), tagsNetworkAccount); err != nil {
		fmt.Printf("[%s] Account %s is not part of this organization: %s\n", red("copy-vpc-tags"), tagsNetworkAccount, err)
		return
	}
	m := aws.VpcTagsModule{
		OrganizationsClient: orgClient,
		STSClient:           stsClient,
		EC2ClientFactory:    aws.DefaultEC2ClientFactory,
		RAMClientFactory:    aws.DefaultRAMClientFactory,
		Caller:              *caller,
		AWSProfile:          AWSProfile,
		Goroutines:          Goroutines,
		WrapTable:           AWSWrapTable,
		DryRun:              tagsDryRun,
		NetworkingAccount:   tagsNetworkAccount,
		VpcName:             tagsVpcName,
		Region:              awsRegion,
	}
	m.CopyVpcTags(AWSOutputDirectory, Verbosity)
}

func runGenTfBackendCommand(cmd *cobra.Command, args []string) {
	orgClient, _, caller, err := aws.InitCallerClients(AWSProfile, cmd.Root().Version)
	if err != nil {
		return
	}
	m := aws.TfBackendModule{
		OrganizationsClient: orgClient,
		Caller:              *caller,
		AWSProfile:          AWSProfile,
		AccountID:           tfAccountID,
		Region:              awsRegion,
		OutputFile:          artifactOutputFile,
	}
	if err := m.GenerateBackendFile(AWSOutputDirectory, Verbosity); err != nil {
		fmt.Printf("[%s] %s\n", red("gen-tf-backend"), err)
	}
}

func runGenSSOConfigCommand(cmd *cobra.Command, args []string) {
	orgClient, _, caller, err := aws.InitCallerClients(AWSProfile, cmd.Root().Version)
	if err != nil {
		return
	}
	if ssoStartURL == "" {
		ssoStartURL = viper.GetString("sso.start-url")
	}
	if ssoRegion == "" {
		ssoRegion = viper.GetString("sso.region")
	}
	if len(ssoPermissionSets) == 0 {
		ssoPermissionSets = viper.GetStringSlice("sso.permission-sets")
	}
	if ssoStartURL == "" || ssoRegion == "" || len(ssoPermissionSets) == 0 {
		fmt.Printf("[%s] --sso-start-url, --sso-region, and --permission-set are required (flags or config file).\n", red("gen-sso-config"))
		return
	}
	m := aws.SSOConfigModule{
		OrganizationsClient: orgClient,
		Caller:              *caller,
		AWSProfile:          AWSProfile,
		SSOStartURL:         ssoStartURL,
		SSORegion:           ssoRegion,
		PermissionSets:      ssoPermissionSets,
		Prefix:              ssoProfilePrefix,
		Postfix:             ssoProfilePostfix,
		OutputFile:          artifactOutputFile,
	}
	if err := m.GenerateSSOConfig(AWSOutputDirectory, Verbosity); err != nil {
		fmt.Printf("[%s] %s\n", red("gen-sso-config"), err)
	}
}

func init() {
	cobra.OnInitialize()

	AWSCommands.PersistentFlags().StringVarP(&AWSProfile, "profile", "p", "", "AWS CLI profile of the management account")
	AWSCommands.PersistentFlags().BoolVarP(&AWSConfirm, "yes", "y", false, "Skip confirmation prompts")
	AWSCommands.PersistentFlags().IntVarP(&Verbosity, "verbosity", "v", 2, "1 = output files only, 2 = output files plus tables on screen")
	AWSCommands.PersistentFlags().StringVarP(&AWSOutputDirectory, "outdir", "o", defaultOutputDir, "Output directory")
	AWSCommands.PersistentFlags().IntVarP(&Goroutines, "max-goroutines", "g", 30, "Maximum number of concurrent goroutines")
	AWSCommands.PersistentFlags().BoolVarP(&AWSWrapTable, "wrap", "w", false, "Wrap table to fit the terminal width")
	AWSCommands.PersistentFlags().StringVar(&awsRegion, "region", "us-east-1", "Region to operate in")

	CreateRolesCommand.Flags().BoolVar(&rolesDryRun, "dry-run", false, "Report the actions a real run would take")

	ProcessVpcsCommand.Flags().BoolVar(&vpcsForce, "force", false, "Actually delete; without this the run only reports")
	ProcessVpcsCommand.Flags().StringSliceVar(&vpcsRegions, "regions", nil, "Restrict to these regions (default: all enabled regions)")

	CopyVpcTagsCommand.Flags().BoolVar(&tagsDryRun, "dry-run", false, "Report the tags a real run would copy")
	CopyVpcTagsCommand.Flags().StringVar(&tagsVpcName, "vpc-name", "", "Name tag of the shared VPC")
	CopyVpcTagsCommand.Flags().StringVar(&tagsNetworkAccount, "networking-account", "", "Account that owns the shared VPC")

	GenTfBackendCommand.Flags().StringVar(&tfAccountID, "account", "", "Restrict to this account ID (default: every active account)")
	GenTfBackendCommand.Flags().StringVar(&artifactOutputFile, "output-file", "", "Write the artifact to this path")

	GenSSOConfigCommand.Flags().StringVar(&ssoStartURL, "sso-start-url", "", "SSO start URL")
	GenSSOConfigCommand.Flags().StringVar(&ssoRegion, "sso-region", "", "Region the SSO instance lives in")
	GenSSOConfigCommand.Flags().StringSliceVar(&ssoPermissionSets, "permission-set", nil, "Permission set name (repeatable)")
	GenSSOConfigCommand.Flags().StringVar(&ssoProfilePrefix, "prefix", "", "Prefix for every profile name")
	GenSSOConfigCommand.Flags().StringVar(&ssoProfilePostfix, "postfix", "", "Postfix for every profile name")
	GenSSOConfigCommand.Flags().StringVar(&artifactOutputFile, "output-file", "", "Write the artifact to this path")

	AWSCommands.AddCommand(
		ShowOrgCommand,
		CheckRolesCommand,
		CreateRolesCommand,
		CheckBaselineCommand,
		ProcessVpcsCommand,
		CopyVpcTagsCommand,
		GenTfBackendCommand,
		GenSSOConfigCommand,
	)
}
