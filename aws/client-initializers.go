package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/ram"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/rightstart-io/rightstart/aws/sdk"
	"github.com/rightstart-io/rightstart/internal"
)

func InitOrganizationsClient(cfg aws.Config) *organizations.Client {
	return organizations.NewFromConfig(cfg)
}

func InitSTSClient(cfg aws.Config) *sts.Client {
	return sts.NewFromConfig(cfg)
}

// ConfigForCredentials builds a config around the temporary credentials of an
// assumed role. Member-account clients always come from here, never from the
// shared config file.
func ConfigForCredentials(creds aws.Credentials, region string) aws.Config {
	return aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
	}
}

// Factories for per-account clients. Modules hold these as fields so tests
// can swap in mocks without touching the fan-out logic.

func DefaultIAMClientFactory(creds aws.Credentials) sdk.IAMClientInterface {
	return iam.NewFromConfig(ConfigForCredentials(creds, "us-east-1"))
}

func DefaultEC2ClientFactory(creds aws.Credentials, region string) sdk.EC2ClientInterface {
	return ec2.NewFromConfig(ConfigForCredentials(creds, region))
}

func DefaultS3ClientFactory(creds aws.Credentials, region string) sdk.S3ClientInterface {
	return s3.NewFromConfig(ConfigForCredentials(creds, region))
}

func DefaultRAMClientFactory(creds aws.Credentials, region string) sdk.RAMClientInterface {
	return ram.NewFromConfig(ConfigForCredentials(creds, region))
}

// InitCallerClients wires up the management-account clients for one profile.
func InitCallerClients(awsProfile string, version string) (*organizations.Client, *sts.Client, *sts.GetCallerIdentityOutput, error) {
	caller, err := internal.AWSWhoami(awsProfile, version)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg := internal.AWSConfigFileLoader(awsProfile, version)
	return InitOrganizationsClient(cfg), InitSTSClient(cfg), caller, nil
}
