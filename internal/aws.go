package internal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/fatih/color"
	"github.com/kyokomi/emoji"
)

var cyan = color.New(color.FgCyan).SprintFunc()

// AWSConfigFileLoader ensures the profile in the aws config file meets all
// requirements (valid keys and a region defined). Some calls fail without a
// default region.
func AWSConfigFileLoader(AWSProfile string, version string) aws.Config {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithSharedConfigProfile(AWSProfile), config.WithDefaultRegion("us-east-1"), config.WithRetryer(
		func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), 3)
		}))
	if err != nil {
		fmt.Println(err)
		TxtLog.Println(err)
	}

	_, err = cfg.Credentials.Retrieve(context.TODO())
	if err != nil {
		fmt.Printf("[%s][%s] Error retrieving credentials from environment variables, or the instance metadata service.\n", cyan(emoji.Sprintf(":sunrise:rightstart %s :sunrise:", version)), cyan(AWSProfile))
		TxtLog.Printf("Could not retrieve the specified profile name %s", err)
	}
	return cfg
}

// AWSWhoami connects to STS and checks the caller identity. Same as running
// "aws sts get-caller-identity".
func AWSWhoami(awsProfile string, version string) (*sts.GetCallerIdentityOutput, error) {
	STSService := sts.NewFromConfig(AWSConfigFileLoader(awsProfile, version))
	CallerIdentity, err := STSService.GetCallerIdentity(context.TODO(), &sts.GetCallerIdentityInput{})
	if err != nil {
		fmt.Printf("[%s][%s] Could not get caller's identity\n\nError: %s\n\n", cyan(emoji.Sprintf(":sunrise:rightstart %s :sunrise:", version)), cyan(awsProfile), err)
		TxtLog.Printf("Could not get caller's identity: %s", err)
		return CallerIdentity, err
	}
	return CallerIdentity, err
}

func ConfirmAction(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("[%s] %s (Y\\n): ", cyan(emoji.Sprintf(":sunrise:rightstart :sunrise:")), prompt)
	text, _ := reader.ReadString('\n')
	switch strings.TrimSpace(text) {
	case "", "Y", "y":
		return true
	}
	return false
}

func BuildAWSPath(Caller sts.GetCallerIdentityOutput) string {
	return fmt.Sprintf("%s-%s", aws.ToString(Caller.Account), aws.ToString(Caller.UserId))
}
