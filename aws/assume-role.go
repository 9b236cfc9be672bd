package aws

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"

	"github.com/rightstart-io/rightstart/aws/sdk"
)

const assumeRoleSessionName = "rightstart"

// AssumeRoleCredentials fetches temporary credentials for a named role in a
// member account. The credentials live only as long as the operation that
// asked for them.
func AssumeRoleCredentials(client sdk.STSClientInterface, accountID string, roleName string) (aws.Credentials, error) {
	return sdk.STSAssumeRole(client, accountID, roleName, assumeRoleSessionName)
}

// IsAccessDenied reports whether an error is an authorization failure, as
// opposed to a throttle, timeout, or missing entity.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
			return true
		}
	}
	return strings.Contains(err.Error(), "AccessDenied")
}

// IsSCPExplicitDeny recognizes the specific denial produced by a service
// control policy attached above the account. The API gives no structured
// field for this; the message text is the only signal.
func IsSCPExplicitDeny(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "with an explicit deny in a service control policy")
}
