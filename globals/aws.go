package globals

const RIGHTSTART_USER_AGENT = "rightstart"
const RIGHTSTART_LOG_FILE_DIR_NAME = ".rightstart"
const RIGHTSTART_LOG_FILE_NAME = "rightstart-error.log"
const RIGHTSTART_BASE_DIRECTORY = "rightstart-output"

const RIGHTSTART_VERSION = "0.4.0"

// The two interchangeable administrative roles used to recover access to a
// member account when the other one is missing. Variables, not constants:
// the config file can rename them for organizations that roll their own.
var ORG_ACCESS_ROLE_NAME = "OrganizationAccountAccessRole"
var CT_EXECUTION_ROLE_NAME = "AWSControlTowerExecution"

const ADMINISTRATOR_ACCESS_POLICY_ARN = "arn:aws:iam::aws:policy/AdministratorAccess"

const TF_STATE_BUCKET_PREFIX = "terraform-state-"
const TF_STATE_LOCK_TABLE_PREFIX = "terraform-state-lock-"
