package cli

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/rightstart-io/rightstart/globals"
)

func TestApplyRoleNameOverrides(t *testing.T) {
	defaultOrgAccess := globals.ORG_ACCESS_ROLE_NAME
	defaultCtExecution := globals.CT_EXECUTION_ROLE_NAME
	defer func() {
		viper.Set("roles.org-access", "")
		viper.Set("roles.ct-execution", "")
		globals.ORG_ACCESS_ROLE_NAME = defaultOrgAccess
		globals.CT_EXECUTION_ROLE_NAME = defaultCtExecution
	}()

	// Without config keys the defaults stay.
	applyRoleNameOverrides()
	if globals.ORG_ACCESS_ROLE_NAME != defaultOrgAccess || globals.CT_EXECUTION_ROLE_NAME != defaultCtExecution {
		t.Fatalf("defaults changed with no overrides: %s / %s", globals.ORG_ACCESS_ROLE_NAME, globals.CT_EXECUTION_ROLE_NAME)
	}

	viper.Set("roles.org-access", "CustomAccessRole")
	viper.Set("roles.ct-execution", "CustomExecutionRole")
	applyRoleNameOverrides()
	if globals.ORG_ACCESS_ROLE_NAME != "CustomAccessRole" {
		t.Errorf("org access role not overridden: %s", globals.ORG_ACCESS_ROLE_NAME)
	}
	if globals.CT_EXECUTION_ROLE_NAME != "CustomExecutionRole" {
		t.Errorf("execution role not overridden: %s", globals.CT_EXECUTION_ROLE_NAME)
	}
}
