package workflow

import (
	"go.temporal.io/sdk/testsuite"

	"github.com/Elhussin/opticsSass/internal/activity"
)

// registerActivities registers the activity struct with the test
// workflow environment so that parameter and return types can be
// deserialized correctly by the Temporal test framework. All activities
// are mocked via OnActivity; the registration only supplies type
// information.
func registerActivities(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivity(&activity.Provisioning{})
}
