package sqlinline

import (
	"strings"
	"testing"
)

// The three text columns below hold NULL until the pipeline fills them, so
// every statement that reads a full job row must coalesce them; a bare column
// reference would break scanning the first never-submitted job.
func TestJobReadsCoalesceNullableTextColumns(t *testing.T) {
	queries := map[string]string{
		"QSelectVideoJob":     QSelectVideoJob,
		"QSelectEligibleJobs": QSelectEligibleJobs,
		"QClaimJobTransition": QClaimJobTransition,
	}
	guards := []string{
		"coalesce(provider_task_id, '')",
		"coalesce(result_location, '')",
		"coalesce(error_message, '')",
	}

	for name, q := range queries {
		for _, guard := range guards {
			if !strings.Contains(q, guard) {
				t.Fatalf("%s is missing %s", name, guard)
			}
		}
	}
}

func TestJobInsertPinsTimestamps(t *testing.T) {
	for _, col := range []string{"created_at", "updated_at"} {
		if !strings.Contains(QInsertVideoJob, col) {
			t.Fatalf("insert must set %s explicitly instead of relying on a column default", col)
		}
	}
}
