package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

const reportablePrefix = "__json__:"

// ReportableDetails merges every structured detail attached with WithReportableDetails.
// Outer details win over inner ones on key clashes.
func ReportableDetails(err error) map[string]any {
	details := make(map[string]any)

	allSafeDetails := errors.GetAllSafeDetails(err)
	for i := len(allSafeDetails) - 1; i >= 0; i-- {
		for _, payload := range allSafeDetails[i].SafeDetails {
			if !strings.HasPrefix(payload, reportablePrefix) {
				continue
			}
			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(payload[len(reportablePrefix):]), &jsonDetails); err == nil {
				for k, v := range jsonDetails {
					details[k] = v
				}
			}
		}
	}

	return details
}

// DisplayMessage returns the first non-empty hint, meant for end users
func DisplayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

// Field returns the input field a validation error is scoped to, if any
func Field(err error) string {
	if field, ok := ReportableDetails(err)["field"].(string); ok {
		return field
	}
	return ""
}
