package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/calckit/pkg/constants"
)

// OutputFormat resolves a requested output format, ignoring case and
// surrounding space. Empty means pretty.
func OutputFormat(format string) (string, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "":
		return constants.OutputFormatPretty, nil
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		return normalized, nil
	default:
		return "", fmt.Errorf("expected output format of %s or %s, got %q",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
}
