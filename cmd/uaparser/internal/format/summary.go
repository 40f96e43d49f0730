package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/vulntor/uaparser/pkg/server"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

// reportedError marks an error whose summary was already printed.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// IsReported reports whether err was already printed by a Formatter.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// PrintSuccessSummary prints a standardized success message
// Examples:
//   - "✓ Synced 1312 rules"
//   - "✓ Validate completed successfully"
func (f *formatter) PrintSuccessSummary(operation, detail string) error {
	if f.quiet {
		return nil
	}

	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success":   true,
			"operation": operation,
			"detail":    detail,
		})
	}

	message := fmt.Sprintf("✓ %s completed successfully", capitalize(operation))
	if detail != "" {
		message = fmt.Sprintf("✓ %s %s", capitalize(operation), detail)
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintTotalFailureSummary prints a failed operation with suggestions.
// Example output:
//
//	✗ Failed to sync rules: source required
//
//	💡 Suggestions:
//	  → Provide a source:          --file <path> or --url <address>
//
// The returned error wraps err so callers can return it directly without
// the message being printed twice.
func (f *formatter) PrintTotalFailureSummary(operation string, err error, errorCode string) error {
	if err == nil {
		return nil
	}
	reported := reportedError{err}

	if f.quiet {
		return reported
	}

	if f.mode == ModeJSON {
		if writeErr := f.PrintJSON(map[string]any{
			"success":    false,
			"operation":  operation,
			"error":      err.Error(),
			"error_code": errorCode,
		}); writeErr != nil {
			return err
		}
		return reported
	}

	var sb strings.Builder
	errorMsg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", errorMsg))
	} else {
		sb.WriteString(errorMsg + "\n")
	}

	if suggestions := GetSuggestions(err); len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	if _, writeErr := f.stderr.Write([]byte(sb.String())); writeErr != nil {
		return err
	}
	return reported
}

// GetSuggestions returns actionable hints for err.
func GetSuggestions(err error) []string {
	if IsServerError(err) {
		return server.Suggestions(err)
	}
	return uaparser.Suggestions(err)
}

// ErrorCode resolves the code reported for err in JSON failure output.
func ErrorCode(err error) string {
	return uaparser.ErrorCode(err)
}

// IsServerError reports whether err carries a server error code.
func IsServerError(err error) bool {
	return strings.HasPrefix(uaparser.ErrorCode(err), "SERVER_")
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
