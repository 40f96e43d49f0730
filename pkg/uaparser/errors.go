package uaparser

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vulntor/uaparser/pkg/regexsafe"
)

const (
	errorCodeSpecMalformed   = "SPEC_MALFORMED"
	errorCodeSpecEmpty       = "SPEC_EMPTY"
	errorCodePatternUnsafe   = "PATTERN_UNSAFE"
	errorCodeTimeout         = "CLASSIFICATION_TIMEOUT"
	errorCodeSourceRequired  = "RULES_SOURCE_REQUIRED"
	errorCodeSourceConflict  = "RULES_SOURCE_CONFLICT"
	errorCodeStorageDisabled = "RULES_STORAGE_DISABLED"
	errorCodeSyncFailed      = "RULES_SYNC_FAILED"
	errorCodeInternal        = "INTERNAL"
	exitCodeUsage            = 2
	exitCodeInvalidRules     = 3
	exitCodeTimeout          = 4
	exitCodeStorageDisabled  = 7
)

var (
	// ErrMalformedSpecification indicates a rule record or section that does
	// not follow the specification layout.
	ErrMalformedSpecification = errors.New("malformed specification")
	// ErrEmptySpecification indicates input without any rule section.
	ErrEmptySpecification = errors.New("empty specification")
	// ErrUnsafePattern indicates a rule pattern rejected by the safety
	// validator.
	ErrUnsafePattern = regexsafe.ErrUnsafePattern
	// ErrClassificationTimeout indicates the parse budget or context deadline
	// elapsed before all categories were classified.
	ErrClassificationTimeout = errors.New("classification timeout")
	// ErrSourceRequired indicates neither --file nor --url was provided.
	ErrSourceRequired = errors.New("source required")
	// ErrSourceConflict indicates both --file and --url were provided.
	ErrSourceConflict = errors.New("multiple sources provided")
	// ErrStorageDisabled indicates no cache directory is configured.
	ErrStorageDisabled = errors.New("storage disabled")
)

// RuleError reports a load-time failure of a single rule. It is fatal for
// the whole specification.
type RuleError struct {
	Category Category
	Index    int
	Err      error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d in %s: %v", e.Index, schemaFor(e.Category).section, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with an error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewSourceRequiredError formats a missing source error.
func NewSourceRequiredError() error {
	return WithErrorCode(fmt.Errorf("%w: either --file or --url must be provided", ErrSourceRequired), errorCodeSourceRequired)
}

// NewSourceConflictError formats a conflicting source error.
func NewSourceConflictError() error {
	return WithErrorCode(fmt.Errorf("%w: only one of --file or --url may be provided at a time", ErrSourceConflict), errorCodeSourceConflict)
}

// NewStorageDisabledError formats a storage disabled error.
func NewStorageDisabledError() error {
	return WithErrorCode(fmt.Errorf("%w: no cache directory; specify --cache-dir or rules.cache_dir", ErrStorageDisabled), errorCodeStorageDisabled)
}

// WrapSyncError annotates a catalog sync failure.
func WrapSyncError(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeSyncFailed)
}

// ErrorCode resolves an error to its code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrUnsafePattern):
		return errorCodePatternUnsafe
	case errors.Is(err, ErrMalformedSpecification):
		return errorCodeSpecMalformed
	case errors.Is(err, ErrEmptySpecification):
		return errorCodeSpecEmpty
	case errors.Is(err, ErrClassificationTimeout):
		return errorCodeTimeout
	case errors.Is(err, ErrSourceRequired):
		return errorCodeSourceRequired
	case errors.Is(err, ErrSourceConflict):
		return errorCodeSourceConflict
	case errors.Is(err, ErrStorageDisabled):
		return errorCodeStorageDisabled
	default:
		return errorCodeInternal
	}
}

// ExitCode maps errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrSourceRequired),
		errors.Is(err, ErrSourceConflict):
		return exitCodeUsage
	case errors.Is(err, ErrUnsafePattern),
		errors.Is(err, ErrMalformedSpecification),
		errors.Is(err, ErrEmptySpecification):
		return exitCodeInvalidRules
	case errors.Is(err, ErrClassificationTimeout):
		return exitCodeTimeout
	case errors.Is(err, ErrStorageDisabled):
		return exitCodeStorageDisabled
	default:
		return 1
	}
}

// HTTPStatus maps errors to HTTP status codes.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, ErrSourceRequired),
		errors.Is(err, ErrSourceConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsafePattern),
		errors.Is(err, ErrMalformedSpecification),
		errors.Is(err, ErrEmptySpecification):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrClassificationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrStorageDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Suggestions provides CLI hints for an error.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeSourceRequired:
		return []string{
			"Provide a source:          --file <path> or --url <address>",
			"Example:                   uaparser rules sync --url https://example/regexes.yaml",
		}
	case errorCodeSourceConflict:
		return []string{
			"Use only one source flag",
			"Remove either --file or --url",
		}
	case errorCodeStorageDisabled:
		return []string{
			"Set cache directory:       uaparser rules sync --cache-dir <path>",
			"Or configure rules.cache_dir / UAPARSER_RULES_CACHE_DIR",
		}
	case errorCodeSyncFailed:
		return []string{
			"Retry with --url pointing to a reachable catalog",
			"Check network connectivity and cache directory permissions",
			"Use --force to replace a newer cached catalog",
		}
	case errorCodePatternUnsafe:
		return []string{
			"Rewrite the pattern without lookaround or backreferences",
			"Delimit repeated groups so iterations cannot overlap, e.g. (?:[^;]+;)*",
			"Run: uaparser rules validate <file> for a full report",
		}
	case errorCodeSpecMalformed, errorCodeSpecEmpty:
		return []string{
			"Check the file has user_agent_parsers, os_parsers or device_parsers sections",
			"Every rule needs a regex key; replacement values must be scalars",
		}
	case errorCodeTimeout:
		return []string{
			"Increase parser.budget or remove it to disable the limit",
			"Set parser.max_input_length to truncate very long inputs",
		}
	default:
		return nil
	}
}
