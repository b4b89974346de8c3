package runner

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/colorfulnotion/cairotrace/toolchain"
	"github.com/colorfulnotion/cairotrace/tracererrors"
)

// ErrorType is the severity shared by ErrorEntry and LogEntry.
type ErrorType string

const (
	ErrorTypeError ErrorType = "Error"
	ErrorTypeWarn  ErrorType = "Warn"
	ErrorTypeInfo  ErrorType = "Info"
)

const defaultErrorMessage = "failed to compile and run cairo program"

type ErrorEntry struct {
	ErrorType ErrorType `json:"error_type"`
	Message   string    `json:"message"`
}

func defaultErrorEntry() ErrorEntry {
	return ErrorEntry{ErrorType: ErrorTypeError, Message: defaultErrorMessage}
}

type LogEntry struct {
	LogType ErrorType `json:"log_type"`
	Message string    `json:"message"`
}

// ResponseError is the body of every failed run. Status is the HTTP status
// it is served with.
type ResponseError struct {
	Status                   int          `json:"-"`
	Errors                   []ErrorEntry `json:"errors"`
	CairoLangCompilerVersion string       `json:"cairo_lang_compiler_version"`
}

func (e *ResponseError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, entry := range e.Errors {
		msgs[i] = entry.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, strings.Join(msgs, "; "))
}

// classify maps a diagnostic block to its severity by prefix.
func classify(msg string) ErrorType {
	lower := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case strings.HasPrefix(lower, "error"):
		return ErrorTypeError
	case strings.HasPrefix(lower, "warning"), strings.HasPrefix(lower, "warn"):
		return ErrorTypeWarn
	default:
		return ErrorTypeInfo
	}
}

// BuildLogEntriesFromDiagnostics turns toolchain diagnostics into log entries.
func BuildLogEntriesFromDiagnostics(diagnostics []string) []LogEntry {
	logs := make([]LogEntry, 0, len(diagnostics))
	for _, d := range diagnostics {
		if strings.TrimSpace(d) == "" {
			continue
		}
		logs = append(logs, LogEntry{LogType: classify(d), Message: d})
	}
	return logs
}

// toolchainError builds the 417 response for a failed compile or run.
func toolchainError(err error, compilerVersion string) *ResponseError {
	entries := []ErrorEntry{defaultErrorEntry()}
	var runErr *toolchain.RunError
	if errors.As(err, &runErr) {
		for _, d := range runErr.Diagnostics {
			entries = append(entries, ErrorEntry{ErrorType: classify(d), Message: d})
		}
		if errors.Is(err, tracererrors.ErrToolchainTimeout) {
			entries = append(entries, ErrorEntry{ErrorType: ErrorTypeError, Message: tracererrors.GetErrorDesc(err)})
		}
	}
	return &ResponseError{
		Status:                   http.StatusExpectationFailed,
		Errors:                   entries,
		CairoLangCompilerVersion: compilerVersion,
	}
}

func internalError(err error, compilerVersion string) *ResponseError {
	return &ResponseError{
		Status: http.StatusInternalServerError,
		Errors: []ErrorEntry{{
			ErrorType: ErrorTypeError,
			Message:   fmt.Sprintf("%s: %v", tracererrors.GetErrorName(err), err),
		}},
		CairoLangCompilerVersion: compilerVersion,
	}
}

func badRequest(err error, compilerVersion string) *ResponseError {
	return &ResponseError{
		Status: http.StatusBadRequest,
		Errors: []ErrorEntry{{
			ErrorType: ErrorTypeError,
			Message:   fmt.Sprintf("%s: %s", tracererrors.GetErrorName(err), tracererrors.GetErrorDesc(err)),
		}},
		CairoLangCompilerVersion: compilerVersion,
	}
}
