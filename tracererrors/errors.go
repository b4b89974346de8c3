// Package tracererrors holds the sentinel errors shared by the trace
// correlation engine, the toolchain bridge and the HTTP runner. Messages
// follow the "CODE|Name: description" layout so that GetErrorCode and
// GetErrorName can recover the parts for user-facing diagnostics.
package tracererrors

import (
	"errors"
	"strings"
)

// Trace correlation (T) errors
var (
	ErrUnmappedPC        = errors.New("T1|UnmappedPC: A reachable program counter has no value in memory.")
	ErrAddressOutOfRange = errors.New("T2|AddressOutOfRange: Field-reduced address does not fit the memory index type.")
	ErrMalformedEncoding = errors.New("T3|MalformedEncoding: Encoded word does not decode to a valid instruction.")
)

// Toolchain (C) errors
var (
	ErrToolchainFailed    = errors.New("C1|ToolchainFailed: Failed to compile and run cairo program.")
	ErrToolchainTimeout   = errors.New("C2|ToolchainTimeout: Compiler or VM exceeded the run timeout.")
	ErrMalformedArtifacts = errors.New("C3|MalformedArtifacts: Toolchain output files could not be parsed.")
)

// Request (R) errors
var (
	ErrInvalidPayload = errors.New("R1|InvalidPayload: Request body is not a valid run payload.")
	ErrEmptyProgram   = errors.New("R2|EmptyProgram: Request carries no program source.")
)

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	sentinel := rootSentinel(err)
	errStr := sentinel.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := rootSentinel(err).Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(rootSentinel(err).Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}

var sentinels = []error{
	ErrUnmappedPC, ErrAddressOutOfRange, ErrMalformedEncoding,
	ErrToolchainFailed, ErrToolchainTimeout, ErrMalformedArtifacts,
	ErrInvalidPayload, ErrEmptyProgram,
}

// rootSentinel maps a wrapped error back to the sentinel it wraps, so that
// "decode pc 4: T3|MalformedEncoding: ..." still reports T3.
func rootSentinel(err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return err
}
