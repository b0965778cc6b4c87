// Package ferr defines the error taxonomy shared across factorix's HTTP
// stack, cache store, and dependency engine.
//
// Infrastructure and API errors are returned as *Error so callers can
// switch on Kind without string-matching messages. Dependency validation
// errors are deliberately not part of this taxonomy: they are surfaced as
// data (depgraph.ValidationResult) rather than thrown, so that every
// problem with a mod configuration can be reported at once instead of
// stopping at the first one.
package ferr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error classification. It intentionally does
// not correspond 1:1 to Go types: several kinds (e.g. HTTPNotFound and
// HTTPClient) share the same *Error shape and differ only in Kind and the
// fields that happen to be populated.
type Kind string

const (
	KindURL                  Kind = "url"
	KindNetworkTimeout       Kind = "network_timeout"
	KindNetworkConnection    Kind = "network_connection"
	KindTLS                  Kind = "ssl_tls"
	KindHTTPNotFound         Kind = "http_not_found"
	KindHTTPClient           Kind = "http_client"
	KindHTTPServer           Kind = "http_server"
	KindHTTP                 Kind = "http"
	KindFileNotFound         Kind = "file_not_found"
	KindDirectoryNotFound    Kind = "directory_not_found"
	KindDirectoryNotWritable Kind = "directory_not_writable"
	KindFileExists           Kind = "file_exists"
	KindSHA1Mismatch         Kind = "sha1_mismatch"
	KindFileFormat           Kind = "file_format"
	KindVersionParse         Kind = "version_parse"
	KindDependencyMissing    Kind = "dependency_missing"
	KindDependencyDisabled   Kind = "dependency_disabled"
	KindVersionMismatch      Kind = "version_mismatch"
	KindConflict             Kind = "conflict"
	KindCircularDependency   Kind = "circular_dependency"
	KindGameRunning          Kind = "game_running"
	KindInvalidArgument      Kind = "invalid_argument"
	KindConfiguration        Kind = "configuration"
	KindCancelled            Kind = "cancelled"
)

// Error is the concrete error type for every kind in the taxonomy above.
// Only the fields relevant to Kind are expected to be populated; the rest
// are zero values.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, may be nil

	// Populated for HTTP error kinds when the response body was JSON
	// shaped like {"error": "...", "message": "..."}.
	APIError   string
	APIMessage string

	// Populated for network error kinds.
	Host string

	// Populated for KindSHA1Mismatch.
	Expected string
	Actual   string
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Host != "" {
		msg = fmt.Sprintf("%s (host %s)", msg, e.Host)
	}
	if e.APIMessage != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.APIMessage)
	}
	if e.Kind == KindSHA1Mismatch {
		msg = fmt.Sprintf("%s (expected %s, got %s)", msg, e.Expected, e.Actual)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ferr.Kind("...")) style matching is not
// supported directly; use errors.As and compare Kind instead. Is is
// implemented so that two *Error values with the same Kind compare equal
// for errors.Is, which is convenient in tests.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == "" || other.Kind == e.Kind
	}
	return false
}

// New constructs a bare *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs an *Error of the given kind, wrapping cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// WithAPI attaches a portal-supplied {error, message} pair to an existing
// error's copy.
func (e *Error) WithAPI(apiErr, apiMessage string) *Error {
	cp := *e
	cp.APIError = apiErr
	cp.APIMessage = apiMessage
	return &cp
}

// WithHost attaches a host to an existing error's copy.
func (e *Error) WithHost(host string) *Error {
	cp := *e
	cp.Host = host
	return &cp
}

// SHA1Mismatch builds the SHA1Mismatch error kind with expected/actual
// digests.
func SHA1Mismatch(expected, actual string) *Error {
	return &Error{Kind: KindSHA1Mismatch, Msg: "sha1 mismatch", Expected: expected, Actual: actual}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, the zero
// Kind otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
