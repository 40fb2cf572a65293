package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Failure classes surfaced by the transport and the session manager. Match
// them with errors.Is; *APIError carries the details.
var (
	ErrNetwork         = errors.New("network error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrValidation      = errors.New("validation failed")
	ErrClient          = errors.New("client error")
	ErrServer          = errors.New("server error")

	// ErrNoSession is returned by stores when no complete credential pair (or
	// no cached identity) is held.
	ErrNoSession = errors.New("no session")

	// ErrMalformedResponse marks a 2xx response whose body could not be used.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrLoginFailed is the generic tag carried by every *LoginError.
	ErrLoginFailed = errors.New("login failed")
)

// APIError describes a failed call to the portal API.
type APIError struct {
	// Kind is one of the Err* failure classes above.
	Kind error
	// StatusCode is zero when no response was received.
	StatusCode int
	Method     string
	Path       string
	// Detail is the server's human readable message, verbatim.
	Detail string
	// Fields holds field-level messages from validation failures.
	Fields map[string][]string
	Body   []byte
	Err    error
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Is makes validation failures match ErrClient as well.
func (e *APIError) Is(target error) bool {
	return target == ErrClient && e.Kind == ErrValidation
}

// FieldMessages flattens Fields into "field: message" lines, sorted by field.
func (e *APIError) FieldMessages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		for _, msg := range e.Fields[k] {
			out = append(out, k+": "+msg)
		}
	}
	return out
}

// LoginError is returned by Manager.Login. Its message is the server's detail
// verbatim when one was sent, otherwise the generic "login failed".
type LoginError struct {
	Detail string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return ErrLoginFailed.Error()
}

func (e *LoginError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLoginFailed}
	}
	return []error{ErrLoginFailed, e.Err}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status >= 500:
		return ErrServer
	default:
		return ErrClient
	}
}

// newStatusError builds an APIError from a non-2xx response body.
func newStatusError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Kind:       kindForStatus(status),
		StatusCode: status,
		Method:     method,
		Path:       path,
		Body:       body,
	}
	apiErr.Detail, apiErr.Fields = parseErrorBody(body)
	return apiErr
}

func newNetworkError(method, path string, err error) *APIError {
	return &APIError{Kind: ErrNetwork, Method: method, Path: path, Err: err}
}

// parseErrorBody extracts the detail message and field errors from a DRF style
// error payload: {"detail": "..."} or {"field": ["msg", ...], "non_field_errors": [...]}.
func parseErrorBody(body []byte) (string, map[string][]string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", nil
	}

	var detail string
	if msg, ok := raw["detail"]; ok {
		_ = json.Unmarshal(msg, &detail)
	}

	fields := map[string][]string{}
	for key, val := range raw {
		if key == "detail" || key == "code" {
			continue
		}
		if msgs := messages(val); len(msgs) > 0 {
			fields[key] = msgs
		}
	}

	if detail == "" {
		if nfe := fields["non_field_errors"]; len(nfe) > 0 {
			detail = nfe[0]
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return detail, fields
}

func messages(val json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(val, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(val, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}
