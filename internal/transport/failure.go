package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failed request.
type Kind string

const (
	KindAborted    Kind = "aborted"
	KindNetwork    Kind = "network"
	KindHTTP       Kind = "http"
	KindParse      Kind = "parse"
	KindValidation Kind = "validation"
)

// Failure is the typed error returned by [Client.Do].
type Failure struct {
	Kind    Kind
	Status  int               // HTTP status, zero when no response was received
	Message string            // user-facing message
	Fields  map[string]string // field errors for KindValidation
	Err     error             // underlying cause, if any
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure unwraps err into a [*Failure].
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsAborted reports whether err is a cancelled request.
func IsAborted(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == KindAborted
}

// KindOf returns the failure kind of err, or "" for nil and untyped errors.
func KindOf(err error) Kind {
	if f, ok := AsFailure(err); ok {
		return f.Kind
	}
	return ""
}

func aborted(err error) *Failure {
	return &Failure{Kind: KindAborted, Message: "request aborted", Err: err}
}

// errorBody is the error envelope produced by the API.
type errorBody struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Details json.RawMessage `json:"details"`
}

// httpFailure builds a failure from a non-2xx response.
func httpFailure(status int, body []byte) *Failure {
	f := &Failure{Kind: KindHTTP, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		f.Message = firstNonEmpty(eb.Error, eb.Message, eb.Detail)
		if (status == 400 || status == 422) && len(eb.Details) > 0 {
			if fields := flattenDetails(eb.Details); len(fields) > 0 {
				f.Kind = KindValidation
				f.Fields = fields
			}
		}
	}

	if f.Message == "" {
		f.Message = fmt.Sprintf("HTTP %d", status)
	}
	return f
}

// flattenDetails accepts {"field": "msg"}, {"field": ["msg"]} and the zod
// format() shape {"field": {"_errors": ["msg"]}}.
func flattenDetails(raw json.RawMessage) map[string]string {
	var byField map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byField); err != nil {
		return nil
	}

	fields := make(map[string]string)
	for name, value := range byField {
		if name == "_errors" {
			continue
		}

		var msg string
		var msgs []string
		var nested struct {
			Errors []string `json:"_errors"`
		}

		switch {
		case json.Unmarshal(value, &msg) == nil:
		case json.Unmarshal(value, &msgs) == nil:
			msg = strings.Join(msgs, "; ")
		case json.Unmarshal(value, &nested) == nil:
			msg = strings.Join(nested.Errors, "; ")
		}

		if msg != "" {
			fields[name] = msg
		}
	}
	return fields
}

// FieldNames returns the sorted field names of a validation failure.
func (f *Failure) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
