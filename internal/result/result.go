package result

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies why a request did not produce a usable response.
type Kind string

const (
	FileNotFound      Kind = "file_not_found"
	NoFilesProvided   Kind = "no_files_provided"
	InvalidEndpoint   Kind = "invalid_endpoint"
	InvalidInput      Kind = "invalid_input"
	TransportError    Kind = "transport_error"
	ServerRejected    Kind = "server_rejected"
	MalformedResponse Kind = "malformed_response"
	IOError           Kind = "io_error"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrNoFilesProvided   = errors.New("no files provided")
	ErrInvalidEndpoint   = errors.New("endpoint must use http or https")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTransport         = errors.New("transport error")
	ErrServerRejected    = errors.New("server rejected request")
	ErrMalformedResponse = errors.New("malformed response")
	ErrIO                = errors.New("io error")
)

var sentinels = map[Kind]error{
	FileNotFound:      ErrFileNotFound,
	NoFilesProvided:   ErrNoFilesProvided,
	InvalidEndpoint:   ErrInvalidEndpoint,
	InvalidInput:      ErrInvalidInput,
	TransportError:    ErrTransport,
	ServerRejected:    ErrServerRejected,
	MalformedResponse: ErrMalformedResponse,
	IOError:           ErrIO,
}

// Failure is the typed error half of a Result. StatusCode is zero when no
// HTTP response was received.
type Failure struct {
	Kind       Kind
	Detail     string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	msg := string(f.Kind)
	if sentinel, ok := sentinels[f.Kind]; ok {
		msg = sentinel.Error()
	}
	if f.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, f.StatusCode)
	}
	if f.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, f.Detail)
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is lets errors.Is match a Failure against the sentinel for its kind.
func (f *Failure) Is(target error) bool {
	sentinel, ok := sentinels[f.Kind]
	return ok && sentinel == target
}

// Result is either a success (Failure == nil) carrying the decoded JSON body,
// or a Failure.
type Result struct {
	StatusCode int
	Body       any
	Raw        json.RawMessage
	Failure    *Failure
}

func (r Result) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Field returns a top-level string field of an object body.
func (r Result) Field(name string) (string, bool) {
	obj, ok := r.Body.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := obj[name].(string)
	return v, ok
}

func Success(status int, raw []byte) Result {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Result{Failure: &Failure{
			Kind:       MalformedResponse,
			Detail:     err.Error(),
			StatusCode: status,
			Err:        err,
		}}
	}
	return Result{StatusCode: status, Body: body, Raw: json.RawMessage(raw)}
}

func Fail(kind Kind, detail string) Result {
	return Result{Failure: &Failure{Kind: kind, Detail: detail}}
}

func FailErr(kind Kind, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Detail: err.Error(), Err: err}}
}

func Rejected(status int, body []byte) Result {
	return Result{Failure: &Failure{Kind: ServerRejected, StatusCode: status, Detail: string(body)}}
}
