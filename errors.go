package akavelink

import (
	"fmt"
	"net/http"
	"time"
)

// Symbolic error codes. Hex codes (0x-prefixed, 8 hex digits) emitted
// by the storage contract are registered alongside these.
const (
	CodeBucketAlreadyExists = "BUCKET_ALREADY_EXISTS"
	CodeBucketInvalid       = "BUCKET_INVALID"
	CodeBucketInvalidOwner  = "BUCKET_INVALID_OWNER"
	CodeBucketNonexists     = "BUCKET_NONEXISTS"
	CodeBucketNonempty      = "BUCKET_NONEMPTY"
	CodeFileAlreadyExists   = "FILE_ALREADY_EXISTS"
	CodeFileInvalid         = "FILE_INVALID"
	CodeFileNonexists       = "FILE_NONEXISTS"
	CodeFileFullyUploaded   = "FILE_FULLY_UPLOADED"
	CodeFileNameDuplicate   = "FILE_NAME_DUPLICATE"
	CodeFileChunkDuplicate  = "FILE_CHUNK_DUPLICATE"
	CodeBlockAlreadyExists  = "BLOCK_ALREADY_EXISTS"
	CodeBlockInvalid        = "BLOCK_INVALID"
	CodeBlockNonexists      = "BLOCK_NONEXISTS"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeSystemError         = "SYSTEM_ERROR"
	CodeUnknownError        = "UNKNOWN_ERROR"
)

// Error is the classified error shape produced everywhere in this
// module. It is constructed once and never mutated afterwards.
type Error struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
	Timestamp  time.Time      `json:"timestamp"`
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the registry value for one error code.
type Status struct {
	Message    string
	HTTPStatus int
}

// Registry maps symbolic and hex error codes to message and HTTP
// status. It is built once at startup and read-only thereafter, so it
// is safe for concurrent use.
type Registry struct {
	codes map[string]Status
}

// NewRegistry builds a registry from the given code table.
func NewRegistry(codes map[string]Status) *Registry {
	m := make(map[string]Status, len(codes))
	for k, v := range codes {
		m[k] = v
	}
	return &Registry{codes: m}
}

// Lookup returns the registered status for a code.
func (r *Registry) Lookup(code string) (Status, bool) {
	s, ok := r.codes[code]
	return s, ok
}

// NewError builds a classified Error for the given code. Unregistered
// codes fall back to UNKNOWN_ERROR with a 500 status so that no error
// can escape without a resolvable HTTP status.
func (r *Registry) NewError(code string, err error) *Error {
	s, ok := r.codes[code]
	if !ok {
		code = CodeUnknownError
		s = r.codes[CodeUnknownError]
		if s.HTTPStatus == 0 {
			s = Status{Message: "An unknown error occurred", HTTPStatus: http.StatusInternalServerError}
		}
	}
	return &Error{
		Code:       code,
		Message:    s.Message,
		HTTPStatus: s.HTTPStatus,
		Err:        err,
		Timestamp:  time.Now().UTC(),
	}
}

// NewErrorWithDetails is NewError plus a details payload for
// diagnostics (e.g. the raw subprocess output on a parse failure).
func (r *Registry) NewErrorWithDetails(code string, err error, details map[string]any) *Error {
	e := r.NewError(code, err)
	e.Details = details
	return e
}

// DefaultRegistry returns the full production code table: the symbolic
// taxonomy plus the 8-hex-digit contract error codes.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Status{
		CodeBucketAlreadyExists: {"Bucket already exists", http.StatusConflict},
		CodeBucketInvalid:       {"Invalid bucket", http.StatusBadRequest},
		CodeBucketInvalidOwner:  {"Invalid bucket owner", http.StatusForbidden},
		CodeBucketNonexists:     {"Bucket does not exist", http.StatusNotFound},
		CodeBucketNonempty:      {"Bucket is not empty", http.StatusBadRequest},
		CodeFileAlreadyExists:   {"File already exists", http.StatusConflict},
		CodeFileInvalid:         {"Invalid file", http.StatusBadRequest},
		CodeFileNonexists:       {"File does not exist", http.StatusNotFound},
		CodeFileFullyUploaded:   {"File is already fully uploaded", http.StatusConflict},
		CodeFileNameDuplicate:   {"File name already used in this bucket", http.StatusConflict},
		CodeFileChunkDuplicate:  {"File chunk already uploaded", http.StatusConflict},
		CodeBlockAlreadyExists:  {"Block already exists", http.StatusConflict},
		CodeBlockInvalid:        {"Invalid block", http.StatusBadRequest},
		CodeBlockNonexists:      {"Block does not exist", http.StatusNotFound},
		CodeValidationError:     {"Request validation failed", http.StatusBadRequest},
		CodeSystemError:         {"Storage CLI is not available", http.StatusInternalServerError},
		CodeUnknownError:        {"An unknown error occurred", http.StatusInternalServerError},

		// Contract custom-error selectors surfaced verbatim in stderr.
		"0x9b8a0a52": {"Bucket already exists", http.StatusConflict},
		"0x4e4c1080": {"Invalid bucket", http.StatusBadRequest},
		"0x38a85a8d": {"Invalid bucket owner", http.StatusForbidden},
		"0x1e6321a4": {"Bucket does not exist", http.StatusNotFound},
		"0x89fddc00": {"Bucket is not empty", http.StatusBadRequest},
		"0x022cba9f": {"File already exists", http.StatusConflict},
		"0xd1678ff5": {"Invalid file", http.StatusBadRequest},
		"0x21584586": {"File does not exist", http.StatusNotFound},
		"0xd96b03b1": {"File is already fully uploaded", http.StatusConflict},
		"0x9c36a286": {"File name already used in this bucket", http.StatusConflict},
		"0x2c54c355": {"File chunk already uploaded", http.StatusConflict},
		"0xd09ec7af": {"Block already exists", http.StatusConflict},
		"0xafa0d379": {"Invalid block", http.StatusBadRequest},
		"0x6d763b2c": {"Block does not exist", http.StatusNotFound},
	})
}
