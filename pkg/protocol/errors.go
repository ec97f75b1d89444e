package protocol

import (
	"encoding/json"
	"errors"
)

// Stable error codes carried end to end. Callers branch on these instead of
// error type identity, which does not survive the context boundary.
const (
	CodeDuplicateProduct = "DUPLICATE_PRODUCT"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeNotMember        = "NOT_MEMBER"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidPayload   = "INVALID_PAYLOAD"
	CodeTransport        = "TRANSPORT_FAILURE"
	CodeUnknownKind      = "UNKNOWN_KIND"
)

// ErrorInfo is a serializable tagged error value. Both ends of the transport
// construct fresh ErrorInfo values from the wire form; nothing depends on the
// original error's Go type surviving the crossing.
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *ErrorInfo) Error() string { return e.Message }

// CodedError builds a tagged error with a stable code.
func CodedError(code, message string) *ErrorInfo {
	return &ErrorInfo{Message: message, Code: code}
}

// Hydrate converts any error into a fresh ErrorInfo, preserving the code when
// the error (or one it wraps) already carries one.
func Hydrate(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	var info *ErrorInfo
	if errors.As(err, &info) {
		return &ErrorInfo{Message: info.Message, Code: info.Code}
	}
	return &ErrorInfo{Message: err.Error()}
}

// HasCode reports whether err carries the given stable code, including after
// a serialization round trip.
func HasCode(err error, code string) bool {
	var info *ErrorInfo
	if errors.As(err, &info) {
		return info.Code == code
	}
	return false
}

// DecodeErrorInfo parses a serialized ErrorInfo, tolerating a bare string
// message as older callers produced.
func DecodeErrorInfo(raw json.RawMessage) *ErrorInfo {
	if len(raw) == 0 {
		return nil
	}
	var info ErrorInfo
	if err := json.Unmarshal(raw, &info); err == nil && info.Message != "" {
		return &info
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return &ErrorInfo{Message: s}
	}
	return nil
}
