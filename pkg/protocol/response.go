package protocol

import (
	"encoding/json"
	"fmt"
)

// Response is the uniform result shape for every operation, whether it
// succeeded, failed in the application, or failed in the transport.
// Invariant: OK == (Error == nil); Data is null unless OK.
type Response struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *ErrorInfo      `json:"error"`
}

// OKResponse builds a success response. A nil value yields ok:true with null
// data, used by operations whose success legitimately carries nothing.
func OKResponse(value any) Response {
	if value == nil {
		return Response{OK: true}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return FailResponse(fmt.Errorf("encoding response data: %w", err))
	}
	return Response{OK: true, Data: raw}
}

// FailResponse builds a failure response, hydrating err into a tagged
// serializable error value.
func FailResponse(err error) Response {
	return Response{OK: false, Error: Hydrate(err)}
}

// TransportFailure builds the failure shape used when the coordinator is
// unreachable or the channel closed mid-flight.
func TransportFailure(err error) Response {
	msg := "coordinator unreachable"
	if err != nil {
		msg = err.Error()
	}
	return Response{OK: false, Error: CodedError(CodeTransport, msg)}
}

// DecodeData unmarshals the response data into out. It fails on error
// responses so callers cannot accidentally read data from a failure.
func (r Response) DecodeData(out any) error {
	if !r.OK {
		if r.Error != nil {
			return r.Error
		}
		return CodedError(CodeTransport, "response not ok")
	}
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}

// Err returns the response error, or nil for success.
func (r Response) Err() error {
	if r.OK || r.Error == nil {
		return nil
	}
	return r.Error
}
