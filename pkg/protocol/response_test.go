package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestOKResponse_NilValue(t *testing.T) {
	resp := OKResponse(nil)
	if !resp.OK {
		t.Fatal("expected ok response")
	}
	if resp.Error != nil {
		t.Errorf("expected nil error, got %v", resp.Error)
	}
	if len(resp.Data) != 0 {
		t.Errorf("expected empty data, got %s", resp.Data)
	}
}

func TestFailResponse_PreservesCode(t *testing.T) {
	resp := FailResponse(CodedError(CodeDuplicateProduct, "this product is already in the room"))
	if resp.OK {
		t.Fatal("expected failure response")
	}
	if resp.Error == nil || resp.Error.Code != CodeDuplicateProduct {
		t.Fatalf("expected DUPLICATE_PRODUCT code, got %+v", resp.Error)
	}
}

func TestResponse_SurvivesWireRoundTrip(t *testing.T) {
	// Failure codes must remain matchable after crossing the serialization
	// boundary between contexts.
	original := FailResponse(CodedError(CodeNotMember, "not a member of this room"))
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if !HasCode(decoded.Err(), CodeNotMember) {
		t.Fatalf("expected NOT_MEMBER after round trip, got %v", decoded.Err())
	}
}

func TestDecodeData_RefusesFailureData(t *testing.T) {
	resp := FailResponse(errors.New("boom"))
	var out map[string]any
	if err := resp.DecodeData(&out); err == nil {
		t.Fatal("expected error decoding data from a failure response")
	}
}

func TestTransportFailure_Tagged(t *testing.T) {
	resp := TransportFailure(nil)
	if resp.OK {
		t.Fatal("expected failure")
	}
	if !HasCode(resp.Err(), CodeTransport) {
		t.Fatalf("expected TRANSPORT_FAILURE code, got %v", resp.Err())
	}
}

func TestHydrate_WrappedError(t *testing.T) {
	inner := CodedError(CodeNotFound, "room not found")
	wrapped := fmt.Errorf("executing rooms:delete: %w", inner)
	info := Hydrate(wrapped)
	if info.Code != CodeNotFound {
		t.Errorf("expected NOT_FOUND preserved through wrapping, got %q", info.Code)
	}
}

func TestHydrate_PlainError(t *testing.T) {
	info := Hydrate(errors.New("boom"))
	if info.Code != "" {
		t.Errorf("plain errors carry no code, got %q", info.Code)
	}
	if info.Message != "boom" {
		t.Errorf("expected message preserved, got %q", info.Message)
	}
}
