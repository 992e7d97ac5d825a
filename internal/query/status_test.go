package query

import (
	"errors"
	"testing"
)

func TestDecodeStatusSuccessStripsStatusLine(t *testing.T) {
	raw := "clid=5 cid=10\n\rerror id=0 msg=ok\n\r"
	body, err := decodeStatus(raw)
	if err != nil {
		t.Fatalf("decodeStatus: %v", err)
	}
	if body != "clid=5 cid=10" {
		t.Fatalf("body = %q, want %q", body, "clid=5 cid=10")
	}
}

func TestDecodeStatusSuccessWithoutBody(t *testing.T) {
	body, err := decodeStatus("error id=0 msg=ok\n\r")
	if err != nil {
		t.Fatalf("decodeStatus: %v", err)
	}
	if body != "" {
		t.Fatalf("body = %q, want empty", body)
	}
}

func TestDecodeStatusNonzeroCode(t *testing.T) {
	_, err := decodeStatus("error id=771 msg=channel\\sname\\sis\\salready\\sin\\suse\n\r")
	if err == nil {
		t.Fatal("expected error")
	}
	var qerr *Error
	if !errors.As(err, &qerr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if qerr.Code != 771 {
		t.Fatalf("code = %d, want 771", qerr.Code)
	}
	if qerr.Msg != "channel name is already in use" {
		t.Fatalf("msg = %q", qerr.Msg)
	}
}

func TestDecodeStatusMissingStatusLine(t *testing.T) {
	_, err := decodeStatus("clid=5 cid=10\n\r")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestDecodeStatusMalformedCode(t *testing.T) {
	if _, err := decodeStatus("error id=abc msg=broken\n\r"); err == nil {
		t.Fatal("expected error for unparsable status code")
	}
}
