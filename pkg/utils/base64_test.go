package utils

import "testing"

func TestDecodeBase64(t *testing.T) {
	got, err := DecodeBase64("aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeBase64 failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestDecodeBase64DataURL(t *testing.T) {
	got, err := DecodeBase64("data:application/json;base64,W10=")
	if err != nil {
		t.Fatalf("DecodeBase64 failed: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("got %q, want %q", got, "[]")
	}
}

func TestDecodeBase64Invalid(t *testing.T) {
	if _, err := DecodeBase64("not base64!!!"); err == nil {
		t.Fatal("expected an error for invalid base64")
	}
}
