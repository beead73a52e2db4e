package errors

import (
	"fmt"
	"testing"
)

func TestErrorToCode(t *testing.T) {
	tests := []struct {
		err  error
		want int32
	}{
		{nil, CodeOK},
		{fmt.Errorf("read header: %w", ErrShortRead), CodeIO},
		{ErrShortWrite, CodeIO},
		{Wrap(ErrChecksum, "record 3"), CodeBadRecord},
		{NewAlloc("beams", 70000, 65535), CodeAlloc},
		{NewUnsupported("sb16", "insert"), CodeUnsupported},
		{ErrUnknownFormat, CodeUnknownFormat},
		{NewValidation("codec.min_scale", "must be positive"), CodeInvalidConfig},
		{ErrClosed, CodeClosed},
		{New("something else"), CodeInternal},
	}

	for _, tt := range tests {
		if got := ErrorToCode(tt.err); got != tt.want {
			t.Errorf("ErrorToCode(%v) = %s, want %s", tt.err, CodeName(got), CodeName(tt.want))
		}
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(NewAlloc("pixels", 10, 5)) {
		t.Error("alloc failure should be fatal")
	}
	if IsFatal(ErrShortRead) {
		t.Error("short read should not be fatal to the stream")
	}
	if IsFatal(ErrUnsupported) {
		t.Error("unsupported should not be fatal")
	}
}

func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	if v.Err() != nil {
		t.Fatal("empty collector should return nil")
	}

	v.AddField("workers", "must be positive")
	v.Add(NewMissingField("export.dir"))
	v.Add(nil)

	if len(v.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors))
	}

	err := v.Err()
	if !Is(err, ErrInvalidConfig) {
		t.Error("expected ErrInvalidConfig in chain")
	}
	if !Is(err, ErrMissingField) {
		t.Error("expected ErrMissingField in chain")
	}
	if !IsValidation(err) {
		t.Error("expected validation category")
	}
}

func TestCodeName(t *testing.T) {
	if CodeName(CodeAlloc) != "Alloc" {
		t.Errorf("unexpected name %q", CodeName(CodeAlloc))
	}
	if CodeName(99) != "Code(99)" {
		t.Errorf("unexpected name %q", CodeName(99))
	}
}
