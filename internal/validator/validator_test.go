package validator

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name   string `json:"name" validate:"required"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(sample{Rating: 9})
	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fields["name"]; !ok {
		t.Fatalf("expected name error, got %v", fields)
	}
	if msg := fields["rating"]; !strings.Contains(msg, "rating") {
		t.Fatalf("expected translated rating message, got %q", msg)
	}
	if err := v.Struct(sample{Name: "Ada", Rating: 3}); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
}
