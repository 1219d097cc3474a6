package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

type testPayload struct {
	Title      string `json:"title" validate:"notblank,max=10"`
	Properties string `json:"properties" validate:"required,json"`
	SlideID    uint   `json:"slideId" validate:"gt=0"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Title:      "Demo",
		Properties: `{"type":"rect"}`,
		SlideID:    1,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Title:      "   ",
		Properties: "{not json",
		SlideID:    0,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundProperties := false
	for _, v := range vErrs {
		if v.Field == "properties" && v.Tag == "json" {
			foundProperties = true
		}
	}

	if !foundProperties {
		t.Fatal("expected properties field to be present in validation errors")
	}
}

func TestMaxLengthMessage(t *testing.T) {
	err := ValidateStruct(testPayload{
		Title:      strings.Repeat("x", 11),
		Properties: "{}",
		SlideID:    2,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Error(); got != "title cannot exceed 10 characters" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("deck", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "deck"
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Value string `validate:"deck"`
	}

	if err := ValidateStruct(custom{Value: "deck"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Value: "other"}); err == nil {
		t.Fatal("expected validation to fail for non-matching value")
	}
}

func TestValidateVarUsesFieldName(t *testing.T) {
	err := ValidateVar("nickname", "   ", "notblank,max=50")
	if err == nil {
		t.Fatal("expected blank nickname to fail")
	}
	if got := err.Error(); got != "nickname cannot be null or empty" {
		t.Fatalf("unexpected message %q", got)
	}

	if err := ValidateVar("nickname", "alice", "notblank,max=50"); err != nil {
		t.Fatalf("expected valid nickname, got %v", err)
	}
}
