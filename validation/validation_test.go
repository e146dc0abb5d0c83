package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/watershed/errors"
)

func TestValidatorRequired(t *testing.T) {
	if New().Required("dem", "dem.tif").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("dem", "").HasErrors() {
		t.Error("expected error for empty required field")
	}
	if !New().Required("dem", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorPositive(t *testing.T) {
	tests := []struct {
		value   int
		wantErr bool
	}{
		{1000, false},
		{1, false},
		{0, true},
		{-5, true},
	}
	for _, tt := range tests {
		got := New().Positive("stream_threshold", tt.value).HasErrors()
		if got != tt.wantErr {
			t.Errorf("Positive(%d) hasErrors=%v, want %v", tt.value, got, tt.wantErr)
		}
	}
}

func TestValidatorNonNegative(t *testing.T) {
	if New().NonNegative("timeout", 0).HasErrors() {
		t.Error("zero should be allowed")
	}
	if !New().NonNegative("timeout", -1).HasErrors() {
		t.Error("negative should fail")
	}
}

func TestValidatorRequiredUUID(t *testing.T) {
	if v := New().RequiredUUID("run_id", uuid.New().String()); v.HasErrors() {
		t.Errorf("expected no errors for valid UUID, got %v", v.Errors())
	}
	if !New().RequiredUUID("run_id", "").HasErrors() {
		t.Error("expected error for empty UUID")
	}
	if !New().RequiredUUID("run_id", "not-a-uuid").HasErrors() {
		t.Error("expected error for invalid UUID")
	}
	if !New().RequiredUUID("run_id", uuid.Nil.String()).HasErrors() {
		t.Error("expected error for nil UUID")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"qgis", "whitebox"}
	if New().OneOf("backend", "qgis", allowed).HasErrors() {
		t.Error("expected no error for allowed value")
	}
	if New().OneOf("backend", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	v := New().OneOf("backend", "grass", allowed)
	if !v.HasErrors() {
		t.Fatal("expected error for disallowed value")
	}
	if !strings.Contains(v.Errors()[0].Message, "qgis, whitebox") {
		t.Errorf("unexpected message %q", v.Errors()[0].Message)
	}
}

func TestValidatorCustom(t *testing.T) {
	if New().Custom(true, "x", "bad").HasErrors() {
		t.Error("true condition should pass")
	}
	if !New().Custom(false, "x", "bad").HasErrors() {
		t.Error("false condition should fail")
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	err := New().Required("dem", "").Positive("stream_threshold", 0).Validate()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "dem: is required") || !strings.Contains(appErr.Message, "stream_threshold:") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	if _, ok := appErr.Details[errors.DetailField]; ok {
		t.Error("expected no single field detail with two errors")
	}
}

func TestValidatorValidate_SingleFieldDetail(t *testing.T) {
	appErr, _ := errors.AsAppError(New().Required("pour_points", "").Validate())
	if appErr.Detail(errors.DetailField) != "pour_points" {
		t.Errorf("expected field detail, got %q", appErr.Detail(errors.DetailField))
	}
}

func TestValidateUUID(t *testing.T) {
	id := uuid.New()
	got, err := ValidateUUID("run_id", id.String())
	if err != nil || got != id {
		t.Errorf("ValidateUUID() = %v, %v", got, err)
	}
	if _, err := ValidateUUID("run_id", "nope"); err == nil {
		t.Error("expected error for invalid UUID")
	}
}

type sample struct {
	Backend   string `mapstructure:"backend" validate:"required,oneof=qgis whitebox"`
	Threshold int    `mapstructure:"threshold" validate:"gt=0"`
	Nested    struct {
		Retries int `mapstructure:"retries" validate:"gte=0"`
	} `mapstructure:"nested"`
}

func TestValidateStruct(t *testing.T) {
	ok := sample{Backend: "qgis", Threshold: 1000}
	if err := Validate(ok); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}

	bad := sample{Backend: "grass", Threshold: 0}
	bad.Nested.Retries = -1
	err := Validate(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"backend: must be one of: qgis whitebox",
		"threshold: must be greater than 0",
		"nested.retries: must be at least 0",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("StreamThreshold"); got != "stream_threshold" {
		t.Errorf("toSnakeCase() = %q", got)
	}
}
