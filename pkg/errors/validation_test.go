package errors

import (
	"strings"
	"testing"
)

func TestIssuesErr(t *testing.T) {
	warnOnly := Issues{
		{Field: "columns", Code: ErrCodeGridTooLarge, Severity: SeverityWarning, Message: "many cells"},
	}
	if err := warnOnly.Err(); err != nil {
		t.Fatalf("warnings must not block, got %v", err)
	}

	mixed := Issues{
		{Field: "columns", Code: ErrCodeGridTooLarge, Severity: SeverityWarning, Message: "many cells"},
		{Field: "page_width", Code: ErrCodeValueNegative, Severity: SeverityError, Message: "must be positive"},
		{Field: "rows", Code: ErrCodeGridInvalid, Severity: SeverityError, Message: "must be at least 1"},
	}
	err := mixed.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if GetCode(err) != ErrCodeValueNegative {
		t.Errorf("code = %v, want first blocking code", GetCode(err))
	}
	if got := GetIssues(err); len(got) != 3 {
		t.Errorf("GetIssues() returned %d issues, want 3", len(got))
	}
	if !strings.Contains(err.Error(), "rows") {
		t.Errorf("message should mention every blocking field: %v", err)
	}
	if len(mixed.Blocking()) != 2 || len(mixed.Warnings()) != 1 {
		t.Errorf("Blocking/Warnings split wrong: %v / %v", mixed.Blocking(), mixed.Warnings())
	}
	if !mixed.HasBlocking() || warnOnly.HasBlocking() {
		t.Error("HasBlocking mismatch")
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"avery5160", false},
		{"set:neo", false},
		{"", true},
		{"../etc/passwd", true},
		{"a/b", true},
		{"bad\x00name", true},
		{strings.Repeat("x", 129), true},
	}
	for _, tt := range tests {
		err := ValidateName("preset", tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidateName(%q) code = %v", tt.name, GetCode(err))
		}
	}
}
