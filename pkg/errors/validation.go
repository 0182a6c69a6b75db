package errors

import (
	"fmt"
	"strings"
	"unicode"
)

// Severity classifies a validation issue.
type Severity string

const (
	// SeverityError blocks further processing.
	SeverityError Severity = "error"
	// SeverityWarning is reported but never blocks.
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding attributed to a field.
type Issue struct {
	Field    string   `json:"field"`
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("%s: %s", i.Code, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Code, i.Field, i.Message)
}

// Issues is an ordered collection of validation findings.
type Issues []Issue

// Blocking returns the issues with error severity.
func (is Issues) Blocking() Issues {
	return is.filter(SeverityError)
}

// Warnings returns the issues with warning severity.
func (is Issues) Warnings() Issues {
	return is.filter(SeverityWarning)
}

// HasBlocking reports whether any issue blocks processing.
func (is Issues) HasBlocking() bool {
	for _, i := range is {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Codes returns the code of every issue, in order.
func (is Issues) Codes() []Code {
	codes := make([]Code, len(is))
	for n, i := range is {
		codes[n] = i.Code
	}
	return codes
}

// Err returns nil when nothing blocks. Otherwise it returns an *Error
// carrying the code of the first blocking issue and every issue found.
func (is Issues) Err() error {
	blocking := is.Blocking()
	if len(blocking) == 0 {
		return nil
	}
	msgs := make([]string, len(blocking))
	for n, i := range blocking {
		msgs[n] = i.String()
	}
	return &Error{
		Code:    blocking[0].Code,
		Message: "invalid template: " + strings.Join(msgs, "; "),
		Issues:  append([]Issue(nil), is...),
	}
}

func (is Issues) filter(s Severity) Issues {
	var out Issues
	for _, i := range is {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// ValidateName validates a user-supplied identifier such as a preset name
// or content reference. It rejects empty names, control characters and
// path separators.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "%s too long (max 128 characters)", kind)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", kind)
		}
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "%s contains invalid characters", kind)
	}
	return nil
}
