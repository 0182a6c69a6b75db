package buildinfo

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	tests := map[string]string{
		"v1.2.3": "labelsheet/1.2.3",
		"1.0.0":  "labelsheet/1.0.0",
		"dev":    "labelsheet/dev",
	}
	for v, want := range tests {
		Version = v
		if got := UserAgent(); got != want {
			t.Errorf("UserAgent() with Version %q = %q, want %q", v, got, want)
		}
	}
}

func TestTemplate(t *testing.T) {
	if !strings.Contains(Template(), "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "commit: "+Commit) {
		t.Errorf("String() = %q", String())
	}
}
