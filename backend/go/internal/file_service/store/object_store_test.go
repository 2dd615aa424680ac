package store

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my report.pdf", "my_report.pdf"},
		{"a  b\tc.pdf", "a_b_c.pdf"},
		{"Jahresbericht (final).pdf", "Jahresbericht_final.pdf"},
		{"semi;colon's.pdf", "semicolons.pdf"},
		{"safe_name-1.2.pdf", "safe_name-1.2.pdf"},
		{"报告.pdf", ".pdf"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBuildKey(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	key := BuildKey("current", "anon", "my report.pdf", now)
	want := "current/anon_1700000000000_my_report.pdf"
	if key != want {
		t.Errorf("BuildKey = %q, want %q", key, want)
	}

	key = BuildKey("archive", "3f2a8b1c", "a b.pdf", now)
	if !strings.HasPrefix(key, "archive/3f2a8b1c_") {
		t.Errorf("owner key missing discriminator prefix: %q", key)
	}
	if !strings.HasSuffix(key, "_a_b.pdf") {
		t.Errorf("owner key missing sanitized name: %q", key)
	}
}
