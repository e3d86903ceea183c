package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewReader_EmptyBodyIsEmptyObject(t *testing.T) {
	r := NewReader(nil)
	if s := r.String("name", Optional); s != nil {
		t.Errorf("expected nil, got %q", *s)
	}
	if err := r.Err(); err != nil {
		t.Errorf("expected no issues, got %v", err)
	}
}

func TestNewReader_NonObject(t *testing.T) {
	for _, body := range []string{`[]`, `"text"`, `42`, `null`} {
		r := NewReader([]byte(body))
		r.String("firstName", Required)
		issues := r.issues
		if len(issues) != 1 {
			t.Fatalf("%s: expected exactly one root issue, got %v", body, issues)
		}
		if issues[0].Path != "" {
			t.Errorf("%s: expected root path, got %q", body, issues[0].Path)
		}
	}
}

func TestNewReader_MalformedJSON(t *testing.T) {
	r := NewReader([]byte(`{"firstName": `))
	if r.Err() == nil {
		t.Fatal("expected malformed JSON to be reported")
	}
}

func TestReader_CollectsEveryIssue(t *testing.T) {
	r := NewReader([]byte(`{"lastName": 7, "email": "nope", "duration": -1}`))
	r.MinLength("firstName", 1, Required, "First name is required")
	r.MinLength("lastName", 1, Required, "Last name is required")
	r.Email("email", Optional, "Invalid email address")
	r.Positive("duration", Required, "Duration must be positive")
	r.Date("dateOfBirth", Required)

	err := r.Err()
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %T", err)
	}
	paths := map[string]string{}
	for _, issue := range verrs {
		paths[issue.Path] = issue.Message
	}
	want := map[string]string{
		"firstName":   "Required",
		"lastName":    "Expected string, received number",
		"email":       "Invalid email address",
		"duration":    "Duration must be positive",
		"dateOfBirth": "Required",
	}
	if len(paths) != len(want) {
		t.Fatalf("expected %d issues, got %v", len(want), verrs)
	}
	for path, msg := range want {
		if paths[path] != msg {
			t.Errorf("%s: expected %q, got %q", path, msg, paths[path])
		}
	}
	if !strings.HasPrefix(err.Error(), "validation failed: ") {
		t.Errorf("unexpected error text: %s", err.Error())
	}
}

func TestReader_NullIsRejected(t *testing.T) {
	r := NewReader([]byte(`{"email": null}`))
	if s := r.Email("email", Optional, "Invalid email address"); s != nil {
		t.Fatal("expected nil for null")
	}
	issues := r.issues
	if len(issues) != 1 || issues[0].Message != "Expected string, received null" {
		t.Errorf("unexpected issues: %v", issues)
	}
}

func TestReader_MinLengthCountsCharacters(t *testing.T) {
	r := NewReader([]byte(`{"a": "ééééééééé", "b": "éééééééééé"}`))
	if r.MinLength("a", 10, Required, "short") != nil {
		t.Error("expected 9 characters to be rejected")
	}
	if r.MinLength("b", 10, Required, "short") == nil {
		t.Error("expected 10 characters to be accepted")
	}
}

func TestIsEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"john.doe@example.com", true},
		{"a+tag@sub.example.org", true},
		{"plain", false},
		{"@example.com", false},
		{"john@localhost", false},
		{"John <john@example.com>", false},
		{"john@example.", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsEmail(tt.in); got != tt.valid {
			t.Errorf("IsEmail(%q) = %v, want %v", tt.in, got, tt.valid)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"1990-01-15", time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2025-01-10T10:30:00Z", time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC), true},
		{"2025-01-10T10:30:00.250Z", time.Date(2025, 1, 10, 10, 30, 0, 250000000, time.UTC), true},
		{"2025-01-10T12:30:00+02:00", time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC), true},
		{"2025-01-10T10:30:00", time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC), true},
		{"invalid-date", time.Time{}, false},
		{"2025-02-30", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestReader_Number(t *testing.T) {
	r := NewReader([]byte(`{"n": 180, "s": "180", "f": 2.5}`))
	if n := r.Number("n", Required); n == nil || *n != 180 {
		t.Errorf("expected 180, got %v", n)
	}
	if f := r.Number("f", Required); f == nil || *f != 2.5 {
		t.Errorf("expected 2.5, got %v", f)
	}
	if s := r.Number("s", Required); s != nil {
		t.Error("expected quoted number to be rejected")
	}
	if len(r.issues) != 1 {
		t.Errorf("expected one issue, got %v", r.issues)
	}
}

func TestParseUUID(t *testing.T) {
	for _, good := range []string{
		"123e4567-e89b-12d3-a456-426614174000",
		"6F1C2A9E-8C57-4F0E-9F55-2F3D1F2B7A10",
		"00000000-0000-0000-0000-000000000000",
		"ffffffff-ffff-ffff-ffff-ffffffffffff",
	} {
		if _, ok := ParseUUID(good); !ok {
			t.Errorf("expected %q to parse", good)
		}
	}
	for _, bad := range []string{
		"12345678-1234-0234-0234-123456789012",
		"12345678-1234-9234-8234-123456789012",
		"12345678-1234-4234-c234-123456789012",
		"123e4567e89b12d3a456426614174000",
		"{123e4567-e89b-12d3-a456-426614174000}",
		"urn:uuid:123e4567-e89b-12d3-a456-426614174000",
		"not-a-uuid",
	} {
		if _, ok := ParseUUID(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestReader_Enum(t *testing.T) {
	allowed := []string{"pending", "transcribed", "summarized", "failed"}
	r := NewReader([]byte(`{"ok": "failed", "bad": "archived"}`))
	if s := r.Enum("ok", allowed, Required); s == nil || *s != "failed" {
		t.Errorf("expected failed, got %v", s)
	}
	if s := r.Enum("bad", allowed, Required); s != nil {
		t.Error("expected unknown status to be rejected")
	}
	issues := r.issues
	if len(issues) != 1 || !strings.Contains(issues[0].Message, `"pending"`) {
		t.Errorf("unexpected issues: %v", issues)
	}
}

func TestReader_StringList(t *testing.T) {
	r := NewReader([]byte(`{"good": ["Rest", "Hydration"], "mixed": ["ok", 3, "fine", false], "notList": "Rest", "empty": []}`))

	good := r.StringList("good", Optional)
	if len(good) != 2 || good[0] != "Rest" || good[1] != "Hydration" {
		t.Errorf("unexpected list: %v", good)
	}
	if empty := r.StringList("empty", Optional); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %v", empty)
	}
	if mixed := r.StringList("mixed", Optional); mixed != nil {
		t.Errorf("expected nil for invalid list, got %v", mixed)
	}
	if r.StringList("notList", Optional) != nil {
		t.Error("expected nil for non-array")
	}
	if r.StringList("absent", Optional) != nil {
		t.Error("expected nil for absent field")
	}

	paths := map[string]bool{}
	for _, issue := range r.issues {
		paths[issue.Path] = true
	}
	for _, p := range []string{"mixed.1", "mixed.3", "notList"} {
		if !paths[p] {
			t.Errorf("expected issue at %s, got %v", p, r.issues)
		}
	}
}
