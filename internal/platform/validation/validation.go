// Package validation reads untyped JSON request bodies field by field,
// recording every rule violation instead of stopping at the first one.
//
// A Reader is created per request body; typed accessors return a pointer to
// the decoded value (nil when absent or invalid) and Err reports the full set
// of issues once all fields have been read.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Issue is a single field-level rule violation.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Errors is the complete list of issues found in one body.
type Errors []Issue

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, issue := range e {
		if issue.Path == "" {
			parts[i] = issue.Message
			continue
		}
		parts[i] = issue.Path + ": " + issue.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Presence states whether a field must be supplied.
type Presence int

const (
	Optional Presence = iota
	Required
)

// dateLayouts are tried in order when parsing date fields.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type Reader struct {
	fields    map[string]json.RawMessage
	issues    Errors
	malformed bool
}

// NewReader parses body as a JSON object. An empty body reads as {}.
// Anything else that is not an object yields a single root issue and every
// accessor then returns nil.
func NewReader(body []byte) *Reader {
	r := &Reader{fields: map[string]json.RawMessage{}}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return r
	}
	if trimmed[0] != '{' {
		r.malformed = true
		r.add("", "Expected object, received "+kindOf(trimmed))
		return r
	}
	if err := json.Unmarshal(trimmed, &r.fields); err != nil {
		r.malformed = true
		r.add("", "Malformed JSON body")
	}
	return r
}

// Err returns Errors when any issue was recorded, nil otherwise.
func (r *Reader) Err() error {
	if len(r.issues) == 0 {
		return nil
	}
	return r.issues
}

func (r *Reader) add(path, msg string) {
	r.issues = append(r.issues, Issue{Path: path, Message: msg})
}

func (r *Reader) raw(field string, p Presence) (json.RawMessage, bool) {
	if r.malformed {
		return nil, false
	}
	v, ok := r.fields[field]
	if !ok {
		if p == Required {
			r.add(field, "Required")
		}
		return nil, false
	}
	return v, true
}

func (r *Reader) String(field string, p Presence) *string {
	v, ok := r.raw(field, p)
	if !ok {
		return nil
	}
	return r.decodeString(field, v)
}

func (r *Reader) decodeString(path string, v json.RawMessage) *string {
	var s string
	if err := json.Unmarshal(v, &s); err != nil || v[0] != '"' {
		r.add(path, "Expected string, received "+kindOf(v))
		return nil
	}
	return &s
}

// MinLength reads a string of at least n characters; msg reports a short one.
func (r *Reader) MinLength(field string, n int, p Presence, msg string) *string {
	s := r.String(field, p)
	if s == nil {
		return nil
	}
	if utf8.RuneCountInString(*s) < n {
		r.add(field, msg)
		return nil
	}
	return s
}

// Email reads a bare address such as "jane@example.com".
func (r *Reader) Email(field string, p Presence, msg string) *string {
	s := r.String(field, p)
	if s == nil {
		return nil
	}
	if !IsEmail(*s) {
		r.add(field, msg)
		return nil
	}
	return s
}

// IsEmail reports whether s is a bare addr-spec with a dotted domain.
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".") && !strings.HasPrefix(domain, ".")
}

// Date reads an RFC 3339 timestamp or a YYYY-MM-DD calendar date.
func (r *Reader) Date(field string, p Presence) *time.Time {
	s := r.String(field, p)
	if s == nil {
		return nil
	}
	t, ok := ParseDate(*s)
	if !ok {
		r.add(field, "Invalid date")
		return nil
	}
	return &t
}

// ParseDate tries each accepted layout; layouts without a zone are UTC.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (r *Reader) Number(field string, p Presence) *float64 {
	v, ok := r.raw(field, p)
	if !ok {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil || v[0] == '"' {
		r.add(field, "Expected number, received "+kindOf(v))
		return nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		r.add(field, "Expected number, received "+kindOf(v))
		return nil
	}
	return &f
}

// Positive reads a number strictly greater than zero.
func (r *Reader) Positive(field string, p Presence, msg string) *float64 {
	f := r.Number(field, p)
	if f == nil {
		return nil
	}
	if *f <= 0 {
		r.add(field, msg)
		return nil
	}
	return f
}

// UUID reads an identifier in canonical 8-4-4-4-12 form.
func (r *Reader) UUID(field string, p Presence) *uuid.UUID {
	s := r.String(field, p)
	if s == nil {
		return nil
	}
	id, ok := ParseUUID(*s)
	if !ok {
		r.add(field, "Invalid UUID")
		return nil
	}
	return &id
}

// ParseUUID accepts only the canonical hyphenated form of an RFC 9562 UUID
// (version 1 to 8, RFC 4122 variant) or the nil and max UUIDs.
func ParseUUID(s string) (uuid.UUID, bool) {
	if len(s) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	if id == uuid.Nil || id == uuid.Max {
		return id, true
	}
	if v := id.Version(); v < 1 || v > 8 || id.Variant() != uuid.RFC4122 {
		return uuid.Nil, false
	}
	return id, true
}

// Enum reads a string that must be one of allowed.
func (r *Reader) Enum(field string, allowed []string, p Presence) *string {
	s := r.String(field, p)
	if s == nil {
		return nil
	}
	for _, a := range allowed {
		if *s == a {
			return s
		}
	}
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = strconv.Quote(a)
	}
	r.add(field, "Invalid option: expected one of "+strings.Join(quoted, "|"))
	return nil
}

// StringList reads an array of strings. Element issues are reported with
// the index appended to the path, e.g. "keyPoints.2".
func (r *Reader) StringList(field string, p Presence) []string {
	v, ok := r.raw(field, p)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil || v[0] != '[' {
		r.add(field, "Expected array, received "+kindOf(v))
		return nil
	}
	out := make([]string, 0, len(items))
	valid := true
	for i, item := range items {
		s := r.decodeString(fmt.Sprintf("%s.%d", field, i), item)
		if s == nil {
			valid = false
			continue
		}
		out = append(out, *s)
	}
	if !valid {
		return nil
	}
	return out
}

func kindOf(v []byte) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "undefined"
	}
	switch v[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
