// Package toolinput decodes the loosely structured argument text a
// collaborator supplies to a state operation.
//
// Parsing tries, in order: a JSON object, "key: value" pairs, and finally
// the whole text as a single unnamed value.
package toolinput

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var ErrInputShape = errors.New("tool input has an unrecognized shape")

// Kind identifies which parse succeeded.
type Kind int

const (
	KindStructured Kind = iota + 1
	KindDelimited
	KindBare
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindDelimited:
		return "delimited"
	case KindBare:
		return "bare"
	default:
		return "unknown"
	}
}

// Input is a parsed argument. Fields is set for structured and delimited
// input; Value for bare input.
type Input struct {
	Kind   Kind
	Fields map[string]string
	Keys   []string // field keys in source order
	Value  string
}

// Parse decodes raw into an Input.
func Parse(raw string) (Input, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Input{}, fmt.Errorf("%w: empty input", ErrInputShape)
	}
	if in, ok := parseStructured(trimmed); ok {
		return in, nil
	}
	if in, ok := parseDelimited(trimmed); ok {
		return in, nil
	}
	return Input{Kind: KindBare, Value: unquote(trimmed)}, nil
}

// DecodeStrict decodes raw as a JSON object into v, rejecting unknown fields.
func DecodeStrict(raw string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInputShape, err)
	}
	return nil
}

// Bind maps the input onto the named fields. The first field is required.
//
// Structured and delimited input match keys case-insensitively. A single
// delimited pair whose key matches none of the fields is read positionally
// as (fields[0], fields[1]), so "Zephyr: the tower" binds to name and
// location. Bare input binds to fields[0].
func (in Input) Bind(fields ...string) (map[string]string, error) {
	if len(fields) == 0 {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(fields))

	switch in.Kind {
	case KindBare:
		out[fields[0]] = in.Value
		return out, nil

	case KindStructured, KindDelimited:
		matched := false
		for _, f := range fields {
			if v, ok := in.lookup(f); ok {
				out[f] = v
				matched = true
			}
		}
		if !matched && in.Kind == KindDelimited && len(in.Keys) == 1 && len(fields) >= 2 {
			key := in.Keys[0]
			out[fields[0]] = key
			out[fields[1]] = in.Fields[key]
			return out, nil
		}
		if out[fields[0]] == "" {
			return nil, fmt.Errorf("%w: missing %q", ErrInputShape, fields[0])
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: unparsed input", ErrInputShape)
}

func (in Input) lookup(field string) (string, bool) {
	if v, ok := in.Fields[field]; ok {
		return v, true
	}
	for k, v := range in.Fields {
		if strings.EqualFold(normalizeKey(k), normalizeKey(field)) {
			return v, true
		}
	}
	return "", false
}

func parseStructured(s string) (Input, bool) {
	if !strings.HasPrefix(s, "{") {
		return Input{}, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || len(obj) == 0 {
		return Input{}, false
	}
	in := Input{Kind: KindStructured, Fields: make(map[string]string, len(obj))}
	for k, v := range obj {
		in.Fields[k] = stringify(v)
		in.Keys = append(in.Keys, k)
	}
	sort.Strings(in.Keys)
	return in, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// parseDelimited reads "key: value" or "key=value" pairs separated by
// newlines or semicolons.
func parseDelimited(s string) (Input, bool) {
	segments := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ';' })
	in := Input{Kind: KindDelimited, Fields: make(map[string]string)}
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		idx := strings.IndexAny(seg, ":=")
		if idx <= 0 {
			return Input{}, false
		}
		key := strings.TrimSpace(seg[:idx])
		val := unquote(strings.TrimSpace(seg[idx+1:]))
		if !validKey(key) {
			return Input{}, false
		}
		if _, dup := in.Fields[key]; !dup {
			in.Keys = append(in.Keys, key)
		}
		in.Fields[key] = val
	}
	if len(in.Keys) == 0 {
		return Input{}, false
	}
	return in, true
}

func validKey(k string) bool {
	if k == "" || len(k) > 64 {
		return false
	}
	for _, r := range k {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != ' ' && r != '\'' {
			return false
		}
	}
	return true
}

func normalizeKey(k string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(k))
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
