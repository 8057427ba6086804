package check

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// DetailsSuffix marks the key carrying a failed check's diagnostic payload.
const DetailsSuffix = "Details"

// Set is the ordered outcome of every check run against one page.
//
// Its JSON form is a flat object: each check name maps to a boolean, and
// failed checks with a payload add a "<name>Details" key right after it.
type Set []Result

// Passed reports whether every check in the set passed.
// An empty set passes.
func (s Set) Passed() bool {
	for _, r := range s {
		if !r.OK() {
			return false
		}
	}
	return true
}

// Failed returns the failing results in check order.
func (s Set) Failed() []Result {
	var failed []Result
	for _, r := range s {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Names returns the check names in order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, r := range s {
		names[i] = r.Name
	}
	return names
}

// Get returns the result with the given name.
func (s Set) Get(name string) (Result, bool) {
	for _, r := range s {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

// MarshalJSON encodes the set as an ordered object.
func (s Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	for _, r := range s {
		if err := write(r.Name, r.OK()); err != nil {
			return nil, err
		}
		if !r.OK() && r.Payload != nil {
			if err := write(r.Name+DetailsSuffix, r.Payload); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form produced by MarshalJSON.
// Payloads are kept as json.RawMessage. A details key must belong to a failed
// check of the same name; any other details key is rejected.
func (s *Set) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid check set JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("check set: expected object, got %s", root.Type)
	}

	var (
		out      Set
		payloads = map[string]json.RawMessage{}
		err      error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if base, ok := strings.CutSuffix(name, DetailsSuffix); ok && base != "" {
			payloads[base] = json.RawMessage(value.Raw)
			return true
		}
		switch value.Type {
		case gjson.True:
			out = append(out, Result{Name: name, Status: StatusOK})
		case gjson.False:
			out = append(out, Result{Name: name, Status: StatusFail})
		default:
			err = fmt.Errorf("check %q: expected boolean, got %s", name, value.Type)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	for i := range out {
		if p, ok := payloads[out[i].Name]; ok && !out[i].OK() {
			out[i].Payload = p
			delete(payloads, out[i].Name)
		}
	}
	if len(payloads) > 0 {
		key := orphan(root, payloads)
		base := strings.TrimSuffix(key, DetailsSuffix)
		if _, ok := out.Get(base); ok {
			return fmt.Errorf("check %q: %s on a passing check", base, key)
		}
		return fmt.Errorf("check set: %s without a matching check", key)
	}
	*s = out
	return nil
}

// orphan returns the first details key, in document order, left in payloads.
func orphan(root gjson.Result, payloads map[string]json.RawMessage) string {
	var key string
	root.ForEach(func(k, _ gjson.Result) bool {
		if base, ok := strings.CutSuffix(k.String(), DetailsSuffix); ok {
			if _, left := payloads[base]; left {
				key = k.String()
				return false
			}
		}
		return true
	})
	return key
}
