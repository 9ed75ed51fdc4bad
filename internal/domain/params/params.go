// Package params holds the key/value bags carried by sources (filters,
// credentials) and summary templates (generation parameters). Values are
// restricted to strings, numbers, booleans and lists of strings.
package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	errs "github.com/yungbote/newsboy-backend/internal/pkg/errors"
)

type Kind uint8

const (
	KindString Kind = iota + 1
	KindNumber
	KindBool
	KindStrings
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStrings:
		return "list of strings"
	default:
		return "invalid"
	}
}

// Value is one of the permitted parameter shapes. The zero Value is invalid.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
}

func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Int(i int) Value        { return Value{kind: KindNumber, num: float64(i)} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Strings(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindStrings, list: cp}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStrings:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return nil, fmt.Errorf("%w: empty parameter value", errs.ErrInvalidArgument)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty parameter value", errs.ErrInvalidArgument)
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("%w: lists may only contain strings", errs.ErrInvalidArgument)
		}
		*v = Strings(items...)
	case 'n':
		return fmt.Errorf("%w: null is not a permitted parameter value", errs.ErrInvalidArgument)
	case '{':
		return fmt.Errorf("%w: nested objects are not permitted parameter values", errs.ErrInvalidArgument)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite number", errs.ErrInvalidArgument)
		}
		*v = Number(f)
	}
	return nil
}

// Params maps parameter names to values.
type Params map[string]Value

func (p *Params) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parameters must be an object: %v", errs.ErrInvalidArgument, err)
	}
	out := make(Params, len(raw))
	for k, msg := range raw {
		var v Value
		if err := v.UnmarshalJSON(msg); err != nil {
			return fmt.Errorf("parameter %q: %w", k, err)
		}
		out[k] = v
	}
	*p = out
	return nil
}

func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		if v.kind == KindStrings {
			v = Strings(v.list...)
		}
		out[k] = v
	}
	return out
}

// Merge starts from base and lets every key in overrides win. Neither input is
// modified.
func Merge(base, overrides Params) Params {
	out := make(Params, len(base)+len(overrides))
	for k, v := range base.Clone() {
		out[k] = v
	}
	for k, v := range overrides.Clone() {
		out[k] = v
	}
	return out
}

// Int reads a whole number, saturating at the int32 range. Missing keys and
// other shapes yield def.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok || v.kind != KindNumber {
		return def
	}
	switch {
	case v.num >= math.MaxInt32:
		return math.MaxInt32
	case v.num <= math.MinInt32:
		return math.MinInt32
	}
	return int(v.num)
}

func (p Params) String(key string, def string) string {
	v, ok := p[key]
	if !ok || v.kind != KindString {
		return def
	}
	return v.str
}

func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok || v.kind != KindBool {
		return def
	}
	return v.b
}

// Strings returns a copy of a list value.
func (p Params) Strings(key string, def []string) []string {
	v, ok := p[key]
	if !ok || v.kind != KindStrings {
		return def
	}
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out
}

// Masked replaces every value with a fixed placeholder of the same key set.
func (p Params) Masked() Params {
	if len(p) == 0 {
		return Params{}
	}
	out := make(Params, len(p))
	for k := range p {
		out[k] = String("********")
	}
	return out
}
