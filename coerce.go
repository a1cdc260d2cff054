package geotape

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// params wraps the raw parameter object of one operation and coerces
// individual fields, reporting failures against the operation.
type params struct {
	op  Kind
	raw map[string]any
}

// lookup returns the first present key among names.
func (p params) lookup(names ...string) (string, any, bool) {
	for _, n := range names {
		if v, ok := p.raw[n]; ok && v != nil {
			return n, v, true
		}
	}
	return names[0], nil, false
}

func (p params) has(names ...string) bool {
	_, _, ok := p.lookup(names...)
	return ok
}

func (p params) number(def float64, names ...string) (float64, error) {
	name, v, ok := p.lookup(names...)
	if !ok {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, invalidParam(p.op, name, v, "%v", err)
	}
	return f, nil
}

func (p params) integer(def int, names ...string) (int, error) {
	name, v, ok := p.lookup(names...)
	if !ok {
		return def, nil
	}
	i, err := toInt(v)
	if err != nil {
		return 0, invalidParam(p.op, name, v, "%v", err)
	}
	return i, nil
}

func (p params) boolean(def bool, names ...string) (bool, error) {
	name, v, ok := p.lookup(names...)
	if !ok {
		return def, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, invalidParam(p.op, name, v, "%v", err)
	}
	return b, nil
}

func (p params) text(def string, names ...string) (string, error) {
	name, v, ok := p.lookup(names...)
	if !ok {
		return def, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return "", invalidParam(p.op, name, v, "expected a string, got %T", v)
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

// seed returns an explicit seed when one is configured and a fresh
// non-reproducible one otherwise.
func (p params) seed() (Seed, error) {
	name, v, ok := p.lookup("seed")
	if !ok {
		return freshSeed(), nil
	}
	u, err := toUint64(v)
	if err != nil {
		return Seed{}, invalidParam(p.op, name, v, "%v", err)
	}
	return FixedSeed(u), nil
}

// object returns a nested parameter object.
func (p params) object(name string) (params, bool, error) {
	v, ok := p.raw[name]
	if !ok || v == nil {
		return params{}, false, nil
	}
	m, ok := asMap(v)
	if !ok {
		return params{}, false, invalidParam(p.op, name, v, "expected an object, got %T", v)
	}
	return params{op: p.op, raw: m}, true, nil
}

// asMap accepts the map shapes produced by encoding/json, yaml.v3,
// BurntSushi/toml and koanf.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Config:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, errors.New("not a number")
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, errors.New("not a number")
		}
		f = parsed
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("must be finite")
	}
	return f, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, errors.New("integer out of range")
		}
		return int64(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, errors.New("integer out of range")
		}
		return int64(n), nil
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, nil
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, errors.New("expected an integer")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errors.New("integer out of range")
	}
	return int64(f), nil
}

// toUint64 accepts the full unsigned range, which int64 parsing would cut
// in half. Seeds use it.
func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint:
		return uint64(n), nil
	case string:
		if u, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64); err == nil {
			return u, nil
		}
	case json.Number:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, nil
		}
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, errors.New("must not be negative")
	}
	return uint64(i), nil
}

func toInt(v any) (int, error) {
	i, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, errors.New("integer out of range")
	}
	return int(i), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "t", "yes", "y", "on", "1":
			return true, nil
		case "false", "f", "no", "n", "off", "0", "":
			return false, nil
		}
		return false, errors.New("not a boolean")
	}
	f, err := toFloat(v)
	if err != nil {
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
	switch f {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errors.New("not a boolean")
}
