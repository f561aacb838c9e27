package params

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/open-mmpa/functions/errors"
)

type Resolved struct {
	values  map[string]interface{}
	sources map[string]Source
}

func (r Resolved) Value(name string) interface{} {
	return r.values[name]
}

func (r Resolved) Source(name string) Source {
	return r.sources[name]
}

// Sources reports where each parameter came from, for request logging.
func (r Resolved) Sources() map[string]string {
	out := make(map[string]string, len(r.sources))
	for name, src := range r.sources {
		out[name] = src.String()
	}
	return out
}

func (r Resolved) String(name string) (string, error) {
	s, err := AsString(r.values[name])
	if err != nil {
		return "", errors.Wrapf(err, "parameter %s", name)
	}
	return s, nil
}

func (r Resolved) Int(name string) (int, error) {
	n, err := AsInt(r.values[name])
	if err != nil {
		return 0, errors.Wrapf(err, "parameter %s", name)
	}
	return n, nil
}

func (r Resolved) Decode(name string, out interface{}) error {
	if err := Decode(r.values[name], out); err != nil {
		return errors.Wrapf(err, "parameter %s", name)
	}
	return nil
}

// AsString interprets a scalar value as a string. JSON null is the empty
// string; objects and arrays are rejected.
func AsString(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", errors.Errorf("expected a string, got %T", v)
	}
}

// AsInt interprets JSON numbers and numeric strings as an int.
func AsInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, errors.Errorf("expected an integer, got %v", t)
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Wrapf(err, "expected an integer, got %s", t)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, errors.Wrapf(err, "expected an integer, got %q", t)
		}
		return n, nil
	default:
		return 0, errors.Errorf("expected an integer, got %T", v)
	}
}

// Decode converts a resolved value into out. Strings, which is how query
// and form fields arrive, are parsed as JSON documents; structured body
// values are re-encoded. A nil value leaves out untouched.
func Decode(v interface{}, out interface{}) error {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return json.Unmarshal([]byte(t), out)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return errors.Wrap(err, "re-encode value")
		}
		return json.Unmarshal(raw, out)
	}
}
