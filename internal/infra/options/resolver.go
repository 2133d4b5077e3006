// Package options resolves service option maps against a declared schema:
// defaults, required keys and allowed value types.
package options

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/errors"

	"github.com/go-viper/mapstructure/v2"
)

// Type names accepted by SetAllowedTypes.
const (
	TypeString    = "string"
	TypeInt       = "int"
	TypeBool      = "bool"
	TypeFloat     = "float"
	TypeStrings   = "[]string"
	TypeStringMap = "map[string]string"
	TypeDuration  = "duration"
	TypeNull      = "null"
)

// Values is a resolved option map.
type Values map[string]any

// Resolver holds the schema of one configurable service. It is built fresh
// for each construction and is not safe for concurrent mutation.
type Resolver struct {
	defaults map[string]any
	defined  map[string]struct{}
	required map[string]struct{}
	allowed  map[string][]string
}

// NewResolver returns an empty schema.
func NewResolver() *Resolver {
	return &Resolver{
		defaults: make(map[string]any),
		defined:  make(map[string]struct{}),
		required: make(map[string]struct{}),
		allowed:  make(map[string][]string),
	}
}

// SetDefault declares key with a default value.
func (r *Resolver) SetDefault(key string, value any) *Resolver {
	r.defined[key] = struct{}{}
	r.defaults[key] = value

	return r
}

// SetDefaults declares every key of defaults.
func (r *Resolver) SetDefaults(defaults map[string]any) *Resolver {
	for key, value := range defaults {
		r.SetDefault(key, value)
	}

	return r
}

// SetRequired declares keys that must be present after defaults are applied.
func (r *Resolver) SetRequired(keys ...string) *Resolver {
	for _, key := range keys {
		r.defined[key] = struct{}{}
		r.required[key] = struct{}{}
	}

	return r
}

// SetDefined declares optional keys that have no default.
func (r *Resolver) SetDefined(keys ...string) *Resolver {
	for _, key := range keys {
		r.defined[key] = struct{}{}
	}

	return r
}

// SetAllowedTypes restricts the value of key to one of the given type names.
// The key becomes defined.
func (r *Resolver) SetAllowedTypes(key string, types ...string) *Resolver {
	r.defined[key] = struct{}{}
	r.allowed[key] = append([]string(nil), types...)

	return r
}

// Resolve validates input against the schema and fills in defaults. The
// input map is not modified.
func (r *Resolver) Resolve(input map[string]any) (Values, error) {
	var unknown []string
	for key := range input {
		if _, ok := r.defined[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		err := errors.Errorf("the option(s) %q do not exist, defined options are: %q",
			strings.Join(unknown, ", "), strings.Join(slices.Sorted(maps.Keys(r.defined)), ", "))

		return nil, domainerrors.NewConfigurationError(err, "unknown option "+unknown[0])
	}

	resolved := make(Values, len(r.defaults)+len(input))
	maps.Copy(resolved, r.defaults)
	maps.Copy(resolved, input)

	for _, key := range slices.Sorted(maps.Keys(r.required)) {
		if _, ok := resolved[key]; !ok {
			err := errors.Errorf("the required option %q is missing", key)

			return nil, domainerrors.NewConfigurationError(err, "missing option "+key)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(resolved)) {
		types := r.allowed[key]
		if len(types) == 0 {
			continue
		}
		value := resolved[key]
		if !slices.ContainsFunc(types, func(t string) bool { return matches(t, value) }) {
			err := errors.Errorf("the option %q with value %v is expected to be of type %q, but is of type %s",
				key, value, strings.Join(types, "|"), typeName(value))

			return nil, domainerrors.NewConfigurationError(err, "invalid type for option "+key)
		}
	}

	return resolved, nil
}

// ResolveInto resolves input and decodes the result into out, a pointer to a
// struct whose fields carry `option:"name"` tags.
func (r *Resolver) ResolveInto(input map[string]any, out any) error {
	values, err := r.Resolve(input)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "option",
	})
	if err != nil {
		return domainerrors.NewConfigurationError(errors.Wrap(err, "mapstructure.NewDecoder"), "decoder")
	}

	if err := decoder.Decode(map[string]any(values)); err != nil {
		return domainerrors.NewConfigurationError(errors.Wrap(err, "decode options"), "decode")
	}

	return nil
}

// String returns the string value of key, or "" when absent or not a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)

	return s
}

// Int returns the integer value of key, or 0.
func (v Values) Int(key string) int {
	rv := reflect.ValueOf(v[key])
	switch {
	case !rv.IsValid():
		return 0
	case rv.CanInt():
		return int(rv.Int())
	case rv.CanUint():
		return int(rv.Uint())
	default:
		return 0
	}
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v[key]

	return ok
}

func matches(typ string, value any) bool {
	if value == nil {
		return typ == TypeNull
	}

	switch typ {
	case TypeString:
		_, ok := value.(string)

		return ok
	case TypeBool:
		_, ok := value.(bool)

		return ok
	case TypeDuration:
		_, ok := value.(time.Duration)

		return ok
	case TypeStrings:
		_, ok := value.([]string)

		return ok
	case TypeStringMap:
		_, ok := value.(map[string]string)

		return ok
	case TypeInt:
		if _, ok := value.(time.Duration); ok {
			return false
		}
		rv := reflect.ValueOf(value)

		return rv.CanInt() || rv.CanUint()
	case TypeFloat:
		return reflect.ValueOf(value).CanFloat()
	default:
		return false
	}
}

func typeName(value any) string {
	if value == nil {
		return TypeNull
	}

	return fmt.Sprintf("%T", value)
}
