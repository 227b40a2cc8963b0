package formula

import (
	"fmt"

	"github.com/tjfontaine/promptpack/internal/domain"
)

// Resolve validates raw caller parameters against the formula's schema and
// produces an Invocation with defaults applied and values coerced. All
// failures are validation errors reported before any network call.
func Resolve(f *Formula, raw map[string]any) (*Invocation, error) {
	declared := make(map[string]Param, len(f.Params))
	for _, p := range f.Params {
		declared[p.Name] = p
	}

	for name := range raw {
		if _, ok := declared[name]; !ok {
			return nil, domain.ErrValidation("unknown parameter").WithParam(name)
		}
	}

	values := make(map[string]any, len(f.Params))
	for _, p := range f.Params {
		v, ok := raw[p.Name]
		if !ok {
			if p.Default != nil {
				values[p.Name] = p.Default
				continue
			}
			if !p.Optional {
				return nil, domain.ErrValidation("parameter is required").WithParam(p.Name)
			}
			continue
		}

		coerced, err := coerce(p, v)
		if err != nil {
			return nil, err
		}
		values[p.Name] = coerced
	}

	return &Invocation{values: values}, nil
}

func coerce(p Param, v any) (any, error) {
	switch p.Type {
	case ParamString:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(p, "a string")
		}
		return s, nil

	case ParamNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		}
		return nil, typeError(p, "a number")

	case ParamBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(p, "a boolean")
		}
		return b, nil

	case ParamStringArray:
		switch arr := v.(type) {
		case []string:
			return arr, nil
		case []any:
			out := make([]string, len(arr))
			for i, item := range arr {
				s, ok := item.(string)
				if !ok {
					return nil, typeError(p, "an array of strings")
				}
				out[i] = s
			}
			return out, nil
		}
		return nil, typeError(p, "an array of strings")
	}

	return nil, domain.ErrValidation(fmt.Sprintf("unsupported parameter type %q", p.Type)).WithParam(p.Name)
}

func typeError(p Param, want string) error {
	return domain.ErrValidation("must be " + want).WithParam(p.Name)
}
