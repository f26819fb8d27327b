package clonefile

import (
	"reflect"
	"strings"
)

// Keys accepted by ConvertOptions.
const (
	OptNoFollow    = "noFollow"
	OptNoOwnerCopy = "noOwnerCopy"
	OptCloneACL    = "cloneAcl"
)

// ConvertPath converts a dynamically typed value into a path. Strings,
// named string types and byte slices are accepted; anything else fails
// with a *ConversionError naming the received type and value. A String
// method does not make a value a path.
func ConvertPath(v any) (string, error) {
	var p string
	switch x := v.(type) {
	case string:
		p = x
	case []byte:
		p = string(x)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.String {
			return "", &ConversionError{Expected: "string", Value: v}
		}
		p = rv.String()
	}
	if err := validatePath(p); err != nil {
		return "", err
	}
	return p, nil
}

// ConvertOptions converts a dynamically typed options value. nil and an
// empty map yield the defaults. Map keys are noFollow, noOwnerCopy and
// cloneAcl; unknown keys are ignored.
func ConvertOptions(v any) (Options, error) {
	switch x := v.(type) {
	case nil:
		return Options{}, nil
	case Options:
		return x, nil
	case *Options:
		if x == nil {
			return Options{}, nil
		}
		return *x, nil
	case map[string]any:
		return optionsFromMap(x)
	default:
		return Options{}, &ConversionError{Expected: "object", Value: v}
	}
}

func optionsFromMap(m map[string]any) (Options, error) {
	var opts Options
	fields := []struct {
		key string
		dst *bool
	}{
		{OptNoFollow, &opts.NoFollow},
		{OptNoOwnerCopy, &opts.NoOwnerCopy},
		{OptCloneACL, &opts.CloneACL},
	}
	for _, f := range fields {
		raw, ok := m[f.key]
		if !ok || raw == nil {
			continue
		}
		b, ok := raw.(bool)
		if !ok {
			return Options{}, &ConversionError{Expected: "bool", Value: raw, Reason: "option " + f.key}
		}
		*f.dst = b
	}
	return opts, nil
}

// Invoke is Clone for untyped arguments, as handed over by a host that
// decodes JSON or bridges another runtime.
func Invoke(src, dst, opts any) (int, error) {
	s, d, o, err := convertArgs(src, dst, opts)
	if err != nil {
		return failed, err
	}
	return Clone(s, d, o)
}

// InvokeAsync is CloneAsync for untyped arguments. Conversion failures
// reject the returned future.
func InvokeAsync(src, dst, opts any) *Future {
	s, d, o, err := convertArgs(src, dst, opts)
	if err != nil {
		return rejected(err)
	}
	return CloneAsync(s, d, o)
}

func convertArgs(src, dst, opts any) (string, string, Options, error) {
	s, err := ConvertPath(src)
	if err != nil {
		return "", "", Options{}, err
	}
	d, err := ConvertPath(dst)
	if err != nil {
		return "", "", Options{}, err
	}
	o, err := ConvertOptions(opts)
	if err != nil {
		return "", "", Options{}, err
	}
	return s, d, o, nil
}

func validatePaths(src, dst string) error {
	if err := validatePath(src); err != nil {
		return err
	}
	return validatePath(dst)
}

func validatePath(p string) error {
	if p == "" {
		return &ConversionError{Expected: "path", Value: p, Reason: "empty path"}
	}
	if strings.IndexByte(p, 0) >= 0 {
		return &ConversionError{Expected: "path", Value: p, Reason: "contains NUL byte"}
	}
	return nil
}
