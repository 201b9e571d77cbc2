package router

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// Decode populates a struct from the match params. The target must be a
// pointer to a struct; fields opt in with a `param` tag naming the param:
//
//	var p struct {
//	    ID   int      `param:"id"`
//	    Path []string `param:"*"`
//	}
//	err := m.Decode(&p)
//
// Values are percent-decoded before conversion. An encoded slash is only
// accepted in a splat value. A []string field bound to a splat receives one
// element per path segment.
func (m *Match) Decode(target any) error {
	if target == nil {
		return nil
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("target must be a pointer, got %s", v.Kind())
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to struct, got pointer to %s", v.Kind())
	}

	splats := make(map[string]bool)
	for _, seg := range routepath.Segmentize(m.Route.Path) {
		if seg.Kind == routepath.Splat {
			splats[seg.Value] = true
		}
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("param")
		if name == "" {
			continue
		}

		raw, ok := m.Params[name]
		if !ok {
			continue
		}

		fieldValue := v.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		if err := setField(fieldValue, raw, splats[name]); err != nil {
			return fmt.Errorf("parsing param %q: %w", name, err)
		}
	}

	return nil
}

// setField sets a field value from a raw param.
func setField(field reflect.Value, raw string, splat bool) error {
	if field.Kind() == reflect.Slice {
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", field.Type().Elem().Kind())
		}
		var parts []string
		if splat {
			decoded, err := routepath.DecodePathSegments(raw)
			if err != nil {
				return err
			}
			parts = decoded
		} else {
			value, err := routepath.DecodeSegment(raw, false)
			if err != nil {
				return err
			}
			parts = []string{value}
		}
		field.Set(reflect.ValueOf(parts))
		return nil
	}

	value, err := routepath.DecodeSegment(raw, splat)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %s", value)
		}
		field.SetFloat(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported type: %s", field.Kind())
	}

	return nil
}
