package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ApplyOverrides applies dotted-path CLI overrides ("http.port=9090")
// on top of an already-loaded config, walking a dotted string path
// since the CLI layer hands overrides in as flat "key=value" flags
// rather than a parsed YAML fragment.
func ApplyOverrides(cfg *ServiceConfig, overrides map[string]string) error {
	for path, raw := range overrides {
		if err := setDotted(reflect.ValueOf(cfg).Elem(), strings.Split(path, "."), raw); err != nil {
			return fmt.Errorf("config: override %q: %w", path, err)
		}
	}
	return nil
}

// setDotted walks v (a struct or map by yaml tag / map key) along path
// and assigns raw, converting it to the destination field's Go type.
func setDotted(v reflect.Value, path []string, raw string) error {
	if len(path) == 0 {
		return fmt.Errorf("empty path")
	}
	key := path[0]

	switch v.Kind() {
	case reflect.Struct:
		field := fieldByYAMLTag(v, key)
		if !field.IsValid() {
			return fmt.Errorf("no field %q on %s", key, v.Type())
		}
		if len(path) == 1 {
			return setScalar(field, raw)
		}
		return setDotted(field, path[1:], raw)

	case reflect.Map:
		if v.IsNil() {
			v.Set(reflect.MakeMap(v.Type()))
		}
		elemType := v.Type().Elem()
		existing := v.MapIndex(reflect.ValueOf(key))
		var elem reflect.Value
		if existing.IsValid() {
			elem = reflect.New(elemType).Elem()
			elem.Set(existing)
		} else {
			elem = reflect.New(elemType).Elem()
		}
		if len(path) == 1 {
			if err := setScalar(elem, raw); err != nil {
				return err
			}
		} else if err := setDotted(elem, path[1:], raw); err != nil {
			return err
		}
		v.SetMapIndex(reflect.ValueOf(key), elem)
		return nil

	default:
		return fmt.Errorf("cannot descend into %s at %q", v.Kind(), key)
	}
}

func fieldByYAMLTag(v reflect.Value, tag string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if name == tag {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

func setScalar(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported override target kind %s", field.Kind())
	}
	return nil
}
