package conf

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var durationType = reflect.TypeFor[time.Duration]()

// decodeWithYAMLTags lets viper match keys through the yaml struct tags.
func decodeWithYAMLTags(dc *mapstructure.DecoderConfig) {
	dc.TagName = "yaml"
}

func reflectValue(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return rv
}

// toYAMLValue converts a settings value into plain maps keyed by yaml tag,
// rendering durations as strings such as "2m0s".
func toYAMLValue(v reflect.Value) any {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}

	switch v.Kind() {
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		t := v.Type()
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			key := strings.Split(field.Tag.Get("yaml"), ",")[0]
			if key == "-" {
				continue
			}
			if key == "" {
				key = strings.ToLower(field.Name)
			}
			out[key] = toYAMLValue(v.Field(i))
		}
		return out
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = toYAMLValue(iter.Value())
		}
		return out
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return toYAMLValue(v.Elem())
	default:
		return v.Interface()
	}
}
