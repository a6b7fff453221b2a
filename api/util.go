package api

import (
	"reflect"

	"github.com/rs/zerolog/log"
)

const mask = "******"

// Scrub masks every field tagged sensitive, walking nested structs. A
// sensitive struct field, such as a config.StringConfig, has its Value and
// Default masked and keeps its description.
func Scrub(o interface{}) {
	v := reflect.ValueOf(o).Elem()
	t := reflect.TypeOf(o).Elem()
	if v.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < t.NumField(); i++ {
		f := v.Field(i)
		sf := t.Field(i)
		if !f.CanSet() {
			continue
		}
		sensitive := sf.Tag.Get("sensitive") != ""

		if f.Kind() == reflect.Struct {
			if sensitive {
				scrubSetting(f, sf.Name)
				continue
			}
			Scrub(f.Addr().Interface())
			continue
		}
		if sensitive {
			scrubValue(f, sf.Name)
		}
	}
}

func scrubSetting(f reflect.Value, name string) {
	masked := false
	for _, field := range []string{"Value", "Default"} {
		if inner := f.FieldByName(field); inner.IsValid() && inner.CanSet() {
			scrubValue(inner, name+"."+field)
			masked = true
		}
	}
	if !masked {
		log.Warn().Str("fieldName", name).Msg("sensitive struct has no Value or Default to mask")
	}
}

func scrubValue(f reflect.Value, name string) {
	switch f.Kind() {
	case reflect.String:
		f.SetString(mask)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f.SetInt(0)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f.SetUint(0)
	case reflect.Float32, reflect.Float64:
		f.SetFloat(0.00)
	case reflect.Bool:
		f.SetBool(false)
	default:
		log.Warn().
			Str("fieldName", name).
			Str("type", f.Kind().String()).
			Msg("field marked sensitive but was an unrecognized type")
	}
}
