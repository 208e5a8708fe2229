package httpc

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// Object2UrlValues builds form values from the `form` tags of a struct.
// Tag option "omitempty" skips zero values.
func Object2UrlValues(obj interface{}) url.Values {
	result := url.Values{}

	v := reflect.Indirect(reflect.ValueOf(obj))
	fields := reflect.VisibleFields(v.Type())

	var fieldTag string
	var tagName string
	var omitEmpty bool
	var fValue reflect.Value
	var fType reflect.Type

	for _, field := range fields {
		if field.Anonymous || !field.IsExported() {
			continue
		}

		fieldTag = field.Tag.Get("form")
		if fieldTag == "" || fieldTag == "-" {
			continue
		}

		tagParts := strings.Split(fieldTag, ",")
		tagName = tagParts[0]
		omitEmpty = false
		for _, opt := range tagParts[1:] {
			if opt == "omitempty" {
				omitEmpty = true
			}
		}

		fValue = v.FieldByIndex(field.Index)
		fType = field.Type

		if fType.Kind() == reflect.Pointer {
			if fValue.IsNil() {
				continue
			}

			fValue = fValue.Elem()
			fType = fType.Elem()
		}

		if omitEmpty && fValue.IsZero() {
			continue
		}

		switch fType.Kind() {
		case reflect.Slice, reflect.Array:
			strSlice := make([]string, fValue.Len())
			for i := 0; i < len(strSlice); i++ {
				strSlice[i] = fmt.Sprintf("%v", fValue.Index(i).Interface())
			}
			result[tagName] = strSlice
		default:
			result.Set(tagName, fmt.Sprintf("%v", fValue.Interface()))
		}
	}

	return result
}
