package value

import (
	"fmt"
	"reflect"

	"github.com/rendau/kvclient/errs"
)

// From converts plain Go data into a Value: strings, bools, any integer or
// float kind, []byte, slices/arrays, maps with string keys and values that
// already are a Value. Everything else yields errs.UnsupportedType.
func From(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, errs.ErrWithDesc{Err: errs.UnsupportedType, Desc: "nil"}
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Boolean(x), nil
	case []byte:
		return Binary(x), nil
	case float64:
		return Number(x), nil
	case int:
		return Number(x), nil
	case []any:
		return fromSlice(reflect.ValueOf(x))
	case map[string]any:
		return fromMap(reflect.ValueOf(x))
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Boolean(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make(Binary, rv.Len())
			for i := range raw {
				raw[i] = byte(rv.Index(i).Uint())
			}
			return raw, nil
		}
		return fromSlice(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		return fromMap(rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, errs.ErrWithDesc{Err: errs.UnsupportedType, Desc: "nil " + rv.Type().String()}
		}
		return From(rv.Elem().Interface())
	}

	return nil, errs.ErrWithDesc{Err: errs.UnsupportedType, Desc: fmt.Sprintf("%T", v)}
}

func fromSlice(rv reflect.Value) (Value, error) {
	result := make(List, rv.Len())

	for i := range result {
		item, err := From(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		result[i] = item
	}

	return result, nil
}

func fromMap(rv reflect.Value) (Value, error) {
	result := make(Dict, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		item, err := From(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		result[iter.Key().String()] = item
	}

	return result, nil
}
