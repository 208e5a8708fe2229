package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rendau/kvclient/errs"
)

const (
	tupleFirst  = "first"
	tupleSecond = "second"
	binaryData  = "data"
)

// Decode reads one tagged JSON value. It reports false for anything it can
// not turn into a Value: bad JSON, unknown tag, payload of the wrong shape.
// Callers that need the reason use Unmarshal.
func Decode(data []byte) (Value, bool) {
	v, err := Unmarshal(data)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Unmarshal is Decode with the failure reason kept.
//
// A Tuple payload decodes into a Dict of its named fields, not into a
// *Tuple. List and Dict slots that fail to decode are left nil instead of
// failing the whole value.
func Unmarshal(data []byte) (Value, error) {
	var tagged map[string]json.RawMessage

	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, errs.ErrWithDesc{Err: errs.BadJson, Desc: err.Error()}
	}

	if len(tagged) != 1 {
		return nil, errs.ErrWithDesc{
			Err:  errs.BadPayload,
			Desc: "tagged value must have exactly one key, got " + strconv.Itoa(len(tagged)),
		}
	}

	for tag, payload := range tagged {
		return decodeTagged(tag, payload)
	}

	return nil, errs.BadPayload // unreachable
}

func decodeTagged(tag string, payload json.RawMessage) (Value, error) {
	switch tag {
	case TagString:
		return decodeString(payload)
	case TagNumber:
		return decodeNumber(payload)
	case TagBoolean:
		return decodeBoolean(payload)
	case TagList:
		return decodeList(payload)
	case TagTuple, TagDict:
		return decodeFields(tag, payload)
	case TagBinary:
		return decodeBinary(payload)
	default:
		return nil, errs.ErrWithDesc{Err: errs.UnknownTag, Desc: tag}
	}
}

func decodeScalar(payload json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var v any

	if err := dec.Decode(&v); err != nil {
		return nil, errs.ErrWithDesc{Err: errs.BadJson, Desc: err.Error()}
	}

	return v, nil
}

func badPayload(tag string, v any) error {
	desc := tag + ": unexpected payload"
	if raw, err := json.Marshal(v); err == nil {
		desc += " " + string(raw)
	}
	return errs.ErrWithDesc{Err: errs.BadPayload, Desc: desc}
}

func decodeString(payload json.RawMessage) (Value, error) {
	v, err := decodeScalar(payload)
	if err != nil {
		return nil, err
	}

	switch x := v.(type) {
	case string:
		return String(x), nil
	case json.Number:
		return String(x.String()), nil
	case bool:
		return String(strconv.FormatBool(x)), nil
	}

	return nil, badPayload(TagString, v)
}

func decodeNumber(payload json.RawMessage) (Value, error) {
	v, err := decodeScalar(payload)
	if err != nil {
		return nil, err
	}

	var s string

	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return nil, badPayload(TagNumber, v)
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, badPayload(TagNumber, v)
	}

	return Number(n), nil
}

func decodeBoolean(payload json.RawMessage) (Value, error) {
	v, err := decodeScalar(payload)
	if err != nil {
		return nil, err
	}

	switch x := v.(type) {
	case bool:
		return Boolean(x), nil
	case string:
		return Boolean(strings.EqualFold(x, "TRUE")), nil
	}

	return nil, badPayload(TagBoolean, v)
}

func decodeList(payload json.RawMessage) (Value, error) {
	var items []json.RawMessage

	if err := json.Unmarshal(payload, &items); err != nil || items == nil {
		return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: TagList + ": payload is not an array"}
	}

	result := make(List, len(items))
	for i, item := range items {
		result[i], _ = Decode(item)
	}

	return result, nil
}

func decodeFields(tag string, payload json.RawMessage) (Value, error) {
	var fields map[string]json.RawMessage

	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: tag + ": payload is not an object"}
	}

	result := make(Dict, len(fields))
	for k, field := range fields {
		result[k], _ = Decode(field)
	}

	return result, nil
}

func decodeBinary(payload json.RawMessage) (Value, error) {
	var obj map[string]json.RawMessage

	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: TagBinary + ": payload is not an object"}
	}

	data := bytes.TrimSpace(obj[binaryData])
	if len(data) == 0 {
		return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: TagBinary + ": no data field"}
	}

	switch data[0] {
	case '[':
		var ints []int

		if err := json.Unmarshal(data, &ints); err != nil {
			return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: TagBinary + ": " + err.Error()}
		}

		result := make(Binary, len(ints))
		for i, n := range ints {
			if n < 0 || n > 255 {
				return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: TagBinary + ": byte out of range " + strconv.Itoa(n)}
			}
			result[i] = byte(n)
		}

		return result, nil
	case '"':
		var s string

		if err := json.Unmarshal(data, &s); err != nil {
			return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: TagBinary + ": " + err.Error()}
		}

		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: TagBinary + ": " + err.Error()}
		}

		return Binary(raw), nil
	}

	return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: TagBinary + ": unexpected data " + string(data)}
}
