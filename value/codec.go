package value

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Encode renders v in the command text form:
//
//	"text"  3.14  true  [a, b]  (a, b)  {"k":v, "k2":v2}  binary!(<base64>)
//
// Strings are not escaped, so a string holding '"' produces text the
// service can not read back. Dict keys are written in sorted order.
// A nil value renders as empty text. Nil List items and Dict entries (left
// by a partial Decode) are skipped; a nil Tuple slot still renders empty.
func Encode(v Value) string {
	sb := &strings.Builder{}
	encode(sb, v)
	return sb.String()
}

// EncodeB64 is the `b:<text>:` argument of the set command.
func EncodeB64(v Value) string {
	return "b:" + base64.StdEncoding.EncodeToString([]byte(Encode(v))) + ":"
}

func encode(sb *strings.Builder, v Value) {
	switch x := v.(type) {
	case String:
		sb.WriteByte('"')
		sb.WriteString(string(x))
		sb.WriteByte('"')
	case Number:
		sb.WriteString(formatNumber(float64(x)))
	case Boolean:
		sb.WriteString(strconv.FormatBool(bool(x)))
	case List:
		sb.WriteByte('[')
		n := 0
		for _, item := range x {
			if item == nil {
				continue
			}
			if n > 0 {
				sb.WriteString(", ")
			}
			encode(sb, item)
			n++
		}
		sb.WriteByte(']')
	case *Tuple:
		if x == nil {
			return
		}
		sb.WriteByte('(')
		encode(sb, x.items[0])
		sb.WriteString(", ")
		encode(sb, x.items[1])
		sb.WriteByte(')')
	case Dict:
		sb.WriteByte('{')
		n := 0
		for _, k := range x.keys() {
			if x[k] == nil {
				continue
			}
			if n > 0 {
				sb.WriteString(", ")
			}
			n++
			sb.WriteByte('"')
			sb.WriteString(k)
			sb.WriteString(`":`)
			encode(sb, x[k])
		}
		sb.WriteByte('}')
	case Binary:
		sb.WriteString("binary!(")
		sb.WriteString(base64.StdEncoding.EncodeToString(x))
		sb.WriteByte(')')
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func (d Dict) keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Marshal renders v in the tagged JSON form, e.g. {"List":[{"Number":1}]}.
func Marshal(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return v.MarshalJSON()
}

func marshalTagged(tag string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: payload})
}

func (v String) MarshalJSON() ([]byte, error) {
	return marshalTagged(TagString, string(v))
}

func (v Number) MarshalJSON() ([]byte, error) {
	return marshalTagged(TagNumber, float64(v))
}

func (v Boolean) MarshalJSON() ([]byte, error) {
	return marshalTagged(TagBoolean, bool(v))
}

func (v List) MarshalJSON() ([]byte, error) {
	items := []Value(v)
	if items == nil {
		items = []Value{}
	}
	return marshalTagged(TagList, items)
}

func (v *Tuple) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	return marshalTagged(TagTuple, map[string]Value{
		tupleFirst:  v.items[0],
		tupleSecond: v.items[1],
	})
}

func (v Dict) MarshalJSON() ([]byte, error) {
	items := map[string]Value(v)
	if items == nil {
		items = map[string]Value{}
	}
	return marshalTagged(TagDict, items)
}

// Binary carries its bytes as a JSON array of numbers under "data".
func (v Binary) MarshalJSON() ([]byte, error) {
	data := make([]int, len(v))
	for i, b := range v {
		data[i] = int(b)
	}
	return marshalTagged(TagBinary, map[string]any{binaryData: data})
}
