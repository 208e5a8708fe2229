// Package value holds the tagged values exchanged with the cache service and
// their two wire forms: the command text embedded into `set` and the tagged
// JSON the service answers with.
package value

import "encoding/json"

type Kind uint8

const (
	KindString Kind = iota + 1
	KindNumber
	KindBoolean
	KindList
	KindTuple
	KindDict
	KindBinary
)

// Tags used by the tagged JSON form.
const (
	TagString  = "String"
	TagNumber  = "Number"
	TagBoolean = "Boolean"
	TagList    = "List"
	TagTuple   = "Tuple"
	TagDict    = "Dict"
	TagBinary  = "Binary"
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return TagString
	case KindNumber:
		return TagNumber
	case KindBoolean:
		return TagBoolean
	case KindList:
		return TagList
	case KindTuple:
		return TagTuple
	case KindDict:
		return TagDict
	case KindBinary:
		return TagBinary
	default:
		return "Unknown"
	}
}

// Value is a closed union: only the types of this package implement it.
// The variant is the Go type itself, so it can not change after construction.
type Value interface {
	json.Marshaler

	Kind() Kind

	isValue()
}

type String string

type Number float64

type Boolean bool

type List []Value

type Dict map[string]Value

type Binary []byte

// Tuple has exactly two order-significant slots. Slots are replaced only
// through SetFirst/SetSecond.
type Tuple struct {
	items [2]Value
}

func NewTuple(first, second Value) *Tuple {
	return &Tuple{items: [2]Value{first, second}}
}

func (t *Tuple) First() Value {
	return t.items[0]
}

func (t *Tuple) SetFirst(v Value) {
	t.items[0] = v
}

func (t *Tuple) Second() Value {
	return t.items[1]
}

func (t *Tuple) SetSecond(v Value) {
	t.items[1] = v
}

func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Boolean) Kind() Kind { return KindBoolean }
func (List) Kind() Kind { return KindList }
func (*Tuple) Kind() Kind { return KindTuple }
func (Dict) Kind() Kind { return KindDict }
func (Binary) Kind() Kind { return KindBinary }

func (String) isValue() {}
func (Number) isValue() {}
func (Boolean) isValue() {}
func (List) isValue() {}
func (*Tuple) isValue() {}
func (Dict) isValue() {}
func (Binary) isValue() {}
