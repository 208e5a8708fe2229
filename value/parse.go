package value

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/rendau/kvclient/errs"
)

const binaryPrefix = "binary!("

// Parse reads the command text form produced by Encode. A string runs up to
// the next double quote, mirroring the lack of escaping in Encode.
func Parse(text string) (Value, error) {
	p := &parser{src: text}

	v, err := p.value()
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	if !p.eof() {
		return nil, p.errorf("unexpected trailing text")
	}

	return v, nil
}

// ParseB64 reads the `b:<base64>:` argument of the set command.
func ParseB64(arg string) (Value, error) {
	if !strings.HasPrefix(arg, "b:") || !strings.HasSuffix(arg, ":") || len(arg) < 3 {
		return nil, errs.ErrWithDesc{Err: errs.BadSyntax, Desc: "expected b:<base64>:"}
	}

	raw, err := base64.StdEncoding.DecodeString(arg[2 : len(arg)-1])
	if err != nil {
		return nil, errs.ErrWithDesc{Err: errs.BadSyntax, Desc: err.Error()}
	}

	return Parse(string(raw))
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(msg string) error {
	return errs.ErrWithDesc{Err: errs.BadSyntax, Desc: "pos " + strconv.Itoa(p.pos) + ": " + msg}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) skipSpaces() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpaces()
	if p.eof() || p.src[p.pos] != c {
		return p.errorf("expected '" + string(c) + "'")
	}
	p.pos++
	return nil
}

// peek reports whether the next non-space byte is c, consuming it if so.
func (p *parser) peek(c byte) bool {
	p.skipSpaces()
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) value() (Value, error) {
	p.skipSpaces()
	if p.eof() {
		return nil, p.errorf("unexpected end of text")
	}

	switch c := p.src[p.pos]; {
	case c == '"':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case c == '[':
		return p.list()
	case c == '(':
		return p.tuple()
	case c == '{':
		return p.dict()
	case strings.HasPrefix(p.src[p.pos:], binaryPrefix):
		return p.binary()
	default:
		return p.scalar()
	}
}

func (p *parser) quoted() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}

	end := strings.IndexByte(p.src[p.pos:], '"')
	if end < 0 {
		return "", p.errorf("unterminated string")
	}

	s := p.src[p.pos : p.pos+end]
	p.pos += end + 1

	return s, nil
}

func (p *parser) list() (Value, error) {
	p.pos++ // [

	result := List{}

	if p.peek(']') {
		return result, nil
	}

	for {
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		result = append(result, item)

		if p.peek(']') {
			return result, nil
		}
		if err = p.expect(','); err != nil {
			return nil, err
		}
	}
}

func (p *parser) tuple() (Value, error) {
	p.pos++ // (

	first, err := p.value()
	if err != nil {
		return nil, err
	}
	if err = p.expect(','); err != nil {
		return nil, err
	}
	second, err := p.value()
	if err != nil {
		return nil, err
	}
	if err = p.expect(')'); err != nil {
		return nil, err
	}

	return NewTuple(first, second), nil
}

func (p *parser) dict() (Value, error) {
	p.pos++ // {

	result := Dict{}

	if p.peek('}') {
		return result, nil
	}

	for {
		key, err := p.quoted()
		if err != nil {
			return nil, err
		}
		if err = p.expect(':'); err != nil {
			return nil, err
		}
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		result[key] = item

		if p.peek('}') {
			return result, nil
		}
		if err = p.expect(','); err != nil {
			return nil, err
		}
	}
}

func (p *parser) binary() (Value, error) {
	p.pos += len(binaryPrefix)

	end := strings.IndexByte(p.src[p.pos:], ')')
	if end < 0 {
		return nil, p.errorf("unterminated binary")
	}

	raw, err := base64.StdEncoding.DecodeString(p.src[p.pos : p.pos+end])
	if err != nil {
		return nil, p.errorf("bad base64: " + err.Error())
	}
	p.pos += end + 1

	return Binary(raw), nil
}

func (p *parser) scalar() (Value, error) {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(",)]} \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}

	token := p.src[start:p.pos]

	switch {
	case token == "":
		return nil, p.errorf("expected value")
	case strings.EqualFold(token, "true"):
		return Boolean(true), nil
	case strings.EqualFold(token, "false"):
		return Boolean(false), nil
	}

	n, err := strconv.ParseFloat(token, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("bad token " + strconv.Quote(token))
	}

	return Number(n), nil
}
