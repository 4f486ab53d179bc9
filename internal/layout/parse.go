package layout

import "fmt"

// builtinNames maps builtin layout names to their layouts.
var builtinNames = func() map[string]*Builtin {
	m := make(map[string]*Builtin, len(Typ))
	for _, b := range Typ {
		if b != nil {
			m[b.name] = b
		}
	}
	return m
}()

// Parse parses the canonical string form of a layout, as produced by
// Layout.String. Whitespace between tokens is ignored.
//
//	layout = name | "list" "<" layout ">" | "dict" "<" layout "," layout ">"
//	       | "{" [ layout { "," layout } ] "}"
func Parse(s string) (Layout, error) {
	p := &parser{src: s}
	l, err := p.layout()
	if err != nil {
		return nil, fmt.Errorf("parse layout %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("parse layout %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return l, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Layout {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// ident scans a lower-case identifier such as "i64" or "empty_dict".
func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

// expect consumes the byte c or returns an error.
func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return fmt.Errorf("expected %q, found end of input", c)
	}
	if p.src[p.pos] != c {
		return fmt.Errorf("expected %q at offset %d, found %q", c, p.pos, p.src[p.pos])
	}
	p.pos++
	return nil
}

// peek reports whether the next non-space byte is c.
func (p *parser) peek(c byte) bool {
	p.skipSpace()
	return p.pos < len(p.src) && p.src[p.pos] == c
}

func (p *parser) layout() (Layout, error) {
	if p.peek('{') {
		return p.structLayout()
	}

	start := p.pos
	name := p.ident()
	switch name {
	case "":
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("expected layout, found end of input")
		}
		return nil, fmt.Errorf("expected layout at offset %d, found %q", p.pos, p.src[p.pos])
	case "list":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.layout()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return NewList(elem), nil
	case "dict":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		key, err := p.layout()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		value, err := p.layout()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return NewDict(key, value), nil
	}

	if b, ok := builtinNames[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("unknown layout %q at offset %d", name, start)
}

func (p *parser) structLayout() (Layout, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	var fields []Layout
	if p.peek('}') {
		p.pos++
		return NewStruct(), nil
	}
	for {
		f, err := p.layout()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if p.peek(',') {
			p.pos++
			continue
		}
		if err := p.expect('}'); err != nil {
			return nil, err
		}
		return NewStruct(fields...), nil
	}
}
