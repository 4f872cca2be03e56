package shape

import (
	"fmt"
	"strings"
	"unicode"
)

// TypeRef is a parsed type reference.
type TypeRef struct {
	Name     string
	Args     []TypeArg
	Nullable bool
}

// TypeArg is one type argument. Star arguments carry no type.
type TypeArg struct {
	Variance string // "", "in" or "out"
	Star     bool
	Type     *TypeRef
}

func (r *TypeRef) String() string {
	var sb strings.Builder
	r.write(&sb)
	return sb.String()
}

func (r *TypeRef) write(sb *strings.Builder) {
	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range r.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			switch {
			case a.Star:
				sb.WriteByte('*')
			default:
				if a.Variance != "" {
					sb.WriteString(a.Variance)
					sb.WriteByte(' ')
				}
				a.Type.write(sb)
			}
		}
		sb.WriteByte('>')
	}
	if r.Nullable {
		sb.WriteByte('?')
	}
}

// ParseTypeRef parses a type reference such as "Map<in K, out List<V>>?".
func ParseTypeRef(s string) (*TypeRef, error) {
	p := &refParser{src: s}
	ref, err := p.ref()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return ref, nil
}

type refParser struct {
	src string
	pos int
}

func (p *refParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *refParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *refParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *refParser) ident() string {
	p.skipSpace()
	start := p.pos
	for i, r := range p.src[p.pos:] {
		if !isIdentRune(r, i == 0) && r != '.' {
			p.pos = start + i
			return p.src[start:p.pos]
		}
	}
	p.pos = len(p.src)
	return p.src[start:]
}

func (p *refParser) ref() (*TypeRef, error) {
	name := p.ident()
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return nil, p.errorf("expected a type name")
	}
	ref := &TypeRef{Name: name}
	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.arg()
			if err != nil {
				return nil, err
			}
			ref.Args = append(ref.Args, arg)
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return nil, p.errorf("expected ',' or '>'")
			}
			break
		}
	}
	p.skipSpace()
	if p.peek() == '?' {
		p.pos++
		ref.Nullable = true
	}
	return ref, nil
}

func (p *refParser) arg() (TypeArg, error) {
	p.skipSpace()
	if p.peek() == '*' {
		p.pos++
		return TypeArg{Star: true}, nil
	}
	save := p.pos
	var arg TypeArg
	if word := p.ident(); word == "in" || word == "out" {
		p.skipSpace()
		// "in" alone could also be a type named in
		if c := p.peek(); c != ',' && c != '>' && c != '?' && c != '<' {
			arg.Variance = word
			save = p.pos
		}
	}
	p.pos = save
	t, err := p.ref()
	if err != nil {
		return TypeArg{}, err
	}
	arg.Type = t
	return arg, nil
}

func isIdentRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}

// IsIdent reports whether s is a valid simple name.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isIdentRune(r, i == 0) {
			return false
		}
	}
	return true
}
