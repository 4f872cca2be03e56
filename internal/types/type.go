package types

import (
	"strings"
)

// Type is an immutable type value.
type Type struct {
	ctor     Constructor
	args     []Projection
	nullable bool
	err      string
}

// New creates a type. args are not copied; callers must not modify them.
func New(ctor Constructor, args []Projection, nullable bool) *Type {
	return &Type{ctor: ctor, args: args, nullable: nullable}
}

func (t *Type) Constructor() Constructor { return t.ctor }
func (t *Type) Arguments() []Projection  { return t.args }
func (t *Type) IsMarkedNullable() bool   { return t.nullable }
func (t *Type) IsError() bool            { return t != nil && t.err != "" }
func (t *Type) ErrorText() string        { return t.err }

// MakeNullable returns t with the nullability mark set to nullable. The
// receiver is returned when nothing changes.
func (t *Type) MakeNullable(nullable bool) *Type {
	if t.nullable == nullable {
		return t
	}
	cp := *t
	cp.nullable = nullable
	return &cp
}

// Replace returns t with new arguments.
func (t *Type) Replace(args []Projection) *Type {
	cp := *t
	cp.args = args
	return &cp
}

// IsParameter reports whether t is a bare type-parameter type.
func (t *Type) IsParameter() bool {
	_, ok := t.ctor.(Parameter)
	return ok
}

// ContainsError reports whether t or any argument is an error type.
func (t *Type) ContainsError() bool {
	if t.IsError() {
		return true
	}
	for _, a := range t.args {
		if !a.Star && a.Type.ContainsError() {
			return true
		}
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Type) write(sb *strings.Builder) {
	sb.WriteString(t.ctor.DebugName())
	if len(t.args) > 0 {
		sb.WriteByte('<')
		for i, a := range t.args {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.write(sb)
		}
		sb.WriteByte('>')
	}
	if t.nullable {
		sb.WriteByte('?')
	}
}

// Projection is a type argument: a type with use-site variance, or a star.
type Projection struct {
	Variance Variance
	Type     *Type
	Star     bool
}

func Invariantly(t *Type) Projection { return Projection{Type: t} }

func Projected(v Variance, t *Type) Projection { return Projection{Variance: v, Type: t} }

func StarProjection() Projection { return Projection{Star: true} }

func (p Projection) String() string {
	var sb strings.Builder
	p.write(&sb)
	return sb.String()
}

func (p Projection) write(sb *strings.Builder) {
	if p.Star {
		sb.WriteByte('*')
		return
	}
	if label := p.Variance.Label(); label != "" {
		sb.WriteString(label)
		sb.WriteByte(' ')
	}
	p.Type.write(sb)
}

func sameProjection(a, b Projection) bool {
	return a.Star == b.Star && a.Variance == b.Variance && a.Type == b.Type
}
