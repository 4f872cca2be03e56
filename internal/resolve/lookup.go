package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"descgraph/internal/descriptors"
	"descgraph/internal/diag"
	"descgraph/internal/shape"
	"descgraph/internal/source"
	"descgraph/internal/types"
)

// typeScope maps type parameter names for one declaration. Class names
// are looked up through the innermost class, then the package.
type typeScope struct {
	parent *typeScope
	params map[string]*descriptors.Decl
	class  *classInfo
	pkg    string
}

func newTypeScope(parent *typeScope, class *classInfo, pkg string, params []*descriptors.Decl) *typeScope {
	s := &typeScope{parent: parent, class: class, pkg: pkg}
	if len(params) > 0 {
		s.params = make(map[string]*descriptors.Decl, len(params))
		for _, p := range params {
			s.params[p.NameString()] = p
		}
	}
	return s
}

func (s *typeScope) param(name string) *descriptors.Decl {
	for ; s != nil; s = s.parent {
		if p, ok := s.params[name]; ok {
			return p
		}
	}
	return nil
}

func (s *typeScope) enclosingClass() *classInfo {
	for ; s != nil; s = s.parent {
		if s.class != nil {
			return s.class
		}
	}
	return nil
}

// paramNames lists every visible type parameter name.
func (s *typeScope) paramNames() []string {
	var out []string
	for ; s != nil; s = s.parent {
		for n := range s.params {
			out = append(out, n)
		}
	}
	return out
}

// classScope returns the type scope of ci's body. Inner classes see the
// type parameters of their outer class; other nested classes do not.
func (r *Resolver) classScope(ci *classInfo) *typeScope {
	if ci.scope != nil {
		return ci.scope
	}
	var parent *typeScope
	if ci.outer != nil && ci.shape.Inner {
		parent = r.classScope(ci.outer)
		for _, tp := range ci.typeParams {
			if shadowed := parent.param(tp.NameString()); shadowed != nil {
				diag.ReportWarning(r.g.Reporter(), diag.ResTypeParamShadow, tp.Source(),
					"type parameter "+tp.NameString()+" shadows a type parameter of "+ci.outer.qualified).
					WithNote(shadowed.Source(), "outer type parameter").
					Emit()
			}
		}
	}
	ci.scope = newTypeScope(parent, ci, ci.pkg, ci.typeParams)
	return ci.scope
}

// classifier is what a type name resolves to. Exactly one field is set.
type classifier struct {
	param   *descriptors.Decl
	class   *classInfo
	builtin *types.BuiltinConstructor
}

func (r *Resolver) lookupClassifier(s *typeScope, name string) (classifier, bool) {
	if !strings.Contains(name, ".") {
		if p := s.param(name); p != nil {
			return classifier{param: p}, true
		}
	}
	for c := s.enclosingClass(); c != nil; c = c.outer {
		if ci, ok := r.classes[c.qualified+"."+name]; ok {
			return classifier{class: ci}, true
		}
	}
	if ci, ok := r.classes[s.pkg+"."+name]; ok {
		return classifier{class: ci}, true
	}
	if ci, ok := r.classes[name]; ok {
		return classifier{class: ci}, true
	}
	if b, ok := r.g.Builtins().Lookup(strings.TrimPrefix(name, "kotlin.")); ok {
		return classifier{builtin: b}, true
	}
	if same := r.simple[name]; len(same) == 1 && same[0].outer == nil {
		return classifier{class: same[0]}, true
	}
	return classifier{}, false
}

func (r *Resolver) resolveTypeString(s *typeScope, text string, at source.Span, code diag.Code) *types.Type {
	ref, err := shape.ParseTypeRef(text)
	if err != nil {
		diag.ReportError(r.g.Reporter(), diag.ShapeBadTypeRef, at, err.Error()).Emit()
		return types.NewErrorType(text)
	}
	return r.resolveType(s, ref, at, code)
}

func (r *Resolver) resolveType(s *typeScope, ref *shape.TypeRef, at source.Span, code diag.Code) *types.Type {
	cl, ok := r.lookupClassifier(s, ref.Name)
	if !ok {
		b := diag.ReportError(r.g.Reporter(), code, at, "unresolved reference: "+ref.Name)
		if hint := r.closestName(s, ref.Name); hint != "" {
			b.WithFix("did you mean "+hint+"?", hint)
		}
		b.Emit()
		return types.NewErrorType(ref.Name)
	}

	var (
		ctor  types.Constructor
		arity int
	)
	switch {
	case cl.param != nil:
		if len(ref.Args) > 0 {
			r.reportArity(at, ref, 0)
			return types.NewErrorType(ref.String())
		}
		return cl.param.DefaultType().MakeNullable(ref.Nullable)
	case cl.class != nil:
		ctor = cl.class.decl.Class().TypeConstructor()
		arity = len(cl.class.typeParams)
	default:
		ctor = cl.builtin
		arity = len(cl.builtin.Parameters())
	}
	if len(ref.Args) != arity {
		r.reportArity(at, ref, arity)
		return types.NewErrorType(ref.String())
	}

	args := make([]types.Projection, len(ref.Args))
	for i, a := range ref.Args {
		if a.Star {
			args[i] = types.StarProjection()
			continue
		}
		t := r.resolveType(s, a.Type, at, diag.ResUnresolvedType)
		switch a.Variance {
		case "in":
			args[i] = types.Projected(types.In, t)
		case "out":
			args[i] = types.Projected(types.Out, t)
		default:
			args[i] = types.Invariantly(t)
		}
	}
	return types.New(ctor, args, ref.Nullable)
}

func (r *Resolver) reportArity(at source.Span, ref *shape.TypeRef, want int) {
	diag.ReportError(r.g.Reporter(), diag.ResTypeArgumentCount, at,
		fmt.Sprintf("%s expects %d type arguments, got %d", ref.Name, want, len(ref.Args))).Emit()
}

// closestName finds the visible classifier name with the smallest edit
// distance from name, or "" if every candidate would be a full rewrite.
func (r *Resolver) closestName(s *typeScope, name string) string {
	candidates := s.paramNames()
	candidates = append(candidates, r.g.Builtins().Names()...)
	for n, ci := range r.classes {
		if ci.pkg == s.pkg && ci.outer == nil {
			candidates = append(candidates, ci.shape.Name)
		} else {
			candidates = append(candidates, n)
		}
	}
	for c := s.enclosingClass(); c != nil; c = c.outer {
		for _, nested := range c.shape.Nested {
			candidates = append(candidates, nested.Name)
		}
	}
	return nearest(name, candidates)
}

// Suggest returns the qualified class name closest to qualified, or ""
// when nothing is near.
func (r *Resolver) Suggest(qualified string) string {
	candidates := make([]string, 0, len(r.classes))
	for n := range r.classes {
		candidates = append(candidates, n)
	}
	return nearest(qualified, candidates)
}

func nearest(name string, candidates []string) string {
	sort.Strings(candidates)
	nameRunes := []rune(name)
	closest := ""
	closestDistance := len(nameRunes)
	for _, cand := range candidates {
		distance := levenshtein.DistanceForStrings(nameRunes, []rune(cand), levenshtein.DefaultOptions)
		if distance < closestDistance && distance < len([]rune(cand)) {
			closest = cand
			closestDistance = distance
		}
	}
	return closest
}
