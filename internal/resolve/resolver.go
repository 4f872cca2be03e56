package resolve

import (
	"fmt"
	"strconv"

	"descgraph/internal/descriptors"
	"descgraph/internal/diag"
	"descgraph/internal/scopes"
	"descgraph/internal/shape"
	"descgraph/internal/source"
	"descgraph/internal/trace"
	"descgraph/internal/types"
)

// Options configures a Resolver.
type Options struct {
	// Files receives one entry per resolved shape file. A private set is
	// used when nil.
	Files *source.FileSet
}

// Resolver builds descriptors for shape files inside one graph.
type Resolver struct {
	g     *descriptors.Graph
	files *source.FileSet

	classes  map[string]*classInfo   // by qualified name
	simple   map[string][]*classInfo // by simple name
	order    []*classInfo
	packages map[string]*scopes.Declared
	pending  []*fileState

	pkgSignatures map[string]map[string]bool
}

type fileState struct {
	shape *shape.File
	id    source.FileID
	next  uint32
}

func (fs *fileState) span() source.Span {
	fs.next++
	return source.Span{File: fs.id, Item: fs.next}
}

type classInfo struct {
	decl      *descriptors.Decl
	shape     *shape.Class
	file      *fileState
	outer     *classInfo
	qualified string
	pkg       string

	typeParams []*descriptors.Decl
	declared   *scopes.Declared
	static     *scopes.Declared
	scope      *typeScope
	ctors      []*descriptors.Decl
	primary    *descriptors.Decl
	companion  *classInfo
	signatures map[string]bool
}

func New(g *descriptors.Graph, opts Options) *Resolver {
	files := opts.Files
	if files == nil {
		files = source.NewFileSet()
	}
	return &Resolver{
		g:        g,
		files:    files,
		classes:  make(map[string]*classInfo),
		simple:   make(map[string][]*classInfo),
		packages: make(map[string]*scopes.Declared),

		pkgSignatures: make(map[string]map[string]bool),
	}
}

// Graph returns the graph descriptors are created in.
func (r *Resolver) Graph() *descriptors.Graph { return r.g }

// Files returns the file set spans refer to.
func (r *Resolver) Files() *source.FileSet { return r.files }

// Result lists what one Resolve call produced.
type Result struct {
	// Classes holds every class in declaration order, with nested
	// classes, companions and enum entries after their owner.
	Classes    []*descriptors.Decl
	Functions  []*descriptors.Decl
	Properties []*descriptors.Decl
	// Packages maps a package name to its top level declarations.
	Packages map[string]descriptors.MemberScope
}

// Resolve creates and initializes the descriptors of files. Problems in
// the input are reported to the graph's reporter; resolution always
// completes.
func (r *Resolver) Resolve(files []*shape.File) *Result {
	t := r.g.Tracer()
	span := trace.Begin(t, trace.ScopePass, "resolve", 0).WithExtra("files", strconv.Itoa(len(files)))
	defer span.End("")

	res := &Result{Packages: make(map[string]descriptors.MemberScope)}
	start := len(r.order)

	declare := trace.Begin(t, trace.ScopePass, "resolve.declare", span.ID())
	for i, f := range files {
		path := f.Path
		if path == "" {
			path = "<input " + strconv.Itoa(i+1) + ">"
		}
		id, ok := r.files.Lookup(path)
		if !ok {
			id = r.files.Add(path, nil)
		}
		fs := &fileState{shape: f, id: id}
		r.pending = append(r.pending, fs)
		if _, ok := r.packages[f.Package]; !ok {
			r.packages[f.Package] = scopes.NewDeclared()
		}
		for j := range f.Classes {
			r.declareClass(fs, nil, &f.Classes[j])
		}
	}
	declare.End("")

	classes := trace.Begin(t, trace.ScopePass, "resolve.classes", span.ID())
	for _, ci := range r.order[start:] {
		r.initializeClass(ci)
	}
	classes.End("")

	members := trace.Begin(t, trace.ScopePass, "resolve.members", span.ID())
	newClasses := r.order[start:]
	for _, ci := range newClasses {
		r.initializeMembers(ci)
	}
	for _, fs := range r.pending {
		pkg := r.packages[fs.shape.Package]
		scope := &typeScope{pkg: fs.shape.Package}
		for i := range fs.shape.Functions {
			fn := r.declareFunction(fs, r.g.Module(), nil, scope, &fs.shape.Functions[i])
			if fn != nil {
				pkg.Add(fn)
				res.Functions = append(res.Functions, fn)
			}
		}
		for i := range fs.shape.Properties {
			p := r.declareProperty(fs, r.g.Module(), nil, scope, &fs.shape.Properties[i])
			if p != nil {
				pkg.Add(p)
				res.Properties = append(res.Properties, p)
			}
		}
	}
	r.pending = nil
	members.End("")

	for _, ci := range r.order[start:] {
		res.Classes = append(res.Classes, ci.decl)
	}
	for name, pkg := range r.packages {
		res.Packages[name] = pkg
	}
	return res
}

// Lookup finds a class by qualified name, such as "demo.Outer.Inner".
func (r *Resolver) Lookup(qualified string) *descriptors.Decl {
	if ci, ok := r.classes[qualified]; ok {
		return ci.decl
	}
	return nil
}

func (r *Resolver) declareClass(fs *fileState, outer *classInfo, sc *shape.Class) *classInfo {
	kind := descriptors.ClassKindClass
	if sc.Kind != "" {
		kind, _ = descriptors.ParseClassKind(sc.Kind)
	}
	modality := defaultClassModality(kind)
	if sc.Modality != "" {
		modality, _ = descriptors.ParseModality(sc.Modality)
	}
	visibility := descriptors.Public
	if sc.Visibility != "" {
		visibility, _ = descriptors.ParseVisibility(sc.Visibility)
	}

	pkg := fs.shape.Package
	qualified := pkg + "." + sc.Name
	owner := r.g.Module()
	if outer != nil {
		qualified = outer.qualified + "." + sc.Name
		owner = outer.decl
		pkg = outer.pkg
	}
	sp := fs.span()
	if prev, dup := r.classes[qualified]; dup {
		diag.ReportError(r.g.Reporter(), diag.ShapeDuplicateClass, sp, "class "+qualified+" is already declared").
			WithNote(prev.decl.Source(), "previous declaration").
			Emit()
		return nil
	}
	if kind == descriptors.ClassKindEnum && modality == descriptors.Sealed {
		modality = descriptors.Final
	}

	decl := descriptors.NewClass(r.g, owner, sc.Name, descriptors.ClassSpec{
		Kind:        kind,
		Modality:    modality,
		Visibility:  visibility,
		Inner:       sc.Inner && outer != nil,
		Source:      sp,
		Annotations: sc.Annotations,
	})
	ci := &classInfo{
		decl:       decl,
		shape:      sc,
		file:       fs,
		outer:      outer,
		qualified:  qualified,
		pkg:        pkg,
		declared:   scopes.NewDeclared(),
		static:     scopes.NewDeclared(),
		signatures: make(map[string]bool),
	}
	for i, tp := range sc.TypeParameters {
		variance := types.Invariant
		switch tp.Variance {
		case "in":
			variance = types.In
		case "out":
			variance = types.Out
		}
		ci.typeParams = append(ci.typeParams, descriptors.NewTypeParameter(r.g, decl, tp.Name, i, variance, tp.Reified, fs.span()))
	}
	r.classes[qualified] = ci
	r.simple[sc.Name] = append(r.simple[sc.Name], ci)
	r.order = append(r.order, ci)

	if outer == nil {
		r.packages[pkg].Add(decl)
	} else {
		outer.declared.Add(decl)
	}
	for i := range sc.Nested {
		r.declareClass(fs, ci, &sc.Nested[i])
	}
	if sc.Companion != nil {
		comp := *sc.Companion
		comp.Kind = "object"
		if comp.Name == "" {
			comp.Name = shape.CompanionName
		}
		ci.companion = r.declareClass(fs, ci, &comp)
	}
	return ci
}

func defaultClassModality(kind descriptors.ClassKind) descriptors.Modality {
	if kind == descriptors.ClassKindInterface {
		return descriptors.Abstract
	}
	return descriptors.Final
}

// initializeClass sets up type parameter bounds, constructor skeletons
// and the lazy supertype list of ci.
func (r *Resolver) initializeClass(ci *classInfo) {
	scope := r.classScope(ci)
	for i, tp := range ci.typeParams {
		bounds := ci.shape.TypeParameters[i].Bounds
		r.initializeTypeParameter(ci.file, scope, tp, bounds)
	}

	kind := ci.decl.Class().ClassKind()
	switch kind {
	case descriptors.ClassKindInterface, descriptors.ClassKindAnnotation:
	default:
		if ci.shape.Constructor != nil || len(ci.shape.Constructors) == 0 {
			ci.primary = descriptors.NewConstructor(r.g, ci.decl, true, descriptors.Declaration, ci.file.span())
			ci.ctors = append(ci.ctors, ci.primary)
		}
		for range ci.shape.Constructors {
			ci.ctors = append(ci.ctors, descriptors.NewConstructor(r.g, ci.decl, false, descriptors.Declaration, ci.file.span()))
		}
	}

	var companion *descriptors.Decl
	if ci.companion != nil {
		companion = ci.companion.decl
	}
	descriptors.InitializeClass(ci.decl, descriptors.ClassInit{
		TypeParameters: ci.typeParams,
		Supertypes:     func() []*types.Type { return r.resolveSupertypes(ci) },
		MemberScope:    scopes.NewClass(r.g, ci.decl, ci.declared),
		StaticScope:    ci.static,
		Constructors:   ci.ctors,
		Primary:        ci.primary,
		Companion:      companion,
	})
}

func (r *Resolver) initializeTypeParameter(fs *fileState, scope *typeScope, tp *descriptors.Decl, bounds []string) {
	at := tp.Source()
	tp.SetUpperBoundsResolver(func() []*types.Type {
		var out []*types.Type
		for _, b := range bounds {
			out = append(out, r.resolveTypeString(scope, b, at, diag.ResUnresolvedType))
		}
		return out
	})
	tp.MarkInitialized()
}

// resolveSupertypes runs the first time the supertypes of ci are read.
// Unresolved and non-class supertypes are reported and dropped.
func (r *Resolver) resolveSupertypes(ci *classInfo) []*types.Type {
	var out []*types.Type
	at := ci.decl.Source()
	scope := r.classScope(ci)
	for _, s := range ci.shape.Supertypes {
		t := r.resolveTypeString(scope, s, at, diag.ResUnresolvedSupertype)
		if t.IsError() {
			continue
		}
		switch c := t.Constructor().(type) {
		case *descriptors.ClassConstructor:
			if c.Decl().Modality() == descriptors.Final && c.Decl().Class().ClassKind() != descriptors.ClassKindEnum {
				diag.ReportError(r.g.Reporter(), diag.SemaFinalSupertype, at,
					fmt.Sprintf("%s cannot inherit from final class %s", ci.qualified, c.DebugName())).
					WithNote(c.Decl().Source(), "declared here").
					Emit()
			}
		case *types.BuiltinConstructor:
			if c.IsFinal() {
				diag.ReportError(r.g.Reporter(), diag.SemaFinalSupertype, at,
					fmt.Sprintf("%s cannot inherit from final class %s", ci.qualified, c.DebugName())).Emit()
			}
		default:
			diag.ReportError(r.g.Reporter(), diag.ResSupertypeNotClass, at,
				fmt.Sprintf("supertype %s of %s is not a class", t, ci.qualified)).Emit()
			continue
		}
		out = append(out, t)
	}
	return out
}
