package resolve

import (
	"strings"

	"descgraph/internal/descriptors"
	"descgraph/internal/diag"
	"descgraph/internal/shape"
	"descgraph/internal/source"
	"descgraph/internal/types"
)

func (r *Resolver) initializeMembers(ci *classInfo) {
	scope := r.classScope(ci)
	kind := ci.decl.Class().ClassKind()

	ctorVisibility := descriptors.Public
	switch kind {
	case descriptors.ClassKindEnum, descriptors.ClassKindObject:
		ctorVisibility = descriptors.Private
	}
	shapes := ci.shape.Constructors
	if ci.primary != nil {
		primary := shape.Constructor{}
		if ci.shape.Constructor != nil {
			primary = *ci.shape.Constructor
		}
		shapes = append([]shape.Constructor{primary}, shapes...)
	}
	for i, ctor := range ci.ctors {
		r.initializeConstructor(ci, scope, ctor, &shapes[i], ctorVisibility)
	}

	for i := range ci.shape.Functions {
		if fn := r.declareFunction(ci.file, ci.decl, ci, scope, &ci.shape.Functions[i]); fn != nil {
			ci.declared.Add(fn)
		}
	}
	for i := range ci.shape.Properties {
		if p := r.declareProperty(ci.file, ci.decl, ci, scope, &ci.shape.Properties[i]); p != nil {
			ci.declared.Add(p)
		}
	}

	if kind == descriptors.ClassKindEnum {
		for _, e := range ci.shape.Entries {
			entry := NewEnumEntry(r.g, ci.decl, e.Name, ci.file.span(), e.Annotations)
			ci.static.Add(entry)
			r.order = append(r.order, &classInfo{decl: entry, file: ci.file, outer: ci, qualified: ci.qualified + "." + e.Name, pkg: ci.pkg})
		}
		for _, fn := range synthesizeEnumFunctions(r.g, ci.decl, ci.file.span()) {
			ci.static.Add(fn)
		}
	} else if len(ci.shape.Entries) > 0 {
		diag.ReportError(r.g.Reporter(), diag.ResEnumEntryOutsideEnum, ci.decl.Source(),
			ci.qualified+" is not an enum class; its entries are ignored").Emit()
	}
}

func (r *Resolver) initializeConstructor(ci *classInfo, scope *typeScope, ctor *descriptors.Decl, sc *shape.Constructor, vis descriptors.Visibility) {
	if sc.Visibility != "" {
		vis, _ = descriptors.ParseVisibility(sc.Visibility)
	}
	descriptors.InitializeConstructor(ctor, descriptors.ConstructorInit{
		ValueParameters: r.valueParameters(ci.file, ctor, scope, sc.Parameters),
		Visibility:      vis,
		Annotations:     sc.Annotations,
	})
}

func (r *Resolver) valueParameters(fs *fileState, owner *descriptors.Decl, scope *typeScope, params []shape.Parameter) []*descriptors.Decl {
	out := make([]*descriptors.Decl, 0, len(params))
	for i, p := range params {
		sp := fs.span()
		t := r.resolveTypeString(scope, p.Type, sp, diag.ResUnresolvedType)
		var elem *types.Type
		if p.Vararg {
			elem = t
			t = r.g.Builtins().ArrayOf(elem)
		}
		out = append(out, descriptors.NewValueParameter(r.g, owner, descriptors.ValueParamInit{
			Index:           i,
			Name:            p.Name,
			Type:            t,
			VarargElement:   elem,
			DeclaresDefault: p.Default,
			Crossinline:     p.Crossinline,
			Noinline:        p.Noinline,
			Source:          sp,
		}))
	}
	return out
}

func (r *Resolver) typeParameters(fs *fileState, owner *descriptors.Decl, parent *typeScope, shapes []shape.TypeParameter) ([]*descriptors.Decl, *typeScope) {
	if len(shapes) == 0 {
		return nil, parent
	}
	var tps []*descriptors.Decl
	for i, tp := range shapes {
		variance := types.Invariant
		switch tp.Variance {
		case "in":
			variance = types.In
		case "out":
			variance = types.Out
		}
		tps = append(tps, descriptors.NewTypeParameter(r.g, owner, tp.Name, i, variance, tp.Reified, fs.span()))
	}
	scope := newTypeScope(parent, nil, parent.pkg, tps)
	for i, tp := range tps {
		r.initializeTypeParameter(fs, scope, tp, shapes[i].Bounds)
	}
	return tps, scope
}

// memberDefaults returns the modality and visibility a member gets when
// the shape leaves them out. Overrides inherit their visibility.
func memberDefaults(ci *classInfo, override bool) (descriptors.Modality, descriptors.Visibility) {
	vis := descriptors.Public
	if override {
		vis = descriptors.Inherited
	}
	switch {
	case override:
		return descriptors.Open, vis
	case ci != nil && ci.decl.Class().ClassKind() == descriptors.ClassKindInterface:
		return descriptors.Abstract, vis
	}
	return descriptors.Final, vis
}

func explicitModifiers(modality descriptors.Modality, vis descriptors.Visibility, m, v string) (descriptors.Modality, descriptors.Visibility) {
	if m != "" {
		modality, _ = descriptors.ParseModality(m)
	}
	if v != "" {
		vis, _ = descriptors.ParseVisibility(v)
	}
	return modality, vis
}

// duplicate records the signature of a member and reports whether its
// owner, a class or a package, already has one.
func (r *Resolver) duplicate(ci *classInfo, pkg string, sig string, at source.Span) bool {
	seen, where := r.pkgSignatures[pkg], pkg
	if ci != nil {
		seen, where = ci.signatures, ci.qualified
	}
	if seen == nil {
		seen = make(map[string]bool)
		r.pkgSignatures[pkg] = seen
	}
	if seen[sig] {
		diag.ReportError(r.g.Reporter(), diag.ShapeDuplicateMember, at,
			"conflicting declarations: "+sig+" in "+where).Emit()
		return true
	}
	seen[sig] = true
	return false
}

func (r *Resolver) declareFunction(fs *fileState, owner *descriptors.Decl, ci *classInfo, parent *typeScope, sf *shape.Function) *descriptors.Decl {
	sp := fs.span()
	params := make([]string, len(sf.Parameters))
	for i, p := range sf.Parameters {
		params[i] = p.Type
	}
	if r.duplicate(ci, parent.pkg, "fun "+receiverPrefix(sf.Receiver)+sf.Name+"("+strings.Join(params, ", ")+")", sp) {
		return nil
	}

	fn := descriptors.NewFunction(r.g, owner, sf.Name, descriptors.Declaration, sp)
	tps, scope := r.typeParameters(fs, fn, parent, sf.TypeParameters)

	modality, vis := memberDefaults(ci, sf.Override)
	modality, vis = explicitModifiers(modality, vis, sf.Modality, sf.Visibility)

	var flags descriptors.CallableFlags
	flags = flags.With(descriptors.FlagOperator, sf.Operator)
	flags = flags.With(descriptors.FlagInfix, sf.Infix)
	flags = flags.With(descriptors.FlagInline, sf.Inline)
	flags = flags.With(descriptors.FlagExternal, sf.External)
	flags = flags.With(descriptors.FlagTailrec, sf.Tailrec)
	flags = flags.With(descriptors.FlagSuspend, sf.Suspend)
	flags |= descriptors.FlagStableParameterNames

	ret := r.g.Builtins().Unit
	if sf.Returns != "" {
		ret = r.resolveTypeString(scope, sf.Returns, sp, diag.ResUnresolvedType)
	}
	var dispatch *descriptors.Decl
	if ci != nil {
		dispatch = ci.decl.ThisReceiver()
	}
	descriptors.InitializeFunction(fn, descriptors.FunctionInit{
		ExtensionReceiver: r.optionalType(scope, sf.Receiver, sp),
		DispatchReceiver:  dispatch,
		ContextReceivers:  r.typeList(scope, sf.Context, sp),
		TypeParameters:    tps,
		ValueParameters:   r.valueParameters(fs, fn, scope, sf.Parameters),
		ReturnType:        ret,
		Modality:          modality,
		Visibility:        vis,
		Flags:             flags,
		Annotations:       sf.Annotations,
	})
	return fn
}

func (r *Resolver) declareProperty(fs *fileState, owner *descriptors.Decl, ci *classInfo, parent *typeScope, prop *shape.Property) *descriptors.Decl {
	at := fs.span()
	if r.duplicate(ci, parent.pkg, "val "+receiverPrefix(prop.Receiver)+prop.Name, at) {
		return nil
	}

	var flags descriptors.CallableFlags
	flags = flags.With(descriptors.FlagVar, prop.Var)
	flags = flags.With(descriptors.FlagConst, prop.Const)
	flags = flags.With(descriptors.FlagLateinit, prop.Lateinit)
	p := descriptors.NewProperty(r.g, owner, prop.Name, descriptors.Declaration, at, flags)
	tps, scope := r.typeParameters(fs, p, parent, prop.TypeParameters)

	modality, vis := memberDefaults(ci, prop.Override)
	modality, vis = explicitModifiers(modality, vis, prop.Modality, prop.Visibility)

	getter := descriptors.NewGetter(r.g, p, accessorSpec(prop.Getter, modality, vis, fs))
	var setter *descriptors.Decl
	if prop.Var {
		setter = descriptors.NewSetter(r.g, p, accessorSpec(prop.Setter, modality, vis, fs))
	}
	var dispatch *descriptors.Decl
	if ci != nil {
		dispatch = ci.decl.ThisReceiver()
	}
	descriptors.InitializeProperty(p, descriptors.PropertyInit{
		Type:              r.resolveTypeString(scope, prop.Type, at, diag.ResUnresolvedType),
		TypeParameters:    tps,
		DispatchReceiver:  dispatch,
		ExtensionReceiver: r.optionalType(scope, prop.Receiver, at),
		Modality:          modality,
		Visibility:        vis,
		Getter:            getter,
		Setter:            setter,
		Annotations:       prop.Annotations,
	})
	descriptors.InitializeAccessor(getter, nil)
	if setter != nil {
		descriptors.InitializeAccessor(setter, nil)
	}
	return p
}

// accessorSpec applies the written accessor modifiers on top of the
// property's. A nil accessor is a default one.
func accessorSpec(sa *shape.Accessor, modality descriptors.Modality, vis descriptors.Visibility, fs *fileState) descriptors.AccessorSpec {
	spec := descriptors.AccessorSpec{Modality: modality, Visibility: vis, Default: true}
	if sa == nil {
		return spec
	}
	spec.Source = fs.span()
	spec.Default = !sa.Body
	spec.External = sa.External
	spec.Inline = sa.Inline
	if sa.Visibility != "" {
		spec.Visibility, _ = descriptors.ParseVisibility(sa.Visibility)
	}
	return spec
}

func (r *Resolver) optionalType(scope *typeScope, text string, at source.Span) *types.Type {
	if text == "" {
		return nil
	}
	return r.resolveTypeString(scope, text, at, diag.ResUnresolvedType)
}

func (r *Resolver) typeList(scope *typeScope, texts []string, at source.Span) []*types.Type {
	var out []*types.Type
	for _, text := range texts {
		out = append(out, r.resolveTypeString(scope, text, at, diag.ResUnresolvedType))
	}
	return out
}

func receiverPrefix(receiver string) string {
	if receiver == "" {
		return ""
	}
	return receiver + "."
}
