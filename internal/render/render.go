package render

import (
	"strings"
	"unicode"

	"github.com/turbolent/prettier"

	"descgraph/internal/descriptors"
	"descgraph/internal/types"
)

const (
	DefaultWidth  = 100
	DefaultIndent = "    "
)

// Options control the output layout.
type Options struct {
	Width  int
	Indent string
	// NoAnnotations drops the @Name prefixes.
	NoAnnotations bool
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Indent == "" {
		o.Indent = DefaultIndent
	}
	return o
}

// Renderer turns descriptors into documents.
type Renderer struct {
	opts    Options
	visitor descriptors.Visitor[prettier.Doc, struct{}]
}

var separatorDoc prettier.Doc = prettier.Concat{
	prettier.Text(","),
	prettier.Line{},
}

func New(opts Options) *Renderer {
	r := &Renderer{opts: opts.withDefaults()}
	r.visitor = descriptors.Visitor[prettier.Doc, struct{}]{
		Module: func(d *descriptors.Decl, _ struct{}) prettier.Doc {
			return prettier.Text("module " + r.name(d))
		},
		Class:             func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.classDoc(d) },
		Constructor:       func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.constructorDoc(d) },
		Function:          func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.functionDoc(d) },
		Property:          func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.propertyDoc(d) },
		Getter:            func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.accessorDoc(d, "get") },
		Setter:            func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.accessorDoc(d, "set") },
		ValueParameter:    func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.valueParameterDoc(d) },
		TypeParameter:     func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.typeParameterDoc(d) },
		ReceiverParameter: func(d *descriptors.Decl, _ struct{}) prettier.Doc { return r.receiverDoc(d) },
	}
	return r
}

var defaultRenderer = New(Options{})

// String renders d with the default options.
func String(d *descriptors.Decl) string {
	return defaultRenderer.String(d)
}

// TypeString renders t with the default options.
func TypeString(t *types.Type) string {
	return defaultRenderer.TypeString(t)
}

func (r *Renderer) Options() Options { return r.opts }

// Doc returns the document for d.
func (r *Renderer) Doc(d *descriptors.Decl) prettier.Doc {
	if d == nil {
		return prettier.Text("<nil>")
	}
	return descriptors.Accept(d, r.visitor, struct{}{})
}

func (r *Renderer) String(d *descriptors.Decl) string {
	return r.print(r.Doc(d))
}

func (r *Renderer) TypeString(t *types.Type) string {
	return r.print(r.TypeDoc(t))
}

func (r *Renderer) print(doc prettier.Doc) string {
	var b strings.Builder
	prettier.Prettier(&b, doc, r.opts.Width, r.opts.Indent)
	return b.String()
}

// Members renders every descriptor of scope, one per line.
func (r *Renderer) Members(scope descriptors.MemberScope) string {
	var docs []prettier.Doc
	for _, d := range scope.ContributedDescriptors() {
		docs = append(docs, r.Doc(d))
	}
	return r.print(prettier.Join(prettier.HardLine{}, docs...))
}

// Body renders a class header followed by a braced block holding its
// constructors, static members and the contents of its member scope.
func (r *Renderer) Body(class *descriptors.Decl) string {
	var members []prettier.Doc
	for _, c := range class.Constructors() {
		members = append(members, r.Doc(c))
	}
	for _, d := range class.StaticScope().ContributedDescriptors() {
		members = append(members, r.Doc(d))
	}
	for _, d := range class.UnsubstitutedMemberScope().ContributedDescriptors() {
		members = append(members, r.Doc(d))
	}
	header := r.classDoc(class)
	if len(members) == 0 {
		return r.print(header)
	}
	return r.print(prettier.Concat{
		header,
		prettier.Text(" {"),
		prettier.Indent{
			Doc: prettier.Concat{
				prettier.HardLine{},
				prettier.Join(prettier.HardLine{}, members...),
			},
		},
		prettier.HardLine{},
		prettier.Text("}"),
	})
}

// TypeDoc renders a type with its arguments and nullability.
func (r *Renderer) TypeDoc(t *types.Type) prettier.Doc {
	if t == nil {
		return prettier.Text("???")
	}
	if t.IsError() {
		return prettier.Text("[error: " + t.ErrorText() + "]")
	}
	doc := prettier.Concat{prettier.Text(r.constructorName(t.Constructor()))}
	if args := t.Arguments(); len(args) > 0 {
		argDocs := make([]prettier.Doc, len(args))
		for i, a := range args {
			argDocs[i] = r.projectionDoc(a)
		}
		doc = append(doc, prettier.Wrap(
			prettier.Text("<"),
			prettier.Join(separatorDoc, argDocs...),
			prettier.Text(">"),
			prettier.SoftLine{},
		))
	}
	if t.IsMarkedNullable() {
		doc = append(doc, prettier.Text("?"))
	}
	return doc
}

func (r *Renderer) projectionDoc(p types.Projection) prettier.Doc {
	if p.Star {
		return prettier.Text("*")
	}
	if label := p.Variance.Label(); label != "" {
		return prettier.Concat{prettier.Text(label + " "), r.TypeDoc(p.Type)}
	}
	return r.TypeDoc(p.Type)
}

func (r *Renderer) constructorName(c types.Constructor) string {
	d := descriptors.DeclOf(c)
	if d == nil {
		return c.DebugName()
	}
	if d.Kind() == descriptors.KindTypeParameter {
		return r.name(d)
	}
	return className(d)
}

// className joins the names of d and its enclosing classes.
func className(d *descriptors.Decl) string {
	var parts []string
	for o := d; o != nil && o.Kind() == descriptors.KindClass; o = o.Owner() {
		parts = append(parts, escape(o.NameString()))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

func (r *Renderer) name(d *descriptors.Decl) string {
	return escape(d.NameString())
}

// escape backquotes names that are not plain identifiers.
func escape(name string) string {
	if name == "" || strings.HasPrefix(name, "<") {
		return name
	}
	for i, c := range name {
		if c == '_' || unicode.IsLetter(c) || (i > 0 && unicode.IsDigit(c)) {
			continue
		}
		return "`" + name + "`"
	}
	return name
}

func (r *Renderer) annotations(d *descriptors.Decl) prettier.Doc {
	if r.opts.NoAnnotations || len(d.Annotations()) == 0 {
		return prettier.Concat{}
	}
	out := prettier.Concat{}
	for _, a := range d.Annotations() {
		out = append(out, prettier.Text("@"+a), prettier.Space)
	}
	return out
}

// kindComment marks members that were not written in source.
func kindComment(d *descriptors.Decl) prettier.Doc {
	c := d.Callable()
	if c == nil || c.Kind() == descriptors.Declaration {
		return prettier.Concat{}
	}
	return prettier.Concat{prettier.Text("/* " + c.Kind().String() + " */"), prettier.Space}
}

func words(ws ...string) prettier.Doc {
	out := prettier.Concat{}
	for _, w := range ws {
		if w != "" {
			out = append(out, prettier.Text(w), prettier.Space)
		}
	}
	return out
}

func flag(d *descriptors.Decl, f descriptors.CallableFlags, word string) string {
	if d.Callable().Flags().Has(f) {
		return word
	}
	return ""
}

func overrideWord(d *descriptors.Decl) string {
	if d.Callable().Kind().IsReal() && len(d.OverriddenDescriptors()) > 0 {
		return "override"
	}
	return ""
}

func (r *Renderer) classDoc(d *descriptors.Decl) prettier.Doc {
	cls := d.Class()
	modality := d.Modality().String()
	switch {
	case cls.ClassKind() == descriptors.ClassKindInterface && d.Modality() == descriptors.Abstract,
		cls.ClassKind() == descriptors.ClassKindEnumEntry:
		modality = ""
	}
	inner := ""
	if cls.IsInner() {
		inner = "inner"
	}
	doc := prettier.Concat{
		r.annotations(d),
		words(d.Visibility().String(), modality, inner, cls.ClassKind().String()),
		prettier.Text(r.name(d)),
	}
	if !cls.Initialized() {
		return doc
	}
	tps := d.TypeParameters()
	doc = append(doc, r.typeParameterList(tps, false))
	if supers := d.Supertypes(); !onlyAny(supers) {
		superDocs := make([]prettier.Doc, len(supers))
		for i, s := range supers {
			superDocs[i] = r.TypeDoc(s)
		}
		doc = append(doc, prettier.Text(" : "), prettier.Group{
			Doc: prettier.Join(separatorDoc, superDocs...),
		})
	}
	doc = append(doc, r.whereClause(tps))
	return doc
}

func onlyAny(ts []*types.Type) bool {
	return len(ts) == 0 || (len(ts) == 1 && types.IsAny(ts[0]) && !ts[0].IsMarkedNullable())
}

func (r *Renderer) constructorDoc(d *descriptors.Decl) prettier.Doc {
	doc := prettier.Concat{
		r.annotations(d),
		kindComment(d),
		words(d.Visibility().String()),
		prettier.Text("constructor "),
	}
	if class := d.Owner(); class != nil && class.Kind() == descriptors.KindClass {
		doc = append(doc, prettier.Text(r.name(class)))
		if class.Class().Initialized() {
			doc = append(doc, r.typeParameterList(class.TypeParameters(), false))
		}
	}
	return append(doc, r.valueParameterList(d))
}

func (r *Renderer) functionDoc(d *descriptors.Decl) prettier.Doc {
	tps := d.TypeParameters()
	return prettier.Concat{
		r.annotations(d),
		kindComment(d),
		r.contextReceivers(d),
		r.callableModifiers(d,
			flag(d, descriptors.FlagExternal, "external"),
			flag(d, descriptors.FlagInline, "inline"),
			flag(d, descriptors.FlagTailrec, "tailrec"),
			flag(d, descriptors.FlagSuspend, "suspend"),
			flag(d, descriptors.FlagInfix, "infix"),
			flag(d, descriptors.FlagOperator, "operator"),
		),
		prettier.Text("fun "),
		r.typeParameterList(tps, true),
		r.extensionReceiver(d),
		prettier.Text(r.name(d)),
		r.valueParameterList(d),
		prettier.Text(": "),
		r.TypeDoc(d.ReturnType()),
		r.whereClause(tps),
	}
}

func (r *Renderer) propertyDoc(d *descriptors.Decl) prettier.Doc {
	keyword := "val "
	if d.IsVar() {
		keyword = "var "
	}
	tps := d.TypeParameters()
	return prettier.Concat{
		r.annotations(d),
		kindComment(d),
		r.contextReceivers(d),
		r.callableModifiers(d,
			flag(d, descriptors.FlagConst, "const"),
			flag(d, descriptors.FlagLateinit, "lateinit"),
		),
		prettier.Text(keyword),
		r.typeParameterList(tps, true),
		r.extensionReceiver(d),
		prettier.Text(r.name(d)),
		prettier.Text(": "),
		r.TypeDoc(d.Type()),
		r.whereClause(tps),
	}
}

func (r *Renderer) accessorDoc(d *descriptors.Decl, keyword string) prettier.Doc {
	doc := prettier.Concat{
		r.annotations(d),
		kindComment(d),
		r.callableModifiers(d,
			flag(d, descriptors.FlagExternal, "external"),
			flag(d, descriptors.FlagInline, "inline"),
		),
		prettier.Text(keyword),
		r.valueParameterList(d),
	}
	if d.Kind() == descriptors.KindGetter {
		doc = append(doc, prettier.Text(": "), r.TypeDoc(d.ReturnType()))
	}
	return doc
}

func (r *Renderer) callableModifiers(d *descriptors.Decl, extra ...string) prettier.Doc {
	ws := []string{
		flag(d, descriptors.FlagExpect, "expect"),
		d.Visibility().String(),
		d.Modality().String(),
		overrideWord(d),
	}
	return words(append(ws, extra...)...)
}

func (r *Renderer) contextReceivers(d *descriptors.Decl) prettier.Doc {
	ctx := d.ContextReceivers()
	if len(ctx) == 0 {
		return prettier.Concat{}
	}
	docs := make([]prettier.Doc, len(ctx))
	for i, c := range ctx {
		docs[i] = r.TypeDoc(c.Receiver().Type())
	}
	return prettier.Concat{
		prettier.Text("context"),
		prettier.WrapParentheses(prettier.Join(separatorDoc, docs...), prettier.SoftLine{}),
		prettier.Space,
	}
}

func (r *Renderer) extensionReceiver(d *descriptors.Decl) prettier.Doc {
	ext := d.ExtensionReceiver()
	if ext == nil {
		return prettier.Concat{}
	}
	return prettier.Concat{r.TypeDoc(ext.Receiver().Type()), prettier.Text(".")}
}

// typeParameterList renders <A, out B : Bound>. Only the first bound of
// each parameter is printed inline; the rest go to the where clause.
func (r *Renderer) typeParameterList(tps []*descriptors.Decl, trailingSpace bool) prettier.Doc {
	if len(tps) == 0 {
		return prettier.Concat{}
	}
	docs := make([]prettier.Doc, len(tps))
	for i, tp := range tps {
		docs[i] = r.typeParameterDoc(tp)
	}
	doc := prettier.Concat{prettier.Wrap(
		prettier.Text("<"),
		prettier.Join(separatorDoc, docs...),
		prettier.Text(">"),
		prettier.SoftLine{},
	)}
	if trailingSpace {
		doc = append(doc, prettier.Space)
	}
	return doc
}

func (r *Renderer) typeParameterDoc(tp *descriptors.Decl) prettier.Doc {
	data := tp.TypeParam()
	reified := ""
	if data.IsReified() {
		reified = "reified"
	}
	doc := prettier.Concat{
		r.annotations(tp),
		words(reified, data.Variance().Label()),
		prettier.Text(r.name(tp)),
	}
	if !data.Initialized() {
		return doc
	}
	if bounds := explicitBounds(tp); len(bounds) > 0 {
		doc = append(doc, prettier.Text(" : "), r.TypeDoc(bounds[0]))
	}
	return doc
}

func explicitBounds(tp *descriptors.Decl) []*types.Type {
	var out []*types.Type
	for _, b := range tp.UpperBounds() {
		if !types.IsNullableAny(b) {
			out = append(out, b)
		}
	}
	return out
}

func (r *Renderer) whereClause(tps []*descriptors.Decl) prettier.Doc {
	var docs []prettier.Doc
	for _, tp := range tps {
		if !tp.TypeParam().Initialized() {
			continue
		}
		bounds := explicitBounds(tp)
		for i := 1; i < len(bounds); i++ {
			docs = append(docs, prettier.Concat{
				prettier.Text(r.name(tp) + " : "),
				r.TypeDoc(bounds[i]),
			})
		}
	}
	if len(docs) == 0 {
		return prettier.Concat{}
	}
	return prettier.Group{
		Doc: prettier.Concat{
			prettier.Text(" where "),
			prettier.Join(separatorDoc, docs...),
		},
	}
}

func (r *Renderer) valueParameterList(d *descriptors.Decl) prettier.Doc {
	params := d.ValueParameters()
	if len(params) == 0 {
		return prettier.Text("()")
	}
	docs := make([]prettier.Doc, len(params))
	for i, p := range params {
		docs[i] = r.valueParameterDoc(p)
	}
	return prettier.Group{
		Doc: prettier.WrapParentheses(prettier.Join(separatorDoc, docs...), prettier.SoftLine{}),
	}
}

func (r *Renderer) valueParameterDoc(p *descriptors.Decl) prettier.Doc {
	data := p.ValueParam()
	var vararg, crossinline, noinline string
	t := p.Type()
	if data.IsVararg() {
		vararg = "vararg"
		t = data.VarargElementType()
	}
	if data.IsCrossinline() {
		crossinline = "crossinline"
	}
	if data.IsNoinline() {
		noinline = "noinline"
	}
	doc := prettier.Concat{
		r.annotations(p),
		words(vararg, crossinline, noinline),
		prettier.Text(r.name(p) + ": "),
		r.TypeDoc(t),
	}
	switch {
	case p.DeclaresDefaultValue():
		doc = append(doc, prettier.Text(" = ..."))
	case p.HasDefaultValue():
		doc = append(doc, prettier.Text(" /* = ... */"))
	}
	return doc
}

func (r *Renderer) receiverDoc(d *descriptors.Decl) prettier.Doc {
	return prettier.Concat{
		prettier.Text("<" + d.Receiver().Kind().String() + ">: "),
		r.TypeDoc(d.Receiver().Type()),
	}
}
