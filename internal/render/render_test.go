package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"descgraph/internal/descriptors"
	"descgraph/internal/diag"
	"descgraph/internal/resolve"
	"descgraph/internal/shape"
	"descgraph/internal/types"
)

const boxSource = `
package: demo
classes:
  - name: Box
    modality: open
    annotations: [Marker]
    typeParameters:
      - {name: T, variance: out}
    functions:
      - name: get
        modality: open
        parameters:
          - {name: index, type: Int, default: true}
          - {name: rest, type: String, vararg: true}
        returns: T
      - name: map
        inline: true
        typeParameters:
          - {name: R, reified: true, bounds: ["Comparable<R>", "Any"]}
        receiver: "List<R>?"
        returns: R
    properties:
      - {name: size, type: Int}
  - name: Sub
    supertypes: ["Box<String>"]
  - name: Shape
    kind: interface
  - name: E
    kind: enum
    entries:
      - name: A
`

type fixture struct {
	g   *descriptors.Graph
	bag *diag.Bag
	r   *resolve.Resolver
}

func load(t *testing.T) *fixture {
	t.Helper()
	file, err := shape.Parse("box.yaml", []byte(boxSource))
	require.NoError(t, err)
	bag := diag.NewBag(100)
	g := descriptors.NewGraph(descriptors.Config{Reporter: diag.BagReporter{Bag: bag}})
	r := resolve.New(g, resolve.Options{})
	r.Resolve([]*shape.File{file})
	return &fixture{g: g, bag: bag, r: r}
}

func (f *fixture) class(t *testing.T, name string) *descriptors.Decl {
	t.Helper()
	c := f.r.Lookup(name)
	require.NotNil(t, c, name)
	return c
}

func (f *fixture) member(t *testing.T, class *descriptors.Decl, name string) *descriptors.Decl {
	t.Helper()
	scope := class.UnsubstitutedMemberScope()
	if fns := scope.ContributedFunctions(f.g.Intern(name)); len(fns) == 1 {
		return fns[0]
	}
	vars := scope.ContributedVariables(f.g.Intern(name))
	require.Len(t, vars, 1, name)
	return vars[0]
}

func TestClassHeaders(t *testing.T) {
	t.Parallel()

	f := load(t)
	assert.Equal(t, "@Marker public open class Box<out T>", String(f.class(t, "demo.Box")))
	assert.Equal(t, "public final class Sub : Box<String>", String(f.class(t, "demo.Sub")))
	assert.Equal(t, "public interface Shape", String(f.class(t, "demo.Shape")))

	enum := f.class(t, "demo.E")
	entry := enum.StaticScope().ContributedClassifier(f.g.Intern("A"))
	require.NotNil(t, entry)
	assert.Equal(t, "public enum entry A : E", String(entry))
	assert.Equal(t, 0, f.bag.Len())
}

func TestCallables(t *testing.T) {
	t.Parallel()

	f := load(t)
	box := f.class(t, "demo.Box")

	get := f.member(t, box, "get")
	assert.Equal(t, "public open fun get(index: Int = ..., vararg rest: String): T", String(get))

	mapFn := f.member(t, box, "map")
	assert.Equal(t,
		"public final inline fun <reified R : Comparable<R>> List<R>?.map(): R where R : Any",
		String(mapFn))

	size := f.member(t, box, "size")
	assert.Equal(t, "public final val size: Int", String(size))
	getter := size.Callable().Getter()
	require.NotNil(t, getter)
	assert.Equal(t, "public final get(): Int", String(getter))

	ctor := box.PrimaryConstructor()
	require.NotNil(t, ctor)
	assert.Equal(t, "public constructor Box<out T>()", String(ctor))

	params := get.ValueParameters()
	require.Len(t, params, 2)
	assert.Equal(t, "vararg rest: String", String(params[1]))
	assert.Equal(t, "out T", String(box.TypeParameters()[0]))
	assert.Equal(t, "<this>: Box<T>", String(box.ThisReceiver()))
}

func TestFakeOverridesAreMarked(t *testing.T) {
	t.Parallel()

	f := load(t)
	sub := f.class(t, "demo.Sub")
	get := f.member(t, sub, "get")
	assert.Equal(t,
		"/* fake-override */ public open fun get(index: Int /* = ... */, vararg rest: String): String",
		String(get))

	values := sub.UnsubstitutedMemberScope().ContributedFunctions(f.g.Intern("values"))
	assert.Empty(t, values)

	enum := f.class(t, "demo.E")
	values = enum.StaticScope().ContributedFunctions(f.g.Intern("values"))
	require.Len(t, values, 1)
	out := String(values[0])
	assert.True(t, strings.HasPrefix(out, "/* synthesized */ "), out)
	assert.Contains(t, out, "fun values(): Array<E>")
}

func TestNarrowWidthWrapsParameters(t *testing.T) {
	t.Parallel()

	f := load(t)
	get := f.member(t, f.class(t, "demo.Box"), "get")
	out := New(Options{Width: 30, Indent: "  "}).String(get)
	assert.True(t, strings.HasPrefix(out, "public open fun get(\n"), out)
	assert.Contains(t, out, "\n  index: Int = ...,\n")
	assert.Contains(t, out, "\n  vararg rest: String\n")
	assert.True(t, strings.HasSuffix(out, "): T"), out)
}

func TestBody(t *testing.T) {
	t.Parallel()

	f := load(t)
	out := New(Options{}).Body(f.class(t, "demo.Sub"))
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 2)
	assert.Equal(t, "public final class Sub : Box<String> {", lines[0])
	assert.Equal(t, "}", lines[len(lines)-1])
	assert.Contains(t, out, "\n    public constructor Sub()\n")
	assert.Contains(t, out, "\n    /* fake-override */ public final val size: Int")

	assert.Equal(t, "public interface Shape", New(Options{}).Body(f.class(t, "demo.Shape")))
}

func TestTypes(t *testing.T) {
	t.Parallel()

	b := types.NewBuiltins()
	assert.Equal(t, "List<Int>?", TypeString(b.ListOf(b.Int).MakeNullable(true)))
	assert.Equal(t, "List<*>", TypeString(types.New(b.List, []types.Projection{types.StarProjection()}, false)))
	assert.Equal(t, "Array<in String>",
		TypeString(types.New(b.Array, []types.Projection{types.Projected(types.In, b.String)}, false)))
	assert.Equal(t, "[error: nope]", TypeString(types.NewErrorType("nope")))
}

func TestAnnotationsCanBeDropped(t *testing.T) {
	t.Parallel()

	f := load(t)
	r := New(Options{NoAnnotations: true})
	assert.Equal(t, "public open class Box<out T>", r.String(f.class(t, "demo.Box")))
	assert.Equal(t, DefaultWidth, r.Options().Width)
}

func TestEscape(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"plain":    "plain",
		"a1":       "a1",
		"_x":       "_x",
		"1a":       "`1a`",
		"two word": "`two word`",
		"<init>":   "<init>",
		"café":     "café",
	}
	for in, want := range cases {
		assert.Equal(t, want, escape(in), in)
	}
}
