package snapshot

import (
	"sort"

	"descgraph/internal/descriptors"
	"descgraph/internal/render"
)

// Current schema version - increment when the Snapshot layout changes.
const SchemaVersion uint16 = 1

// Snapshot is the flattened view of a graph.
type Snapshot struct {
	Schema  uint16  `msgpack:"schema" cbor:"schema" yaml:"schema"`
	Name    string  `msgpack:"name" cbor:"name" yaml:"name"`
	Key     string  `msgpack:"key" cbor:"key,omitempty" yaml:"key,omitempty"`
	Entries []Entry `msgpack:"entries" cbor:"entries" yaml:"entries"`
}

// Entry describes one descriptor. Owner and Overridden hold indexes
// into Snapshot.Entries; Owner is -1 for top level declarations.
type Entry struct {
	Owner      int    `msgpack:"owner" cbor:"owner" yaml:"owner"`
	Kind       string `msgpack:"kind" cbor:"kind" yaml:"kind"`
	Origin     string `msgpack:"origin,omitempty" cbor:"origin,omitempty" yaml:"origin,omitempty"`
	Name       string `msgpack:"name" cbor:"name" yaml:"name"`
	Signature  string `msgpack:"sig" cbor:"sig" yaml:"sig"`
	Overridden []int  `msgpack:"overridden,omitempty" cbor:"overridden,omitempty" yaml:"overridden,omitempty,flow"`
}

// Lookup returns the index of the first entry with the given qualified
// name and kind, or -1.
func (s *Snapshot) Lookup(kind, name string) int {
	for i := range s.Entries {
		if s.Entries[i].Kind == kind && s.Entries[i].Name == name {
			return i
		}
	}
	return -1
}

type builder struct {
	r       *render.Renderer
	entries []Entry
	decls   []*descriptors.Decl
	index   map[*descriptors.Decl]int
}

// Build records roots in order. Classes contribute their constructors,
// static members and member scope, sorted by name and signature;
// nested classes are expected among the roots after their owner.
func Build(name string, roots []*descriptors.Decl, r *render.Renderer) *Snapshot {
	if r == nil {
		r = render.New(render.Options{})
	}
	b := &builder{r: r, index: make(map[*descriptors.Decl]int)}
	for _, d := range roots {
		b.add(d, b.ownerIndex(d))
		if d.Kind() == descriptors.KindClass {
			b.members(d)
		}
	}
	for i, d := range b.decls {
		b.entries[i].Overridden = b.overridden(d)
	}
	return &Snapshot{Schema: SchemaVersion, Name: name, Entries: b.entries}
}

func (b *builder) ownerIndex(d *descriptors.Decl) int {
	if i, ok := b.index[d.Owner()]; ok {
		return i
	}
	return -1
}

func (b *builder) add(d *descriptors.Decl, owner int) int {
	if i, ok := b.index[d]; ok {
		return i
	}
	e := Entry{
		Owner:     owner,
		Kind:      d.Kind().String(),
		Name:      d.QualifiedName(),
		Signature: b.r.String(d),
	}
	if c := d.Callable(); c != nil {
		e.Origin = c.Kind().String()
	}
	i := len(b.entries)
	b.entries = append(b.entries, e)
	b.decls = append(b.decls, d)
	b.index[d] = i
	return i
}

func (b *builder) members(class *descriptors.Decl) {
	owner := b.index[class]
	for _, c := range class.Constructors() {
		b.add(c, owner)
	}
	b.addSorted(class.StaticScope().ContributedDescriptors(), owner)
	b.addSorted(class.UnsubstitutedMemberScope().ContributedDescriptors(), owner)
}

func (b *builder) addSorted(ds []*descriptors.Decl, owner int) {
	type keyed struct {
		d    *descriptors.Decl
		name string
		sig  string
	}
	list := make([]keyed, 0, len(ds))
	for _, d := range ds {
		if d.Kind() == descriptors.KindClass {
			continue
		}
		list = append(list, keyed{d: d, name: d.NameString(), sig: b.r.String(d)})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].name != list[j].name {
			return list[i].name < list[j].name
		}
		return list[i].sig < list[j].sig
	})
	for _, k := range list {
		b.add(k.d, owner)
	}
}

// overridden maps the overridden set of d to entry indexes. Members of
// substituted supertypes are matched through their originals.
func (b *builder) overridden(d *descriptors.Decl) []int {
	if d.Callable() == nil {
		return nil
	}
	var out []int
	for _, o := range d.OverriddenDescriptors() {
		if i, ok := b.index[o]; ok {
			out = append(out, i)
			continue
		}
		if i, ok := b.index[o.Original()]; ok {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
