// Package testkit holds graph invariant checks and assertion helpers
// shared by the package tests.
package testkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kr/pretty"

	"descgraph/internal/descriptors"
	"descgraph/internal/fault"
	"descgraph/internal/source"
)

// CheckGraphInvariants runs the structural checks on every published
// decl of g:
// 1) Original is a fixpoint of the same kind
// 2) value and type parameters sit at their own index and belong to d
// 3) accessors point back at their property
// 4) fake overrides override something
// 5) spans refer to files of fs, when fs is given
//
// All violations are joined into the returned error.
func CheckGraphInvariants(g *descriptors.Graph, fs *source.FileSet) error {
	var errs []error
	for _, d := range g.Decls() {
		if err := fault.Catch(func() { errs = append(errs, checkDecl(d, fs)...) }); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d, err))
		}
	}
	return errors.Join(errs...)
}

func checkDecl(d *descriptors.Decl, fs *source.FileSet) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", d, fmt.Sprintf(format, args...)))
	}

	o := d.Original()
	if o.Original() != o {
		fail("original %s is not a fixpoint", o)
	}
	if o.Kind() != d.Kind() {
		fail("original %s has kind %s", o, o.Kind())
	}

	if fs != nil && !d.Source().IsZero() && fs.Get(d.Source().File) == nil {
		fail("span %s refers to an unknown file", d.Source())
	}

	if !initialized(d) {
		return errs
	}
	if d.Callable() != nil {
		for i, p := range d.ValueParameters() {
			if p.ValueParam().Index() != i {
				fail("value parameter %s has index %d at position %d", p.NameString(), p.ValueParam().Index(), i)
			}
			if p.Owner() != d {
				fail("value parameter %s is owned by %s", p.NameString(), p.Owner())
			}
		}
		for _, acc := range d.Accessors() {
			if acc.Property() != d {
				fail("accessor %s belongs to %s", acc, acc.Property())
			}
		}
		if d.Callable().Kind() == descriptors.FakeOverride && len(d.OverriddenDescriptors()) == 0 {
			fail("fake override overrides nothing")
		}
	}
	if d.Callable() != nil || d.Class() != nil {
		for i, tp := range d.TypeParameters() {
			if tp.TypeParam().Index() != i {
				fail("type parameter %s has index %d at position %d", tp.NameString(), tp.TypeParam().Index(), i)
			}
		}
	}
	return errs
}

func initialized(d *descriptors.Decl) bool {
	switch {
	case d.Class() != nil:
		return d.Class().Initialized()
	case d.Callable() != nil:
		return d.Callable().Initialized()
	case d.TypeParam() != nil:
		return d.TypeParam().Initialized()
	}
	return true
}

// AssertEqualWithDiff fails t with a field level diff when want and got
// differ.
func AssertEqualWithDiff(t testing.TB, want, got any, msgAndArgs ...any) bool {
	t.Helper()
	diff := pretty.Diff(want, got)
	if len(diff) == 0 {
		return true
	}
	msg := ""
	if len(msgAndArgs) > 0 {
		if format, ok := msgAndArgs[0].(string); ok {
			msg = fmt.Sprintf(format, msgAndArgs[1:]...) + "\n"
		}
	}
	t.Errorf("%svalues differ:", msg)
	for _, line := range diff {
		t.Errorf("  %s", line)
	}
	return false
}
