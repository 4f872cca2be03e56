package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"descgraph/internal/diag"
	"descgraph/internal/snapshot"
	"descgraph/internal/testkit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const boxFile = `
package: demo
classes:
  - name: Box
    modality: open
    typeParameters:
      - name: T
    functions:
      - name: get
        modality: open
        returns: T
`

const userFile = `
package: user
classes:
  - name: IntBox
    supertypes: ["demo.Box<Int>"]
    functions:
      - {name: get, override: true, returns: Int}
functions:
  - {name: make, returns: IntBox}
`

func writeInputs(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		paths = append(paths, p)
	}
	return paths
}

func TestRunResolvesAndForces(t *testing.T) {
	t.Parallel()

	paths := writeInputs(t, map[string]string{"box.yaml": boxFile, "user.yaml": userFile})
	var events []PhaseEvent
	res, err := Run(context.Background(), paths, Options{
		Name:     "demo",
		Jobs:     4,
		ForceAll: true,
		Timings:  true,
		Observer: func(ev PhaseEvent) { events = append(events, ev) },
	})
	require.NoError(t, err)
	require.NotNil(t, res.Resolved)
	assert.False(t, res.Bag.HasErrors(), diag.FormatShort(res.Bag.Items(), res.Files, true))
	assert.Equal(t, 1, res.Bag.Count(diag.ObsTimings))
	assert.Len(t, res.Roots(), 3)
	assert.False(t, res.Key.IsZero())
	require.NoError(t, testkit.CheckGraphInvariants(res.Graph, res.Files))

	var names []string
	for _, ev := range events {
		if ev.Status == PhaseEnd {
			names = append(names, ev.Name)
		}
	}
	assert.Equal(t, []string{"load", "resolve", "force"}, names)

	intBox := res.Resolver.Lookup("user.IntBox")
	require.NotNil(t, intBox)
	get := intBox.UnsubstitutedMemberScope().ContributedFunctions(res.Graph.Intern("get"))
	require.Len(t, get, 1)
	require.Len(t, get[0].OverriddenDescriptors(), 1)
	assert.Same(t, res.Resolver.Lookup("demo.Box"), get[0].OverriddenDescriptors()[0].Original().Owner())
}

func TestSnapshotCache(t *testing.T) {
	t.Parallel()

	cache, err := snapshot.NewDiskCache(t.TempDir())
	require.NoError(t, err)
	paths := writeInputs(t, map[string]string{"box.yaml": boxFile, "user.yaml": userFile})

	first, err := Run(context.Background(), paths, Options{Name: "demo", Cache: cache})
	require.NoError(t, err)
	s1, cached, err := first.Snapshot()
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, first.Key.String(), s1.Key)

	second, err := Run(context.Background(), paths, Options{Name: "demo", Cache: cache})
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)
	s2, cached, err := second.Snapshot()
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, s1.Entries, s2.Entries)
}

func TestRunReportsBadInputs(t *testing.T) {
	t.Parallel()

	paths := writeInputs(t, map[string]string{
		"syntax.yaml":  "package: [unclosed\n",
		"invalid.yaml": "package: demo\nclasses:\n  - name: \"1bad\"\n",
	})
	paths = append(paths, filepath.Join(t.TempDir(), "missing.yaml"))

	var events []PhaseEvent
	res, err := Run(context.Background(), paths, Options{
		ForceAll: true,
		Observer: func(ev PhaseEvent) { events = append(events, ev) },
	})
	require.NoError(t, err)
	assert.Nil(t, res.Graph)
	require.Len(t, events, 4)
	assert.Equal(t, PhaseEvent{Name: "load", Status: PhaseStart}, events[0])
	assert.Equal(t, PhaseEnd, events[1].Status)
	assert.NoError(t, events[1].Err)
	assert.Equal(t, PhaseEvent{Name: "resolve", Status: PhaseSkipped}, events[2])
	assert.Equal(t, PhaseEvent{Name: "force", Status: PhaseSkipped}, events[3])
	assert.Equal(t, "skipped", events[3].Status.String())
	assert.Equal(t, 1, res.Bag.Count(diag.ShapeSyntax))
	assert.Equal(t, 1, res.Bag.Count(diag.ShapeInvalid))
	assert.Equal(t, 1, res.Bag.Count(diag.IOLoadFileError))

	_, _, err = res.Snapshot()
	assert.Error(t, err)
}

func TestRunWithoutInputs(t *testing.T) {
	t.Parallel()

	res, err := Run(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Bag.Count(diag.ProjMissingInput))
}

func TestForceAllReportsCycles(t *testing.T) {
	t.Parallel()

	paths := writeInputs(t, map[string]string{"cycle.yaml": `
package: demo
classes:
  - {name: A, modality: open, supertypes: [B]}
  - {name: B, modality: open, supertypes: [A]}
  - {name: C, supertypes: [A]}
`})
	res, err := Run(context.Background(), paths, Options{ForceAll: true, Jobs: 3})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Bag.Count(diag.SemaCyclicSupertype), 1)

	c := res.Resolver.Lookup("demo.C")
	require.NotNil(t, c)
	assert.Len(t, c.Supertypes(), 1)
}

func TestRunHonoursCancellation(t *testing.T) {
	t.Parallel()

	paths := writeInputs(t, map[string]string{"box.yaml": boxFile})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, paths, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
