package descriptors

import (
	"sync"

	"fortio.org/safecast"

	"descgraph/internal/diag"
	"descgraph/internal/source"
	"descgraph/internal/storage"
	"descgraph/internal/trace"
	"descgraph/internal/types"
)

// DeclID is the arena handle of a published Decl. NoDecl is never issued.
type DeclID uint32

const NoDecl DeclID = 0

// Config configures a Graph.
type Config struct {
	Name     string
	Names    *source.Interner // shared name table; a fresh one if nil
	Reporter diag.Reporter    // receives cycle and projection problems
	Tracer   trace.Tracer
}

// Graph owns every descriptor of one analysis session. Dropping the graph
// drops all of them.
type Graph struct {
	name     string
	names    *source.Interner
	storage  *storage.Manager
	reporter diag.Reporter
	tracer   trace.Tracer
	builtins *types.Builtins
	checker  *types.Checker
	module   *Decl

	mu    sync.RWMutex
	decls []*Decl // decls[0] is nil
}

func NewGraph(cfg Config) *Graph {
	if cfg.Names == nil {
		cfg.Names = source.NewInterner()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = trace.Nop
	}
	if cfg.Name == "" {
		cfg.Name = "main"
	}
	var reporter diag.Reporter = diag.NopReporter{}
	if cfg.Reporter != nil {
		reporter = diag.NewLockedReporter(cfg.Reporter)
	}
	b := types.NewBuiltins()
	g := &Graph{
		name:     cfg.Name,
		names:    cfg.Names,
		storage:  storage.NewManager(storage.Config{Name: cfg.Name, Tracer: cfg.Tracer}),
		reporter: reporter,
		tracer:   cfg.Tracer,
		builtins: b,
		checker:  types.NewChecker(b),
		decls:    make([]*Decl, 1, 256),
	}
	g.module = g.publish(&Decl{g: g, kind: KindModule, name: g.names.Intern("<" + cfg.Name + ">")})
	return g
}

func (g *Graph) Name() string                    { return g.name }
func (g *Graph) Names() *source.Interner         { return g.names }
func (g *Graph) Storage() *storage.Manager       { return g.storage }
func (g *Graph) Reporter() diag.Reporter         { return g.reporter }
func (g *Graph) Tracer() trace.Tracer            { return g.tracer }
func (g *Graph) Builtins() *types.Builtins       { return g.builtins }
func (g *Graph) Checker() *types.Checker         { return g.checker }
func (g *Graph) Module() *Decl                   { return g.module }
func (g *Graph) Intern(s string) source.StringID { return g.names.Intern(s) }

// NameOf returns the text of an interned name.
func (g *Graph) NameOf(id source.StringID) string {
	s, _ := g.names.Lookup(id)
	return s
}

// Substitutor binds s to the graph's builtins.
func (g *Graph) Substitutor(s types.Substitution) *types.Substitutor {
	return types.NewSubstitutor(s, g.builtins)
}

// Decl returns the published decl with the given ID, or nil.
func (g *Graph) Decl(id DeclID) *Decl {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if int(id) >= len(g.decls) {
		return nil
	}
	return g.decls[id]
}

// Len returns the number of published decls.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.decls) - 1
}

// Decls returns a snapshot of all published decls in ID order.
func (g *Graph) Decls() []*Decl {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Decl, len(g.decls)-1)
	copy(out, g.decls[1:])
	return out
}

// publish assigns IDs to d and to every decl it owns that is not yet
// published. Copies are built unpublished and published only on success.
func (g *Graph) publish(d *Decl) *Decl {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.publishLocked(d)
	return d
}

func (g *Graph) publishLocked(d *Decl) {
	if d == nil || d.id != NoDecl {
		return
	}
	n, err := safecast.Conv[uint32](len(g.decls))
	if err != nil {
		panic(err)
	}
	d.id = DeclID(n)
	g.decls = append(g.decls, d)
	if d.original == nil {
		d.original = d
	}
	for _, child := range d.ownedChildren() {
		g.publishLocked(child)
	}
}

func (g *Graph) report(code diag.Code, sev diag.Severity, at *Decl, msg string) {
	var sp source.Span
	if at != nil {
		sp = at.Source()
	}
	g.reporter.Report(code, sev, sp, msg, nil, nil)
}

// attach publishes d right away when its owner is already published.
// Children of unpublished copies wait for the copy.
func (g *Graph) attach(d *Decl) *Decl {
	if d.owner != nil && d.owner.id != NoDecl {
		return g.publish(d)
	}
	return d
}

// adopt publishes the children of an already published decl.
func (g *Graph) adopt(d *Decl) {
	if d.id == NoDecl {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, child := range d.ownedChildren() {
		g.publishLocked(child)
	}
}
