// Package descriptors is the resolved declaration model: classes,
// constructors, functions, properties with their accessors, and value,
// type and receiver parameters.
//
// Every declaration is a *Decl carrying a Kind tag and a kind-specific
// payload. Decls live in a Graph arena and get a stable DeclID when they
// are published. Construction is two-phase: a skeleton (New*) knows only
// its name, owner, source and kind, so other skeletons can reference it;
// Initialize* fills in types and parameters exactly once. Lazily derived
// state (supertypes, upper bounds, default types, member scopes) is held in
// storage cells owned by the graph's storage manager.
//
// Substitute, Copy and ApplyPatch never mutate their input. They return a
// new Decl rooted at an original, or ok=false when a type is projected out.
package descriptors
