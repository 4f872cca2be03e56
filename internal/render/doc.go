// Package render prints descriptors as declaration headers.
//
// Every descriptor kind has a rendering: classes print their header and
// supertypes, callables their modifiers, type parameters, receivers,
// value parameters and return type. Fake overrides, delegations and
// synthesized members carry a leading kind comment. The output is built
// as a prettier document so long parameter lists wrap at the configured
// width.
package render
