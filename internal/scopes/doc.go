// Package scopes provides the member scopes the resolver attaches to
// classes: the members written in a class body, and the full member set
// of a class with inherited members folded in as fake overrides.
package scopes
