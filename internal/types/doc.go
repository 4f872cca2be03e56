// Package types is the type model the descriptor layer is built on.
//
// A Type is an immutable pointer value: a Constructor, projected
// arguments and a nullability mark. Descriptors implement Constructor and
// Parameter for their classes and type parameters, so this package never
// imports them. Types are compared with a Checker; two distinct pointers
// may denote the same type.
//
// Substitution is variance-directed. Substitutor.Substitute returns
// ok=false when an argument is projected out in the requested position;
// that is a normal outcome, not an error.
package types
