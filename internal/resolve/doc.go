// Package resolve turns declaration shapes into descriptors.
//
// Resolution runs in passes over all input files. The declare pass
// creates a skeleton for every class and type parameter, so that any
// declaration may refer to any other. The class pass initializes classes
// with lazy supertype and bound resolvers; cycles among them are found by
// the descriptor graph when the lists are first read. The member pass
// creates constructors, functions, properties and enum entries.
package resolve
