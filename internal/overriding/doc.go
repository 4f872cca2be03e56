// Package overriding decides which inherited members a declaration
// overrides and builds fake overrides for the inherited members nobody
// redeclares.
//
// GenerateOverridesInGroup works on one name at a time: members declared
// in the class bind the supertype members they override, and the rest are
// grouped by mutual overridability. Each group becomes one fake override
// copied from its most specific member. Conflicts are handed to the
// caller's Sink, never returned as errors.
package overriding
