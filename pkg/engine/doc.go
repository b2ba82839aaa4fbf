// Package engine evaluates mixin schemas. Evaluate runs the fixed-point
// activation algorithm over a caller-seeded set of active mixins and the
// field values entered so far; Discover answers "which mixins could this
// field trigger next" without running an evaluation.
//
// A mixin only becomes active when it is part of the seed or when it is a
// child of an already active mixin whose trigger matches. A trigger that
// would be true in isolation never activates an orphaned mixin.
package engine
