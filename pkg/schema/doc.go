// Package schema defines the mixin data model evaluated by the trigger
// engine. A Schema is a flat, name-keyed map of Mixins: every reference
// between mixins (root entries, child triggers, intersection rules) is a
// plain name lookup, so the trigger graph may contain cycles without any
// ownership cycle in memory. Trigger conditions form a closed set of
// variants (Compare, IsSet, All); operators are parsed when a schema is
// decoded so unknown tags never reach evaluation.
package schema
