// Package event defines the canonical pop-up market event record.
//
// Every source adapter produces loosely-typed raw field maps; the normalizer
// turns those into Event values with every canonical field defaulted. An Event
// is immutable once normalized: it is either discarded as a duplicate or
// persisted exactly once, never updated in place.
package event
