package event

// Filter is an opaque predicate over persisted wire paths ("d.msg",
// "d.file._id", ...). Values are matched by equality unless they are an
// operator document using the supported Mongo subset: $exists, $eq, $ne,
// $in, $gt, $gte, $lt, $lte; the top-level $and key conjoins a list of
// sub-filters. Store adapters interpret filters; this module only
// composes them.
type Filter map[string]any

// And conjoins filters into one predicate requiring every clause to hold.
// Clauses keep their own keys, so a caller predicate and a fixed predicate
// on the same path are both enforced rather than one overwriting the other.
// Empty clauses are dropped.
func And(filters ...Filter) Filter {
	clauses := make([]Filter, 0, len(filters))

	for _, f := range filters {
		if len(f) > 0 {
			clauses = append(clauses, f)
		}
	}

	switch len(clauses) {
	case 0:
		return Filter{}
	case 1:
		return clauses[0]
	default:
		return Filter{"$and": clauses}
	}
}

// Update is a data patch applied to an existing event's payload. Paths are
// payload-relative ("reactions", not "d.reactions").
type Update struct {
	Set   Data
	Unset []string
}

// IsZero reports whether the update carries no changes.
func (u Update) IsZero() bool {
	return len(u.Set) == 0 && len(u.Unset) == 0
}

// Redaction is the prune engine's direct rewrite of one event: payload
// field replacement and removal plus the soft-delete stamp, applied as a
// single atomic document update. The deliberate, audited exception to
// append-only semantics, scoped to redaction only.
type Redaction struct {
	Set          Data
	Unset        []string
	StampDeleted bool
}
