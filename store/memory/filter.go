package memory

import (
	"reflect"
	"strings"
	"time"

	"github.com/meshchat/roomlog/event"
)

// matchesFilter evaluates the supported Mongo filter subset against one
// event: dotted wire paths, implicit equality, the operators $exists,
// $eq, $ne, $in, $gt, $gte, $lt, $lte, and top-level $and. Conjunctive
// across keys.
func matchesFilter(evt *event.Event, filter event.Filter) bool {
	return matchDoc(wireDoc(evt), filter)
}

func matchDoc(doc map[string]any, filter event.Filter) bool {
	for path, pred := range filter {
		if path == "$and" {
			if !matchAnd(doc, pred) {
				return false
			}

			continue
		}

		value, exists := lookupPath(doc, path)
		if !matchPredicate(value, exists, pred) {
			return false
		}
	}

	return true
}

// matchAnd evaluates a $and clause list.
func matchAnd(doc map[string]any, pred any) bool {
	switch clauses := pred.(type) {
	case []event.Filter:
		for _, clause := range clauses {
			if !matchDoc(doc, clause) {
				return false
			}
		}

		return true
	case []any:
		for _, raw := range clauses {
			clause, ok := asDocument(raw)
			if !ok || !matchDoc(doc, event.Filter(clause)) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// wireDoc projects an event onto its persisted document shape. Optional
// fields are omitted when unset so $exists behaves as it would against the
// stored document.
func wireDoc(evt *event.Event) map[string]any {
	doc := map[string]any{
		"_id":   evt.ID.String(),
		"_pids": evt.ProcessedIDs,
		"v":     evt.Version,
		"ts":    evt.Timestamp,
		"src":   evt.Source,
		"rid":   evt.RoomID,
		"t":     string(evt.Type),
		"d":     map[string]any(evt.Data),
	}

	if evt.ClientID != "" {
		doc["_cid"] = evt.ClientID
	}

	if evt.UpdatedAt != nil {
		doc["_updatedAt"] = *evt.UpdatedAt
	}

	if evt.DeletedAt != nil {
		doc["_deletedAt"] = *evt.DeletedAt
	}

	return doc
}

// lookupPath resolves a dotted path against nested documents.
func lookupPath(doc map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")

	var current any = doc

	for _, seg := range segments {
		m, ok := asDocument(current)
		if !ok {
			return nil, false
		}

		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func asDocument(v any) (map[string]any, bool) {
	switch doc := v.(type) {
	case map[string]any:
		return doc, true
	case event.Filter:
		return doc, true
	default:
		return nil, false
	}
}

func matchPredicate(value any, exists bool, pred any) bool {
	ops, ok := operatorDoc(pred)
	if !ok {
		return exists && equals(value, pred)
	}

	for op, operand := range ops {
		switch op {
		case "$exists":
			want, _ := operand.(bool)
			if exists != want {
				return false
			}
		case "$eq":
			if !exists || !equals(value, operand) {
				return false
			}
		case "$ne":
			if exists && equals(value, operand) {
				return false
			}
		case "$in":
			if !exists || !containedIn(value, operand) {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			if !exists {
				return false
			}

			cmp, comparable := compare(value, operand)
			if !comparable {
				return false
			}

			switch op {
			case "$gt":
				if cmp <= 0 {
					return false
				}
			case "$gte":
				if cmp < 0 {
					return false
				}
			case "$lt":
				if cmp >= 0 {
					return false
				}
			case "$lte":
				if cmp > 0 {
					return false
				}
			}
		default:
			// unsupported operator: treat as no match rather than guessing
			return false
		}
	}

	return true
}

// operatorDoc reports whether pred is an operator document ({"$op": ...}).
func operatorDoc(pred any) (map[string]any, bool) {
	doc, ok := asDocument(pred)
	if !ok || len(doc) == 0 {
		return nil, false
	}

	for k := range doc {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}

	return doc, true
}

func containedIn(value, operand any) bool {
	rv := reflect.ValueOf(operand)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}

	for i := range rv.Len() {
		if equals(value, rv.Index(i).Interface()) {
			return true
		}
	}

	return false
}

func equals(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}

		return false
	}

	if at, ok := a.(time.Time); ok {
		if bt, bok := b.(time.Time); bok {
			return at.Equal(bt)
		}

		return false
	}

	return reflect.DeepEqual(a, b)
}

// compare orders two values when both are times, numbers, or strings.
func compare(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, bok := b.(time.Time)
		if !bok {
			return 0, false
		}

		return at.Compare(bt), true
	}

	if af, ok := asFloat(a); ok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, false
		}

		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	if as, ok := a.(string); ok {
		bs, bok := b.(string)
		if !bok {
			return 0, false
		}

		return strings.Compare(as, bs), true
	}

	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
