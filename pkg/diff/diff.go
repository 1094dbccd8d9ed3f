// Package diff computes changesets between two ordered snapshots of a
// keyed collection. It is pure: no goroutines, no locks, no dependency on
// the streaming core.
package diff

import "reflect"

// Move records an element present in both snapshots at different
// positions. Mutated is set when the element's value also changed.
type Move struct {
	From    int
	To      int
	Mutated bool
}

// Changeset describes how to turn the old snapshot into the new one.
// Inserts index into the new snapshot, Removals into the old. Mutations
// index elements that stayed in place but changed value. Every index of
// the new snapshot is covered by exactly one of: an insert, a move's To,
// a mutation, or an untouched carry-over from the same index in old.
type Changeset struct {
	Inserts   []int
	Removals  []int
	Mutations []int
	Moves     []Move
}

// Empty reports whether the snapshots were identical.
func (c Changeset) Empty() bool {
	return len(c.Inserts) == 0 && len(c.Removals) == 0 &&
		len(c.Mutations) == 0 && len(c.Moves) == 0
}

// Diff compares two snapshots element-keyed by key. Keys must be unique
// within each snapshot. equal decides whether a surviving element mutated;
// nil means reflect.DeepEqual.
//
// An element whose position shifted because of surrounding inserts or
// removals is reported as a move. That keeps the changeset directly
// applicable without re-deriving displacement.
func Diff[T any, K comparable](oldSnap, newSnap []T, key func(T) K, equal func(T, T) bool) Changeset {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}

	oldAt := make(map[K]int, len(oldSnap))
	for i, v := range oldSnap {
		oldAt[key(v)] = i
	}
	newAt := make(map[K]int, len(newSnap))
	for j, v := range newSnap {
		newAt[key(v)] = j
	}

	var cs Changeset
	for i, v := range oldSnap {
		if _, ok := newAt[key(v)]; !ok {
			cs.Removals = append(cs.Removals, i)
		}
	}
	for j, v := range newSnap {
		i, ok := oldAt[key(v)]
		if !ok {
			cs.Inserts = append(cs.Inserts, j)
			continue
		}
		mutated := !equal(oldSnap[i], v)
		switch {
		case i != j:
			cs.Moves = append(cs.Moves, Move{From: i, To: j, Mutated: mutated})
		case mutated:
			cs.Mutations = append(cs.Mutations, j)
		}
	}
	return cs
}
