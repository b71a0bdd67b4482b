// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lsmkit/fileindex/internal/base"
	"github.com/lsmkit/fileindex/internal/invariants"
)

// LevelMaxIndex is the sentinel right bound used by callers to seed a search
// over a level's full table sequence before any narrower bound is known.
// GetNextLevelIndex never returns it: every right bound it produces is at
// most the last valid index of the next level.
const LevelMaxIndex = math.MaxInt32

// FileIndexer accelerates cross-level table searches. During a point lookup,
// every level from 1 upward must be binary searched for the single table
// whose bounds could contain the target key. The indexer precomputes, for
// each table at level L, index bounds into level L+1's table sequence, so
// that the search at L+1 starts from the window implied by the search result
// at L instead of the whole level.
//
// For a table f at level L and the tables at level L+1, four bounds are kept:
//
//	smallestLB: the first table at L+1 whose largest key is ≥ f.Smallest
//	largestLB:  the first table at L+1 whose largest key is ≥ f.Largest
//	smallestRB: the last table at L+1 whose smallest key is ≤ f.Smallest
//	largestRB:  the last table at L+1 whose smallest key is ≤ f.Largest
//
// A *LB of len(L+1) means every table at L+1 lies before the boundary key; a
// *RB of -1 means every table at L+1 lies after it. These sentinels are
// interpreted by GetNextLevelIndex and must never be used to index a level
// directly.
//
// A FileIndexer is rebuilt wholesale by UpdateIndex whenever the level
// contents change and is immutable afterward: GetNextLevelIndex and the
// accessors may be called concurrently without synchronization. The caller is
// responsible for not rebuilding an indexer that concurrent readers still
// observe.
type FileIndexer struct {
	numLevels int
	cmp       base.Compare
	// index[l] holds one indexUnit per table at level l, aligned with the
	// level's table positions. index[0] and index[numLevels-1] are always
	// empty: level 0 is unordered and never index-guided, and the last level
	// has no lower level to point into.
	index [][]indexUnit
	// levelRB[l] is the last valid table position at level l, or -1 if the
	// level is empty. Recomputed for levels 1..numLevels-1 on every
	// UpdateIndex; levelRB[0] is unused and stays -1 except in the degenerate
	// single-level case.
	levelRB []int32
}

// indexUnit holds the four precomputed bounds for one table. Each field is a
// position in the next level's table sequence, or one of the sentinels
// described on FileIndexer.
type indexUnit struct {
	smallestLB int32
	largestLB  int32
	smallestRB int32
	largestRB  int32
}

// NewFileIndexer returns an empty indexer for numLevels levels. The
// comparator must be the one the level table sequences are sorted by; using
// a different comparator at build time than at search time silently produces
// wrong bounds.
func NewFileIndexer(numLevels int, cmp base.Compare) *FileIndexer {
	if numLevels < 1 {
		panic(errors.AssertionFailedf("invalid level count %d", numLevels))
	}
	fi := &FileIndexer{
		numLevels: numLevels,
		cmp:       cmp,
		index:     make([][]indexUnit, numLevels),
		levelRB:   make([]int32, numLevels),
	}
	for i := range fi.levelRB {
		fi.levelRB[i] = -1
	}
	return fi
}

// NumLevels returns the number of levels the indexer was constructed with.
func (fi *FileIndexer) NumLevels() int { return fi.numLevels }

// LevelIndexSize returns the number of index units held for level, which
// after a rebuild equals the level's table count for levels 1..numLevels-2
// and zero otherwise.
func (fi *FileIndexer) LevelIndexSize(level int) int {
	if level < 0 || level >= fi.numLevels {
		panic(errors.AssertionFailedf("level %d out of range [0, %d)", level, fi.numLevels))
	}
	return len(fi.index[level])
}

// GetNextLevelIndex returns the window [left, right] of table positions at
// level+1 that a search for the target key must consider, given that the
// search at level settled on the table at fileIndex. cmpSmallest and
// cmpLargest are the three-way comparisons of the target key against that
// table's smallest and largest keys, produced by the comparator supplied at
// construction.
//
// Querying the last level returns (0, -1): there is no further level to
// narrow. left == right+1 in general denotes a legitimately empty window.
//
// Passing level 0, a fileIndex outside the level, comparison values that are
// impossible for a table with ordered bounds, or querying between ClearIndex
// and UpdateIndex is a bug in the caller and panics.
func (fi *FileIndexer) GetNextLevelIndex(
	level, fileIndex, cmpSmallest, cmpLargest int,
) (left, right int) {
	if level <= 0 || level >= fi.numLevels {
		panic(errors.AssertionFailedf("level %d out of range [1, %d)", level, fi.numLevels))
	}

	// Last level, no hint.
	if level == fi.numLevels-1 {
		return 0, -1
	}

	if fileIndex < 0 || int32(fileIndex) > fi.levelRB[level] {
		panic(errors.AssertionFailedf("L%d file index %d out of range [0, %d]",
			level, fileIndex, fi.levelRB[level]))
	}
	if fileIndex >= len(fi.index[level]) {
		// levelRB admits the position but no unit exists for it: the index was
		// cleared and not rebuilt.
		panic(errors.AssertionFailedf("L%d queried after ClearIndex without rebuild", level))
	}

	u := &fi.index[level][fileIndex]
	switch {
	case cmpSmallest < 0:
		// The target precedes the table's range. Any matching table at the next
		// level must also be reachable from the previous table at this level.
		left = 0
		if fileIndex > 0 {
			left = int(fi.index[level][fileIndex-1].largestLB)
		}
		right = int(u.smallestRB)
	case cmpSmallest == 0:
		left, right = int(u.smallestLB), int(u.smallestRB)
	case cmpSmallest > 0 && cmpLargest < 0:
		left, right = int(u.smallestLB), int(u.largestRB)
	case cmpLargest == 0:
		left, right = int(u.largestLB), int(u.largestRB)
	case cmpLargest > 0:
		left, right = int(u.largestLB), int(fi.levelRB[level+1])
	default:
		// The five cases above partition every pair of three-way comparison
		// signs, so this arm is unreachable for any int inputs. It stays so
		// that a future edit to the cases cannot silently fall through.
		panic(errors.AssertionFailedf(
			"unhandled comparison results cmpSmallest=%d cmpLargest=%d", cmpSmallest, cmpLargest))
	}

	if left < 0 || left > right+1 || right > int(fi.levelRB[level+1]) {
		panic(errors.AssertionFailedf("invalid window [%d, %d] for L%d (last valid index %d)",
			left, right, level+1, fi.levelRB[level+1]))
	}
	return left, right
}

// ClearIndex discards the bound units of every level, keeping the level
// count. It marks the indexer stale ahead of a rebuild; the right bound
// cache is left in place so that a query issued in the cleared state trips
// the assertions in GetNextLevelIndex instead of reading discarded units.
func (fi *FileIndexer) ClearIndex() {
	for level := 1; level < fi.numLevels; level++ {
		fi.index[level] = nil
	}
}

// UpdateIndex rebuilds the entire index from the given per-level table
// sequences. len(levels) must equal the indexer's level count. All previous
// bound units are discarded. The levels must satisfy the ordering invariants
// described on LevelMetadata; this is not re-verified here.
//
// The bounds for each level pair are computed by four two-pointer merge
// passes over the upper and lower sequences, so a rebuild costs O(total
// table count).
func (fi *FileIndexer) UpdateIndex(levels []LevelMetadata) {
	if len(levels) != fi.numLevels {
		panic(errors.AssertionFailedf("got %d levels, indexer holds %d", len(levels), fi.numLevels))
	}

	// L1 .. Ln-2: every level that has an index-guided level below it.
	for level := 1; level < fi.numLevels-1; level++ {
		upper := levels[level].Slice()
		lower := levels[level+1].Slice()
		fi.levelRB[level] = int32(len(upper)) - 1
		if len(upper) == 0 {
			fi.index[level] = nil
			continue
		}
		index := make([]indexUnit, len(upper))
		fi.index[level] = index

		calculateLB(upper, lower, index,
			func(a, b *TableMetadata) int { return fi.cmp(a.Smallest, b.Largest) },
			func(u *indexUnit, pos int32) { u.smallestLB = pos })
		calculateLB(upper, lower, index,
			func(a, b *TableMetadata) int { return fi.cmp(a.Largest, b.Largest) },
			func(u *indexUnit, pos int32) { u.largestLB = pos })
		calculateRB(upper, lower, index,
			func(a, b *TableMetadata) int { return fi.cmp(a.Smallest, b.Smallest) },
			func(u *indexUnit, pos int32) { u.smallestRB = pos })
		calculateRB(upper, lower, index,
			func(a, b *TableMetadata) int { return fi.cmp(a.Largest, b.Smallest) },
			func(u *indexUnit, pos int32) { u.largestRB = pos })

		if invariants.Enabled {
			fi.verifyBoundsMonotonic(level)
		}
	}
	fi.levelRB[fi.numLevels-1] = int32(levels[fi.numLevels-1].Len()) - 1
}

// calculateLB computes a left bound field for every table in upper: the
// position of the first lower table whose largest key is not below the upper
// table's boundary key (selected by cmpOp), or len(lower) if no lower table
// qualifies. Both sequences are sorted and non-overlapping, so a single
// forward sweep visits each table once.
func calculateLB(
	upper, lower []*TableMetadata,
	index []indexUnit,
	cmpOp func(a, b *TableMetadata) int,
	setIndex func(u *indexUnit, pos int32),
) {
	upperIdx, lowerIdx := 0, 0
	for upperIdx < len(upper) && lowerIdx < len(lower) {
		cmp := cmpOp(upper[upperIdx], lower[lowerIdx])
		switch {
		case cmp == 0:
			setIndex(&index[upperIdx], int32(lowerIdx))
			upperIdx++
			lowerIdx++
		case cmp > 0:
			// The lower table's largest key is smaller; no key at or above the
			// boundary can land in it. Move to the next lower table.
			lowerIdx++
		default:
			// The lower table's largest key is now past the boundary: it is the
			// first candidate. Record it and move to the next upper table.
			setIndex(&index[upperIdx], int32(lowerIdx))
			upperIdx++
		}
	}
	for upperIdx < len(upper) {
		// Lower tables are exhausted: the remaining upper boundaries are greater
		// than every lower table.
		setIndex(&index[upperIdx], int32(len(lower)))
		upperIdx++
	}
}

// calculateRB is the mirror of calculateLB: a backward sweep computing, for
// every table in upper, the position of the last lower table whose smallest
// key is not above the upper table's boundary key, or -1 if no lower table
// qualifies.
func calculateRB(
	upper, lower []*TableMetadata,
	index []indexUnit,
	cmpOp func(a, b *TableMetadata) int,
	setIndex func(u *indexUnit, pos int32),
) {
	upperIdx, lowerIdx := len(upper)-1, len(lower)-1
	for upperIdx >= 0 && lowerIdx >= 0 {
		cmp := cmpOp(upper[upperIdx], lower[lowerIdx])
		switch {
		case cmp == 0:
			setIndex(&index[upperIdx], int32(lowerIdx))
			upperIdx--
			lowerIdx--
		case cmp < 0:
			// The lower table's smallest key is larger; no key at or below the
			// boundary can land in it. Move to the previous lower table.
			lowerIdx--
		default:
			setIndex(&index[upperIdx], int32(lowerIdx))
			upperIdx--
		}
	}
	for upperIdx >= 0 {
		setIndex(&index[upperIdx], -1)
		upperIdx--
	}
}

// verifyBoundsMonotonic checks that every bound field is non-decreasing in
// the table position. Both sequences being sorted, a regressing bound means
// the merge went wrong. Invariant builds only.
func (fi *FileIndexer) verifyBoundsMonotonic(level int) {
	index := fi.index[level]
	for i := 1; i < len(index); i++ {
		prev, cur := &index[i-1], &index[i]
		if cur.smallestLB < prev.smallestLB || cur.largestLB < prev.largestLB ||
			cur.smallestRB < prev.smallestRB || cur.largestRB < prev.largestRB {
			panic(errors.AssertionFailedf("L%d bounds regress at position %d: %v -> %v",
				level, i, *prev, *cur))
		}
	}
}

// DebugString returns the per-table bounds for every indexed level.
func (fi *FileIndexer) DebugString() string {
	var buf strings.Builder
	for level := 1; level < fi.numLevels-1; level++ {
		fmt.Fprintf(&buf, "L%d (last valid index %d):\n", level, fi.levelRB[level])
		for i := range fi.index[level] {
			u := &fi.index[level][i]
			fmt.Fprintf(&buf, "  %d: smallestLB=%d largestLB=%d smallestRB=%d largestRB=%d\n",
				i, u.smallestLB, u.largestLB, u.smallestRB, u.largestRB)
		}
	}
	if fi.numLevels > 1 {
		fmt.Fprintf(&buf, "L%d (last valid index %d):\n", fi.numLevels-1, fi.levelRB[fi.numLevels-1])
	}
	return buf.String()
}
