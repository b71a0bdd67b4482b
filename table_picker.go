// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package fileindex narrows per-level table searches in a leveled LSM. Given
// a version's per-level table metadata it precomputes a cross-level index
// (manifest.FileIndexer) and drives point lookups with it: the search result at
// each level bounds the search window at the next, collapsing the per-level
// binary searches to amortized constant work after the first.
//
// The package reads table metadata only. Table contents, compaction, and
// version publication belong to the surrounding engine.
package fileindex

import (
	"sort"

	"github.com/lsmkit/fileindex/internal/manifest"
)

// ForEachOverlapping visits every table in v whose key bounds contain
// userKey, in the order a point lookup must consult them: level 0 tables
// newest to oldest, then at most one table per level from 1 upward. The walk
// stops early when fn returns true.
//
// For levels 1 and above the candidate table is found by a binary search
// restricted to the window precomputed by the version's index for the
// previous level's result, so visiting all levels costs one full binary
// search plus amortized constant work per further level.
func ForEachOverlapping(
	v *manifest.Version, userKey []byte, fn func(level int, m *manifest.TableMetadata) bool,
) {
	cmp := v.Comparer().Compare
	indexer := v.Indexer()

	// Level 0 tables overlap arbitrarily and are never index-guided. They are
	// held oldest first, so walk backward to surface the newest data first.
	l0 := &v.Levels[0]
	for i := l0.Len() - 1; i >= 0; i-- {
		if m := l0.Table(i); m.ContainsUserKey(cmp, userKey) {
			if fn(0, m) {
				return
			}
		}
	}

	searchLeft, searchRight := 0, manifest.LevelMaxIndex
	for level := 1; level < manifest.NumLevels; level++ {
		lm := &v.Levels[level]
		if lm.Empty() || searchLeft > searchRight {
			// Nothing to compare at this level; the next level must be searched
			// in full.
			searchLeft, searchRight = 0, manifest.LevelMaxIndex
			continue
		}
		right := searchRight
		if right == manifest.LevelMaxIndex {
			right = lm.Len() - 1
		}
		// First table in [searchLeft, right] whose largest key is ≥ userKey.
		// The window was derived from the previous level's user keys, so the
		// target may still fall beyond its last table; searching one past right
		// detects that.
		idx := searchLeft + sort.Search(right-searchLeft+1, func(i int) bool {
			return cmp(userKey, lm.Table(searchLeft+i).Largest) <= 0
		})
		if idx > right {
			searchLeft, searchRight = 0, manifest.LevelMaxIndex
			continue
		}

		m := lm.Table(idx)
		cmpSmallest := cmp(userKey, m.Smallest)
		// The binary search already established userKey ≤ m.Largest, so the
		// comparison is only needed to distinguish equality.
		cmpLargest := -1
		if cmpSmallest >= 0 {
			cmpLargest = cmp(userKey, m.Largest)
		}
		searchLeft, searchRight = indexer.GetNextLevelIndex(level, idx, cmpSmallest, cmpLargest)
		if cmpSmallest >= 0 && cmpLargest <= 0 {
			if fn(level, m) {
				return
			}
		}
	}
}
