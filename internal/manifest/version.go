// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"strings"

	"github.com/lsmkit/fileindex/internal/base"
)

// NumLevels is the number of levels a version is organized into.
const NumLevels = 7

// Version is an immutable snapshot of the tables at every level, together
// with the cross-level index built over them. Versions are constructed
// whole: a change to any level's tables is published as a new Version, never
// by mutating an existing one, so a Version may be read from any number of
// goroutines without locking.
type Version struct {
	// Levels holds the tables for each level of the LSM.
	Levels [NumLevels]LevelMetadata

	cmp     *base.Comparer
	indexer *FileIndexer
}

// NewVersion constructs a version from the given per-level tables and builds
// its cross-level index. The tables for levels 1 and above must be sorted by
// smallest key and non-overlapping under the comparer.
func NewVersion(comparer *base.Comparer, levels [NumLevels][]*TableMetadata) *Version {
	v := &Version{
		cmp:     comparer.EnsureDefaults(),
		indexer: NewFileIndexer(NumLevels, comparer.Compare),
	}
	for i := range levels {
		v.Levels[i] = MakeLevelMetadata(v.cmp.Compare, i, levels[i])
	}
	v.indexer.UpdateIndex(v.Levels[:])
	return v
}

// Comparer returns the comparer the version's tables are ordered by.
func (v *Version) Comparer() *base.Comparer { return v.cmp }

// Indexer returns the version's cross-level index.
func (v *Version) Indexer() *FileIndexer { return v.indexer }

// DebugString returns an alternative format to String() which includes table
// bounds formatted with format.
func (v *Version) DebugString(format base.FormatKey) string {
	var buf strings.Builder
	for l := range v.Levels {
		if v.Levels[l].Empty() {
			continue
		}
		buf.WriteString(v.Levels[l].DebugString(format))
		buf.WriteByte('\n')
	}
	return buf.String()
}

// String implements fmt.Stringer.
func (v *Version) String() string {
	return v.DebugString(base.DefaultFormatter)
}
