// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lsmkit/fileindex/internal/base"
	"github.com/lsmkit/fileindex/internal/invariants"
)

// LevelMetadata contains metadata for all of the tables within a level of the
// LSM. For levels other than level 0 the tables are sorted ascending by
// smallest key and are mutually non-overlapping; level 0 tables may overlap
// arbitrarily and are kept in the order they were supplied (newest table
// last, matching the flush order of the collaborator that built them).
//
// A LevelMetadata is immutable once constructed.
type LevelMetadata struct {
	level     int
	totalSize uint64
	tables    []*TableMetadata
}

// MakeLevelMetadata creates a LevelMetadata with the given tables. The caller
// promises that for level > 0 the tables are sorted by smallest key and
// non-overlapping under cmp; this is verified only in invariant builds.
// Ownership of the slice passes to the LevelMetadata.
func MakeLevelMetadata(cmp base.Compare, level int, tables []*TableMetadata) LevelMetadata {
	lm := LevelMetadata{level: level, tables: tables}
	for _, m := range tables {
		lm.totalSize += m.Size
	}
	if invariants.Enabled && level > 0 {
		lm.verifyInvariants(cmp)
	}
	return lm
}

func (lm *LevelMetadata) verifyInvariants(cmp base.Compare) {
	for i, m := range lm.tables {
		if err := m.Validate(cmp); err != nil {
			panic(err)
		}
		if i > 0 && cmp(lm.tables[i-1].Largest, m.Smallest) >= 0 {
			panic(errors.AssertionFailedf(
				"L%d tables %s and %s are out of order or overlapping",
				lm.level, lm.tables[i-1], m))
		}
	}
}

// Empty indicates whether there are any tables in the level.
func (lm *LevelMetadata) Empty() bool { return len(lm.tables) == 0 }

// Len returns the number of tables within the level.
func (lm *LevelMetadata) Len() int { return len(lm.tables) }

// Size returns the cumulative size of all the tables within the level.
func (lm *LevelMetadata) Size() uint64 { return lm.totalSize }

// Table returns the table at position i within the level. The position is
// stable for the lifetime of the LevelMetadata.
func (lm *LevelMetadata) Table(i int) *TableMetadata {
	invariants.CheckBounds(i, len(lm.tables))
	return lm.tables[i]
}

// Slice returns the level's tables as a slice. The slice is borrowed: callers
// must not mutate it or the tables it points to.
func (lm *LevelMetadata) Slice() []*TableMetadata { return lm.tables }

// DebugString returns a string representation of the level, one table per
// entry.
func (lm *LevelMetadata) DebugString(format base.FormatKey) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "L%d:", lm.level)
	for _, m := range lm.tables {
		fmt.Fprintf(&buf, " %s", m.DebugString(format))
	}
	return buf.String()
}
