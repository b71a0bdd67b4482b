// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/lsmkit/fileindex/internal/base"
)

// TableNum is an identifier for a table within a version. Table numbers are
// assigned by the collaborator that owns the tables; this package only
// displays them.
type TableNum uint64

// String returns a string representation of the table number.
func (tn TableNum) String() string { return fmt.Sprintf("%06d", uint64(tn)) }

// SafeFormat implements redact.SafeFormatter.
func (tn TableNum) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%06d", redact.SafeUint(tn))
}

// TableMetadata holds the metadata for an on-disk table: its identity, size,
// and user key bounds. The bounds are inclusive at both ends. TableMetadata
// is owned by the version management collaborator; this package borrows it
// read-only and never mutates it.
type TableMetadata struct {
	// TableNum is the table number.
	TableNum TableNum
	// Size is the size of the table, in bytes.
	Size uint64
	// Smallest is the smallest user key in the table.
	Smallest []byte
	// Largest is the largest user key in the table; Smallest ≤ Largest under
	// the comparator the table was written with.
	Largest []byte
}

// ContainsUserKey returns true if the table's bounds contain key.
func (m *TableMetadata) ContainsUserKey(cmp base.Compare, key []byte) bool {
	return cmp(m.Smallest, key) <= 0 && cmp(key, m.Largest) <= 0
}

// Validate checks that the metadata is internally consistent.
func (m *TableMetadata) Validate(cmp base.Compare) error {
	if cmp(m.Smallest, m.Largest) > 0 {
		return errors.AssertionFailedf("table %s has inverted bounds: [%s-%s]",
			m.TableNum, m.Smallest, m.Largest)
	}
	return nil
}

// DebugString returns a verbose string representation of the table, formatting
// the key bounds with format.
func (m *TableMetadata) DebugString(format base.FormatKey) string {
	return fmt.Sprintf("%s:[%s-%s]", m.TableNum, format(m.Smallest), format(m.Largest))
}

// String implements fmt.Stringer.
func (m *TableMetadata) String() string {
	return m.DebugString(base.DefaultFormatter)
}

// SafeFormat implements redact.SafeFormatter. Key bounds are user data and
// are redacted.
func (m *TableMetadata) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%s:[%s-%s]", m.TableNum, m.Smallest, m.Largest)
}

// ParseTableMetadataDebug parses a table in the format output by DebugString,
// e.g. "000001:[a-d]". Intended for tests.
func ParseTableMetadataDebug(s string) (*TableMetadata, error) {
	num, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return nil, errors.Errorf("malformed table metadata %q", s)
	}
	var tn uint64
	if _, err := fmt.Sscanf(num, "%d", &tn); err != nil {
		return nil, errors.Wrapf(err, "malformed table number %q", num)
	}
	if len(rest) < 2 || rest[0] != '[' || rest[len(rest)-1] != ']' {
		return nil, errors.Errorf("malformed table bounds %q", rest)
	}
	smallest, largest, ok := strings.Cut(rest[1:len(rest)-1], "-")
	if !ok {
		return nil, errors.Errorf("malformed table bounds %q", rest)
	}
	return &TableMetadata{
		TableNum: TableNum(tn),
		Smallest: []byte(smallest),
		Largest:  []byte(largest),
	}, nil
}
