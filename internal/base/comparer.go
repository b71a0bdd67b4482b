// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Compare returns -1, 0, or +1 depending on whether a is 'less than', 'equal
// to' or 'greater than' b. Both a and b must be valid keys. Keys are opaque;
// the same Compare must be used everywhere a given set of keys is ordered or
// searched.
type Compare func(a, b []byte) int

// Equal returns true if a and b are equivalent. For a given Compare,
// Equal(a,b)=true iff Compare(a,b)=0; Equal is a (potentially faster)
// specialization of Compare.
type Equal func(a, b []byte) bool

// FormatKey returns a formatter for the user key.
type FormatKey func(key []byte) fmt.Formatter

// DefaultFormatter is the default implementation of user key formatting:
// non-ASCII data is formatted as escaped hexadecimal. The result is "safe" for
// attachment to errors and log lines.
var DefaultFormatter FormatKey = func(key []byte) fmt.Formatter {
	return FormatBytes(key)
}

// Comparer defines a total ordering over the space of []byte keys.
type Comparer struct {
	Compare Compare
	Equal   Equal

	// FormatKey formats a key for display. Used by debug and test output; never
	// consulted on the lookup path.
	FormatKey FormatKey

	// Name is the name of the comparer.
	//
	// The on-disk state of an engine built atop this ordering is tied to the
	// comparer name; swapping in a differently named comparer against existing
	// state is a corruption hazard, which is why the name is carried here even
	// though nothing in this module persists it.
	Name string
}

// EnsureDefaults ensures that all non-nil fields are set; it returns a
// modified copy of c (or c itself if no modifications were necessary).
func (c *Comparer) EnsureDefaults() *Comparer {
	if c.Compare == nil || c.Name == "" {
		panic(errors.AssertionFailedf("invalid comparer: Compare and Name must be set"))
	}
	if c.Equal != nil && c.FormatKey != nil {
		return c
	}
	n := &Comparer{}
	*n = *c
	if n.Equal == nil {
		cmp := n.Compare
		n.Equal = func(a, b []byte) bool { return cmp(a, b) == 0 }
	}
	if n.FormatKey == nil {
		n.FormatKey = DefaultFormatter
	}
	return n
}

// DefaultComparer is the default implementation of the Comparer interface.
// It uses the natural ordering, consistent with bytes.Compare.
var DefaultComparer = &Comparer{
	Compare: bytes.Compare,
	Equal:   bytes.Equal,

	FormatKey: DefaultFormatter,

	// This name is part of the C++ Level-DB implementation's default file
	// format, and should not be changed.
	Name: "leveldb.BytewiseComparator",
}

// FormatBytes formats a byte slice using hexadecimal escapes for non-ASCII
// data.
type FormatBytes []byte

const lowerhex = "0123456789abcdef"

// Format implements the fmt.Formatter interface.
func (p FormatBytes) Format(s fmt.State, c rune) {
	buf := make([]byte, 0, len(p))
	for _, b := range p {
		if b < 0x80 && b != '\\' {
			buf = append(buf, b)
			continue
		}
		buf = append(buf, `\x`...)
		buf = append(buf, lowerhex[b>>4], lowerhex[b&0xF])
	}
	s.Write(buf)
}
