// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"testing"

	"github.com/lsmkit/fileindex/internal/base"
	"github.com/stretchr/testify/require"
)

func TestNewVersion(t *testing.T) {
	var levels [NumLevels][]*TableMetadata
	levels[1] = []*TableMetadata{
		{TableNum: 1, Smallest: []byte("10"), Largest: []byte("20")},
		{TableNum: 2, Smallest: []byte("30"), Largest: []byte("40")},
	}
	levels[2] = []*TableMetadata{
		{TableNum: 3, Smallest: []byte("05"), Largest: []byte("35")},
	}
	v := NewVersion(base.DefaultComparer, levels)

	require.Equal(t, NumLevels, v.Indexer().NumLevels())
	require.Equal(t, 2, v.Levels[1].Len())
	require.Equal(t, 2, v.Indexer().LevelIndexSize(1))
	require.Equal(t, 1, v.Indexer().LevelIndexSize(2))
	require.NotNil(t, v.Comparer().Equal)

	// The index is ready to answer queries as soon as the version exists.
	left, right := v.Indexer().GetNextLevelIndex(1, 0, 1, -1)
	require.Equal(t, 0, left)
	require.Equal(t, 0, right)

	require.Equal(t,
		"L1: 000001:[10-20] 000002:[30-40]\nL2: 000003:[05-35]\n",
		v.String())
}
