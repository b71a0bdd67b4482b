// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fileindex

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/datadriven"
	"github.com/lsmkit/fileindex/internal/base"
	"github.com/lsmkit/fileindex/internal/manifest"
	"github.com/stretchr/testify/require"
)

func TestForEachOverlappingDataDriven(t *testing.T) {
	var v *manifest.Version
	datadriven.RunTest(t, "testdata/table_picker",
		func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "define":
				var levels [manifest.NumLevels][]*manifest.TableMetadata
				for line := range crstrings.LinesSeq(d.Input) {
					levelStr, rest, ok := strings.Cut(line, ":")
					if !ok {
						t.Fatalf("malformed level line %q", line)
					}
					var level int
					if _, err := fmt.Sscanf(strings.TrimSpace(levelStr), "L%d", &level); err != nil {
						t.Fatalf("malformed level %q: %v", levelStr, err)
					}
					for _, tok := range strings.Fields(rest) {
						m, err := manifest.ParseTableMetadataDebug(tok)
						require.NoError(t, err)
						levels[level] = append(levels[level], m)
					}
				}
				v = manifest.NewVersion(base.DefaultComparer, levels)
				return v.String()

			case "get":
				var key string
				d.ScanArgs(t, "key", &key)
				var buf bytes.Buffer
				ForEachOverlapping(v, []byte(key), func(level int, m *manifest.TableMetadata) bool {
					fmt.Fprintf(&buf, "L%d: %s\n", level, m)
					return false
				})
				if buf.Len() == 0 {
					return "(none)"
				}
				return buf.String()

			default:
				return fmt.Sprintf("unknown command %q", d.Cmd)
			}
		})
}

// TestForEachOverlappingEarlyStop verifies the walk halts as soon as fn
// returns true.
func TestForEachOverlappingEarlyStop(t *testing.T) {
	var levels [manifest.NumLevels][]*manifest.TableMetadata
	levels[1] = []*manifest.TableMetadata{
		{TableNum: 1, Smallest: []byte("10"), Largest: []byte("20")},
	}
	levels[2] = []*manifest.TableMetadata{
		{TableNum: 2, Smallest: []byte("05"), Largest: []byte("25")},
	}
	v := manifest.NewVersion(base.DefaultComparer, levels)

	var visited int
	ForEachOverlapping(v, []byte("15"), func(level int, m *manifest.TableMetadata) bool {
		visited++
		return true
	})
	require.Equal(t, 1, visited)

	visited = 0
	ForEachOverlapping(v, []byte("15"), func(level int, m *manifest.TableMetadata) bool {
		visited++
		return false
	})
	require.Equal(t, 2, visited)
}

// TestForEachOverlappingRandomized cross-checks the guided walk against a
// plain scan of every level: both must visit the same tables in the same
// order for arbitrary versions and target keys.
func TestForEachOverlappingRandomized(t *testing.T) {
	seed := uint64(time.Now().UnixNano())
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewPCG(0, seed))
	cmp := base.DefaultComparer.Compare

	key := func(k int) []byte { return []byte(fmt.Sprintf("%04d", k)) }

	for round := 0; round < 200; round++ {
		var levels [manifest.NumLevels][]*manifest.TableMetadata
		var tn manifest.TableNum
		// Level 0 tables may overlap arbitrarily.
		for i, n := 0, rng.IntN(4); i < n; i++ {
			smallest := rng.IntN(1000)
			tn++
			levels[0] = append(levels[0], &manifest.TableMetadata{
				TableNum: tn,
				Smallest: key(smallest),
				Largest:  key(smallest + rng.IntN(300)),
			})
		}
		// Higher levels are sorted and disjoint.
		for l := 1; l < manifest.NumLevels; l++ {
			pos := 0
			for i, n := 0, rng.IntN(5); i < n && pos < 1200; i++ {
				smallest := pos + rng.IntN(60)
				largest := smallest + rng.IntN(120)
				tn++
				levels[l] = append(levels[l], &manifest.TableMetadata{
					TableNum: tn,
					Smallest: key(smallest),
					Largest:  key(largest),
				})
				pos = largest + 1 + rng.IntN(40)
			}
		}
		v := manifest.NewVersion(base.DefaultComparer, levels)

		for trial := 0; trial < 50; trial++ {
			target := key(rng.IntN(1500))

			var want []string
			for i := len(levels[0]) - 1; i >= 0; i-- {
				if levels[0][i].ContainsUserKey(cmp, target) {
					want = append(want, levels[0][i].String())
				}
			}
			for l := 1; l < manifest.NumLevels; l++ {
				for _, m := range levels[l] {
					if m.ContainsUserKey(cmp, target) {
						want = append(want, m.String())
					}
				}
			}

			var got []string
			ForEachOverlapping(v, target, func(level int, m *manifest.TableMetadata) bool {
				got = append(got, m.String())
				return false
			})
			require.Equal(t, want, got, "key %s in\n%s", target, v)
		}
	}
}
