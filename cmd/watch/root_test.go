package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/ValentinKolb/dObs/lib/collection"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runWatch(t *testing.T, workers, ops int, format string, withMetrics bool) string {
	t.Helper()
	watchWorkers, watchOps, watchFormat, watchMetrics = workers, ops, format, withMetrics

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, run(cmd, nil))
	return out.String()
}

// apply replays a change record the way a bound view would
func apply(mirror []int, c collection.Change[int]) []int {
	switch c.Action {
	case collection.ActionAdd:
		if c.NewIndex < 0 {
			return append(mirror, c.NewItems...)
		}
		return slices.Insert(mirror, c.NewIndex, c.NewItems...)
	case collection.ActionRemove:
		return slices.Delete(mirror, c.OldIndex, c.OldIndex+1)
	case collection.ActionReplace:
		mirror[c.NewIndex] = c.NewItems[0]
	case collection.ActionMove:
		mirror = slices.Delete(mirror, c.OldIndex, c.OldIndex+1)
		return slices.Insert(mirror, c.NewIndex, c.NewItems...)
	}
	return mirror
}

func TestWatchRecordsReplayToFinalContents(t *testing.T) {
	out := runWatch(t, 4, 50, "json", false)

	records, final, found := strings.Cut(out, "\nfinal ")
	require.True(t, found, "output: %s", out)

	var mirror []int
	var seq uint64
	for _, line := range strings.Split(strings.TrimSpace(records), "\n") {
		var r record
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		seq++
		assert.Equal(t, seq, r.Seq, "records are numbered in owner order")
		mirror = apply(mirror, r.Change)
	}

	parts := make([]string, len(mirror))
	for i, v := range mirror {
		parts[i] = strconv.Itoa(v)
	}
	assert.Equal(t, fmt.Sprintf("(%d items): [%s]\n", len(mirror), strings.Join(parts, ", ")), final)
}

func TestWatchTextAndMetrics(t *testing.T) {
	out := runWatch(t, 2, 10, "text", true)

	assert.Contains(t, out, "     1  ")
	assert.Contains(t, out, "dobs_list_len{list=")
	assert.Contains(t, out, "dobs_dispatch_total{loop=")
}

func TestPrinterFormats(t *testing.T) {
	r := record{Seq: 7, Change: collection.Change[int]{
		Action: collection.ActionReplace, NewItems: []int{2}, OldItems: []int{1}, NewIndex: 0, OldIndex: 0,
	}}

	var buf bytes.Buffer
	printText, err := newPrinter(&buf, "text")
	require.NoError(t, err)
	require.NoError(t, printText(r))
	assert.Equal(t, "     7  replace [1] with [2] at 0\n", buf.String())

	buf.Reset()
	printYAML, err := newPrinter(&buf, "yaml")
	require.NoError(t, err)
	require.NoError(t, printYAML(r))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(bytes.TrimPrefix(buf.Bytes(), []byte("---\n")), &decoded))
	assert.Equal(t, 7, decoded["seq"])
	assert.Equal(t, "replace", decoded["action"])

	_, err = newPrinter(&buf, "xml")
	assert.Error(t, err)
}
