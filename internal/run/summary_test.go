package run

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_RecordBuckets(t *testing.T) {
	s := NewSummary(4)
	s.Record(OK("a"))
	s.Record(Skip("b"))
	s.Record(Empty("c"))
	s.Record(Fail("d", errors.New("boom")))

	assert.Equal(t, 1, s.Success)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.NoData)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 4, s.Processed())
	assert.False(t, s.Clean())

	require.Len(t, s.Diags, 1)
	assert.Equal(t, "d: boom", s.Diags[0])
}

func TestSummary_FinalizeFreezes(t *testing.T) {
	s := NewSummary(1)
	s.Record(OK("a"))
	s.Finalize()
	assert.Panics(t, func() { s.Record(OK("b")) })
}

func TestSummary_DiagOrderPreserved(t *testing.T) {
	s := NewSummary(3)
	s.Record(Failf("u1", "first"))
	s.Record(Failf("u2", "second"))
	s.Record(Failf("u3", "third"))
	assert.Equal(t, []string{"u1: first", "u2: second", "u3: third"}, s.Diags)
}

func TestCollect(t *testing.T) {
	ch := make(chan []Outcome, 2)
	ch <- []Outcome{OK("a"), Fail("b", errors.New("bad file"))}
	ch <- []Outcome{OK("c")}
	close(ch)

	s := Collect(3, ch, nil)
	assert.Equal(t, 2, s.Success)
	assert.Equal(t, 1, s.Failed)
	assert.True(t, s.Elapsed() >= 0)
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()

	s := NewSummary(2)
	s.Record(OK("a"))
	s.Record(Failf("bad/dir", "merge failed: gap too large"))
	s.Finalize()

	path, err := WriteArtifact(dir, s)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, filepath.Join(dir, "errors_"+s.RunID+".txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "bad/dir")
}

func TestWriteArtifact_CleanRun(t *testing.T) {
	dir := t.TempDir()
	s := NewSummary(1)
	s.Record(OK("a"))
	s.Finalize()

	path, err := WriteArtifact(dir, s)
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifact for a clean run")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "no_data", NoData.String())
	assert.Equal(t, "failed", Failed.String())
}
