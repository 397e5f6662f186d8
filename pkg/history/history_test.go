package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunAndFinish(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	run, err := s.NewRun("pipeline.yaml", "host-1", "/logs/run1",
		map[string]int{"ingest": 9100}, map[string]string{"ingest": "00"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.True(t, run.EndedAt.IsZero())

	require.NoError(t, s.Finish(run, nil))

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.False(t, got.EndedAt.IsZero())
	assert.Empty(t, got.Err)
}

func TestFinish_RecordsError(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	run, err := s.NewRun("pipeline.yaml", "host-1", "/logs/run2", nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Finish(run, errors.New("node crashed")))

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "node crashed", got.Err)
}

func TestGet_NotFound(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get("missing")
	assert.Error(t, err)
}

func TestList_OrderedMostRecentFirst(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	first, err := s.NewRun("a.yaml", "h", "/logs/a", nil, nil)
	require.NoError(t, err)
	second, err := s.NewRun("b.yaml", "h", "/logs/b", nil, nil)
	require.NoError(t, err)

	runs, err := s.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}
