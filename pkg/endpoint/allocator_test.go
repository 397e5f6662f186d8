package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Monotonic(t *testing.T) {
	a := New(9100, 9103)

	first, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 9100, first)

	second, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 9101, second)

	assert.Equal(t, 2, a.Count())
}

func TestAcquire_Exhausted(t *testing.T) {
	a := New(9100, 9101)

	_, err := a.Acquire()
	require.NoError(t, err)

	_, err = a.Acquire()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestAcquireN(t *testing.T) {
	a := New(9100, 9110)

	ids, err := a.AcquireN(3)
	require.NoError(t, err)
	assert.Equal(t, []int{9100, 9101, 9102}, ids)
	assert.Equal(t, 3, a.Count())
}

func TestAcquireN_InsufficientRoom(t *testing.T) {
	a := New(9100, 9102)

	ids, err := a.AcquireN(5)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Nil(t, ids)
	assert.Zero(t, a.Count())
}

func TestNewDefault(t *testing.T) {
	a := NewDefault()
	id, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, DefaultLow, id)
}
