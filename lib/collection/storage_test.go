package collection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceStorageInsertBounds(t *testing.T) {
	s := NewSliceStorage(1, 2, 3)

	require.NoError(t, s.Insert(3, 4))
	require.NoError(t, s.Insert(0, 0))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, s.Clone())

	err := s.Insert(6, 9)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, s.Insert(-1, 9), ErrIndexOutOfRange)
	assert.Equal(t, 5, s.Len(), "a failed insert leaves the storage untouched")

	var collErr *Error
	require.True(t, errors.As(err, &collErr))
	assert.Equal(t, RetCIndexOutOfRange, collErr.Code)
	assert.Contains(t, collErr.Error(), "IndexOutOfRange")
}

func TestSliceStorageOwnsItsItems(t *testing.T) {
	items := []int{1, 2, 3}
	s := NewSliceStorage(items...)
	items[0] = 99
	assert.Equal(t, 1, s.Get(0))

	clone := s.Clone()
	clone[1] = 99
	assert.Equal(t, 2, s.Get(1))

	s.Reset(items)
	items[1] = 42
	assert.Equal(t, []int{99, 2, 3}, s.Clone())
}

func TestSliceStorageCopyTo(t *testing.T) {
	s := NewSliceStorage("a", "b", "c")

	dst := make([]string, 4)
	assert.Equal(t, 3, s.CopyTo(dst, 1))
	assert.Equal(t, []string{"", "a", "b", "c"}, dst)

	short := make([]string, 2)
	assert.Equal(t, 1, s.CopyTo(short, 1))
	assert.Equal(t, 0, s.CopyTo(short, 3))
	assert.Equal(t, 0, s.CopyTo(short, -1))
}

func TestSliceStorageRemoveAndSearch(t *testing.T) {
	s := NewSliceStorage(5, 6, 7, 6)

	assert.Equal(t, 1, s.IndexOf(6))
	assert.Equal(t, -1, s.IndexOf(8))
	assert.Equal(t, 2, s.IndexFunc(func(v int) bool { return v > 6 }))

	assert.Equal(t, 6, s.RemoveAt(1))
	assert.Equal(t, []int{5, 7, 6}, s.Clone())

	s.Sort(func(a, b int) int { return a - b })
	assert.Equal(t, []int{5, 6, 7}, s.Clone())
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := NewError(RetCNotFound, "item 7")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, "Unknown", RetCode(99).String())
}
