package untyped

import (
	"context"
	"testing"

	"github.com/ValentinKolb/dObs/lib/collection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUntyped(t *testing.T, items ...int) (*List, *collection.List[int]) {
	l := collection.From(items)
	t.Cleanup(l.Close)
	return Wrap[int](l), l
}

func TestWritesOfMatchingType(t *testing.T) {
	ctx := context.Background()
	u, l := newUntyped(t, 1, 2)

	i, err := u.Add(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	require.NoError(t, u.Insert(ctx, 0, 0))
	ok, err := u.Set(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, u.Remove(ctx, 2))

	assert.Equal(t, []int{0, 10, 3}, l.Snapshot())
	assert.Equal(t, 3, u.Len())
	assert.Equal(t, "int", u.ElemType())
}

func TestWrongTypeIsRejected(t *testing.T) {
	ctx := context.Background()
	u, l := newUntyped(t, 1)

	_, err := u.Add(ctx, "one")
	assert.ErrorIs(t, err, collection.ErrTypeMismatch)
	assert.ErrorIs(t, u.Insert(ctx, 0, 1.5), collection.ErrTypeMismatch)
	_, err = u.Set(ctx, 0, nil)
	assert.ErrorIs(t, err, collection.ErrTypeMismatch)
	assert.ErrorIs(t, u.Remove(ctx, int64(1)), collection.ErrTypeMismatch)

	assert.Equal(t, []int{1}, l.Snapshot(), "rejected writes change nothing")
}

func TestWrongTypeIsNeverFound(t *testing.T) {
	u, _ := newUntyped(t, 1, 2)

	assert.True(t, u.Contains(2))
	assert.Equal(t, 1, u.IndexOf(2))
	assert.False(t, u.Contains("2"))
	assert.Equal(t, -1, u.IndexOf(int32(2)))
}

func TestRemoveAbsent(t *testing.T) {
	u, _ := newUntyped(t, 1)
	assert.ErrorIs(t, u.Remove(context.Background(), 5), collection.ErrNotFound)
}

func TestReadsAndCopy(t *testing.T) {
	u, _ := newUntyped(t, 4, 5)

	v, ok := u.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 5, v)
	_, ok = u.Get(2)
	assert.False(t, ok)

	dst := make([]any, 3)
	assert.Equal(t, 2, u.CopyTo(dst, 1))
	assert.Equal(t, []any{nil, 4, 5}, dst)
	assert.Equal(t, 0, u.CopyTo(dst, 4))
}
