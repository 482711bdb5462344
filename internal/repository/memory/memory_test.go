package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	val, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set(ctx, "k", []byte(`{"a":1}`), 0))

	val, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), val)

	require.NoError(t, store.Delete(ctx, "k"))
	val, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	assert.Equal(t, 1, store.Len())

	time.Sleep(20 * time.Millisecond)

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.Equal(t, 0, store.Len())
}

func TestValueIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	src := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", src, 0))
	src[0] = 'x'

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), val)

	val[0] = 'y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
