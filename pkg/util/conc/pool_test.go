package conc

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

func TestPool(t *testing.T) {
	pool, err := NewPool[int](2)
	require.NoError(t, err)
	defer pool.Release()

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.Equal(t, i*i, f.Value())
		assert.True(t, f.OK())
	}
	assert.Equal(t, 2, pool.Cap())
	assert.EqualValues(t, 10, pool.Submitted())
}

func TestPoolError(t *testing.T) {
	pool, err := NewPool[string](1)
	require.NoError(t, err)
	defer pool.Release()

	boom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "fine", nil })
	bad := pool.Submit(func() (string, error) { return "", boom })

	err = AwaitAll(ok, bad)
	assert.ErrorIs(t, err, boom)
	v, err := ok.Await()
	assert.NoError(t, err)
	assert.Equal(t, "fine", v)
}

func TestPoolConcealPanic(t *testing.T) {
	pool, err := NewPool[int](1, WithConcealPanic(true))
	require.NoError(t, err)
	defer pool.Release()

	f := pool.Submit(func() (int, error) { panic("bad task") })
	assert.Error(t, f.Err())
	assert.Contains(t, f.Err().Error(), "bad task")
}

func TestPoolNonBlocking(t *testing.T) {
	pool, err := NewPool[int](1, WithNonBlocking(true), WithExpiryDuration(time.Second))
	require.NoError(t, err)
	defer pool.Release()

	release := make(chan struct{})
	busy := pool.Submit(func() (int, error) {
		<-release
		return 1, nil
	})
	rejected := pool.Submit(func() (int, error) { return 2, nil })
	assert.ErrorIs(t, rejected.Err(), merr.ErrPoolExhausted)

	close(release)
	v, err := busy.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
