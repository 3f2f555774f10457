package blob

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/flock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) Store {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, "speakeasy:")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"file":  newFileStore,
		"redis": newRedisStore,
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			_, err := s.Get(ctx, "board")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "board", []byte(`[{"key":"eat"}]`)))
			got, err := s.Get(ctx, "board")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"key":"eat"}]`, string(got))

			require.NoError(t, s.Put(ctx, "board", []byte(`[]`)))
			got, err = s.Get(ctx, "board")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(got))

			require.NoError(t, s.Delete(ctx, "board"))
			_, err = s.Get(ctx, "board")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, s.Delete(ctx, "board"))
		})
	}
}

func TestFileStoreConcurrentAccessReleasesLock(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Put(ctx, "board", []byte(`[]`)))

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Get(ctx, "board")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			errs <- s.Put(ctx, "board", []byte(`[{"key":"eat"}]`))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Another process can take the lock once every call has returned.
	other := flock.New(filepath.Join(dir, ".lock"))
	locked, err := other.TryLock()
	require.NoError(t, err)
	assert.True(t, locked)
	require.NoError(t, other.Unlock())

	got, err := s.Get(ctx, "board")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"key":"eat"}]`, string(got))
}
