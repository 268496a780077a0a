// Package blobtest holds the behavioural contract every blob backend must
// satisfy. Backend packages run it from their own tests.
package blobtest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"stepgen/internal/blob/core"
)

// RunContract exercises put/get/head/list/delete against a fresh store.
func RunContract(t *testing.T, newStore func(t *testing.T) core.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		body := `{"runId":"r1","commands":[]}`
		info, err := s.Put(ctx, "timelines/r1.json", strings.NewReader(body), core.PutOptions{
			ContentType: "application/json",
			Metadata:    map[string]string{"schema": "stepgen/1"},
		})
		require.NoError(t, err)
		require.Equal(t, "timelines/r1.json", info.Key)
		require.Equal(t, int64(len(body)), info.Size)
		require.NotEmpty(t, info.ETag)

		got, rc, err := s.Get(ctx, "timelines/r1.json")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.Equal(t, body, string(data))
		require.Equal(t, "application/json", got.ContentType)
		require.Equal(t, "stepgen/1", got.Metadata["schema"])
	})

	t.Run("put is create only", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, "a.json", strings.NewReader("1"), core.PutOptions{})
		require.NoError(t, err)
		_, err = s.Put(ctx, "a.json", strings.NewReader("2"), core.PutOptions{})
		require.True(t, errors.Is(err, core.ErrExists), "got %v", err)

		_, rc, err := s.Get(ctx, "a.json")
		require.NoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		require.Equal(t, "1", string(data))
	})

	t.Run("missing keys", func(t *testing.T) {
		s := newStore(t)
		_, _, err := s.Get(ctx, "nope.json")
		require.True(t, errors.Is(err, core.ErrNotFound), "get: %v", err)
		_, err = s.Head(ctx, "nope.json")
		require.True(t, errors.Is(err, core.ErrNotFound), "head: %v", err)
		deleted, err := s.Delete(ctx, "nope.json")
		require.NoError(t, err)
		require.False(t, deleted)
	})

	t.Run("list filters by prefix and sorts", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"timelines/b.json", "other/x.json", "timelines/a.json"} {
			_, err := s.Put(ctx, k, strings.NewReader(k), core.PutOptions{})
			require.NoError(t, err)
		}
		infos, err := s.List(ctx, "timelines/")
		require.NoError(t, err)
		keys := make([]string, 0, len(infos))
		for _, inf := range infos {
			keys = append(keys, inf.Key)
		}
		require.Equal(t, []string{"timelines/a.json", "timelines/b.json"}, keys)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
	})

	t.Run("delete removes blob", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, "gone.json", strings.NewReader("x"), core.PutOptions{})
		require.NoError(t, err)
		deleted, err := s.Delete(ctx, "gone.json")
		require.NoError(t, err)
		require.True(t, deleted)
		_, err = s.Head(ctx, "gone.json")
		require.True(t, errors.Is(err, core.ErrNotFound))
		// key is reusable once deleted
		_, err = s.Put(ctx, "gone.json", strings.NewReader("y"), core.PutOptions{})
		require.NoError(t, err)
	})

	t.Run("metadata is not aliased", func(t *testing.T) {
		s := newStore(t)
		md := map[string]string{"run": "r1"}
		_, err := s.Put(ctx, "m.json", strings.NewReader("{}"), core.PutOptions{Metadata: md})
		require.NoError(t, err)
		md["run"] = "mutated"
		info, err := s.Head(ctx, "m.json")
		require.NoError(t, err)
		require.Equal(t, "r1", info.Metadata["run"])
	})
}
