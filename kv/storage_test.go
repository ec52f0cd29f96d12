package kv

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	getHeaders := func() *Storage {
		return NewPrealloc(4).
			Add("Foo", "bar").
			Add("Hello", "World").
			Add("Lorem", "ipsum").
			Add("hello", "Pavlo")
	}

	t.Run("get", func(t *testing.T) {
		kv := getHeaders()
		value, found := kv.Get("HELLO")
		require.True(t, found)
		require.Equal(t, "World", value)
		require.Equal(t, "ipsum", kv.Value("lorem"))

		_, found = kv.Get("missing")
		require.False(t, found)
		require.Empty(t, kv.Value("missing"))
	})

	t.Run("values", func(t *testing.T) {
		kv := getHeaders()
		require.Equal(t, []string{"World", "Pavlo"}, slices.Collect(kv.Values("hello")))
		require.Empty(t, slices.Collect(kv.Values("missing")))
	})

	t.Run("pairs", func(t *testing.T) {
		var keys []string
		for key := range getHeaders().Pairs() {
			keys = append(keys, key)
		}

		require.Equal(t, []string{"Foo", "Hello", "Lorem", "hello"}, keys)
	})

	t.Run("expose", func(t *testing.T) {
		kv := NewPrealloc(4)
		require.True(t, kv.Empty())
		kv.Add("Foo", "bar")
		require.False(t, kv.Empty())
		require.Equal(t, 1, kv.Len())
		require.Equal(t, []Pair{{Key: "Foo", Value: "bar"}}, kv.Expose())
		require.Equal(t, 4, cap(kv.Expose()))
	})
}
