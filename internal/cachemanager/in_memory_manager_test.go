package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

type exampleStruct struct {
	ID   int
	Name string
}

func TestInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, exampleStruct]("version-cache", DefaultExpiration, DefaultCleanupInterval)
	example := exampleStruct{
		Name: "persons",
	}
	cache.Set(context.Background(), "item:1", example, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "item:1")
	require.True(t, ok)
	require.Equal(t, example, got)
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("version-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "item", "persons", DefaultExpiration)

	got, ok := cache.Get(context.Background(), "item")
	require.True(t, ok)
	require.Equal(t, "persons", got)
}

func TestInMemoryCacheManager_GetWithNoExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("version-cache", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "item")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithExistingInvalidValueType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("version-cache", DefaultExpiration, DefaultCleanupInterval)

	cache.cache.Set("item", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "item")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("version-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "item", "persons", DefaultExpiration)

	got, ok := cache.GetWithRefresh(context.Background(), "item", time.Minute)
	require.True(t, ok)
	require.Equal(t, "persons", got)

	_, ok = cache.GetWithRefresh(context.Background(), "missing", time.Minute)
	require.False(t, ok)
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("version-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "a", "1", DefaultExpiration)
	cache.Set(context.Background(), "b", "2", DefaultExpiration)

	require.NoError(t, cache.Delete(context.Background(), "a", "missing"))

	_, ok := cache.Get(context.Background(), "a")
	require.False(t, ok)
	_, ok = cache.Get(context.Background(), "b")
	require.True(t, ok)
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("version-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "a", "1", DefaultExpiration)
	cache.Set(context.Background(), "b", "2", DefaultExpiration)

	require.NoError(t, cache.Flush(context.Background()))

	_, ok := cache.Get(context.Background(), "a")
	require.False(t, ok)
	_, ok = cache.Get(context.Background(), "b")
	require.False(t, ok)
}

func TestInMemoryCacheManager_TTLExpiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("version-cache", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "item", "persons", 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	_, ok := cache.Get(context.Background(), "item")
	require.False(t, ok)
}
