package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermarkStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_check.json")
	store := NewWatermarkStore(path)

	require.NoError(t, store.Save(1714500000.25))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1714500000.25, *got)
}

func TestWatermarkStoreAbsentFile(t *testing.T) {
	store := NewWatermarkStore(filepath.Join(t.TempDir(), "missing.json"))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWatermarkStoreOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_check.json")
	store := NewWatermarkStore(path)

	require.NoError(t, store.Save(100))
	require.NoError(t, store.Save(200))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, float64(200), *got)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_check_time": 200}`, string(content))
}

func TestWatermarkStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_check.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewWatermarkStore(path).Load()
	require.Error(t, err)
}
