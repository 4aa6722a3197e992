package relay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShineBagAddPersistsAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moons.json")
	bag := NewShineBag(path)

	added, err := bag.Add(10)
	require.NoError(t, err)
	require.True(t, added)

	added, err = bag.Add(10)
	require.NoError(t, err)
	require.False(t, added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ids []int32
	require.NoError(t, json.Unmarshal(data, &ids))
	require.ElementsMatch(t, []int32{10}, ids)
}

func TestShineBagLoadMissingFileIsEmpty(t *testing.T) {
	bag := NewShineBag(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, bag.Load())
	require.Empty(t, bag.Snapshot())
}

func TestShineBagLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moons.json")
	bag := NewShineBag(path)
	_, err := bag.Add(1)
	require.NoError(t, err)
	_, err = bag.Add(2)
	require.NoError(t, err)

	reloaded := NewShineBag(path)
	require.NoError(t, reloaded.Load())
	require.ElementsMatch(t, []int32{1, 2}, reloaded.Snapshot())
}

func TestShineBagClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moons.json")
	bag := NewShineBag(path)
	_, err := bag.Add(1)
	require.NoError(t, err)

	require.NoError(t, bag.Clear())
	require.Empty(t, bag.Snapshot())
	require.False(t, bag.Has(1))
}
