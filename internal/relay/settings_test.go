package relay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSettingsStoreLoadMissingWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	store := NewSettingsStore(path)
	require.NoError(t, store.Load())
	require.Equal(t, 8, store.MaxPlayers())
	require.FileExists(t, path)
}

func TestSettingsStoreLoadUnparseableFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	store := NewSettingsStore(path)
	require.NoError(t, store.Load())
	require.Equal(t, 8, store.MaxPlayers())
}

func TestSettingsStoreMutatePersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	store := NewSettingsStore(path)
	require.NoError(t, store.Load())

	require.NoError(t, store.Mutate(func(s *Settings) {
		s.Server.MaxPlayers = 16
	}))

	reloaded := NewSettingsStore(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, 16, reloaded.MaxPlayers())
}

func TestFlipPredicates(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	dir := t.TempDir()
	store := NewSettingsStore(filepath.Join(dir, "settings.json"))
	require.NoError(t, store.Load())

	require.NoError(t, store.Mutate(func(s *Settings) {
		s.Flip = flipSettings{Enabled: true, Pov: PovOthers, Players: []uuid.UUID{u1}}
	}))

	require.True(t, store.FlipIn(u1))
	require.False(t, store.FlipIn(u2))
	require.False(t, store.FlipNotIn(u1))
	require.False(t, store.FlipNotIn(u2)) // pov=Others excludes FlipNotIn entirely

	require.NoError(t, store.Mutate(func(s *Settings) {
		s.Flip.Pov = PovBoth
	}))
	require.True(t, store.FlipNotIn(u2))
	require.False(t, store.FlipNotIn(u1))
}

// TestFlipPovSelfOnlyWireLiteral pins the on-wire JSON literal for
// PovSelfOnly to "Self_" rather than the "SelfOnly" shorthand, so a
// settings.json this relay writes stays readable by any other server
// speaking the same wire format.
func TestFlipPovSelfOnlyWireLiteral(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	store := NewSettingsStore(path)
	require.NoError(t, store.Load())
	require.NoError(t, store.Mutate(func(s *Settings) {
		s.Flip.Pov = PovSelfOnly
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	var flip map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["flip"], &flip))
	require.JSONEq(t, `"Self_"`, string(flip["pov"]))
}

func TestSpecialCostumePredicates(t *testing.T) {
	allowed := uuid.New()
	other := uuid.New()
	dir := t.TempDir()
	store := NewSettingsStore(filepath.Join(dir, "settings.json"))
	require.NoError(t, store.Load())

	require.NoError(t, store.Mutate(func(s *Settings) {
		s.SpecialCostumes = specialCostumesSettings{
			Costumes:       []string{"Peach"},
			AllowedPlayers: []uuid.UUID{allowed},
		}
	}))

	require.True(t, store.IsSpecialCostume("Peach"))
	require.False(t, store.IsSpecialCostume("Mario"))
	require.True(t, store.SpecialCostumeAllowed(allowed))
	require.False(t, store.SpecialCostumeAllowed(other))
}
