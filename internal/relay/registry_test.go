package relay

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBindCreatesOnFirstJoin(t *testing.T) {
	r := NewPlayerRegistry()
	id := uuid.New()

	p, existed := r.Bind(id, "Alice")
	require.False(t, existed)
	require.Equal(t, "Alice", p.Name)
	require.Equal(t, 1, r.Count())
}

// TestBindReconnectPreservesIdentity implements spec.md's S4: a
// reconnect with a different claimed name must NOT rename the
// existing Player record.
func TestBindReconnectPreservesIdentity(t *testing.T) {
	r := NewPlayerRegistry()
	id := uuid.New()

	first, existed := r.Bind(id, "Alice")
	require.False(t, existed)
	first.SetCostume(Costume{Body: "bA", Cap: "cA"})

	second, existed := r.Bind(id, "Bob")
	require.True(t, existed)
	require.Same(t, first, second)
	require.Equal(t, "Alice", second.Name, "reconnect must not rename an existing Player (spec.md S4)")

	costume, ok := second.Costume()
	require.True(t, ok)
	require.Equal(t, Costume{Body: "bA", Cap: "cA"}, costume)
}

func TestGetByNameIsCaseInsensitive(t *testing.T) {
	r := NewPlayerRegistry()
	id := uuid.New()
	r.Bind(id, "Alice")

	p, ok := r.GetByName("ALICE")
	require.True(t, ok)
	require.Equal(t, id, p.ID)

	_, ok = r.GetByName("nobody")
	require.False(t, ok)
}

func TestAllReturnsSnapshot(t *testing.T) {
	r := NewPlayerRegistry()
	r.Bind(uuid.New(), "a")
	r.Bind(uuid.New(), "b")

	all := r.All()
	require.Len(t, all, 2)
}
