package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goXRPLrwa/internal/store"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{DriverSQLite, DriverPebble, DriverLevelDB} {
		t.Run(driver, func(t *testing.T) {
			s, err := Open(ctx, Config{Driver: driver, Path: DefaultPath(driver, t.TempDir())})
			require.NoError(t, err)
			defer s.Close()

			b, created, err := s.SaveRoleBinding(ctx, store.RoleBinding{Role: store.RoleIssuer, Address: "rIssuer", Seed: "sIssuer"})
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, "rIssuer", b.Address)
		})
	}

	_, err := Open(ctx, Config{Driver: "mongo"})
	assert.ErrorIs(t, err, store.ErrUnknownBackend)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "/data/pebble", DefaultPath("pebble", "/data"))
	assert.Equal(t, "/data/leveldb", DefaultPath("LevelDB", "/data"))
	assert.Equal(t, "/data/rwa.db", DefaultPath("sqlite", "/data"))
}
