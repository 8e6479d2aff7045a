package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regportal/internal/config"
	"regportal/internal/registration"
)

func TestOpenRegistrations_File(t *testing.T) {
	cfg := &config.App{StoreBackend: config.BackendFile, DataFile: filepath.Join(t.TempDir(), "data", "regs.csv")}
	repo, err := OpenRegistrations(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	_, ok := repo.(*registration.FileRepository)
	assert.True(t, ok)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestOpenRegistrations_SQLite(t *testing.T) {
	cfg := &config.App{StoreBackend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "db", "regs.db")}
	repo, err := OpenRegistrations(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := registration.NewService(repo)
	_, err = svc.Register(context.Background(), registration.Submission{Name: "Asha", Mobile: "1", Course: "Go"})
	require.NoError(t, err)

	recs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Asha", recs[0].Name)
}

func TestOpenRegistrations_Unknown(t *testing.T) {
	_, err := OpenRegistrations(context.Background(), &config.App{StoreBackend: "tape"})
	require.Error(t, err)
}

func TestRedisHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr())
	t.Cleanup(func() { _ = r.Close() })

	assert.True(t, r.Healthy(context.Background()))
	mr.Close()
	assert.False(t, r.Healthy(context.Background()))

	var nilRedis *Redis
	assert.False(t, nilRedis.Healthy(context.Background()))
	assert.NoError(t, nilRedis.Close())
}
