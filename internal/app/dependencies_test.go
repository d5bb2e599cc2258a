package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/config"
	"github.com/noah-isme/catalogo-mayorista/internal/media"
)

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/catalogo?sslmode=disable", MigrateURL("postgres://u:p@db:5432/catalogo?sslmode=disable"))
	require.Equal(t, "pgx5://db/catalogo", MigrateURL("postgresql://db/catalogo"))
	require.Equal(t, "pgx5://db/catalogo", MigrateURL("pgx5://db/catalogo"))
}

func TestNewWithoutDatabase(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		RedisURL:             "redis://" + mr.Addr() + "/0",
		CatalogSource:        config.SourceSheets,
		StorageDriver:        config.StorageMemory,
		StorageBucket:        "images",
		StoragePublicBaseURL: "https://storage.test",
		QueueName:            "catalogo",
		QueueMaxRetry:        4,
	}
	d, err := New(context.Background(), cfg, "catalogo-test", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(d.Close)

	require.Nil(t, d.DB)
	require.Nil(t, d.Sheets)
	require.NotNil(t, d.Validator)
	require.NotNil(t, d.LimiterStore)
	require.IsType(t, &media.MemoryStore{}, d.Objects)
	require.Equal(t, "https://storage.test/images/a.jpg", d.Objects.PublicURL("a.jpg"))

	require.Equal(t, catalog.StaticSource{}, d.CatalogSource())
	svc, err := d.CatalogService()
	require.NoError(t, err)
	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Products)

	jobs := d.Jobs()
	require.Equal(t, "catalogo", jobs.Queue)
	require.Equal(t, 4, jobs.MaxRetry)

	probes := d.Probes()
	require.Len(t, probes, 1)
	require.NoError(t, probes["redis"](context.Background()))
}

func TestOpenRedisFailsOnBadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not-a-url", nil, zerolog.Nop())
	require.ErrorContains(t, err, "parse redis url")
}
