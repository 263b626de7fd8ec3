package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/shigen/ai/mock"
	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
	"github.com/poiesic/shigen/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) storage.ResourceRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func sampleResources() []*core.Resource {
	return []*core.Resource{
		{ServiceName: "Food Bank", Category: "Food", Location: "Nanyo City", Description: "Emergency food"},
		{ServiceName: "Rent Support", Description: "Monthly rent support"},
		{ServiceName: "  "},
		{ServiceName: "food bank", Description: "duplicate in the same input"},
	}
}

func TestNewImporter(t *testing.T) {
	repo := newTestRepository(t)

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewImporter(nil)
		assert.Equal(t, ErrResourceRepositoryRequired, err)
	})

	t.Run("invalid batch size", func(t *testing.T) {
		_, err := NewImporter(repo, WithBatchSize(0))
		assert.Error(t, err)
	})

	t.Run("with options", func(t *testing.T) {
		im, err := NewImporter(repo, WithPoolSize(2), WithBatchSize(10), WithLogger(nil), WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		defer im.Release()
		assert.NotNil(t, im.pool)
	})
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and counts", func(t *testing.T) {
		repo := newTestRepository(t)
		im, err := NewImporter(repo, WithBatchSize(1))
		require.NoError(t, err)
		defer im.Release()

		report, err := im.Import(ctx, sampleResources(), Options{})
		require.NoError(t, err)

		assert.Equal(t, 4, report.Total)
		assert.Equal(t, 2, report.Created)
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, 1, report.SkippedInvalidServiceName)
		assert.Equal(t, 1, report.MissingFieldCounts[core.FieldLocation])

		count, err := repo.CountResources(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		stored, err := repo.GetResource(ctx, core.IDFromServiceName("FOOD BANK"))
		require.NoError(t, err)
		assert.Equal(t, "Emergency food", stored.Description, "first occurrence wins")
	})

	t.Run("re-import is idempotent", func(t *testing.T) {
		repo := newTestRepository(t)
		im, err := NewImporter(repo)
		require.NoError(t, err)

		_, err = im.Import(ctx, sampleResources(), Options{})
		require.NoError(t, err)
		report, err := im.Import(ctx, sampleResources(), Options{})
		require.NoError(t, err)

		assert.Equal(t, 0, report.Created)
		assert.Equal(t, 3, report.Skipped)
		count, err := repo.CountResources(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("overwrite updates in place", func(t *testing.T) {
		repo := newTestRepository(t)
		im, err := NewImporter(repo)
		require.NoError(t, err)

		_, err = im.Import(ctx, sampleResources(), Options{})
		require.NoError(t, err)

		changed := []*core.Resource{{ServiceName: "Rent Support", Description: "Rent support for 2026"}}
		report, err := im.Import(ctx, changed, Options{Overwrite: true})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Updated)

		stored, err := repo.GetResource(ctx, core.IDFromServiceName("Rent Support"))
		require.NoError(t, err)
		assert.Equal(t, "Rent support for 2026", stored.Description)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		repo := newTestRepository(t)
		im, err := NewImporter(repo)
		require.NoError(t, err)

		report, err := im.Import(ctx, sampleResources(), Options{DryRun: true})
		require.NoError(t, err)
		assert.True(t, report.DryRun)
		assert.Equal(t, 2, report.Created)

		count, err := repo.CountResources(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("canceled context", func(t *testing.T) {
		repo := newTestRepository(t)
		im, err := NewImporter(repo)
		require.NoError(t, err)

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = im.Import(canceled, sampleResources(), Options{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestImportRecords(t *testing.T) {
	repo := newTestRepository(t)
	im, err := NewImporter(repo)
	require.NoError(t, err)

	report, err := im.ImportRecords(context.Background(), []map[string]any{
		{"service_name": "Food Bank", "keywords": "food, emergency"},
		{"description": "no name"},
		{"service_name": 42},
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.SkippedInvalidServiceName)
}

func TestImport_WithEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("vectors are stored", func(t *testing.T) {
		repo := newTestRepository(t)
		embedder := mock.NewMockEmbedder()
		im, err := NewImporter(repo, WithEmbedder(embedder), WithBatchSize(1), WithPoolSize(2))
		require.NoError(t, err)
		defer im.Release()

		report, err := im.Import(ctx, sampleResources(), Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Embedded)
		assert.Equal(t, 0, report.EmbedFailures)

		stored, err := repo.GetResource(ctx, core.IDFromServiceName("Food Bank"))
		require.NoError(t, err)
		assert.Equal(t, mock.Vector(core.ResourceCorpus(stored)), stored.Vector)
	})

	t.Run("embedding failures are counted", func(t *testing.T) {
		repo := newTestRepository(t)
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, errors.New("backend down")
		}
		im, err := NewImporter(repo, WithEmbedder(embedder))
		require.NoError(t, err)
		defer im.Release()

		report, err := im.Import(ctx, sampleResources(), Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Created)
		assert.Equal(t, 0, report.Embedded)
		assert.Equal(t, 2, report.EmbedFailures)
	})
}
