package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
	"github.com/poiesic/shigen/storage/badger"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, n int) storage.ResourceRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	if n > 0 {
		resources := make([]*core.Resource, n)
		for i := range resources {
			resources[i] = &core.Resource{
				ServiceName: fmt.Sprintf("Service %03d", i),
				Category:    "livelihood",
				Location:    "Nanyo City",
				Description: fmt.Sprintf("support program number %d", i),
			}
		}
		_, err = repo.AddResources(context.Background(), resources...)
		require.NoError(t, err)
	}
	return repo
}

func allResources(t *testing.T, repo storage.ResourceRepository) []*core.Resource {
	t.Helper()
	var out []*core.Resource
	for r, err := range repo.StreamResources(context.Background()) {
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}
