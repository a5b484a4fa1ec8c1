package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
)

func TestNamespacedKeys(t *testing.T) {
	assert.Equal(t, "bm-aniversariantes:birthdays:*", namespaced("birthdays:*"))
	assert.Equal(t, "bm-aniversariantes:birthdays:x", namespaced("bm-aniversariantes:birthdays:x"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var out string
	assert.ErrorIs(t, repo.Get(ctx, "birthdays:a", &out), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "birthdays:a", "x", time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "birthdays:*"))
	require.NoError(t, repo.Close())
}
