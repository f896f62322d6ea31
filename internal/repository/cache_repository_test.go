package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "campus-events", nil)
	ctx := context.Background()

	var dest map[string]int
	err := repo.Get(ctx, "proposals:summary", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "proposals:summary", map[string]int{"total": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "proposals:*"))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyPrefix(t *testing.T) {
	assert.Equal(t, "campus-events:proposals:summary", NewCacheRepository(nil, "campus-events", nil).key("proposals:summary"))
	assert.Equal(t, "proposals:summary", NewCacheRepository(nil, "", nil).key("proposals:summary"))
}
