package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type cacheRepoStub struct {
	getErr    error
	setErr    error
	deleteErr error
	sets      []string
	patterns  []string
	ttl       time.Duration
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	return s.getErr
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets = append(s.sets, key)
	s.ttl = ttl
	return s.setErr
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return s.deleteErr
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &cacheRepoStub{}
	svc := NewCacheService(repo, nil, 0, nil, false)

	hit, err := svc.Get(context.Background(), ProposalSummaryCacheKey, &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), ProposalSummaryCacheKey, 1, 0))
	require.NoError(t, svc.Invalidate(context.Background(), ProposalCachePattern))
	assert.Empty(t, repo.sets)
	assert.Empty(t, repo.patterns)
}

func TestCacheServiceHitMiss(t *testing.T) {
	repo := &cacheRepoStub{}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)

	hit, err := svc.Get(context.Background(), ProposalSummaryCacheKey, &struct{}{})
	require.NoError(t, err)
	assert.True(t, hit)

	repo.getErr = appErrors.ErrCacheMiss
	hit, err = svc.Get(context.Background(), ProposalSummaryCacheKey, &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)

	repo.getErr = errors.New("connection refused")
	hit, err = svc.Get(context.Background(), ProposalSummaryCacheKey, &struct{}{})
	assert.Error(t, err)
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
}

func TestCacheServiceDefaultTTLAndInvalidate(t *testing.T) {
	repo := &cacheRepoStub{}
	svc := NewCacheService(repo, nil, 0, nil, true)

	require.NoError(t, svc.Set(context.Background(), ProposalSummaryCacheKey, 1, 0))
	assert.Equal(t, 5*time.Minute, repo.ttl)

	require.NoError(t, svc.Invalidate(context.Background(), ProposalCachePattern))
	assert.Equal(t, []string{ProposalCachePattern}, repo.patterns)

	repo.deleteErr = errors.New("boom")
	assert.Error(t, svc.Invalidate(context.Background(), ProposalCachePattern))
}
