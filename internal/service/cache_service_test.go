package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
)

type memoryCacheRepo struct {
	values map[string]string
	getErr error
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = v
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *memoryCacheRepo) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	n := 0
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
			n++
		}
	}
	return n, nil
}

func counterValue(t *testing.T, metrics *MetricsService, name string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestCacheServiceHitMissAndMetrics(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]string{}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, "users:list:0:10::q=", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "users:list:0:10::q=", "page", 0))
	hit, err = svc.Get(ctx, "users:list:0:10::q=", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "page", out)

	assert.Equal(t, float64(1), counterValue(t, metrics, "cache_hits_total"))
	assert.Equal(t, float64(1), counterValue(t, metrics, "cache_misses_total"))
}

func TestCacheServiceInvalidatePrefixLeavesOtherKeys(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]string{
		"users:list:0:10::q=": "a",
		"users:list:1:10::q=": "b",
		"users:detail:1":      "c",
		"session:abc":         "d",
	}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)

	require.NoError(t, svc.InvalidatePrefix(context.Background(), "users:list:"))
	assert.Len(t, repo.values, 2)
	assert.Contains(t, repo.values, "users:detail:1")
	assert.Equal(t, float64(2), counterValue(t, metrics, "cache_invalidated_keys_total"))
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]string{"k": "v"}}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Delete(context.Background(), "k"))
	assert.Contains(t, repo.values, "k")

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServicePropagatesBackendErrors(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]string{}, getErr: errors.New("connection reset")}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}
