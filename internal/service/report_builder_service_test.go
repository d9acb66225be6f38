package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

// memoryCache stores JSON payloads like the Redis repository does.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	data, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = data
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

type countingRunner struct {
	calls  int
	result *ReportResult
	err    error
}

func (c *countingRunner) Execute(_ context.Context, vc *ValidatedConfig) (*ReportResult, error) {
	return c.ExecuteWithLimit(context.Background(), vc, vc.Limit)
}

func (c *countingRunner) ExecuteWithLimit(context.Context, *ValidatedConfig, int) (*ReportResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func studentPreviewResult() *ReportResult {
	return &ReportResult{
		Columns: []ResultColumn{{Key: "first_name", Label: "First Name"}},
		Rows:    []map[string]interface{}{{"first_name": "John"}},
		Total:   1,
	}
}

func TestBuilderServesRepeatedPreviewFromCache(t *testing.T) {
	store := newMemoryCache()
	metrics := NewMetricsService()
	cache := NewCacheService(store, metrics, time.Minute, nil, true)
	runner := &countingRunner{result: studentPreviewResult()}
	builder := NewReportBuilderService(newTestValidator(), runner, cache, time.Minute, nil)

	cfg := models.ReportConfiguration{BaseModel: "students", Columns: []models.ColumnSelection{{Field: "first_name"}}}
	first, err := builder.Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.NotNil(t, first.Configuration.Limit)
	assert.Equal(t, DefaultReportLimit, *first.Configuration.Limit)

	second, err := builder.Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Columns, second.Columns)

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.CacheHits)
	assert.EqualValues(t, 1, snap.CacheMisses)

	cache.Invalidate(context.Background(), previewCachePrefix+"*")
	third, err := builder.Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, runner.calls)
}

func TestBuilderIgnoresCacheFailures(t *testing.T) {
	store := newMemoryCache()
	store.err = errors.New("redis: connection refused")
	runner := &countingRunner{result: studentPreviewResult()}
	builder := NewReportBuilderService(newTestValidator(), runner, NewCacheService(store, nil, 0, nil, true), 0, nil)

	for i := 0; i < 2; i++ {
		out, err := builder.Build(context.Background(), models.ReportConfiguration{BaseModel: "students"})
		require.NoError(t, err)
		assert.False(t, out.Cached)
	}
	assert.Equal(t, 2, runner.calls)
}

func TestBuilderWithoutCache(t *testing.T) {
	runner := &countingRunner{result: studentPreviewResult()}
	builder := NewReportBuilderService(newTestValidator(), runner, nil, 0, nil)

	_, err := builder.Build(context.Background(), models.ReportConfiguration{BaseModel: "students"})
	require.NoError(t, err)
	_, err = builder.Build(context.Background(), models.ReportConfiguration{BaseModel: "students"})
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestBuilderPropagatesErrors(t *testing.T) {
	runner := &countingRunner{err: appErrors.Wrap(repository.ErrUnavailable, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, appErrors.ErrStorage.Message)}
	builder := NewReportBuilderService(newTestValidator(), runner, nil, 0, nil)

	_, err := builder.Build(context.Background(), models.ReportConfiguration{BaseModel: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrConfiguration))
	assert.Zero(t, runner.calls)

	_, err = builder.Build(context.Background(), models.ReportConfiguration{BaseModel: "students"})
	assert.True(t, errors.Is(err, appErrors.ErrStorage))
}

func TestBuilderListsModelsAndColumns(t *testing.T) {
	builder := NewReportBuilderService(newTestValidator(), &countingRunner{}, nil, 0, nil)

	keys := builder.ListModels()
	assert.Contains(t, keys, "students")
	assert.IsIncreasing(t, keys)

	info, err := builder.ListColumns("programs")
	require.NoError(t, err)
	require.Len(t, info, 1)
	assert.Equal(t, "programs", info[0].Key)
	assert.Equal(t, "code", info[0].Columns[2].Name)

	all, err := builder.ListColumns("")
	require.NoError(t, err)
	assert.Len(t, all, len(keys))

	_, err = builder.ListColumns("users")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
