package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/registry"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

const previewCachePrefix = "reports:preview:"

// ModelInfo describes one reportable model.
type ModelInfo struct {
	Key     string            `json:"key"`
	Columns []registry.Column `json:"columns"`
}

// BuildResult is a previewed report together with the normalized configuration it ran.
type BuildResult struct {
	Columns       []ResultColumn             `json:"columns"`
	Rows          []map[string]interface{}   `json:"rows"`
	Total         int64                      `json:"total"`
	Configuration models.ReportConfiguration `json:"configuration"`
	Cached        bool                       `json:"-"`
}

type reportRunner interface {
	Execute(ctx context.Context, vc *ValidatedConfig) (*ReportResult, error)
	ExecuteWithLimit(ctx context.Context, vc *ValidatedConfig, limit int) (*ReportResult, error)
}

// ReportBuilderService validates and runs ad-hoc report configurations.
type ReportBuilderService struct {
	validator *ConfigValidator
	executor  reportRunner
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewReportBuilderService constructs the builder. cache may be nil.
func NewReportBuilderService(validator *ConfigValidator, executor reportRunner, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ReportBuilderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportBuilderService{validator: validator, executor: executor, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ListModels returns the sorted model keys.
func (s *ReportBuilderService) ListModels() []string {
	return s.validator.Registry().ModelKeys()
}

// ListColumns returns the columns of one model, or of every model when model is empty.
func (s *ReportBuilderService) ListColumns(model string) ([]ModelInfo, error) {
	reg := s.validator.Registry()
	if model != "" {
		if _, ok := reg.Resolve(model); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown model %q", model))
		}
		return []ModelInfo{{Key: model, Columns: reg.Columns(model)}}, nil
	}
	keys := reg.ModelKeys()
	out := make([]ModelInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, ModelInfo{Key: k, Columns: reg.Columns(k)})
	}
	return out, nil
}

// Build validates and executes cfg, serving repeated previews from cache when enabled.
func (s *ReportBuilderService) Build(ctx context.Context, cfg models.ReportConfiguration) (*BuildResult, error) {
	vc, err := s.validator.Validate(cfg)
	if err != nil {
		return nil, err
	}

	cacheKey := ""
	if s.cache.Enabled() {
		if key, keyErr := previewCacheKey(vc.Normalized); keyErr == nil {
			cacheKey = key
			var cached BuildResult
			if s.cache.Get(ctx, cacheKey, &cached) {
				cached.Cached = true
				return &cached, nil
			}
		}
	}

	result, err := s.executor.Execute(ctx, vc)
	if err != nil {
		return nil, err
	}
	out := &BuildResult{
		Columns:       result.Columns,
		Rows:          result.Rows,
		Total:         result.Total,
		Configuration: vc.Normalized,
	}
	if cacheKey != "" {
		s.cache.Set(ctx, cacheKey, out, s.cacheTTL)
	}
	return out, nil
}

func previewCacheKey(cfg models.ReportConfiguration) (string, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return previewCachePrefix + hex.EncodeToString(sum[:]), nil
}
