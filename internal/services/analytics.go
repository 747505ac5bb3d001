package services

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"retail-dashboard/internal/analytics"
	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
)

const cacheVersion = "v2"

// ErrNoData is returned by every analysis before a dataset is loaded.
var ErrNoData = errors.New("no dataset loaded")

type Options struct {
	CacheDir        string
	CacheTTL        time.Duration
	CacheMaxEntries int
	Logger          *slog.Logger
}

// snapshot is the gob-encoded form of both cleaned views of a source file.
type snapshot struct {
	Source            string
	General           []models.Transaction
	Allocation        []models.Transaction
	AllocationMissing []string
	ParsedAt          time.Time
}

// Analytics owns the current dataset and memoizes every analysis by
// operation, dataset version and parameters.
type Analytics struct {
	mu                sync.RWMutex
	general           *dataset.Dataset
	allocation        *dataset.Dataset
	allocationMissing []string
	version           uint64
	source            string
	loadedAt          time.Time

	cacheDir string
	results  *resultCache
	logger   *slog.Logger
}

func NewAnalytics(opts Options) *Analytics {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.CacheMaxEntries <= 0 {
		opts.CacheMaxEntries = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Analytics{
		cacheDir: opts.CacheDir,
		results:  newResultCache(opts.CacheTTL, opts.CacheMaxEntries),
		logger:   opts.Logger,
	}
}

// SetData replaces the dataset with already cleaned rows. The allocation
// view keeps the rows with positive quantity and price and a customer id.
func (a *Analytics) SetData(rows []models.Transaction) {
	general := dataset.New(rows)
	allocation := general.Where(func(t models.Transaction) bool {
		return t.Quantity > 0 && t.UnitPrice > 0 && t.CustomerID != ""
	})
	a.install(general, allocation, nil, "memory")
}

func (a *Analytics) install(general, allocation *dataset.Dataset, missing []string, source string) {
	a.mu.Lock()
	a.general = general
	a.allocation = allocation
	a.allocationMissing = missing
	a.source = source
	a.loadedAt = time.Now()
	a.version++
	a.mu.Unlock()

	a.results.reset()
}

// LoadFromFile reads and cleans a .csv or .xlsx file. A gob snapshot in the
// cache directory is reused while it is newer than the source.
func (a *Analytics) LoadFromFile(ctx context.Context, path string) error {
	ctx, span := observability.StartSpan(ctx, "analytics.load")
	defer span.Finish()
	span.SetTag("source", path)

	if snap, err := a.loadFromCache(path); err == nil {
		info, err := os.Stat(path)
		if err == nil && info.ModTime().Before(snap.ParsedAt) {
			a.install(dataset.New(snap.General), dataset.New(snap.Allocation), snap.AllocationMissing, path)
			a.logger.Info("loaded from cache", "source", path, "records", len(snap.General))
			span.SetTag("cache", "hit")
			return nil
		}
	}

	start := time.Now()
	a.logger.Info("processing data file", "source", path)

	table, err := dataset.ReadFile(path)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("read %s: %w", path, err)
	}

	general, err := dataset.Clean(ctx, table, dataset.CleanOptions{})
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("clean %s: %w", path, err)
	}
	if general.Len() == 0 {
		err := fmt.Errorf("no valid records found in %s", path)
		span.SetError(err)
		return err
	}

	var missing []string
	allocation, err := dataset.Clean(ctx, table, dataset.CleanOptions{Allocation: true})
	if err != nil {
		var schemaErr *dataset.SchemaError
		if !errors.As(err, &schemaErr) {
			span.SetError(err)
			return fmt.Errorf("clean %s for allocation: %w", path, err)
		}
		missing = schemaErr.Missing
		allocation = dataset.New(nil)
		a.logger.Warn("allocation analyses unavailable", "source", path, "missing", missing)
	}

	snap := &snapshot{
		Source:            path,
		General:           general.Rows(),
		Allocation:        allocation.Rows(),
		AllocationMissing: missing,
		ParsedAt:          time.Now(),
	}
	a.install(general, allocation, missing, path)

	if err := a.saveToCache(snap); err != nil {
		a.logger.Warn("failed to save cache", "error", err)
	}

	duration := time.Since(start)
	a.logger.Info("data file processing complete",
		"records", general.Len(),
		"allocation_records", allocation.Len(),
		"dropped", len(table.Records)-general.Len(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(table.Records))/duration.Seconds()))

	return nil
}

func (a *Analytics) cacheFilename(path string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(path)
	return filepath.Join(a.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (a *Analytics) saveToCache(snap *snapshot) error {
	if a.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.cacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(a.cacheFilename(snap.Source))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snap)
}

func (a *Analytics) loadFromCache(path string) (*snapshot, error) {
	if a.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(a.cacheFilename(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

type view struct {
	general    *dataset.Dataset
	allocation *dataset.Dataset
	missing    []string
	version    uint64
}

func (a *Analytics) current() (view, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.general == nil {
		return view{}, ErrNoData
	}
	return view{a.general, a.allocation, a.allocationMissing, a.version}, nil
}

// memo runs fn once per (op, dataset version, params) until the entry
// expires or the dataset changes.
func memo[T any](ctx context.Context, a *Analytics, op string, params any, fn func(view) (T, error)) (T, error) {
	var zero T

	ctx, span := observability.StartSpan(ctx, "analytics."+op)
	defer span.Finish()

	v, err := a.current()
	if err != nil {
		span.SetError(err)
		return zero, err
	}

	encoded, err := json.Marshal(params)
	if err != nil {
		span.SetError(err)
		return zero, fmt.Errorf("encode %s params: %w", op, err)
	}
	key := fmt.Sprintf("%s|%d|%s", op, v.version, encoded)

	start := time.Now()
	result, hit, err := a.results.do(key, func() (any, error) {
		return fn(v)
	})
	span.SetTag("cache", map[bool]string{true: "hit", false: "miss"}[hit])
	if err != nil {
		span.SetError(err)
		return zero, err
	}

	observability.LoggerFrom(ctx, a.logger).Debug("analysis complete",
		"operation", op,
		"cache_hit", hit,
		"duration", time.Since(start))
	return result.(T), nil
}

func (a *Analytics) Countries(ctx context.Context) ([]models.CountryStats, error) {
	return memo(ctx, a, "countries", nil, func(v view) ([]models.CountryStats, error) {
		return analytics.CountryOptions(v.general), nil
	})
}

// AllocationCountries lists the countries usable for budget allocation.
func (a *Analytics) AllocationCountries(ctx context.Context) ([]models.CountryStats, error) {
	return memo(ctx, a, "allocation_countries", nil, func(v view) ([]models.CountryStats, error) {
		if err := v.allocationReady(); err != nil {
			return nil, err
		}
		return analytics.CountryOptions(v.allocation), nil
	})
}

func (a *Analytics) Products(ctx context.Context) ([]string, error) {
	return memo(ctx, a, "products", nil, func(v view) ([]string, error) {
		return v.general.Products(), nil
	})
}

func (a *Analytics) Descriptions(ctx context.Context) ([]string, error) {
	return memo(ctx, a, "descriptions", nil, func(v view) ([]string, error) {
		return v.general.Descriptions(), nil
	})
}

// Years lists the years with sales of productCode, or of the whole dataset
// when productCode is empty.
func (a *Analytics) Years(ctx context.Context, productCode string) ([]int, error) {
	return memo(ctx, a, "years", productCode, func(v view) ([]int, error) {
		if productCode == "" {
			return v.general.Years(), nil
		}
		return analytics.ProductYears(v.general, productCode), nil
	})
}

func (v view) allocationReady() error {
	if len(v.missing) > 0 {
		return &dataset.SchemaError{Missing: v.missing}
	}
	return nil
}

// AllocationRequest picks countries explicitly, or by Selection criteria
// when Countries is empty.
type AllocationRequest struct {
	Countries   []string                    `json:"countries"`
	Selection   analytics.SelectionCriteria `json:"selection,omitempty"`
	SelectCount int                         `json:"select_count,omitempty"`
	Months      int                         `json:"months"`
	analytics.AllocationParams
}

func (a *Analytics) Allocation(ctx context.Context, req AllocationRequest) (*models.AllocationReport, error) {
	return memo(ctx, a, "allocation", req, func(v view) (*models.AllocationReport, error) {
		if err := v.allocationReady(); err != nil {
			return nil, err
		}

		countries := req.Countries
		if len(countries) == 0 && req.SelectCount > 0 {
			countries = analytics.SelectCountries(analytics.CountryOptions(v.allocation), req.Selection, req.SelectCount)
		}
		countries, err := analytics.ResolveCountries(v.allocation, countries)
		if err != nil {
			return nil, err
		}

		rows, err := analytics.AllocatePortfolio(v.allocation, countries, req.Months, req.AllocationParams)
		if err != nil {
			return nil, err
		}
		return &models.AllocationReport{
			RunID:     uuid.NewString(),
			Countries: countries,
			Months:    req.Months,
			Rows:      rows,
			Summary:   analytics.SummarizeAllocation(rows, req.TotalBudget),
		}, nil
	})
}

func (a *Analytics) DOL(ctx context.Context, p analytics.DolParams) (*models.DolResult, error) {
	return memo(ctx, a, "dol", p, func(v view) (*models.DolResult, error) {
		return analytics.CalculateDOL(v.general, p)
	})
}

func (a *Analytics) Seasonality(ctx context.Context, p analytics.SeasonalityParams) (*models.SeasonalityReport, error) {
	return memo(ctx, a, "seasonality", p, func(v view) (*models.SeasonalityReport, error) {
		return analytics.AnalyzeSeasonality(v.general, p)
	})
}

func (a *Analytics) Revenue(ctx context.Context, f analytics.RevenueFilter) (*models.RevenueReport, error) {
	return memo(ctx, a, "revenue", f, func(v view) (*models.RevenueReport, error) {
		return analytics.AnalyzeRevenue(v.general, f)
	})
}

func (a *Analytics) Describe(ctx context.Context, p analytics.DescriptiveParams) (*models.DescriptiveReport, error) {
	return memo(ctx, a, "describe", p, func(v view) (*models.DescriptiveReport, error) {
		return analytics.Describe(v.general, p)
	})
}

// Stats reports the loaded dataset and cache usage for monitoring.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"source":             a.source,
		"dataset_version":    a.version,
		"last_processed":     a.loadedAt,
		"record_count":       a.general.Len(),
		"allocation_records": a.allocation.Len(),
		"cache_entries":      a.results.size(),
		"cache_hits":         a.results.hits.Load(),
		"cache_misses":       a.results.misses.Load(),
	}
	if a.general != nil {
		stats["countries"] = len(a.general.Countries())
		stats["products"] = len(a.general.Products())
	}
	if len(a.allocationMissing) > 0 {
		stats["allocation_missing_columns"] = a.allocationMissing
	}
	return stats
}
