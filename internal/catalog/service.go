package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
)

// ErrNotFound is returned when a product id is not in the current snapshot.
var ErrNotFound = errors.New("catalog: product not found")

// Snapshot is an immutable, complete product list.
type Snapshot struct {
	Products []Product
	Version  string
	Source   string
	LoadedAt time.Time
	index    map[string]int
}

// Service keeps the last good catalog snapshot and answers listing queries from it.
type Service struct {
	source       Source
	cache        *Cache
	overlay      *ImageOverlay
	logger       zerolog.Logger
	now          func() time.Time
	defaultLimit int
	maxLimit     int

	mu      sync.RWMutex
	snap    Snapshot
	loading sync.Mutex
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Source       Source
	Cache        *Cache
	Overlay      *ImageOverlay
	Logger       zerolog.Logger
	Now          func() time.Time
	DefaultLimit int
	MaxLimit     int
}

// ListResult contains a page of products and the filtered total.
type ListResult struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("catalog: source is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 48
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 500
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		source:       cfg.Source,
		cache:        cfg.Cache,
		overlay:      cfg.Overlay,
		logger:       cfg.Logger.With().Str("component", "catalog").Logger(),
		now:          now,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// Refresh reloads the whole catalog from the source. On failure the previous
// snapshot stays in place.
func (s *Service) Refresh(ctx context.Context) (snap Snapshot, err error) {
	ctx, span := obs.StartSpan(ctx, "catalog.Refresh", attribute.String("catalog.source", s.source.Name()))
	defer func() { obs.EndSpan(span, err) }()

	s.loading.Lock()
	defer s.loading.Unlock()

	products, err := s.source.Products(ctx)
	if err != nil {
		obs.ObserveCatalogRefresh(s.source.Name(), "error", 0)
		return s.Snapshot(), fmt.Errorf("load catalog from %s: %w", s.source.Name(), err)
	}
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	if err := s.overlay.Apply(products); err != nil {
		s.logger.Warn().Err(err).Msg("image overlay not applied")
	}

	snap = newSnapshot(products, s.source.Name(), s.now())
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	obs.ObserveCatalogRefresh(s.source.Name(), "ok", len(products))
	s.logger.Info().Int("products", len(products)).Str("version", snap.Version).Msg("catalog refreshed")
	return snap, nil
}

// Run refreshes the catalog every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Msg("scheduled catalog refresh failed")
			}
		}
	}
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Service) ensureLoaded(ctx context.Context) (Snapshot, error) {
	snap := s.Snapshot()
	if snap.Version != "" {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Product looks up a product by id.
func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return Product{}, err
	}
	i, ok := snap.index[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return snap.Products[i], nil
}

// ParseListParams normalises raw query values into a Query.
func (s *Service) ParseListParams(values url.Values) (Query, error) {
	q := Query{
		Search:   strings.TrimSpace(values.Get("q")),
		Category: strings.TrimSpace(values.Get("category")),
		Brand:    strings.TrimSpace(values.Get("brand")),
		Sort:     SortDefault,
		Page:     1,
		Limit:    s.defaultLimit,
	}
	if v := strings.TrimSpace(values.Get("show_out_of_stock")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, badRequest("show_out_of_stock", "show_out_of_stock must be true or false", err)
		}
		q.ShowOutOfStock = b
	}
	switch v := strings.ToLower(strings.TrimSpace(values.Get("sort"))); v {
	case "", SortDefault:
	case SortAsc, SortDesc:
		q.Sort = v
	default:
		return q, badRequest("sort", "sort must be default, asc or desc", nil)
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return q, badRequest("page", "page must be a positive integer", err)
		}
		q.Page = page
	}
	if v := strings.TrimSpace(values.Get("per_page")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return q, badRequest("per_page", "per_page must be a positive integer", err)
		}
		q.Limit = limit
	}
	if q.Limit > s.maxLimit {
		q.Limit = s.maxLimit
	}
	return q, nil
}

type cachedList struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

// List filters the snapshot and returns the requested page.
func (s *Service) List(ctx context.Context, q Query) (ListResult, error) {
	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return ListResult{}, err
	}

	key := listCacheKey(snap.Version, q)
	if s.cache != nil {
		var cached cachedList
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return ListResult{Items: cached.Items, Total: cached.Total, Page: q.Page, Limit: q.Limit}, nil
		}
	}

	filtered := Filter(snap.Products, q)
	start := (q.Page - 1) * q.Limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + q.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page := filtered[start:end]

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, cachedList{Items: page, Total: len(filtered)}); err != nil {
			s.logger.Debug().Err(err).Msg("catalog list cache write failed")
		}
	}
	return ListResult{Items: page, Total: len(filtered), Page: q.Page, Limit: q.Limit}, nil
}

// Facets returns the category and brand choices for the current snapshot.
func (s *Service) Facets(ctx context.Context, category string) (Facets, error) {
	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return Facets{}, err
	}
	return BuildFacets(snap.Products, strings.TrimSpace(category)), nil
}

func newSnapshot(products []Product, source string, at time.Time) Snapshot {
	index := make(map[string]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}
	payload, _ := json.Marshal(products)
	return Snapshot{
		Products: products,
		Version:  common.Sha256Hex(string(payload))[:16],
		Source:   source,
		LoadedAt: at,
		index:    index,
	}
}

func listCacheKey(version string, q Query) string {
	values := url.Values{}
	values.Set("q", strings.ToLower(q.Search))
	values.Set("category", q.Category)
	values.Set("brand", q.Brand)
	values.Set("oos", strconv.FormatBool(q.ShowOutOfStock))
	values.Set("sort", q.Sort)
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("limit", strconv.Itoa(q.Limit))
	return fmt.Sprintf("catalog:list:%s:%s", version, common.Sha256Hex(values.Encode())[:24])
}

func badRequest(field, message string, err error) error {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    map[string]any{"field": field},
	}
}
