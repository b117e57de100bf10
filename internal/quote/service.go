// Package quote assembles reference data from the stores and runs the pricing, freight,
// tariff and landed-cost engines for one product at one quantity.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/landed-quote/internal/cache"
	"github.com/noah-isme/landed-quote/internal/common"
	"github.com/noah-isme/landed-quote/internal/freight"
	"github.com/noah-isme/landed-quote/internal/landed"
	"github.com/noah-isme/landed-quote/internal/obs"
	"github.com/noah-isme/landed-quote/internal/pricing"
	"github.com/noah-isme/landed-quote/internal/tariff"
)

const tracerName = "landed-quote/quote"

// Request identifies what to quote.
type Request struct {
	ProductID   uuid.UUID
	Quantity    int
	Destination string
	// Origin overrides the supplier's origin country when set.
	Origin string
}

// Quote is a computed landed-cost estimate. Freight and Tariff are nil when the reference
// holds no record; Landed.Partial is set in the first case.
type Quote struct {
	ID               uuid.UUID         `json:"id"`
	ProductID        uuid.UUID         `json:"productId"`
	Quantity         int               `json:"quantity"`
	Origin           string            `json:"origin"`
	Destination      string            `json:"destination"`
	MOQBucket        freight.Bucket    `json:"moqBucket"`
	Pricing          pricing.Result    `json:"pricing"`
	Freight          *freight.Estimate `json:"freight"`
	FreightAvailable bool              `json:"freightAvailable"`
	Tariff           *tariff.Info      `json:"tariff"`
	Landed           landed.Estimate   `json:"landed"`
	ComputedAt       time.Time         `json:"computedAt"`
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Catalog   CatalogStore
	Suppliers SupplierStore
	Tiers     TierStore
	Rules     VolumeRuleStore
	Tariffs   TariffStore
	Freight   FreightStore
	Cache     *cache.Cache
	Metrics   *obs.QuoteMetrics
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Service computes quotes.
type Service struct {
	catalog   CatalogStore
	suppliers SupplierStore
	tiers     TierStore
	rules     VolumeRuleStore
	tariffs   TariffStore
	freight   FreightStore
	cache     *cache.Cache
	metrics   *obs.QuoteMetrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService constructs a Service. All stores are required; cache and metrics are optional.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Catalog == nil:
		return nil, errors.New("quote: catalog store is required")
	case cfg.Suppliers == nil:
		return nil, errors.New("quote: supplier store is required")
	case cfg.Tiers == nil:
		return nil, errors.New("quote: tier store is required")
	case cfg.Rules == nil:
		return nil, errors.New("quote: volume rule store is required")
	case cfg.Tariffs == nil:
		return nil, errors.New("quote: tariff store is required")
	case cfg.Freight == nil:
		return nil, errors.New("quote: freight store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog:   cfg.Catalog,
		suppliers: cfg.Suppliers,
		tiers:     cfg.Tiers,
		rules:     cfg.Rules,
		tariffs:   cfg.Tariffs,
		freight:   cfg.Freight,
		cache:     cfg.Cache,
		metrics:   cfg.Metrics,
		logger:    obs.WithComponent(cfg.Logger, "quote"),
		now:       now,
	}, nil
}

// Quote fetches the product's reference data and computes its landed cost. Errors are
// *common.AppError values.
func (s *Service) Quote(ctx context.Context, req Request) (q Quote, err error) {
	started := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "quote.compute")
	span.SetAttributes(
		attribute.String("quote.product_id", req.ProductID.String()),
		attribute.Int("quote.quantity", req.Quantity),
		attribute.String("quote.destination", req.Destination),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.observe(q, err, time.Since(started))
	}()

	q, err = s.compute(ctx, req)
	if err != nil {
		return Quote{}, s.classify(req, err)
	}
	return q, nil
}

func (s *Service) compute(ctx context.Context, req Request) (Quote, error) {
	if req.ProductID == uuid.Nil {
		return Quote{}, fmt.Errorf("product id is required: %w", pricing.ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return Quote{}, fmt.Errorf("quantity must be positive, got %d: %w", req.Quantity, pricing.ErrInvalidInput)
	}
	destination := freight.NormalizeCountry(req.Destination)
	if destination == "" {
		return Quote{}, fmt.Errorf("destination is required: %w", pricing.ErrInvalidInput)
	}

	product, err := cached(ctx, s, "product", cache.KeyProduct(req.ProductID), func(ctx context.Context) (Product, error) {
		return s.catalog.Product(ctx, req.ProductID)
	})
	if err != nil {
		return Quote{}, err
	}

	var (
		origin = freight.NormalizeCountry(req.Origin)
		tiers  []pricing.Tier
		rules  []pricing.VolumeRule
		info   *tariff.Info
	)
	g, gctx := errgroup.WithContext(ctx)
	if origin == "" {
		g.Go(func() error {
			o, err := cached(gctx, s, "origin", cache.KeyOrigin(product.SupplierID), func(ctx context.Context) (string, error) {
				return s.suppliers.OriginCountry(ctx, product.SupplierID)
			})
			origin = freight.NormalizeCountry(o)
			return err
		})
	}
	g.Go(func() error {
		var err error
		tiers, err = cached(gctx, s, "tiers", cache.KeyTiers(product.ID), func(ctx context.Context) ([]pricing.Tier, error) {
			return s.tiers.Tiers(ctx, product.ID)
		})
		return err
	})
	g.Go(func() error {
		target := product.Target()
		fetched, err := cached(gctx, s, "rules", cache.KeyRules(target.ProductID, target.CategoryID, target.SupplierID), func(ctx context.Context) ([]pricing.VolumeRule, error) {
			return s.rules.Rules(ctx, target)
		})
		rules = pricing.MatchScope(fetched, target)
		return err
	})
	g.Go(func() error {
		var err error
		info, err = cached(gctx, s, "tariff", cache.KeyTariff(product.ID, destination), func(ctx context.Context) (*tariff.Info, error) {
			return s.tariffs.Tariff(ctx, product.ID, destination)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return Quote{}, err
	}
	if origin == "" {
		return Quote{}, fmt.Errorf("supplier %s has no origin country: %w", product.SupplierID, pricing.ErrDataIntegrity)
	}

	result, err := pricing.Evaluator{Now: s.now}.Evaluate(product.BasePrice, req.Quantity, tiers, rules)
	if err != nil {
		return Quote{}, err
	}

	key := freight.NewKey(product.Category, product.MOQ, origin, destination)
	table, err := s.freightTable(ctx, key)
	if err != nil {
		return Quote{}, err
	}
	est, ok, err := freight.Estimator{Rates: table}.Estimate(product.BasePrice, product.Category, product.MOQ, origin, destination)
	if err != nil {
		return Quote{}, err
	}
	var estimate *freight.Estimate
	if ok {
		estimate = &est
	}

	total, err := landed.Aggregate(result.UnitPrice, req.Quantity, estimate, info)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		ID:               uuid.New(),
		ProductID:        product.ID,
		Quantity:         req.Quantity,
		Origin:           origin,
		Destination:      destination,
		MOQBucket:        key.Bucket,
		Pricing:          result,
		Freight:          estimate,
		FreightAvailable: ok,
		Tariff:           info,
		Landed:           total,
		ComputedAt:       s.now().UTC(),
	}, nil
}

type freightRecord struct {
	Rate  freight.Rate `json:"rate"`
	Found bool         `json:"found"`
}

// freightTable loads the lane record for key, plus the wildcard-category record when the
// specific one is missing.
func (s *Service) freightTable(ctx context.Context, key freight.Key) (freight.Table, error) {
	table := freight.Table{}
	keys := []freight.Key{key}
	if key.Category != freight.WildcardCategory {
		lane := key
		lane.Category = freight.WildcardCategory
		keys = append(keys, lane)
	}
	for _, k := range keys {
		rec, err := cached(ctx, s, "freight", cache.KeyFreight(k.String()), func(ctx context.Context) (freightRecord, error) {
			rate, found, err := s.freight.Rate(ctx, k)
			return freightRecord{Rate: rate, Found: found}, err
		})
		if err != nil {
			return nil, err
		}
		if rec.Found {
			table[k] = rec.Rate
			break
		}
	}
	return table, nil
}

// cached reads key through the reference cache, loading and storing it on a miss. Cache
// failures are logged and fall through to the loader.
func cached[T any](ctx context.Context, s *Service, source, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	hit, err := s.cache.GetJSON(ctx, key, &v)
	switch {
	case err != nil:
		s.metrics.CacheResult(source, "error")
		s.logger.Warn().Err(err).Str("source", source).Str("key", key).Msg("reference_cache_degraded")
	case hit:
		s.metrics.CacheResult(source, "hit")
		return v, nil
	default:
		s.metrics.CacheResult(source, "miss")
	}

	var zero T
	v, err = load(ctx)
	if err != nil {
		return zero, err
	}
	if err := s.cache.SetJSON(ctx, key, v); err != nil {
		s.logger.Warn().Err(err).Str("source", source).Str("key", key).Msg("reference_cache_write_failed")
	}
	return v, nil
}

func (s *Service) classify(req Request, err error) error {
	if common.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, ErrProductNotFound):
		return common.NotFound("product not found", err)
	case errors.Is(err, pricing.ErrInvalidInput):
		appErr := common.InvalidInput("invalid quote request", err)
		appErr.Details = map[string]any{"reason": err.Error()}
		return appErr
	case errors.Is(err, ErrSupplierNotFound), errors.Is(err, pricing.ErrDataIntegrity):
		s.logger.Warn().Err(err).Str("product_id", req.ProductID.String()).Msg("reference_data_integrity")
		appErr := common.DataIntegrity("reference data is inconsistent", err)
		appErr.Details = map[string]any{"reason": err.Error()}
		return appErr
	default:
		s.logger.Error().Err(err).Str("product_id", req.ProductID.String()).Msg("reference_fetch_failed")
		return common.Upstream("reference data unavailable", err)
	}
}

func (s *Service) observe(q Quote, err error, elapsed time.Duration) {
	result := outcome(err)
	if err == nil {
		s.logger.Debug().
			Str("quote_id", q.ID.String()).
			Str("product_id", q.ProductID.String()).
			Int("quantity", q.Quantity).
			Str("discount", string(q.Pricing.Discount.Kind)).
			Bool("partial", q.Landed.Partial).
			Float64("duration_ms", obs.DurationMillis(elapsed)).
			Msg("quote_computed")
	}
	if s.metrics == nil {
		return
	}
	s.metrics.Computations.WithLabelValues(result).Inc()
	s.metrics.Latency.Observe(obs.DurationMillis(elapsed))
	if err != nil {
		return
	}
	s.metrics.DiscountKind.WithLabelValues(string(q.Pricing.Discount.Kind)).Inc()
	if q.FreightAvailable {
		s.metrics.FreightLookups.WithLabelValues("available").Inc()
	} else {
		s.metrics.FreightLookups.WithLabelValues("unavailable").Inc()
	}
	if q.Tariff != nil {
		s.metrics.TariffLookups.WithLabelValues("classified").Inc()
	} else {
		s.metrics.TariffLookups.WithLabelValues("unclassified").Inc()
	}
}

func outcome(err error) string {
	var appErr *common.AppError
	if err == nil {
		return "ok"
	}
	if !errors.As(err, &appErr) {
		return "error"
	}
	switch appErr.Code {
	case common.CodeInvalidInput:
		return "invalid"
	case common.CodeDataIntegrity:
		return "integrity"
	case common.CodeNotFound:
		return "not_found"
	}
	return "error"
}
