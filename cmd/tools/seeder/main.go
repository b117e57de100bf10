package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/landed-quote/internal/app"
	"github.com/noah-isme/landed-quote/internal/config"
	"github.com/noah-isme/landed-quote/internal/freight"
	"github.com/noah-isme/landed-quote/internal/lock"
	"github.com/noah-isme/landed-quote/internal/migrations"
	"github.com/noah-isme/landed-quote/internal/obs"
	"github.com/noah-isme/landed-quote/internal/pricing"
	"github.com/noah-isme/landed-quote/internal/quote"
	"github.com/noah-isme/landed-quote/internal/refresh"
	"github.com/noah-isme/landed-quote/internal/repo"
	"github.com/noah-isme/landed-quote/internal/tariff"
)

func main() {
	var (
		migrate    = flag.Bool("migrate", true, "apply schema migrations before seeding")
		invalidate = flag.Bool("invalidate", true, "enqueue a reference cache invalidation after seeding")
		dryRun     = flag.Bool("dry-run", false, "run the import inside a transaction and roll it back")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := obs.WithComponent(obs.NewLogger(cfg.LogFormat, cfg.LogLevel), "seeder")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *migrate {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	pool, err := app.NewPool(ctx, cfg, "landed-quote-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisClient, err := app.NewRedis(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() { _ = redisClient.Close() }()

	locker := lock.Locker{Client: redisClient}
	err = locker.TryWithLock(ctx, "seed:reference", time.Minute, func(ctx context.Context) error {
		return seed(ctx, pool, logger, *dryRun)
	})
	if errors.Is(err, lock.ErrHeld) {
		logger.Fatal().Msg("another reference import is running")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("seed reference data")
	}

	if *invalidate && !*dryRun {
		taskOpt, err := app.TaskRedisOpt(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("task redis options")
		}
		client := asynq.NewClient(taskOpt)
		defer func() { _ = client.Close() }()
		info, err := refresh.Enqueue(ctx, client, cfg.WorkerQueue, nil, "seed")
		if err != nil {
			logger.Fatal().Err(err).Msg("enqueue cache invalidation")
		}
		logger.Info().Str("task_id", info.ID).Str("queue", info.Queue).Msg("cache invalidation enqueued")
	}
	logger.Info().Bool("dry_run", *dryRun).Msg("seeding completed")
}

func seed(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, dryRun bool) error {
	ctx, span := app.Tracer("landed-quote/seeder").Start(ctx, "seed.reference")
	defer span.End()

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	w := repo.Writer{DB: tx}
	data := sampleData()
	for _, s := range data.suppliers {
		if err := w.UpsertSupplier(ctx, s); err != nil {
			return err
		}
	}
	for _, c := range data.categories {
		if err := w.UpsertCategory(ctx, c); err != nil {
			return err
		}
	}
	for _, p := range data.products {
		if err := w.UpsertProduct(ctx, p.product); err != nil {
			return err
		}
		if err := w.ReplaceTiers(ctx, p.product.ID, p.tiers); err != nil {
			return err
		}
	}
	for _, r := range data.rules {
		if err := w.UpsertRule(ctx, r); err != nil {
			return err
		}
	}
	for _, t := range data.tariffs {
		if err := w.UpsertTariff(ctx, t.info, t.destination); err != nil {
			return err
		}
	}
	for _, p := range data.products {
		if p.tariffCode == "" {
			continue
		}
		if err := w.AssignTariff(ctx, p.product.ID, p.tariffCode); err != nil {
			return err
		}
	}
	for _, rate := range data.freight {
		if err := w.UpsertFreightRate(ctx, rate); err != nil {
			return err
		}
	}

	logger.Info().
		Int("suppliers", len(data.suppliers)).
		Int("products", len(data.products)).
		Int("rules", len(data.rules)).
		Int("freight_rates", len(data.freight)).
		Msg("reference data written")
	if dryRun {
		return nil
	}
	return tx.Commit(ctx)
}

type seedProduct struct {
	product    quote.Product
	tiers      []pricing.Tier
	tariffCode string
}

type seedTariff struct {
	info        tariff.Info
	destination string
}

type dataset struct {
	suppliers  []repo.Supplier
	categories []repo.Category
	products   []seedProduct
	rules      []pricing.VolumeRule
	tariffs    []seedTariff
	freight    []freight.Rate
}

// stableID keeps seeded rows idempotent across runs.
func stableID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("landed-quote/"+kind+"/"+name))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func ratePtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sampleData() dataset {
	shenzhen := repo.Supplier{ID: stableID("supplier", "shenzhen-power"), Name: "Shenzhen Power Co.", OriginCountry: "CN"}
	hanoi := repo.Supplier{ID: stableID("supplier", "hanoi-textiles"), Name: "Hanoi Textiles", OriginCountry: "VN"}
	electronics := repo.Category{ID: stableID("category", "electronics"), Name: "Electronics"}
	apparel := repo.Category{ID: stableID("category", "apparel"), Name: "Apparel"}

	charger := quote.Product{
		ID:         stableID("product", "usb-c-charger-65w"),
		SupplierID: shenzhen.ID,
		CategoryID: electronics.ID,
		Name:       "65W USB-C charger",
		Category:   electronics.Name,
		BasePrice:  dec("8.40"),
		MOQ:        "500 pieces",
	}
	cable := quote.Product{
		ID:         stableID("product", "braided-cable-2m"),
		SupplierID: shenzhen.ID,
		CategoryID: electronics.ID,
		Name:       "Braided USB-C cable 2m",
		Category:   electronics.Name,
		BasePrice:  dec("1.25"),
		MOQ:        "2k units",
	}
	tee := quote.Product{
		ID:         stableID("product", "organic-tee"),
		SupplierID: hanoi.ID,
		CategoryID: apparel.ID,
		Name:       "Organic cotton T-shirt",
		Category:   apparel.Name,
		BasePrice:  dec("4.10"),
		MOQ:        "300 pcs",
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	return dataset{
		suppliers:  []repo.Supplier{shenzhen, hanoi},
		categories: []repo.Category{electronics, apparel},
		products: []seedProduct{
			{
				product: charger,
				tiers: []pricing.Tier{
					{MinQuantity: 1, MaxQuantity: intPtr(499), UnitPrice: dec("8.40"), Label: "1-499"},
					{MinQuantity: 500, MaxQuantity: intPtr(1999), UnitPrice: dec("7.90"), Label: "500-1999"},
					{MinQuantity: 2000, UnitPrice: dec("7.20"), Label: "2000+"},
				},
				tariffCode: "8504.40.9520",
			},
			{
				product: cable,
				tiers: []pricing.Tier{
					{MinQuantity: 1, MaxQuantity: intPtr(4999), UnitPrice: dec("1.25"), Label: "1-4999"},
					{MinQuantity: 5000, UnitPrice: dec("1.05"), Label: "5000+"},
				},
				tariffCode: "8544.42.9090",
			},
			{product: tee},
		},
		rules: []pricing.VolumeRule{
			{
				ID:            stableID("rule", "shenzhen-1000").String(),
				Scope:         pricing.ScopeSupplier,
				ScopeID:       shenzhen.ID,
				MinQuantity:   1000,
				DiscountType:  pricing.DiscountPercentage,
				DiscountValue: dec("8"),
				StartDate:     start,
				EndDate:       &end,
			},
			{
				ID:            stableID("rule", "apparel-250").String(),
				Scope:         pricing.ScopeCategory,
				ScopeID:       apparel.ID,
				MinQuantity:   250,
				DiscountType:  pricing.DiscountFixedAmount,
				DiscountValue: dec("0.35"),
				StartDate:     start,
			},
		},
		tariffs: []seedTariff{
			{info: tariff.Info{Code: "8504.40.9520", Description: "Static converters, power supplies", GeneralRate: dec("0")}},
			{info: tariff.Info{Code: "8544.42.9090", Description: "Insulated conductors with connectors", GeneralRate: dec("0.026")}},
			{
				info:        tariff.Info{Code: "8544.42.9090", Description: "Insulated conductors with connectors", GeneralRate: dec("0.026"), DestinationRate: ratePtr("0"), TradeAgreement: "USMCA"},
				destination: "MX",
			},
		},
		freight: []freight.Rate{
			{Key: freight.Key{Category: "electronics", Bucket: freight.Bucket100, Origin: "CN", Destination: "US"}, Low: dec("320"), High: dec("540"), Method: freight.MethodSea, TransitDays: "25-35"},
			{Key: freight.Key{Category: "electronics", Bucket: freight.Bucket1000, Origin: "CN", Destination: "US"}, Low: dec("780"), High: dec("1150"), Method: freight.MethodSea, TransitDays: "25-35"},
			{Key: freight.Key{Category: freight.WildcardCategory, Bucket: freight.Bucket100, Origin: "CN", Destination: "DE"}, Low: dec("410"), High: dec("690"), Method: freight.MethodRail, TransitDays: "18-24"},
			{Key: freight.Key{Category: "apparel", Bucket: freight.Bucket100, Origin: "VN", Destination: "US"}, Low: dec("260"), High: dec("430"), Method: freight.MethodSea, TransitDays: "28-38"},
		},
	}
}
