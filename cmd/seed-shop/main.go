// Command seed-shop loads the catalog (categories and products) and a test
// API key into PostgreSQL. It is idempotent: rows are upserted by slug or key
// hash, so re-running refreshes prices and stock without duplicating.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lmarind/tienda-api/internal/repository"
)

type productJSON struct {
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Discount       int             `json:"discount"`
	DiscountEndsAt *time.Time      `json:"discount_ends_at"`
	Stock          int             `json:"stock"`
	IsNew          bool            `json:"is_new"`
	IsTop          bool            `json:"is_top"`
	IsFeatured     bool            `json:"is_featured"`
	Category       string          `json:"category"`
}

type categoryJSON struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"image_url"`
}

type catalogJSON struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
}

const (
	upsertCategorySQL = `INSERT INTO categories (name, slug, image_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, image_url = EXCLUDED.image_url
		RETURNING id`

	upsertProductSQL = `INSERT INTO products
		(name, slug, description, price, discount, discount_ends_at, stock,
		 is_new, is_top, is_featured, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			price = EXCLUDED.price, discount = EXCLUDED.discount,
			discount_ends_at = EXCLUDED.discount_ends_at, stock = EXCLUDED.stock,
			is_new = EXCLUDED.is_new, is_top = EXCLUDED.is_top,
			is_featured = EXCLUDED.is_featured, category_id = EXCLUDED.category_id,
			updated_at = NOW()`

	upsertAPIKeySQL = `INSERT INTO api_keys (key_hash, name, user_id, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name, active = TRUE`
)

func main() {
	var (
		databaseURL string
		catalogFile string
		apiKey      string
		pepper      string
		userID      int64
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or TIENDA_SEED_API_KEY env)")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or TIENDA_API_KEY_PEPPER env)")
	flag.Int64Var(&userID, "user-id", 1, "user id the seeded API key acts as")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("TIENDA_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or TIENDA_SEED_API_KEY")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("TIENDA_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, pepper, userID); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string, userID int64) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper, userID); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

func seedCatalog(ctx context.Context, pool repository.DB, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	categoryIDs := make(map[string]int64, len(catalog.Categories))
	for _, c := range catalog.Categories {
		var id int64
		if err := pool.QueryRow(ctx, upsertCategorySQL, c.Name, c.Slug, c.ImageURL).Scan(&id); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.Slug)
		}
		categoryIDs[c.Slug] = id
	}
	slog.Info("upserted categories", slog.Int("count", len(catalog.Categories)))

	for _, p := range catalog.Products {
		var categoryID *int64
		if id, ok := categoryIDs[p.Category]; ok {
			categoryID = &id
		} else if p.Category != "" {
			return errors.Errorf("product %s references unknown category %s", p.Slug, p.Category)
		}

		_, err := pool.Exec(ctx, upsertProductSQL,
			p.Name, p.Slug, p.Description, p.Price, p.Discount, p.DiscountEndsAt,
			p.Stock, p.IsNew, p.IsTop, p.IsFeatured, categoryID,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Slug)
		}
		slog.Info("upserted product", slog.String("slug", p.Slug), slog.String("price", p.Price.String()))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool repository.DB, apiKey, pepper string, userID int64) error {
	slog.Info("seeding API key", slog.Int64("user_id", userID))

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, keyHash, "Seeded test key", userID); err != nil {
		return errors.Wrap(err, "upsert API key")
	}
	return nil
}
