package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lmarind/tienda-api/internal/domain/product"
)

const productColumns = `id, name, slug, description, price, discount, discount_ends_at, stock, is_new, is_top, is_featured, category_id, created_at, updated_at`

const (
	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductBySlugSQL = `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	listCategoriesSQL = `SELECT id, name, slug, image_url, parent_id FROM categories ORDER BY name`
)

var _ product.Repository = (*ProductRepository)(nil)
var _ product.CategoryRepository = (*ProductRepository)(nil)

// ProductRepository implements the product read interfaces backed by
// PostgreSQL.
type ProductRepository struct {
	pool DB
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool DB) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog products matching the filter, ordered by id.
func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]product.Product, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT p.` + strings.ReplaceAll(productColumns, ", ", ", p.") + ` FROM products p`)

	var conds []string
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		sb.WriteString(` JOIN categories c ON c.id = p.category_id`)
		conds = append(conds, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.OnlyNew {
		conds = append(conds, "p.is_new")
	}
	if filter.OnlyTop {
		conds = append(conds, "p.is_top")
	}
	if filter.OnlyFeatured {
		conds = append(conds, "p.is_featured")
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY p.id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting product %d", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %d", id)
	}
	return &p, nil
}

// GetBySlug returns a single product by its URL slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductBySlugSQL, slug)
	if err != nil {
		return nil, errors.Wrapf(err, "getting product %q", slug)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %q", slug)
	}
	return &p, nil
}

// ListCategories returns all categories ordered by name.
func (r *ProductRepository) ListCategories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing categories")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ImageURL, &c.ParentID)
		return c, err
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &price, &p.Discount, &p.DiscountEndsAt,
		&p.Stock, &p.IsNew, &p.IsTop, &p.IsFeatured, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Price = price
	return p, err
}
