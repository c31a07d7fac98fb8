package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/catalog-service/internal/filter"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
)

const productColumns = `id, name, description, price, image_url, stock, registered_at, category_id`

type productRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewProductRepository(pool *pgxpool.Pool) repository.ProductRepository {
	return &productRepository{pool: pool, tx: NewTxManager(pool)}
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Stock, &p.RegisteredAt, &p.CategoryID)
	return p, err
}

func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, p)
	}
	return out, repository.MapPgError(rows.Err())
}

func (r *productRepository) Page(ctx context.Context, pq repository.ProductQuery) (pagination.Result[model.Product], error) {
	if err := ensurePool(r.pool); err != nil {
		return pagination.Result[model.Product]{}, err
	}
	src := pgSource[model.Product]{
		pool:    r.pool,
		columns: productColumns,
		from:    "products",
		orderBy: "id",
		scan:    scanProduct,
	}
	if pq.PriceFiltered() {
		src.where = priceCondition(pq.Comparison)
		src.args = []any{*pq.Price}
		src.orderBy = "price, id"
	}
	return paginate(ctx, r.tx, src, pq.Page)
}

func priceCondition(c filter.Comparison) string {
	if c == filter.Equal {
		return `ROUND(price, 2) = ROUND($1::numeric, 2)`
	}
	return `price ` + c.Operator() + ` $1`
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (model.Product, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Product{}, err
	}
	p, err := scanProduct(getQ(ctx, r.pool).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, repository.ErrNotFound
		}
		return model.Product{}, repository.MapPgError(err)
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Product{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO products (name, description, price, image_url, stock, registered_at, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+productColumns,
		p.Name, p.Description, p.Price, p.ImageURL, p.Stock, p.RegisteredAt, p.CategoryID,
	)
	out, err := scanProduct(row)
	if err != nil {
		return model.Product{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *productRepository) Update(ctx context.Context, p model.Product) (model.Product, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Product{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price = $4, image_url = $5, stock = $6, registered_at = $7, category_id = $8
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.Stock, p.RegisteredAt, p.CategoryID,
	)
	out, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, repository.ErrNotFound
		}
		return model.Product{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) (model.Product, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Product{}, err
	}
	out, err := scanProduct(getQ(ctx, r.pool).QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, repository.ErrNotFound
		}
		return model.Product{}, repository.MapPgError(err)
	}
	return out, nil
}

var _ repository.ProductRepository = (*productRepository)(nil)
