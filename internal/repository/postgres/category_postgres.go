package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
)

const categoryColumns = `id, name, image_url`

type categoryRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewCategoryRepository(pool *pgxpool.Pool) repository.CategoryRepository {
	return &categoryRepository{pool: pool, tx: NewTxManager(pool)}
}

func scanCategory(row pgx.Row) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name, &c.ImageURL)
	return c, err
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, c)
	}
	return out, repository.MapPgError(rows.Err())
}

// ListWithProducts reads categories and products in one snapshot and groups them in Go;
// I keep it to two plain queries instead of scanning a LEFT JOIN full of NULLs.
func (r *categoryRepository) ListWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	var out []model.CategoryWithProducts
	err := r.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		cats, err := r.List(ctx)
		if err != nil {
			return err
		}
		rows, err := getQ(ctx, r.pool).Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY category_id, id`)
		if err != nil {
			return repository.MapPgError(err)
		}
		defer rows.Close()

		byCategory := make(map[int64][]model.Product, len(cats))
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return repository.MapPgError(err)
			}
			byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
		}
		if err := rows.Err(); err != nil {
			return repository.MapPgError(err)
		}

		out = make([]model.CategoryWithProducts, 0, len(cats))
		for _, c := range cats {
			ps := byCategory[c.ID]
			if ps == nil {
				ps = []model.Product{}
			}
			out = append(out, model.CategoryWithProducts{Category: c, Products: ps})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepository) Page(ctx context.Context, cq repository.CategoryQuery) (pagination.Result[model.Category], error) {
	if err := ensurePool(r.pool); err != nil {
		return pagination.Result[model.Category]{}, err
	}
	src := pgSource[model.Category]{
		pool:    r.pool,
		columns: categoryColumns,
		from:    "categories",
		orderBy: "id",
		scan:    scanCategory,
	}
	if cq.Name != "" {
		src.where = `name ILIKE '%' || $1 || '%'`
		src.args = []any{escapeLike(cq.Name)}
	}
	return paginate(ctx, r.tx, src, cq.Page)
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (model.Category, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Category{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, repository.ErrNotFound
		}
		return model.Category{}, repository.MapPgError(err)
	}
	return c, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (r *categoryRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Category{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO categories (name, image_url) VALUES ($1, $2)
		 RETURNING `+categoryColumns,
		c.Name, c.ImageURL,
	)
	out, err := scanCategory(row)
	if err != nil {
		return model.Category{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *categoryRepository) Update(ctx context.Context, c model.Category) (model.Category, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Category{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE categories SET name = $2, image_url = $3 WHERE id = $1
		 RETURNING `+categoryColumns,
		c.ID, c.Name, c.ImageURL,
	)
	out, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, repository.ErrNotFound
		}
		return model.Category{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id int64) (model.Category, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Category{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx, `DELETE FROM categories WHERE id = $1 RETURNING `+categoryColumns, id)
	out, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, repository.ErrNotFound
		}
		return model.Category{}, repository.MapPgError(err)
	}
	return out, nil
}

var _ repository.CategoryRepository = (*categoryRepository)(nil)
