package memory

import (
	"context"
	"sort"

	"github.com/maxviazov/catalog-service/internal/filter"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
)

type productRepository struct{ store *Store }

func NewProductRepository(store *Store) repository.ProductRepository {
	return &productRepository{store: store}
}

func (st *state) sortedProducts() []model.Product {
	out := make([]model.Product, 0, len(st.products))
	for _, p := range st.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Product
	r.store.read(func(st *state) { out = st.sortedProducts() })
	return out, nil
}

func (r *productRepository) Page(ctx context.Context, q repository.ProductQuery) (pagination.Result[model.Product], error) {
	if err := ctx.Err(); err != nil {
		return pagination.Result[model.Product]{}, err
	}
	var items []model.Product
	r.store.read(func(st *state) { items = st.sortedProducts() })

	if q.PriceFiltered() {
		target := *q.Price
		items = filter.Apply(items, func(p model.Product) bool { return q.Comparison.Match(p.Price, target) })
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	}
	return pagination.FromSlice(items, q.Page), nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}
	var (
		p  model.Product
		ok bool
	)
	r.store.read(func(st *state) { p, ok = st.products[id] })
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}
	err := r.store.write(ctx, func(st *state) error {
		if _, ok := st.categories[p.CategoryID]; !ok {
			return repository.ErrConflict
		}
		st.nextID.product++
		p.ID = st.nextID.product
		st.products[p.ID] = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, p model.Product) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}
	err := r.store.write(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; !ok {
			return repository.ErrNotFound
		}
		if _, ok := st.categories[p.CategoryID]; !ok {
			return repository.ErrConflict
		}
		st.products[p.ID] = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}
	var deleted model.Product
	err := r.store.write(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repository.ErrNotFound
		}
		delete(st.products, id)
		deleted = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return deleted, nil
}

var _ repository.ProductRepository = (*productRepository)(nil)
