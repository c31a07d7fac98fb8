package memory

import (
	"context"
	"sort"

	"github.com/maxviazov/catalog-service/internal/filter"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
)

type categoryRepository struct{ store *Store }

func NewCategoryRepository(store *Store) repository.CategoryRepository {
	return &categoryRepository{store: store}
}

// sortedCategories returns every category ordered by id. Caller holds the read lock.
func (st *state) sortedCategories() []model.Category {
	out := make([]model.Category, 0, len(st.categories))
	for _, c := range st.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Category
	r.store.read(func(st *state) { out = st.sortedCategories() })
	return out, nil
}

func (r *categoryRepository) ListWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.CategoryWithProducts
	r.store.read(func(st *state) {
		byCategory := make(map[int64][]model.Product, len(st.categories))
		for _, p := range st.sortedProducts() {
			byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
		}
		cats := st.sortedCategories()
		out = make([]model.CategoryWithProducts, 0, len(cats))
		for _, c := range cats {
			ps := byCategory[c.ID]
			if ps == nil {
				ps = []model.Product{}
			}
			out = append(out, model.CategoryWithProducts{Category: c, Products: ps})
		}
	})
	return out, nil
}

func (r *categoryRepository) Page(ctx context.Context, q repository.CategoryQuery) (pagination.Result[model.Category], error) {
	if err := ctx.Err(); err != nil {
		return pagination.Result[model.Category]{}, err
	}
	var matched []model.Category
	r.store.read(func(st *state) {
		matched = filter.Apply(st.sortedCategories(), func(c model.Category) bool {
			return filter.ContainsFold(c.Name, q.Name)
		})
	})
	return pagination.FromSlice(matched, q.Page), nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (model.Category, error) {
	if err := ctx.Err(); err != nil {
		return model.Category{}, err
	}
	var (
		c  model.Category
		ok bool
	)
	r.store.read(func(st *state) { c, ok = st.categories[id] })
	if !ok {
		return model.Category{}, repository.ErrNotFound
	}
	return c, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := r.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case err == repository.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

func (r *categoryRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := ctx.Err(); err != nil {
		return model.Category{}, err
	}
	err := r.store.write(ctx, func(st *state) error {
		st.nextID.category++
		c.ID = st.nextID.category
		st.categories[c.ID] = c
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *categoryRepository) Update(ctx context.Context, c model.Category) (model.Category, error) {
	if err := ctx.Err(); err != nil {
		return model.Category{}, err
	}
	err := r.store.write(ctx, func(st *state) error {
		if _, ok := st.categories[c.ID]; !ok {
			return repository.ErrNotFound
		}
		st.categories[c.ID] = c
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

// Delete refuses to orphan products, matching the Postgres foreign key.
func (r *categoryRepository) Delete(ctx context.Context, id int64) (model.Category, error) {
	if err := ctx.Err(); err != nil {
		return model.Category{}, err
	}
	var deleted model.Category
	err := r.store.write(ctx, func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return repository.ErrNotFound
		}
		for _, p := range st.products {
			if p.CategoryID == id {
				return repository.ErrConflict
			}
		}
		delete(st.categories, id)
		deleted = c
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return deleted, nil
}

var _ repository.CategoryRepository = (*categoryRepository)(nil)
