package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/catalog-service/internal/cache"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
	"github.com/maxviazov/catalog-service/internal/repository/memory"
	"github.com/maxviazov/catalog-service/internal/service"
)

type countingObserver struct{ hits, misses map[string]int }

func newObserver() *countingObserver {
	return &countingObserver{hits: map[string]int{}, misses: map[string]int{}}
}

func (o *countingObserver) ObserveCacheHit(name string)  { o.hits[name]++ }
func (o *countingObserver) ObserveCacheMiss(name string) { o.misses[name]++ }

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("cache down") }
func (brokenStore) Set(context.Context, string, []byte) error   { return errors.New("cache down") }
func (brokenStore) Delete(context.Context, ...string) error     { return errors.New("cache down") }

func newMemoryStore(t *testing.T) *memory.Store {
	t.Helper()
	st, err := memory.New(memory.Options{})
	require.NoError(t, err)
	return st
}

func newCategoryService(t *testing.T, store cache.Store, obs cache.Observer) (service.CategoryService, repository.CategoryRepository) {
	t.Helper()
	repo := memory.NewCategoryRepository(newMemoryStore(t))
	if store == nil {
		store = cache.NewMemoryStore(cache.Policy{Absolute: time.Minute})
	}
	return service.NewCategoryService(repo, store, obs, zerolog.New(io.Discard)), repo
}

func fields(err error) []string {
	var out []string
	for _, fe := range service.FieldErrors(err) {
		out = append(out, fe.Field)
	}
	return out
}

func TestCategoryService_CreateValidation(t *testing.T) {
	svc, _ := newCategoryService(t, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name      string
		in        model.Category
		wantField string
	}{
		{"empty name", model.Category{Name: "  "}, "name"},
		{"lower-case first letter", model.Category{Name: "bebidas"}, "name"},
		{"name too long", model.Category{Name: "B" + strings.Repeat("x", 80)}, "name"},
		{"image url too long", model.Category{Name: "Bebidas", ImageURL: strings.Repeat("u", 301)}, "image_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCategory(ctx, tc.in)
			require.ErrorIs(t, err, service.ErrInvalidInput)
			assert.Contains(t, fields(err), tc.wantField)
		})
	}

	out, err := svc.CreateCategory(ctx, model.Category{ID: 99, Name: "Ãgua mineral", ImageURL: "agua.png"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ID, "client ids are ignored on create")
}

func TestCategoryService_ListEmptyIsNotFound(t *testing.T) {
	svc, _ := newCategoryService(t, nil, nil)
	_, err := svc.ListCategories(context.Background())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCategoryService_ListIsCachedAndInvalidatedOnCreate(t *testing.T) {
	obs := newObserver()
	svc, _ := newCategoryService(t, nil, obs)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, model.Category{Name: "Bebidas"})
	require.NoError(t, err)

	first, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	_, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, obs.misses["categories"])
	assert.Equal(t, 1, obs.hits["categories"])

	_, err = svc.CreateCategory(ctx, model.Category{Name: "Lanches"})
	require.NoError(t, err)
	after, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 2, "create evicts the list entry")
	assert.Equal(t, 2, obs.misses["categories"])
}

func TestCategoryService_GetPrimedByCreate(t *testing.T) {
	obs := newObserver()
	svc, _ := newCategoryService(t, nil, obs)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, model.Category{Name: "Bebidas"})
	require.NoError(t, err)

	got, err := svc.GetCategory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, 1, obs.hits["category"])
	assert.Zero(t, obs.misses["category"])

	_, err = svc.GetCategory(ctx, 0)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = svc.GetCategory(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCategoryService_UpdateAndDelete(t *testing.T) {
	svc, _ := newCategoryService(t, nil, nil)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, model.Category{Name: "Bebidas"})
	require.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, c.ID+1, model.Category{ID: c.ID, Name: "Drinks"})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Contains(t, fields(err), "id")

	c.Name = "Drinks"
	updated, err := svc.UpdateCategory(ctx, c.ID, c)
	require.NoError(t, err)
	assert.Equal(t, "Drinks", updated.Name)

	got, err := svc.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drinks", got.Name, "update refreshes the item cache")

	deleted, err := svc.DeleteCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drinks", deleted.Name)

	_, err = svc.GetCategory(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "delete evicts the item cache")
	_, err = svc.DeleteCategory(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCategoryService_CacheFailuresDoNotFailRequests(t *testing.T) {
	svc, _ := newCategoryService(t, brokenStore{}, nil)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, model.Category{Name: "Bebidas"})
	require.NoError(t, err)
	_, err = svc.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = svc.DeleteCategory(ctx, c.ID)
	require.NoError(t, err)
}

func TestCategoryService_PageByName(t *testing.T) {
	svc, _ := newCategoryService(t, nil, nil)
	ctx := context.Background()
	for _, n := range []string{"Bebidas", "Lanches", "Sobremesas", "Bebidas quentes"} {
		_, err := svc.CreateCategory(ctx, model.Category{Name: n})
		require.NoError(t, err)
	}

	res, err := svc.PageCategoriesByName(ctx, " bebidas ", pagination.NewRequest(1, 1))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Bebidas", res.Items[0].Name)
	assert.Equal(t, 2, res.Metadata.TotalCount)
	assert.True(t, res.Metadata.HasNext)

	all, err := svc.PageCategories(ctx, pagination.NewRequest(2, 3))
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	assert.Equal(t, "Bebidas quentes", all.Items[0].Name)
	assert.False(t, all.Metadata.HasNext)
}

func TestCategoryService_ListWithProducts(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)
	categories := memory.NewCategoryRepository(st)
	products := memory.NewProductRepository(st)
	svc := service.NewCategoryService(categories, cache.NewMemoryStore(cache.Policy{Absolute: time.Minute}), nil, zerolog.New(io.Discard))

	empty, err := svc.ListCategoriesWithProducts(ctx)
	require.NoError(t, err, "an empty catalogue is an empty list")
	assert.Empty(t, empty)

	bebidas, err := categories.Create(ctx, model.Category{Name: "Bebidas"})
	require.NoError(t, err)
	_, err = categories.Create(ctx, model.Category{Name: "Lanches"})
	require.NoError(t, err)
	for _, price := range []float64{5.45, 8.9} {
		p := validProduct(bebidas.ID)
		p.Price = price
		_, err := products.Create(ctx, p)
		require.NoError(t, err)
	}

	out, err := svc.ListCategoriesWithProducts(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Bebidas", out[0].Name)
	require.Len(t, out[0].Products, 2)
	assert.Less(t, out[0].Products[0].ID, out[0].Products[1].ID)
	assert.Equal(t, "Lanches", out[1].Name)
	assert.NotNil(t, out[1].Products)
	assert.Empty(t, out[1].Products)
}
