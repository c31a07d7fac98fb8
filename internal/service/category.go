package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/maxviazov/catalog-service/internal/cache"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
	"github.com/rs/zerolog"
)

const categoriesAllKey = "categories:all"

func categoryKey(id int64) string { return "categories:" + strconv.FormatInt(id, 10) }

// categoryService reads through the cache for ListCategories and GetCategory.
// Cache failures are logged and never fail the call.
type categoryService struct {
	repo  repository.CategoryRepository
	list  *cache.Typed[[]model.Category]
	items *cache.Typed[model.Category]
	log   zerolog.Logger
}

func NewCategoryService(repo repository.CategoryRepository, store cache.Store, obs cache.Observer, logger zerolog.Logger) CategoryService {
	l := logger.With().Str("module", "service").Str("component", "category").Logger()
	return &categoryService{
		repo:  repo,
		list:  cache.NewTyped[[]model.Category](store, "categories", obs),
		items: cache.NewTyped[model.Category](store, "category", obs),
		log:   l,
	}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	if cached, ok, err := s.list.Get(ctx, categoriesAllKey); err != nil {
		s.log.Warn().Err(err).Str("key", categoriesAllKey).Msg("category list cache read failed")
	} else if ok {
		return cached, nil
	}

	out, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list categories failed")
		return nil, err
	}
	if len(out) == 0 {
		return nil, repository.ErrNotFound
	}
	if err := s.list.Set(ctx, categoriesAllKey, out); err != nil {
		s.log.Warn().Err(err).Str("key", categoriesAllKey).Msg("category list cache write failed")
	}
	return out, nil
}

func (s *categoryService) ListCategoriesWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error) {
	start := time.Now()
	out, err := s.repo.ListWithProducts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list categories with products failed")
		return nil, err
	}
	s.log.Debug().Int("categories", len(out)).Dur("took", time.Since(start)).Msg("categories with products listed")
	return out, nil
}

func (s *categoryService) PageCategories(ctx context.Context, page pagination.Request) (pagination.Result[model.Category], error) {
	return s.page(ctx, repository.CategoryQuery{Page: page})
}

func (s *categoryService) PageCategoriesByName(ctx context.Context, name string, page pagination.Request) (pagination.Result[model.Category], error) {
	return s.page(ctx, repository.CategoryQuery{Name: strings.TrimSpace(name), Page: page})
}

func (s *categoryService) page(ctx context.Context, q repository.CategoryQuery) (pagination.Result[model.Category], error) {
	res, err := s.repo.Page(ctx, q)
	if err != nil {
		s.log.Error().Err(err).Str("name", q.Name).Int("page", q.Page.PageNumber).Int("size", q.Page.PageSize).Msg("page categories failed")
		return pagination.Result[model.Category]{}, err
	}
	return res, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, InvalidField("id", "must be > 0")
	}
	key := categoryKey(id)
	if cached, ok, err := s.items.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("category cache read failed")
	} else if ok {
		return cached, nil
	}

	out, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	s.setItem(ctx, out)
	return out, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	start := time.Now()
	c.ID = 0
	c.Name = strings.TrimSpace(c.Name)
	c.ImageURL = strings.TrimSpace(c.ImageURL)
	if err := newInvalidInput(validateCategory(c)); err != nil {
		s.log.Debug().Str("name", c.Name).Interface("field_errors", FieldErrors(err)).Msg("category validation failed")
		return model.Category{}, err
	}

	out, err := s.repo.Create(ctx, c)
	if err != nil {
		s.log.Error().Err(err).Str("name", c.Name).Msg("create category failed")
		return model.Category{}, err
	}
	s.evict(ctx, categoriesAllKey)
	s.setItem(ctx, out)
	s.log.Info().Dur("took", time.Since(start)).Int64("category_id", out.ID).Msg("category created")
	return out, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id int64, c model.Category) (model.Category, error) {
	start := time.Now()
	var ferrs []FieldError
	if id <= 0 || c.ID != id {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must match the path id"})
	}
	c.Name = strings.TrimSpace(c.Name)
	c.ImageURL = strings.TrimSpace(c.ImageURL)
	ferrs = append(ferrs, validateCategory(c)...)
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Int64("id", id).Interface("field_errors", ferrs).Msg("category validation failed")
		return model.Category{}, err
	}

	out, err := s.repo.Update(ctx, c)
	if err != nil {
		s.log.Error().Err(err).Int64("category_id", id).Msg("update category failed")
		return model.Category{}, err
	}
	s.evict(ctx, categoriesAllKey)
	s.setItem(ctx, out)
	s.log.Info().Dur("took", time.Since(start)).Int64("category_id", out.ID).Msg("category updated")
	return out, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id int64) (model.Category, error) {
	start := time.Now()
	if id <= 0 {
		return model.Category{}, InvalidField("id", "must be > 0")
	}
	out, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("category_id", id).Msg("delete category failed")
		return model.Category{}, err
	}
	s.evict(ctx, categoriesAllKey, categoryKey(id))
	s.log.Info().Dur("took", time.Since(start)).Int64("category_id", id).Msg("category deleted")
	return out, nil
}

func (s *categoryService) setItem(ctx context.Context, c model.Category) {
	if err := s.items.Set(ctx, categoryKey(c.ID), c); err != nil {
		s.log.Warn().Err(err).Int64("category_id", c.ID).Msg("category cache write failed")
	}
}

func (s *categoryService) evict(ctx context.Context, keys ...string) {
	if err := s.list.Delete(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("category cache eviction failed")
	}
}
