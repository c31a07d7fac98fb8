package service

import (
	"context"
	"strings"
	"time"

	"github.com/maxviazov/catalog-service/internal/filter"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
	"github.com/rs/zerolog"
)

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	log        zerolog.Logger
	now        func() time.Time
}

func NewProductService(repo repository.ProductRepository, categories repository.CategoryRepository, logger zerolog.Logger) ProductService {
	l := logger.With().Str("module", "service").Str("component", "product").Logger()
	return &productService{repo: repo, categories: categories, log: l, now: time.Now}
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list products failed")
		return nil, err
	}
	if len(out) == 0 {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (s *productService) PageProducts(ctx context.Context, page pagination.Request) (pagination.Result[model.Product], error) {
	return s.page(ctx, repository.ProductQuery{Page: page})
}

func (s *productService) PageProductsByPrice(ctx context.Context, price *float64, criterion string, page pagination.Request) (pagination.Result[model.Product], error) {
	q := repository.ProductQuery{Page: page}
	if cmp, ok := filter.ParseComparison(criterion); ok && price != nil {
		v := *price
		q.Price = &v
		q.Comparison = cmp
	} else if criterion != "" {
		s.log.Debug().Str("criterion", criterion).Msg("unknown price criterion, returning unfiltered page")
	}
	return s.page(ctx, q)
}

func (s *productService) page(ctx context.Context, q repository.ProductQuery) (pagination.Result[model.Product], error) {
	res, err := s.repo.Page(ctx, q)
	if err != nil {
		s.log.Error().Err(err).Stringer("criterion", q.Comparison).Int("page", q.Page.PageNumber).Int("size", q.Page.PageSize).Msg("page products failed")
		return pagination.Result[model.Product]{}, err
	}
	return res, nil
}

func (s *productService) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, InvalidField("id", "must be > 0")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *productService) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	start := time.Now()
	p.ID = 0
	p.Name = strings.TrimSpace(p.Name)
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = s.now().UTC()
	}
	if err := s.validate(ctx, p, nil); err != nil {
		return model.Product{}, err
	}

	out, err := s.repo.Create(ctx, p)
	if err != nil {
		s.log.Error().Err(err).Str("name", p.Name).Msg("create product failed")
		return model.Product{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("product_id", out.ID).Msg("product created")
	return out, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id int64, p model.Product) (model.Product, error) {
	start := time.Now()
	var ferrs []FieldError
	if id <= 0 || p.ID != id {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must match the path id"})
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := s.validate(ctx, p, ferrs); err != nil {
		return model.Product{}, err
	}

	out, err := s.repo.Update(ctx, p)
	if err != nil {
		s.log.Error().Err(err).Int64("product_id", id).Msg("update product failed")
		return model.Product{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("product_id", out.ID).Msg("product updated")
	return out, nil
}

// PatchProduct applies the non-nil fields of patch to the stored product.
func (s *productService) PatchProduct(ctx context.Context, id int64, patch model.ProductPatchRequest) (model.Product, error) {
	start := time.Now()
	if id <= 0 {
		return model.Product{}, InvalidField("id", "must be > 0")
	}
	if ferrs := validatePatch(patch, s.now()); len(ferrs) > 0 {
		s.log.Debug().Int64("product_id", id).Interface("field_errors", ferrs).Msg("product patch validation failed")
		return model.Product{}, newInvalidInput(ferrs)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	out, err := s.repo.Update(ctx, patch.ApplyTo(current))
	if err != nil {
		s.log.Error().Err(err).Int64("product_id", id).Msg("patch product failed")
		return model.Product{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("product_id", id).Msg("product patched")
	return out, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, InvalidField("id", "must be > 0")
	}
	out, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("product_id", id).Msg("delete product failed")
		return model.Product{}, err
	}
	s.log.Info().Int64("product_id", id).Msg("product deleted")
	return out, nil
}

// validate merges field rules with the category existence check.
func (s *productService) validate(ctx context.Context, p model.Product, ferrs []FieldError) error {
	ferrs = append(ferrs, validateProduct(p)...)
	if p.CategoryID > 0 {
		ok, err := s.categories.Exists(ctx, p.CategoryID)
		if err != nil {
			s.log.Error().Err(err).Int64("category_id", p.CategoryID).Msg("category lookup failed")
			return err
		}
		if !ok {
			ferrs = append(ferrs, FieldError{Field: "category_id", Message: "category does not exist"})
		}
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Str("name", p.Name).Interface("field_errors", ferrs).Msg("product validation failed")
		return err
	}
	return nil
}
