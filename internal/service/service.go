// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// Auth failures. Repository sentinels (not found, already exists, conflict) pass through unchanged.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers a bad access/refresh token pair presented for refresh.
	ErrInvalidToken = errors.New("invalid access token/refresh token")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// InvalidField is a single-field validation error for callers outside the package (handlers parsing paths).
func InvalidField(field, message string) error {
	return newInvalidInput([]FieldError{{Field: field, Message: message}})
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var v interface{ Fields() []FieldError }
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// CategoryService defines category use cases.
type CategoryService interface {
	// ListCategories returns every category; an empty catalogue is repository.ErrNotFound.
	ListCategories(ctx context.Context) ([]model.Category, error)
	// ListCategoriesWithProducts returns every category with its products; it is never cached.
	ListCategoriesWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error)
	PageCategories(ctx context.Context, page pagination.Request) (pagination.Result[model.Category], error)
	PageCategoriesByName(ctx context.Context, name string, page pagination.Request) (pagination.Result[model.Category], error)
	GetCategory(ctx context.Context, id int64) (model.Category, error)
	CreateCategory(ctx context.Context, c model.Category) (model.Category, error)
	// UpdateCategory replaces category id; c.ID must equal id.
	UpdateCategory(ctx context.Context, id int64, c model.Category) (model.Category, error)
	DeleteCategory(ctx context.Context, id int64) (model.Category, error)
}

// ProductService defines product use cases.
type ProductService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	PageProducts(ctx context.Context, page pagination.Request) (pagination.Result[model.Product], error)
	// PageProductsByPrice filters by price using criterion (greater, less, equal).
	// A nil price or an unknown criterion leaves the products unfiltered.
	PageProductsByPrice(ctx context.Context, price *float64, criterion string, page pagination.Request) (pagination.Result[model.Product], error)
	GetProduct(ctx context.Context, id int64) (model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) (model.Product, error)
	PatchProduct(ctx context.Context, id int64, patch model.ProductPatchRequest) (model.Product, error)
	UpdateProduct(ctx context.Context, id int64, p model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (model.Product, error)
}

// AuthService defines account and token use cases.
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error)
	Refresh(ctx context.Context, req model.RefreshRequest) (model.TokenPair, error)
	Revoke(ctx context.Context, username string) error
	CreateRole(ctx context.Context, name string) error
	AddUserToRole(ctx context.Context, email, role string) error
}
