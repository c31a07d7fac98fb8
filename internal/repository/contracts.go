package repository

import (
	"context"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
)

// Pinger represents a minimal readiness probe capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// WithinReadTx runs fn over one consistent snapshot and rejects writes where the backend can.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
	WithinReadTx(ctx context.Context, fn TxFunc) error
}

// CategoryRepository declares persistence operations for categories.
// Page results are ordered by id.
type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	// ListWithProducts returns every category by id, each with its products by id.
	ListWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error)
	Page(ctx context.Context, q CategoryQuery) (pagination.Result[model.Category], error)
	GetByID(ctx context.Context, id int64) (model.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) (model.Category, error)
	// Delete removes the category and returns it as it was stored.
	Delete(ctx context.Context, id int64) (model.Category, error)
}

// ProductRepository declares persistence operations for products.
// Unfiltered pages are ordered by id; price-filtered pages by price, then id.
type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	Page(ctx context.Context, q ProductQuery) (pagination.Result[model.Product], error)
	GetByID(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) (model.Product, error)
	Delete(ctx context.Context, id int64) (model.Product, error)
}

// UserRepository stores accounts and the role catalogue.
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// Update rewrites the mutable account fields: roles and the refresh token.
	Update(ctx context.Context, u model.User) (model.User, error)
	RoleExists(ctx context.Context, name string) (bool, error)
	CreateRole(ctx context.Context, name string) error
}
