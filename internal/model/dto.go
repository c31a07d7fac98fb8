package model

import "time"

// CategoryDTO is the transport shape of a category.
type CategoryDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// CategoryWithProductsDTO nests the products of a category.
type CategoryWithProductsDTO struct {
	CategoryDTO
	Products []ProductDTO `json:"products"`
}

// ProductDTO is the transport shape of a product.
type ProductDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"image_url"`
	Stock        float64   `json:"stock"`
	RegisteredAt time.Time `json:"registered_at"`
	CategoryID   int64     `json:"category_id"`
}

// ProductPatchRequest is a merge patch: nil fields are left untouched.
type ProductPatchRequest struct {
	Stock        *float64   `json:"stock,omitempty"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

// ProductPatchResponse echoes the product after a patch.
type ProductPatchResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"image_url"`
	Stock        float64   `json:"stock"`
	RegisteredAt time.Time `json:"registered_at"`
	CategoryID   int64     `json:"category_id"`
}

func CategoryToDTO(c Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL}
}

func CategoryFromDTO(d CategoryDTO) Category {
	return Category{ID: d.ID, Name: d.Name, ImageURL: d.ImageURL}
}

// CategoriesToDTO never returns nil so empty lists encode as [].
func CategoriesToDTO(cs []Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, CategoryToDTO(c))
	}
	return out
}

// CategoriesWithProductsToDTO keeps empty product lists as [] rather than null.
func CategoriesWithProductsToDTO(cs []CategoryWithProducts) []CategoryWithProductsDTO {
	out := make([]CategoryWithProductsDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, CategoryWithProductsDTO{CategoryDTO: CategoryToDTO(c.Category), Products: ProductsToDTO(c.Products)})
	}
	return out
}

func ProductToDTO(p Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		ImageURL:     p.ImageURL,
		Stock:        p.Stock,
		RegisteredAt: p.RegisteredAt,
		CategoryID:   p.CategoryID,
	}
}

func ProductFromDTO(d ProductDTO) Product {
	return Product{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Price:        d.Price,
		ImageURL:     d.ImageURL,
		Stock:        d.Stock,
		RegisteredAt: d.RegisteredAt,
		CategoryID:   d.CategoryID,
	}
}

// ProductsToDTO never returns nil so empty lists encode as [].
func ProductsToDTO(ps []Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, ProductToDTO(p))
	}
	return out
}

func ProductToPatchResponse(p Product) ProductPatchResponse {
	return ProductPatchResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		ImageURL:     p.ImageURL,
		Stock:        p.Stock,
		RegisteredAt: p.RegisteredAt,
		CategoryID:   p.CategoryID,
	}
}

// ApplyTo returns p with the non-nil patch fields applied.
func (r ProductPatchRequest) ApplyTo(p Product) Product {
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.RegisteredAt != nil {
		p.RegisteredAt = *r.RegisteredAt
	}
	return p
}

// LoginRequest carries credentials for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest carries a new account for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	Expiration   time.Time `json:"expiration"`
}

// RefreshRequest exchanges an expired access token plus refresh token for a new pair.
type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RoleAssignment adds a user (by e-mail) to a role.
type RoleAssignment struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// StatusMessage is the envelope of auth administration endpoints.
type StatusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
