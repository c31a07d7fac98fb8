// Package model holds the catalog entities and the request and response shapes of the API.
package model

import "time"

// Category groups products in the catalog.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// Product is a sellable catalog item that belongs to a category.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"image_url"`
	Stock        float64   `json:"stock"`
	RegisteredAt time.Time `json:"registered_at"`
	CategoryID   int64     `json:"category_id"`
}

// CategoryWithProducts is a category together with the products filed under it.
type CategoryWithProducts struct {
	Category
	Products []Product `json:"products"`
}

// User is an API account. PasswordHash and RefreshToken never leave the service layer.
type User struct {
	ID                    int64     `json:"id"`
	Username              string    `json:"username"`
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"-"`
	Roles                 []string  `json:"roles"`
	RefreshToken          string    `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
}

// HasRole reports whether the user carries role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
