package repository

import (
	"github.com/maxviazov/catalog-service/internal/filter"
	"github.com/maxviazov/catalog-service/internal/pagination"
)

// CategoryQuery selects a page of categories. An empty Name matches every category.
type CategoryQuery struct {
	Name string
	Page pagination.Request
}

// ProductQuery selects a page of products. A nil Price or filter.None disables the price filter.
type ProductQuery struct {
	Price      *float64
	Comparison filter.Comparison
	Page       pagination.Request
}

// PriceFiltered reports whether the query narrows products by price.
func (q ProductQuery) PriceFiltered() bool {
	return q.Price != nil && q.Comparison != filter.None
}
