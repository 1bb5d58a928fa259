package repositories

import (
	"gerai/internal/models"
)

// ProductFilter narrows catalog listings. Zero values mean "no constraint".
type ProductFilter struct {
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	Available *bool
	Search    string
}

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	Filter(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
