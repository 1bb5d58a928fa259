package repositories

import (
	"gerai/internal/models"
)

// OrderRepository defines the interface for order data access.
//
// Create persists an order together with all of its items as a single unit;
// either everything is stored or nothing is. Save upserts an existing order
// (used for status changes) and refreshes its updated-at timestamp.
// Lookups return orders with their user and items (and item products)
// expanded, newest orders first.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetAllByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Save(order *models.Order) error
}
