package repositories_test

import (
	"testing"
	"time"

	"gerai/internal/models"
	"gerai/internal/repositories"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestMockProductRepository(t *testing.T) {
	repo := repositories.NewMockProductRepository()

	products := []models.Product{
		{Name: "Laptop", Category: "electronics", Price: 1200, Stock: 10, IsAvailable: true},
		{Name: "Mechanical Keyboard", Category: "accessories", Price: 75, Stock: 25, IsAvailable: true},
		{Name: "Wireless Mouse", Category: "accessories", Price: 25, Stock: 50, IsAvailable: false},
	}
	for i := range products {
		assert.NoError(t, repo.Create(&products[i]))
		assert.NotEmpty(t, products[i].ID, "Create assigns an ID when missing")
	}

	all, err := repo.GetAll()
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	t.Run("filter by category", func(t *testing.T) {
		got, err := repo.Filter(repositories.ProductFilter{Category: "accessories"})
		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("filter by price range and availability", func(t *testing.T) {
		got, err := repo.Filter(repositories.ProductFilter{
			MinPrice:  floatPtr(20),
			MaxPrice:  floatPtr(100),
			Available: boolPtr(true),
		})
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "Mechanical Keyboard", got[0].Name)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		got, err := repo.Filter(repositories.ProductFilter{Search: "mouse"})
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "Wireless Mouse", got[0].Name)
	})

	t.Run("get, update, delete", func(t *testing.T) {
		fetched, err := repo.GetByID(products[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, "Laptop", fetched.Name)

		fetched.Stock = 7
		assert.NoError(t, repo.Update(fetched))
		again, err := repo.GetByID(products[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, 7, again.Stock)

		assert.NoError(t, repo.Delete(products[0].ID))
		_, err = repo.GetByID(products[0].ID)
		assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	})

	t.Run("missing products wrap the sentinel", func(t *testing.T) {
		_, err := repo.GetByID("no-such-product")
		assert.ErrorIs(t, err, repositories.ErrProductNotFound)
		assert.ErrorIs(t, repo.Update(&models.Product{ID: "no-such-product"}), repositories.ErrProductNotFound)
		assert.ErrorIs(t, repo.Delete("no-such-product"), repositories.ErrProductNotFound)
	})
}

func TestMockOrderRepository(t *testing.T) {
	repo := repositories.NewMockOrderRepository()

	first := models.Order{UserID: "user-1", Status: models.StatusPending, Total: 10}
	assert.NoError(t, repo.Create(&first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	// Give the second order a strictly later timestamp.
	time.Sleep(2 * time.Millisecond)
	second := models.Order{UserID: "user-1", Status: models.StatusPending, Total: 20}
	assert.NoError(t, repo.Create(&second))
	third := models.Order{UserID: "user-2", Status: models.StatusPending, Total: 30}
	assert.NoError(t, repo.Create(&third))

	t.Run("listings are newest first", func(t *testing.T) {
		all, err := repo.GetAll()
		assert.NoError(t, err)
		assert.Len(t, all, 3)
		assert.True(t, !all[0].CreatedAt.Before(all[len(all)-1].CreatedAt))

		mine, err := repo.GetAllByUser("user-1")
		assert.NoError(t, err)
		assert.Len(t, mine, 2)
		assert.Equal(t, second.ID, mine[0].ID)
		assert.Equal(t, first.ID, mine[1].ID)
	})

	t.Run("save refreshes UpdatedAt", func(t *testing.T) {
		order, err := repo.GetByID(first.ID)
		assert.NoError(t, err)
		before := order.UpdatedAt

		time.Sleep(2 * time.Millisecond)
		order.Status = models.StatusProcessing
		assert.NoError(t, repo.Save(order))
		assert.True(t, order.UpdatedAt.After(before))

		stored, err := repo.GetByID(first.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, stored.Status)
	})

	t.Run("unknown orders wrap the sentinel", func(t *testing.T) {
		_, err := repo.GetByID("no-such-order")
		assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
		assert.ErrorIs(t, repo.Save(&models.Order{ID: "no-such-order"}), repositories.ErrOrderNotFound)
	})
}
