package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gerai/internal/models"
	"gerai/internal/repositories"

	"github.com/redis/go-redis/v9"
)

// productCacheTTL bounds the staleness of cached catalog reads.
const productCacheTTL = 5 * time.Minute

// ProductService handles business logic related to the product catalog.
// Reads are optionally served from a Redis cache; the order engine reads
// the repository directly so stock checks never see a cached counter.
type ProductService struct {
	repo  repositories.ProductRepository
	cache *redis.Client
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// SetCacheClient enables read caching through the given Redis client.
func (s *ProductService) SetCacheClient(client *redis.Client) {
	s.cache = client
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.FilterProducts(repositories.ProductFilter{})
}

// FilterProducts retrieves products matching the filter. Filtered listings
// are cached per filter; mutations rely on the short TTL to age them out.
func (s *ProductService) FilterProducts(filter repositories.ProductFilter) ([]models.Product, error) {
	cacheKey := listCacheKey(filter)

	if s.cache != nil {
		if cached, err := s.cache.Get(context.Background(), cacheKey).Result(); err == nil {
			var products []models.Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.repo.Filter(filter)
	if err != nil {
		return nil, err
	}

	s.cacheSet(cacheKey, products)
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	cacheKey := "product:" + id

	if s.cache != nil {
		if cached, err := s.cache.Get(context.Background(), cacheKey).Result(); err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(cached), &product); err == nil {
				return &product, nil
			}
		}
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(cacheKey, product)
	return product, nil
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := s.repo.Update(product); err != nil {
		return err
	}
	s.cacheInvalidate(product.ID)
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.cacheInvalidate(id)
	return nil
}

func (s *ProductService) cacheSet(key string, v interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(context.Background(), key, data, productCacheTTL).Err(); err != nil {
		log.Printf("Warning: failed to cache %s: %v", key, err)
	}
}

func (s *ProductService) cacheInvalidate(id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(context.Background(), "product:"+id).Err(); err != nil {
		log.Printf("Warning: failed to invalidate cache for product %s: %v", id, err)
	}
}

func listCacheKey(filter repositories.ProductFilter) string {
	data, err := json.Marshal(filter)
	if err != nil {
		return "products:all"
	}
	return fmt.Sprintf("products:%s", data)
}
