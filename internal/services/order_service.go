package services

import (
	"fmt"
	"log"

	"gerai/internal/models"
	"gerai/internal/notifications"
	"gerai/internal/repositories"

	"github.com/google/uuid"
)

// OrderItemRequest is one requested line of a new order. The price is never
// taken from the caller; it is resolved from the catalog at creation time.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// OrderService is the order engine: it validates line items against the
// catalog, computes totals, persists orders and drives them through the
// status lifecycle, fanning out notifications on every transition.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	dispatcher  *notifications.Dispatcher
}

// NewOrderService creates a new OrderService. dispatcher may be nil, in
// which case status changes are persisted without notifications.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository, dispatcher *notifications.Dispatcher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
	}
}

// CreateOrder validates the requested items against the catalog and persists
// a new pending order, or fails without persisting anything.
//
// Items are checked strictly in input order and the first failing item aborts
// the whole call, so totals are deterministic and the reported error always
// names the earliest offender. Stock is read as a point-in-time admission
// test only; the catalog counter is not decremented or reserved here, so two
// concurrent calls can both pass a check that only one of them can satisfy.
func (s *OrderService) CreateOrder(userID string, items []OrderItemRequest) (*models.Order, error) {
	var total float64
	orderItems := make([]models.OrderItem, 0, len(items))

	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}

		if !product.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}

		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("%w for product %s (requested: %d, available: %d)", ErrInsufficientStock, product.Name, item.Quantity, product.Stock)
		}

		// Snapshot the catalog price so the order keeps the price that
		// was actually charged, whatever the catalog does later.
		subtotal := product.Price * float64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     product.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	newOrder := &models.Order{
		ID:     uuid.New().String(),
		UserID: userID,
		Items:  orderItems,
		Total:  total,
		Status: models.StatusPending,
	}

	if err := s.orderRepo.Create(newOrder); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	log.Printf("Order %s created by user %s (total: %.2f)", newOrder.ID, userID, total)
	return newOrder, nil
}

// GetOrders retrieves orders newest first. An empty userID returns every
// order; otherwise only that user's orders are returned.
func (s *OrderService) GetOrders(userID string) ([]models.Order, error) {
	if userID == "" {
		return s.orderRepo.GetAll()
	}
	return s.orderRepo.GetAllByUser(userID)
}

// GetOrder retrieves a single order by its ID. A non-empty userID restricts
// visibility to that user's own orders; anyone else's order is reported as
// not found rather than forbidden.
func (s *OrderService) GetOrder(id string, userID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if userID != "" && order.UserID != userID {
		return nil, fmt.Errorf("%w: %s", repositories.ErrOrderNotFound, id)
	}
	return order, nil
}

// UpdateOrderStatus moves an order to newStatus if the transition table
// allows it, persists the change and dispatches notifications. Notification
// failures never surface here; once the new status is saved the call
// succeeds and returns the updated order.
func (s *OrderService) UpdateOrderStatus(id string, newStatus models.OrderStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("%w: cannot transition order %s from %q to %q", ErrIllegalTransition, id, order.Status, newStatus)
	}

	order.Status = newStatus
	if err := s.orderRepo.Save(order); err != nil {
		return nil, fmt.Errorf("failed to update status for order %s: %w", id, err)
	}

	if s.dispatcher != nil {
		s.dispatcher.OrderStatusChanged(order, s.ownerEmail(order))
	}

	log.Printf("Order %s status updated to %s", id, newStatus)
	return order, nil
}

// ownerEmail resolves the order owner's email address, preferring the
// expanded relation over a user lookup. Returns "" when no address is known.
func (s *OrderService) ownerEmail(order *models.Order) string {
	if order.User != nil {
		return order.User.Email
	}
	if s.userRepo != nil {
		user, err := s.userRepo.GetByID(order.UserID)
		if err != nil {
			log.Printf("Warning: could not resolve owner of order %s: %v", order.ID, err)
			return ""
		}
		return user.Email
	}
	return ""
}
