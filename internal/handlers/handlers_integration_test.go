package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"gerai/internal/handlers"
	"gerai/internal/middleware"
	"gerai/internal/models"
	"gerai/internal/notifications"
	"gerai/internal/repositories"
	"gerai/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingBroadcaster collects every broadcast update for assertions.
type recordingBroadcaster struct {
	updates []notifications.StatusUpdate
}

func (b *recordingBroadcaster) BroadcastJSON(v interface{}) error {
	if update, ok := v.(notifications.StatusUpdate); ok {
		b.updates = append(b.updates, update)
	}
	return nil
}

// failingMailer always fails, proving email trouble never surfaces to callers.
type failingMailer struct {
	attempts int
}

func (m *failingMailer) SendStatusUpdate(to, orderID, status string) error {
	m.attempts++
	return fmt.Errorf("smtp unreachable")
}

type testEnv struct {
	app         *fiber.App
	productRepo repositories.ProductRepository
	broadcaster *recordingBroadcaster
	mailer      *failingMailer
}

// setupApp wires a full application against a fresh in-memory SQLite
// database. dbName isolates databases between tests.
func setupApp(t *testing.T, dbName string) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	broadcaster := &recordingBroadcaster{}
	mailer := &failingMailer{}
	dispatcher := notifications.NewDispatcher(broadcaster, mailer)

	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, dispatcher)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)

	return &testEnv{
		app:         app,
		productRepo: productRepo,
		broadcaster: broadcaster,
		mailer:      mailer,
	}
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// registerAndLogin creates a user through the API and returns a token.
func registerAndLogin(t *testing.T, app *fiber.App, username, email string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	decode(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func seedCatalog(t *testing.T, repo repositories.ProductRepository) {
	t.Helper()
	products := []models.Product{
		{ID: "prod-a", Name: "Product A", Category: "electronics", Price: 10.00, Stock: 5, IsAvailable: true},
		{ID: "prod-b", Name: "Product B", Category: "accessories", Price: 5.00, Stock: 3, IsAvailable: true},
		{ID: "prod-scarce", Name: "Scarce Product", Category: "electronics", Price: 99.00, Stock: 1, IsAvailable: true},
		{ID: "prod-retired", Name: "Retired Product", Category: "electronics", Price: 20.00, Stock: 10, IsAvailable: false},
	}
	for i := range products {
		assert.NoError(t, repo.Create(&products[i]))
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t, "auth_test")

	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp map[string]interface{}
	decode(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])

	// Duplicate registration conflicts.
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	decode(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])
}

func TestEndpointsRequireAuth(t *testing.T) {
	env := setupApp(t, "noauth_test")

	for _, path := range []string{"/api/v1/products", "/api/v1/orders"} {
		resp := doJSON(t, env.app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "GET %s without token", path)
		resp.Body.Close()
	}

	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/orders", "", map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-a", "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProductEndpoints(t *testing.T) {
	env := setupApp(t, "products_test")
	seedCatalog(t, env.productRepo)
	token := registerAndLogin(t, env.app, "shopper", "shopper@example.com")

	// List everything.
	resp := doJSON(t, env.app, http.MethodGet, "/api/v1/products", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decode(t, resp, &products)
	assert.Len(t, products, 4)

	// Filtered listing.
	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/products?category=electronics&available=true&min_price=50", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &products)
	assert.Len(t, products, 1)
	assert.Equal(t, "prod-scarce", products[0].ID)

	// Create, fetch, update, delete.
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name":         "Smartphone",
		"description":  "Latest model smartphone",
		"category":     "electronics",
		"price":        799.99,
		"stock":        50,
		"is_available": true,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decode(t, resp, &created)
	assert.NotEmpty(t, created.ID)

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	decode(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)

	resp = doJSON(t, env.app, http.MethodDelete, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderLifecycle(t *testing.T) {
	env := setupApp(t, "lifecycle_test")
	seedCatalog(t, env.productRepo)
	token := registerAndLogin(t, env.app, "buyer", "buyer@example.com")

	// Place an order: 2 x Product A (10.00) + 1 x Product B (5.00).
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": "prod-a", "quantity": 2},
			{"product_id": "prod-b", "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	decode(t, resp, &order)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 25.00, order.Total)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "prod-a", order.Items[0].ProductID)
	assert.Equal(t, 20.00, order.Items[0].Subtotal)

	// The order shows up in the owner's listing and by id.
	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decode(t, resp, &orders)
	assert.Len(t, orders, 1)

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders/"+order.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Walk the full lifecycle. The mailer always fails, yet every
	// transition must succeed.
	for _, status := range []models.OrderStatus{
		models.StatusProcessing,
		models.StatusShipped,
		models.StatusDelivered,
	} {
		resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", token, map[string]string{
			"status": string(status),
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode, "transition to %s", status)
		var updated models.Order
		decode(t, resp, &updated)
		assert.Equal(t, status, updated.Status)
	}

	// Each transition was broadcast with the right order and status.
	assert.Len(t, env.broadcaster.updates, 3)
	assert.Equal(t, order.ID, env.broadcaster.updates[0].OrderID)
	assert.Equal(t, models.StatusProcessing, env.broadcaster.updates[0].Status)
	assert.Equal(t, models.StatusDelivered, env.broadcaster.updates[2].Status)
	assert.Equal(t, 3, env.mailer.attempts)

	// Delivered is terminal.
	resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", token, map[string]string{
		"status": "processing",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderCreationFailures(t *testing.T) {
	env := setupApp(t, "failures_test")
	seedCatalog(t, env.productRepo)
	token := registerAndLogin(t, env.app, "buyer2", "buyer2@example.com")

	cases := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "empty item list",
			body:       map[string]interface{}{"items": []map[string]interface{}{}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "non-positive quantity",
			body: map[string]interface{}{
				"items": []map[string]interface{}{{"product_id": "prod-a", "quantity": 0}},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown product",
			body: map[string]interface{}{
				"items": []map[string]interface{}{{"product_id": "prod-nope", "quantity": 1}},
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "unavailable product",
			body: map[string]interface{}{
				"items": []map[string]interface{}{{"product_id": "prod-retired", "quantity": 1}},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "insufficient stock",
			body: map[string]interface{}{
				"items": []map[string]interface{}{{"product_id": "prod-scarce", "quantity": 2}},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "valid item after failing item still aborts",
			body: map[string]interface{}{
				"items": []map[string]interface{}{
					{"product_id": "prod-scarce", "quantity": 2},
					{"product_id": "prod-a", "quantity": 1},
				},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, env.app, http.MethodPost, "/api/v1/orders", token, tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			resp.Body.Close()
		})
	}

	// Nothing was persisted by any failed attempt.
	resp := doJSON(t, env.app, http.MethodGet, "/api/v1/orders", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decode(t, resp, &orders)
	assert.Empty(t, orders)
}

func TestOrderStatusSkipRejected(t *testing.T) {
	env := setupApp(t, "skip_test")
	seedCatalog(t, env.productRepo)
	token := registerAndLogin(t, env.app, "buyer3", "buyer3@example.com")

	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-a", "quantity": 1}},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)

	// Jumping pending -> shipped is rejected and names both statuses.
	resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", token, map[string]string{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp map[string]string
	decode(t, resp, &errResp)
	assert.Contains(t, errResp["error"], "pending")
	assert.Contains(t, errResp["error"], "shipped")

	// Unknown status values are rejected before the state machine runs.
	resp = doJSON(t, env.app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", token, map[string]string{
		"status": "cancelled",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// The order is still pending.
	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders/"+order.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var current models.Order
	decode(t, resp, &current)
	assert.Equal(t, models.StatusPending, current.Status)
	assert.Empty(t, env.broadcaster.updates, "no notification for a rejected transition")
}

func TestOrderVisibilityScopedToOwner(t *testing.T) {
	env := setupApp(t, "ownership_test")
	seedCatalog(t, env.productRepo)
	ownerToken := registerAndLogin(t, env.app, "alice", "alice@example.com")
	otherToken := registerAndLogin(t, env.app, "bob", "bob@example.com")

	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/orders", ownerToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-a", "quantity": 1}},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)

	// Another user cannot see the order, by listing or by id.
	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders", otherToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decode(t, resp, &orders)
	assert.Empty(t, orders)

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/orders/"+order.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
