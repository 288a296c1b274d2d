package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"tailor-app/internal/models"
	"tailor-app/internal/services"
	"tailor-app/internal/taxonomy"
	"tailor-app/internal/utils"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, draft *models.OrderDraft, key string) (*models.Order, bool, error) {
	args := m.Called(ctx, draft, key)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, q models.OrderQuery) (*models.OrderPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderPage), args.Error(1)
}

func (m *MockOrderService) ExportOrders(ctx context.Context, f models.OrderFilter) ([]byte, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]byte), args.Int(1), args.Error(2)
}

var testCred = models.AdminCredential{Email: "admin@tailor.shop", Password: "s3cret", Name: "Shop Admin"}

type testServer struct {
	router *gin.Engine
	orders *MockOrderService
	auth   *services.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tx, err := taxonomy.Default()
	require.NoError(t, err)

	orders := new(MockOrderService)
	auth := services.NewAuthService(testCred, utils.NewJWTUtil("test-secret", time.Hour), nil, zap.NewNop())
	router := SetupRouter(RouterDeps{
		Orders:   NewOrderHandler(orders),
		Auth:     NewAuthHandler(auth, 3600, false),
		Taxonomy: NewTaxonomyHandler(tx),
		Sessions: auth,
		Logger:   zap.NewNop(),
	})
	return &testServer{router: router, orders: orders, auth: auth}
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	token, _, err := s.auth.Login(context.Background(), testCred.Email, testCred.Password)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateOrder_Created(t *testing.T) {
	s := newTestServer(t)
	stored := &models.Order{ID: primitive.NewObjectID(), ShopName: "Royal Boutique", CreatedAt: time.Now()}

	s.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(d *models.OrderDraft) bool {
		return d.ShopName == "Royal Boutique" && d.Measurements["chest"] == 40
	}), "abc").Return(stored, false, nil).Once()

	req := jsonRequest(http.MethodPost, "/api/order", map[string]interface{}{
		"shopName": "Royal Boutique", "deliveryDate": "2025-06-10", "pickupDate": "2025-06-01",
		"category": "shirts", "subcategory": "Formal", "measurements": map[string]float64{"chest": 40},
	})
	req.Header.Set("Idempotency-Key", "abc")
	rec := s.do(req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Order submitted successfully!", body["message"])
	assert.Equal(t, stored.ID.Hex(), body["order"].(map[string]interface{})["_id"])
	s.orders.AssertExpectations(t)
}

func TestCreateOrder_ReplayReturnsOnlyID(t *testing.T) {
	s := newTestServer(t)
	id := primitive.NewObjectID()
	s.orders.On("CreateOrder", mock.Anything, mock.Anything, "abc").
		Return(&models.Order{ID: id, ShopName: "Royal Boutique", Measurements: map[string]float64{"chest": 40}}, true, nil).Once()

	req := jsonRequest(http.MethodPost, "/api/order", map[string]string{"shopName": "x"})
	req.Header.Set("Idempotency-Key", "abc")
	rec := s.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"_id": id.Hex()}, decode(t, rec)["order"])
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing", models.ErrMissingFields, http.StatusBadRequest, "Missing required fields"},
		{"invalid", &models.ValidationError{Errors: []string{"measurements[chest] must be a number between 0 and 100"}}, http.StatusBadRequest, "Invalid order"},
		{"conflict", models.ErrConflict, http.StatusConflict, "Order is already being submitted"},
		{"key reused", models.ErrIdempotencyMismatch, http.StatusUnprocessableEntity, "Idempotency-Key was already used for a different order"},
		{"store", errors.New("connection refused"), http.StatusInternalServerError, "Failed to submit order."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.orders.On("CreateOrder", mock.Anything, mock.Anything, "").Return(nil, false, tc.err).Once()

			rec := s.do(jsonRequest(http.MethodPost, "/api/order", map[string]string{"shopName": "x"}))
			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tc.message, body["message"])
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "connection refused", body["error"])
			}
		})
	}
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/order", bytes.NewBufferString("{"))
	rec := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminEndpoints_RequireSession(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/api/order", "/api/order/" + primitive.NewObjectID().Hex(), "/api/order/export", "/api/auth/session"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.Equal(t, map[string]interface{}{"message": "Unauthorized"}, decode(t, rec))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/order", nil)
	req.Header.Set("Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	s.orders.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
	s.orders.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}

func TestListOrders_ParsesQuery(t *testing.T) {
	s := newTestServer(t)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)

	want := models.OrderQuery{
		Filter: models.OrderFilter{Shop: "roya", Subcategory: "formal", StartDate: &start, EndDate: &end},
		Page:   2,
		Limit:  10,
	}
	items := []models.OrderSummary{{ID: primitive.NewObjectID(), ShopName: "Royal Boutique"}}
	s.orders.On("ListOrders", mock.Anything, want).
		Return(&models.OrderPage{Items: items, Total: 11, Page: 2, Limit: 10}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/order?page=2&shop=roya&category=all&subcategory=formal&startDate=2025-01-01&endDate=2025-01-31", nil)
	req.Header.Set("Authorization", "Bearer "+s.token(t))
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Orders fetched successfully!", body["message"])
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 10, body["limit"])
	assert.EqualValues(t, 11, body["total"])
	assert.EqualValues(t, 2, body["pages"])
	assert.Len(t, body["orders"], 1)
	s.orders.AssertExpectations(t)
}

func TestListOrders_BadDate(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/order?startDate=yesterday&endDate=2025-01-31", nil)
	req.Header.Set("Authorization", "Bearer "+s.token(t))
	rec := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid date filter", decode(t, rec)["message"])
	s.orders.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestListOrders_LoneDateIsIgnored(t *testing.T) {
	s := newTestServer(t)
	s.orders.On("ListOrders", mock.Anything, models.OrderQuery{Page: 1, Limit: 10}).
		Return(&models.OrderPage{Items: []models.OrderSummary{}, Page: 1, Limit: 10}, nil).Twice()

	for _, query := range []string{"startDate=yesterday", "endDate=2025-01-31"} {
		req := httptest.NewRequest(http.MethodGet, "/api/order?"+query, nil)
		req.Header.Set("Authorization", "Bearer "+s.token(t))
		assert.Equal(t, http.StatusOK, s.do(req).Code, query)
	}
	s.orders.AssertExpectations(t)
}

func TestGetOrder(t *testing.T) {
	s := newTestServer(t)
	id := primitive.NewObjectID()
	s.orders.On("GetOrder", mock.Anything, id.Hex()).
		Return(&models.Order{ID: id, Measurements: map[string]float64{"neck": 15}}, nil).Once()
	s.orders.On("GetOrder", mock.Anything, "missing").Return(nil, models.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/order/"+id.Hex(), nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookie, Value: s.token(t)})
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode(t, rec)["order"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"neck": float64(15)}, order["measurements"])

	req = httptest.NewRequest(http.MethodGet, "/api/order/missing", nil)
	req.Header.Set("Authorization", "Bearer "+s.token(t))
	rec = s.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decode(t, rec)["message"])
}

func TestExportOrders(t *testing.T) {
	s := newTestServer(t)
	s.orders.On("ExportOrders", mock.Anything, models.OrderFilter{Category: "shirts"}).
		Return([]byte("xlsx-bytes"), 3, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/order/export?category=shirts", nil)
	req.Header.Set("Authorization", "Bearer "+s.token(t))
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"orders-")
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestLoginLogoutFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@tailor.shop", "password": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec)["message"])

	rec = s.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": " admin@tailor.shop ", "password": "s3cret"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "email must match exactly")

	rec = s.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@tailor.shop", "password": "s3cret"}))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	token := body["token"].(string)
	assert.Equal(t, "admin", body["user"].(map[string]interface{})["role"])
	require.NotEmpty(t, rec.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1", decode(t, rec)["user"].(map[string]interface{})["id"])

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, s.do(req).Code)
}

func TestTaxonomyAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/taxonomy", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var tx taxonomy.Taxonomy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	_, err := tx.Subcategory("shirts", "formal")
	assert.NoError(t, err)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
