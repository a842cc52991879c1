package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/handler"
	"github.com/lavapp/api/internal/notify"
	"github.com/lavapp/api/internal/service"
	"github.com/lavapp/api/internal/ws"
)

// --- Mocks ---

type mockOrderService struct {
	createFn       func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	updateFn       func(ctx context.Context, id uuid.UUID, req service.UpdateOrderRequest) (*service.OrderDetail, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, status string) (*service.OrderDetail, error)
	deleteFn       func(ctx context.Context, id uuid.UUID) (database.Order, error)
	getFn          func(ctx context.Context, id uuid.UUID) (*service.OrderDetail, error)
	listFn         func(ctx context.Context, arg database.ListOrdersParams) ([]service.OrderDetail, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error) {
	return m.createFn(ctx, req)
}

func (m *mockOrderService) UpdateOrder(ctx context.Context, id uuid.UUID, req service.UpdateOrderRequest) (*service.OrderDetail, error) {
	return m.updateFn(ctx, id, req)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*service.OrderDetail, error) {
	return m.updateStatusFn(ctx, id, status)
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.deleteFn(ctx, id)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*service.OrderDetail, error) {
	return m.getFn(ctx, id)
}

func (m *mockOrderService) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]service.OrderDetail, error) {
	return m.listFn(ctx, arg)
}

type capturedEvent struct {
	eventType string
	payload   any
}

type mockBroadcaster struct {
	events []capturedEvent
}

func (m *mockBroadcaster) Broadcast(eventType string, payload any) {
	m.events = append(m.events, capturedEvent{eventType: eventType, payload: payload})
}

// --- Helpers ---

func testDetail() *service.OrderDetail {
	var total, unitPrice, subtotal pgtype.Numeric
	total.Scan("25.00")
	unitPrice.Scan("12.50")
	subtotal.Scan("25.00")

	orderID := uuid.New()
	return &service.OrderDetail{
		Order: database.Order{
			ID:           orderID,
			Code:         "LAV-0001",
			Status:       "RECEIVED",
			DeliveryType: "PICKUP",
			Total:        total,
			PickupDate:   time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
			PickupTime:   "09:00",
			DeliveryDate: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
			DeliveryTime: "18:00",
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		},
		Items: []database.OrderItemWithPiece{{
			OrderItem: database.OrderItem{
				ID:        uuid.New(),
				OrderID:   orderID,
				PieceID:   uuid.New(),
				Quantity:  2,
				UnitPrice: unitPrice,
				Subtotal:  subtotal,
			},
			PieceName:     "Camisa",
			PieceUnitType: "UNIT",
		}},
		History: []database.OrderHistory{{
			ID:          uuid.New(),
			OrderID:     orderID,
			Action:      "CREATED",
			Description: "Pedido criado",
			CreatedAt:   time.Now(),
		}},
	}
}

func setupOrderRouter(svc *mockOrderService, hub *mockBroadcaster) *chi.Mux {
	whatsapp := notify.NewWhatsApp("11999990000", "https://lavapp.example.com/consultas")
	h := handler.NewOrderHandler(svc, hub, whatsapp)
	r := chi.NewRouter()
	r.Route("/orders", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestOrderGet(t *testing.T) {
	detail := testDetail()
	svc := &mockOrderService{
		getFn: func(_ context.Context, id uuid.UUID) (*service.OrderDetail, error) {
			if id != detail.Order.ID {
				return nil, service.ErrOrderNotFound
			}
			return detail, nil
		},
	}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+detail.Order.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["code"] != "LAV-0001" {
		t.Errorf("code: got %v, want LAV-0001", resp["code"])
	}
	if resp["status_label"] != "Recebido" {
		t.Errorf("status_label: got %v, want Recebido", resp["status_label"])
	}
	if resp["total"] != "25.00" {
		t.Errorf("total: got %v, want 25.00", resp["total"])
	}
	items := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["unit_price"] != "12.50" {
		t.Errorf("unit_price: got %v, want 12.50", item["unit_price"])
	}
}

func TestOrderGetNotFound(t *testing.T) {
	svc := &mockOrderService{
		getFn: func(_ context.Context, _ uuid.UUID) (*service.OrderDetail, error) {
			return nil, service.ErrOrderNotFound
		},
	}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderCreate(t *testing.T) {
	detail := testDetail()
	var captured service.CreateOrderRequest
	svc := &mockOrderService{
		createFn: func(_ context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error) {
			captured = req
			return detail, nil
		},
	}
	hub := &mockBroadcaster{}
	router := setupOrderRouter(svc, hub)

	body := map[string]interface{}{
		"is_anonymous":  true,
		"delivery_type": "PICKUP",
		"pickup_date":   "2026-06-08",
		"pickup_time":   "09:00",
		"delivery_date": "2026-06-10",
		"delivery_time": "18:00",
		"items": []map[string]interface{}{
			{"piece_id": uuid.NewString(), "quantity": 2},
		},
	}
	bodyJSON, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(bodyJSON))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", rr.Code, rr.Body.String())
	}

	if !captured.IsAnonymous {
		t.Error("expected is_anonymous to reach the service")
	}
	if len(captured.Items) != 1 || captured.Items[0].Quantity != 2 {
		t.Errorf("items did not reach the service: %+v", captured.Items)
	}

	if len(hub.events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(hub.events))
	}
	if hub.events[0].eventType != ws.EventOrderCreated {
		t.Errorf("event type: got %s, want %s", hub.events[0].eventType, ws.EventOrderCreated)
	}
}

func TestOrderCreateValidationError(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(_ context.Context, _ service.CreateOrderRequest) (*service.OrderDetail, error) {
			return nil, service.ErrEmptyItems
		},
	}
	hub := &mockBroadcaster{}
	router := setupOrderRouter(svc, hub)

	body := map[string]interface{}{"is_anonymous": true, "delivery_type": "PICKUP"}
	bodyJSON, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(bodyJSON))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
	if len(hub.events) != 0 {
		t.Errorf("expected no broadcast on failure, got %d", len(hub.events))
	}
}

func TestOrderCreateUnknownPiece(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(_ context.Context, _ service.CreateOrderRequest) (*service.OrderDetail, error) {
			return nil, service.ErrPieceNotFound
		},
	}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	body := map[string]interface{}{
		"is_anonymous":  true,
		"delivery_type": "PICKUP",
		"items":         []map[string]interface{}{{"piece_id": uuid.NewString(), "quantity": 1}},
	}
	bodyJSON, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(bodyJSON))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rr.Code)
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	detail := testDetail()
	detail.Order.Status = "WASHING"
	svc := &mockOrderService{
		updateStatusFn: func(_ context.Context, _ uuid.UUID, status string) (*service.OrderDetail, error) {
			if status != "WASHING" {
				t.Errorf("status: got %s, want WASHING", status)
			}
			return detail, nil
		},
	}
	hub := &mockBroadcaster{}
	router := setupOrderRouter(svc, hub)

	body := map[string]interface{}{"status": "WASHING"}
	bodyJSON, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+detail.Order.ID.String()+"/status", bytes.NewReader(bodyJSON))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["status_label"] != "Em lavagem" {
		t.Errorf("status_label: got %v, want Em lavagem", resp["status_label"])
	}
	if len(hub.events) != 1 || hub.events[0].eventType != ws.EventOrderStatusChanged {
		t.Errorf("expected one %s broadcast, got %+v", ws.EventOrderStatusChanged, hub.events)
	}
}

func TestOrderUpdateStatusInvalidTransition(t *testing.T) {
	svc := &mockOrderService{
		updateStatusFn: func(_ context.Context, _ uuid.UUID, _ string) (*service.OrderDetail, error) {
			return nil, service.ErrInvalidTransition
		},
	}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	body := map[string]interface{}{"status": "DELIVERED"}
	bodyJSON, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+uuid.NewString()+"/status", bytes.NewReader(bodyJSON))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestOrderUpdateFinalized(t *testing.T) {
	svc := &mockOrderService{
		updateFn: func(_ context.Context, _ uuid.UUID, _ service.UpdateOrderRequest) (*service.OrderDetail, error) {
			return nil, service.ErrOrderFinalized
		},
	}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	body := map[string]interface{}{"is_paid": true}
	bodyJSON, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPut, "/orders/"+uuid.NewString(), bytes.NewReader(bodyJSON))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestOrderDelete(t *testing.T) {
	detail := testDetail()
	svc := &mockOrderService{
		deleteFn: func(_ context.Context, _ uuid.UUID) (database.Order, error) {
			return detail.Order, nil
		},
	}
	hub := &mockBroadcaster{}
	router := setupOrderRouter(svc, hub)

	req := httptest.NewRequest(http.MethodDelete, "/orders/"+detail.Order.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}
	if len(hub.events) != 1 || hub.events[0].eventType != ws.EventOrderDeleted {
		t.Fatalf("expected one %s broadcast, got %+v", ws.EventOrderDeleted, hub.events)
	}
	payload := hub.events[0].payload.(map[string]string)
	if payload["code"] != "LAV-0001" {
		t.Errorf("payload code: got %s, want LAV-0001", payload["code"])
	}
}

func TestOrderList(t *testing.T) {
	detail := testDetail()
	var captured database.ListOrdersParams
	svc := &mockOrderService{
		listFn: func(_ context.Context, arg database.ListOrdersParams) ([]service.OrderDetail, error) {
			captured = arg
			return []service.OrderDetail{*detail}, nil
		},
	}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	req := httptest.NewRequest(http.MethodGet, "/orders?status=RECEIVED&start_date=2026-06-01&end_date=2026-06-30", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	if !captured.Status.Valid || captured.Status.String != "RECEIVED" {
		t.Errorf("status filter did not reach the store: %+v", captured.Status)
	}
	if !captured.StartDate.Valid || !captured.EndDate.Valid {
		t.Error("date range did not reach the store")
	}
	if captured.Limit != 20 {
		t.Errorf("default limit: got %d, want 20", captured.Limit)
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Errorf("expected 1 order, got %d", len(resp))
	}
}

func TestOrderListInvalidStatus(t *testing.T) {
	svc := &mockOrderService{}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	req := httptest.NewRequest(http.MethodGet, "/orders?status=FOLDING", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderWhatsAppLink(t *testing.T) {
	detail := testDetail()
	detail.Customer = &database.Customer{
		ID:    uuid.New(),
		Name:  "Maria Silva",
		Phone: "11999998888",
	}
	svc := &mockOrderService{
		getFn: func(_ context.Context, _ uuid.UUID) (*service.OrderDetail, error) {
			return detail, nil
		},
	}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+detail.Order.ID.String()+"/whatsapp?type=created", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	link, _ := resp["link"].(string)
	if !strings.HasPrefix(link, "https://wa.me/5511999990000?text=") {
		t.Errorf("expected link to target the company number, got %q", link)
	}
	if !strings.Contains(link, "LAV-0001") {
		t.Errorf("expected message to mention the order code, got %q", link)
	}
}

func TestOrderWhatsAppLinkBadType(t *testing.T) {
	detail := testDetail()
	svc := &mockOrderService{
		getFn: func(_ context.Context, _ uuid.UUID) (*service.OrderDetail, error) {
			return detail, nil
		},
	}
	router := setupOrderRouter(svc, &mockBroadcaster{})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+detail.Order.ID.String()+"/whatsapp?type=reminder", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}
