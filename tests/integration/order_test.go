//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

// Seeded catalog (see db/seed/products.json): ids follow insert order, so
// id 1 is Hammer ($19.99, category 1), id 4 is Wrench ($14.75, category 1),
// and id 8 is Switch Pack ($100.00, category 2, stock 20).

func TestPlaceOrder_NoAuth(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/order", []byte(`{"customer_id":1,"items":[{"product_id":1,"quantity":1}]}`), "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InvalidKey(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/order", []byte(`{"customer_id":1,"items":[{"product_id":1,"quantity":1}]}`), "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	req := orderRequest{CustomerID: 1, Items: []orderItemRequest{}}
	resp := doPost(t, "/api/order", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownCustomer(t *testing.T) {
	req := orderRequest{
		CustomerID: 9999,
		Items:      []orderItemRequest{{ProductID: 1, Quantity: 1}},
	}
	resp := doPost(t, "/api/order", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	req := orderRequest{
		CustomerID: 1,
		Items:      []orderItemRequest{{ProductID: 9999, Quantity: 1}},
	}
	resp := doPost(t, "/api/order", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	req := orderRequest{
		CustomerID: 1,
		Items:      []orderItemRequest{{ProductID: 3, Quantity: 100000}},
	}
	resp := doPost(t, "/api/order", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_NoDiscounts(t *testing.T) {
	req := orderRequest{
		CustomerID: 1,
		Items:      []orderItemRequest{{ProductID: 1, Quantity: 1}},
	}
	resp := doPost(t, "/api/order", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	created := decodeJSON[createOrderResponse](t, resp)
	if created.Total != "19.99" {
		t.Errorf("total: got %q, want %q", created.Total, "19.99")
	}
	if created.TotalDiscount != "0.00" {
		t.Errorf("totalDiscount: got %q, want %q", created.TotalDiscount, "0.00")
	}
	if created.DiscountedTotal != "0.00" {
		t.Errorf("discountedTotal: got %q, want %q", created.DiscountedTotal, "0.00")
	}
}

func TestPlaceOrder_CheapestCategory1Discount(t *testing.T) {
	req := orderRequest{
		CustomerID: 2,
		Items: []orderItemRequest{
			{ProductID: 1, Quantity: 1}, // Hammer $19.99
			{ProductID: 4, Quantity: 1}, // Wrench $14.75, the cheaper line
		},
	}
	resp := doPost(t, "/api/order", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	created := decodeJSON[createOrderResponse](t, resp)
	if created.Total != "34.74" {
		t.Errorf("total: got %q, want %q", created.Total, "34.74")
	}
	// 20% of the cheapest category-1 line: 14.75 * 0.2 = 2.95.
	if created.TotalDiscount != "2.95" {
		t.Errorf("totalDiscount: got %q, want %q", created.TotalDiscount, "2.95")
	}
	if created.DiscountedTotal != "31.79" {
		t.Errorf("discountedTotal: got %q, want %q", created.DiscountedTotal, "31.79")
	}
}

func TestPlaceOrder_StackedDiscounts(t *testing.T) {
	// 10x Switch Pack: order total hits 1000 (10% off) and the line
	// quantity crosses 6 (one unit free), applied in that order.
	req := orderRequest{
		CustomerID: 3,
		Items:      []orderItemRequest{{ProductID: 8, Quantity: 10}},
	}
	resp := doPost(t, "/api/order", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	created := decodeJSON[createOrderResponse](t, resp)
	if created.Total != "1,000.00" {
		t.Errorf("total: got %q, want %q", created.Total, "1,000.00")
	}
	if created.TotalDiscount != "200.00" {
		t.Errorf("totalDiscount: got %q, want %q", created.TotalDiscount, "200.00")
	}
	if created.DiscountedTotal != "800.00" {
		t.Errorf("discountedTotal: got %q, want %q", created.DiscountedTotal, "800.00")
	}

	// The ledger view shows each applied rule with the running subtotal.
	reportResp := doGet(t, fmt.Sprintf("/api/discounted/%d", created.OrderID))
	defer reportResp.Body.Close()

	if reportResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", reportResp.StatusCode)
	}

	report := decodeJSON[discountReportResponse](t, reportResp)
	if report.ID != created.OrderID {
		t.Errorf("report id: got %d, want %d", report.ID, created.OrderID)
	}
	if len(report.Discounts) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(report.Discounts))
	}

	first := report.Discounts[0]
	if first.DiscountReason != "OVER_1000" {
		t.Errorf("first reason: got %q, want %q", first.DiscountReason, "OVER_1000")
	}
	if first.DiscountAmount != "100.00" || first.Subtotal != "900.00" {
		t.Errorf("first entry: got %s/%s, want 100.00/900.00", first.DiscountAmount, first.Subtotal)
	}

	second := report.Discounts[1]
	if second.DiscountReason != "BUY_5_GET_1" {
		t.Errorf("second reason: got %q, want %q", second.DiscountReason, "BUY_5_GET_1")
	}
	if second.DiscountAmount != "100.00" || second.Subtotal != "800.00" {
		t.Errorf("second entry: got %s/%s, want 100.00/800.00", second.DiscountAmount, second.Subtotal)
	}

	// The purchase consumed stock.
	productsResp := doGet(t, "/api/product?perPage=100")
	defer productsResp.Body.Close()

	products := decodeJSON[listResponse[productResponse]](t, productsResp)
	for _, p := range products.Data {
		if p.ID == 8 && p.Stock != 10 {
			t.Errorf("switch pack stock: got %d, want 10", p.Stock)
		}
	}
}

func TestPlaceOrder_ConcurrentStockContention(t *testing.T) {
	// Dedicated product so the race only touches its own stock: 25 units,
	// two simultaneous orders of 15 each. The row locks must serialize the
	// stock check, so exactly one order wins and 10 units remain.
	type createProductResponse struct {
		ProductID int64 `json:"product_id"`
	}

	prodResp := doPost(t, "/api/product", map[string]any{
		"name":     "Contended Valve",
		"category": 3,
		"price":    10.00,
		"stock":    25,
	})
	if prodResp.StatusCode != http.StatusOK {
		t.Fatalf("create product: expected 200, got %d", prodResp.StatusCode)
	}
	prod := decodeJSON[createProductResponse](t, prodResp)
	prodResp.Body.Close()

	body, err := json.Marshal(orderRequest{
		CustomerID: 1,
		Items:      []orderItemRequest{{ProductID: prod.ProductID, Quantity: 15}},
	})
	if err != nil {
		t.Fatalf("marshal order: %v", err)
	}

	codes := make(chan int, 2)
	errs := make(chan error, 2)
	for range 2 {
		go func() {
			req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, baseURL+"/api/order", bytes.NewReader(body))
			if err != nil {
				errs <- err
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("api_key", testAPIKey)

			resp, err := httpClient.Do(req)
			if err != nil {
				errs <- err
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}

	succeeded, rejected := 0, 0
	for range 2 {
		select {
		case err := <-errs:
			t.Fatalf("concurrent order: %v", err)
		case code := <-codes:
			switch code {
			case http.StatusOK:
				succeeded++
			case http.StatusUnprocessableEntity:
				rejected++
			default:
				t.Fatalf("unexpected status %d", code)
			}
		}
	}

	if succeeded != 1 || rejected != 1 {
		t.Fatalf("got %d successes and %d rejections, want exactly one of each", succeeded, rejected)
	}

	stockResp := doGet(t, fmt.Sprintf("/api/product/%d", prod.ProductID))
	defer stockResp.Body.Close()

	p := decodeJSON[productResponse](t, stockResp)
	if p.Stock != 10 {
		t.Errorf("final stock: got %d, want 10", p.Stock)
	}
}

func TestDiscountReport_NotFound(t *testing.T) {
	resp := doGet(t, "/api/discounted/999999")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}

func TestListOrders(t *testing.T) {
	req := orderRequest{
		CustomerID: 1,
		Items:      []orderItemRequest{{ProductID: 12, Quantity: 1}},
	}
	createResp := doPost(t, "/api/order", req)
	createResp.Body.Close()

	resp := doGet(t, "/api/order")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	type listedItem struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	type listedOrder struct {
		ID         int64        `json:"id"`
		CustomerID int64        `json:"customerId"`
		Items      []listedItem `json:"items"`
	}

	list := decodeJSON[listResponse[listedOrder]](t, resp)

	if list.Total < 1 {
		t.Fatalf("expected at least 1 order, got %d", list.Total)
	}
	if len(list.Data) == 0 {
		t.Fatal("expected non-empty order page")
	}
	for _, o := range list.Data {
		if len(o.Items) == 0 {
			t.Errorf("order %d has no items", o.ID)
		}
	}
}

func TestDeleteOrder(t *testing.T) {
	req := orderRequest{
		CustomerID: 1,
		Items:      []orderItemRequest{{ProductID: 11, Quantity: 1}},
	}
	createResp := doPost(t, "/api/order", req)
	created := decodeJSON[createOrderResponse](t, createResp)
	createResp.Body.Close()

	delResp := doDelete(t, fmt.Sprintf("/api/order/%d", created.OrderID))
	defer delResp.Body.Close()

	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", delResp.StatusCode)
	}

	again := doDelete(t, fmt.Sprintf("/api/order/%d", created.OrderID))
	defer again.Body.Close()

	if again.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", again.StatusCode)
	}
}
