//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/product?perPage=100")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[listResponse[productResponse]](t, resp)
	if products.Total < 12 {
		t.Fatalf("expected at least 12 products, got %d", products.Total)
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := doGet(t, "/api/product?perPage=100")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[listResponse[productResponse]](t, resp)

	var hammer *productResponse
	for i := range products.Data {
		if products.Data[i].Name == "Hammer" {
			hammer = &products.Data[i]
			break
		}
	}

	if hammer == nil {
		t.Fatal("seeded product Hammer not found")
	}
	if hammer.Category != 1 {
		t.Errorf("category: got %d, want 1", hammer.Category)
	}
	if hammer.Price != "19.99" {
		t.Errorf("price: got %q, want %q", hammer.Price, "19.99")
	}
	if hammer.Stock <= 0 {
		t.Errorf("stock: got %d, want > 0", hammer.Stock)
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/product/1")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	p := decodeJSON[productResponse](t, resp)
	if p.ID != 1 {
		t.Errorf("id: got %d, want 1", p.ID)
	}
	if p.Name != "Hammer" {
		t.Errorf("name: got %q, want %q", p.Name, "Hammer")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/product/999999")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}

func TestListProducts_Pagination(t *testing.T) {
	resp := doGet(t, "/api/product?page=1&perPage=5")
	defer resp.Body.Close()

	products := decodeJSON[listResponse[productResponse]](t, resp)
	if len(products.Data) != 5 {
		t.Errorf("page size: got %d, want 5", len(products.Data))
	}
	if products.Page != 1 || products.PerPage != 5 {
		t.Errorf("envelope: got page=%d perPage=%d, want 1/5", products.Page, products.PerPage)
	}
}

func TestCreateAndDeleteProduct(t *testing.T) {
	type createResponse struct {
		Message   string `json:"message"`
		ProductID int64  `json:"product_id"`
	}

	body := map[string]any{
		"name":     "Temporary Widget",
		"category": 3,
		"price":    5.55,
		"stock":    7,
	}
	resp := doPost(t, "/api/product", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	created := decodeJSON[createResponse](t, resp)
	if created.ProductID == 0 {
		t.Fatal("expected non-zero product id")
	}

	delResp := doDelete(t, fmt.Sprintf("/api/product/%d", created.ProductID))
	defer delResp.Body.Close()

	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", delResp.StatusCode)
	}

	again := doDelete(t, fmt.Sprintf("/api/product/%d", created.ProductID))
	defer again.Body.Close()

	if again.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", again.StatusCode)
	}
}

func TestCreateProduct_Invalid(t *testing.T) {
	body := map[string]any{
		"name":     "",
		"category": 1,
		"price":    1.00,
		"stock":    1,
	}
	resp := doPost(t, "/api/product", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestListCustomers(t *testing.T) {
	resp := doGet(t, "/api/customer")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	customers := decodeJSON[listResponse[customerResponse]](t, resp)
	if customers.Total < 3 {
		t.Fatalf("expected at least 3 customers, got %d", customers.Total)
	}
	for _, c := range customers.Data {
		if c.Name == "" {
			t.Errorf("customer %d has empty name", c.ID)
		}
	}
}

func TestCreateAndDeleteCustomer(t *testing.T) {
	type createResponse struct {
		CustomerID int64 `json:"customer_id"`
	}

	body := map[string]any{
		"name":    "Temporary Customer",
		"since":   2024,
		"revenue": 0,
	}
	resp := doPost(t, "/api/customer", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	created := decodeJSON[createResponse](t, resp)

	delResp := doDelete(t, fmt.Sprintf("/api/customer/%d", created.CustomerID))
	defer delResp.Body.Close()

	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", delResp.StatusCode)
	}
}
