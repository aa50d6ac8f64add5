package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"importledger/backend/internal/cache"
	"importledger/backend/internal/domain"
	"importledger/backend/internal/service"
	"importledger/backend/internal/store/memory"
)

// newTestAPI wires a seeded memory store, the real service and the real
// AuthManager so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded(testCompany)
	svc := service.New(repo, cache.NewMemoryIdempotencyStore(), zap.NewNop(), time.Hour)
	auth := NewAuthManager(testSecret, testIssuer, testPIN)

	return New(svc, auth, "*", zap.NewNop())
}

func tokenFor(t *testing.T, companyID string) string {
	t.Helper()
	return signTestToken(t, testSecret, validClaims("clerk-7", companyID))
}

func doRequest(t *testing.T, handler http.Handler, method string, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest), "body: %s", rec.Body.String())
}

func seededContainer(t *testing.T, handler http.Handler, token string) domain.Container {
	t.Helper()
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/containers", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Containers []domain.Container `json:"containers"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Containers, 1)
	return body.Containers[0]
}

func seededCustomer(t *testing.T, handler http.Handler, token string) domain.CustomerWithBalance {
	t.Helper()
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/customers", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Customers []domain.CustomerWithBalance `json:"customers"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Customers, 1)
	return body.Customers[0]
}

func seededSale(t *testing.T, handler http.Handler, token string) domain.Sale {
	t.Helper()
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/sales", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sales []domain.Sale `json:"sales"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Sales, 1)
	return body.Sales[0]
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, true, body["ok"])
}

func TestRoutesRequireBearerToken(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/suppliers", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/suppliers", nil, "broken")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOtherCompanySeesNothing(t *testing.T) {
	handler := newTestAPI(t).Handler()
	container := seededContainer(t, handler, tokenFor(t, testCompany))
	outsider := tokenFor(t, "company-b")

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/suppliers", nil, outsider)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Suppliers []domain.Supplier `json:"suppliers"`
	}
	decodeBody(t, rec, &body)
	assert.Empty(t, body.Suppliers)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/containers/"+container.ID+"/inventory", nil, outsider)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSupplierLifecycle(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/suppliers", map[string]any{"name": "  Delta Imports ", "phone": "+1 555"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var supplier domain.Supplier
	decodeBody(t, rec, &supplier)
	assert.Equal(t, "Delta Imports", supplier.Name)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/suppliers/"+supplier.ID+"/items", map[string]any{"item_name": "Green Lamp", "unit_price": "19.90"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/suppliers/"+supplier.ID+"/items", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var items struct {
		Items []domain.SupplierItem `json:"items"`
	}
	decodeBody(t, rec, &items)
	require.Len(t, items.Items, 1)
	assert.True(t, items.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.90")))

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/suppliers/"+supplier.ID+"/inventory", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var inventory domain.SupplierInventoryReport
	decodeBody(t, rec, &inventory)
	assert.Zero(t, inventory.ContainerCount)
	assert.Empty(t, inventory.Items)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/suppliers", map[string]any{"name": " "}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/suppliers/sup-missing", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContainerInventoryEndpoint(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	container := seededContainer(t, handler, token)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/containers/"+container.ID+"/inventory", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.ContainerInventoryReport
	decodeBody(t, rec, &report)
	assert.Equal(t, "MSKU-4410021", report.ContainerNumber)
	assert.Equal(t, "Anatolia Textiles", report.SupplierName)

	lines := make(map[string]domain.InventoryLine, len(report.Items))
	for _, line := range report.Items {
		lines[line.ItemName] = line
	}
	require.Contains(t, lines, "Red Shoes")
	assert.Equal(t, int64(30), lines["Red Shoes"].SoldQty)
	assert.Equal(t, int64(60), lines["Red Shoes"].RemainingQty)
	assert.Equal(t, int64(35), lines["Leather Belt"].RemainingQty)
	assert.Equal(t, int64(35), report.Totals.SoldQty)
}

func TestContainerAttributionEndpoint(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	container := seededContainer(t, handler, token)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/containers/"+container.ID+"/attribution", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var attribution domain.ContainerAttributionResponse
	decodeBody(t, rec, &attribution)
	matched := make(map[string]bool)
	for _, item := range attribution.Items {
		matched[item.ItemName] = item.Matched
	}
	assert.True(t, matched["Red Shoes"])
	assert.False(t, matched["Silk Tie"])
}

func TestContainerOffloadAndStatus(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	container := seededContainer(t, handler, token)

	var shoes domain.ContainerItem
	for _, item := range container.Items {
		if item.ItemName == "Red Shoes" {
			shoes = item
		}
	}
	require.NotEmpty(t, shoes.ID)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/containers/"+container.ID+"/offload", map[string]any{
		"items": []map[string]any{{"item_id": shoes.ID, "received_qty": 100}},
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var offloaded domain.Container
	decodeBody(t, rec, &offloaded)
	assert.Equal(t, domain.ContainerStatusReceived, offloaded.Status)

	rec = doRequest(t, handler, http.MethodPatch, "/api/v1/containers/"+container.ID+"/status", map[string]any{"status": "Done"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, handler, http.MethodPatch, "/api/v1/containers/"+container.ID+"/status", map[string]any{"status": "Lost"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/containers/"+container.ID+"/status", nil, token)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCreateContainerAndAddItem(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	existing := seededContainer(t, handler, token)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/containers", map[string]any{
		"supplier_id":      existing.SupplierID,
		"container_number": "TGHU-100",
		"arrival_date":     "2024-05-02",
		"items":            []map[string]any{{"item_name": "Wool Scarf", "expected_qty": 10, "unit_price": 4}},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var container domain.Container
	decodeBody(t, rec, &container)
	assert.Equal(t, domain.ContainerStatusIncomplete, container.Status)
	require.Len(t, container.Items, 1)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/containers/"+container.ID+"/items", map[string]any{"item_name": "Umbrella", "expected_qty": 3, "unit_price": 2}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/containers/"+container.ID, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &container)
	assert.Len(t, container.Items, 2)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/containers", map[string]any{
		"supplier_id":      existing.SupplierID,
		"container_number": "TGHU-101",
		"arrival_date":     "02/05/2024",
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordSaleIdempotencyKey(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	container := seededContainer(t, handler, token)

	payload := map[string]any{
		"sale_type":   "cash",
		"source_type": "container",
		"source_id":   container.ID,
		"items":       []map[string]any{{"item_name": "Silk Tie", "quantity": 2, "unit_price": "11.50"}},
	}

	first := doRequest(t, handler, http.MethodPost, "/api/v1/sales", payload, token, "Idempotency-Key", "till-3-0001")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	var created domain.SaleResponse
	decodeBody(t, first, &created)
	assert.False(t, created.Duplicate)
	assert.True(t, created.Sale.TotalAmount.Equal(decimal.NewFromInt(23)))

	second := doRequest(t, handler, http.MethodPost, "/api/v1/sales", payload, token, "Idempotency-Key", "till-3-0001")
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	var replayed domain.SaleResponse
	decodeBody(t, second, &replayed)
	assert.True(t, replayed.Duplicate)
	assert.Equal(t, created.Sale.ID, replayed.Sale.ID)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/sales/"+created.Sale.ID, nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordSaleRejectsCreditWithoutCustomer(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{
		"sale_type": "credit",
		"items":     []map[string]any{{"item_name": "Blue Hat", "quantity": 1, "unit_price": 5}},
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{
		"sale_type": "cash",
		"discount":  3,
		"items":     []map[string]any{{"item_name": "Blue Hat", "quantity": 1, "unit_price": 5}},
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomerBalanceStatementAndPayments(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	customer := seededCustomer(t, handler, token)
	assert.True(t, customer.CreditBalance.Equal(decimal.NewFromInt(425)))

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/customers/"+customer.ID+"/payments", map[string]any{"amount": 125, "note": "cash"}, token, "Idempotency-Key", "pay-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/customers/"+customer.ID+"/payments", map[string]any{"amount": 125, "note": "cash"}, token, "Idempotency-Key", "pay-1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/customers/"+customer.ID+"/balance", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance domain.CustomerBalance
	decodeBody(t, rec, &balance)
	assert.True(t, balance.Credit.Balance.Equal(decimal.NewFromInt(300)), balance.Credit.Balance.String())
	assert.True(t, balance.Credit.TotalPayments.Equal(decimal.NewFromInt(425)))

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/customers/"+customer.ID+"/statement", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var statement domain.CustomerStatement
	decodeBody(t, rec, &statement)
	require.Len(t, statement.Entries, 3)
	assert.Equal(t, domain.StatementKindSale, statement.Entries[0].Kind)
	assert.True(t, statement.Balance.Equal(decimal.NewFromInt(300)))

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/customers/"+customer.ID+"/payments", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var payments struct {
		Payments []domain.CustomerPayment `json:"payments"`
	}
	decodeBody(t, rec, &payments)
	assert.Len(t, payments.Payments, 2)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/customers/"+customer.ID+"/payments", map[string]any{"amount": 0}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCustomer(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/customers", map[string]any{"name": "Bosphorus Bazaar"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer domain.Customer
	decodeBody(t, rec, &customer)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/customers/"+customer.ID, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/customers/"+customer.ID+"/balance", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance domain.CustomerBalance
	decodeBody(t, rec, &balance)
	assert.True(t, balance.Credit.Balance.IsZero())
}

func TestOverrideSaleTotalRequiresPIN(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	sale := seededSale(t, handler, token)
	path := "/api/v1/sales/" + sale.ID + "/total"

	rec := doRequest(t, handler, http.MethodPatch, path, map[string]any{"total_amount": 700, "override_pin": "000000"}, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, handler, http.MethodPatch, path, map[string]any{"total_amount": 700, "override_pin": testPIN}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Sale
	decodeBody(t, rec, &updated)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(700)))

	rec = doRequest(t, handler, http.MethodPatch, path, map[string]any{"recompute": true, "override_pin": testPIN}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &updated)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(725)))

	rec = doRequest(t, handler, http.MethodPatch, path, map[string]any{"override_pin": testPIN}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPatch, "/api/v1/sales/sal-missing/total", map[string]any{"recompute": true, "override_pin": testPIN}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSalesReportJSONAndCSV(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/reports/sales", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.SalesReport
	decodeBody(t, rec, &report)
	assert.Equal(t, 1, report.SaleCount)
	assert.Equal(t, int64(35), report.TotalQuantity)
	assert.True(t, report.TotalAmount.Equal(decimal.NewFromInt(725)))

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/reports/sales?format=csv", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales-report.csv")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "section,name,supplier,sold_qty,total_amount\n"))
	assert.Contains(t, body, "summary,total,,35,725.00\n")
	assert.Contains(t, body, "supplier,Anatolia Textiles,,35,")

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/reports/sales?format=pdf", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/reports/sales?from=2024-13-01", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSalesReportWindowExcludesOlderSales(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	today := time.Now().UTC().Format(time.DateOnly)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/reports/sales?from="+today+"&to="+today, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.SalesReport
	decodeBody(t, rec, &report)
	assert.Zero(t, report.SaleCount)
	assert.Equal(t, today, report.From)
	assert.Equal(t, today, report.To)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/reports/supplier-sales?from="+today, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var bySupplier domain.SupplierSalesReport
	decodeBody(t, rec, &bySupplier)
	assert.Empty(t, bySupplier.Suppliers)
}

func TestSalesSummaries(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)
	container := seededContainer(t, handler, token)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/containers/"+container.ID+"/sales-summary", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var containerSummary domain.ContainerSalesSummary
	decodeBody(t, rec, &containerSummary)
	assert.Equal(t, 1, containerSummary.Summary.SaleCount)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/suppliers/"+container.SupplierID+"/sales-summary", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var supplierSummary domain.SupplierSalesSummary
	decodeBody(t, rec, &supplierSummary)
	assert.Equal(t, int64(35), supplierSummary.Summary.TotalQuantity)
}

func TestUnknownActionsReturn404(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := tokenFor(t, testCompany)

	for _, path := range []string{
		"/api/v1/suppliers/sup-1/archive",
		"/api/v1/containers/con-1/ship",
		"/api/v1/customers/cus-1/orders",
		"/api/v1/sales/sal-1/void",
	} {
		rec := doRequest(t, handler, http.MethodGet, path, nil, token)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
