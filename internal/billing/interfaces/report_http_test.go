package interfaces_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"printfleet-cloud/internal/audit"
	"printfleet-cloud/internal/billing/application"
	billing "printfleet-cloud/internal/billing/domain"
	"printfleet-cloud/internal/billing/infrastructure/pricing"
	"printfleet-cloud/internal/billing/interfaces"
	reading "printfleet-cloud/internal/reading/domain"
	"printfleet-cloud/internal/reading/infrastructure/memory"
)

const testDevice = "AABBCCDDEEFF"

type auditRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *auditRecorder) Log(ctx context.Context, entry audit.Entry) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *auditRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func newHandler(t *testing.T) (*interfaces.BillingHandler, *auditRecorder) {
	t.Helper()
	store := memory.NewReadingStore()
	store.Add(
		reading.MeterReading{DeviceKey: testDevice, Timestamp: time.Date(2024, time.January, 22, 10, 0, 0, 0, time.UTC), TotalBlackWhite: 1000, TotalColor: 60},
		reading.MeterReading{DeviceKey: testDevice, Timestamp: time.Date(2024, time.February, 19, 10, 0, 0, 0, time.UTC), TotalBlackWhite: 2500, TotalColor: 90},
	)
	resolver, err := billing.NewPeriodResolver(store)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	provider, err := pricing.NewStaticProvider(billing.DefaultPricingConfig(), nil)
	if err != nil {
		t.Fatalf("new pricing provider: %v", err)
	}
	service, err := application.NewBillingService(resolver, provider)
	if err != nil {
		t.Fatalf("new billing service: %v", err)
	}
	recorder := &auditRecorder{}
	handler, err := interfaces.NewBillingHandler(service, recorder)
	if err != nil {
		t.Fatalf("new billing handler: %v", err)
	}
	return handler, recorder
}

func TestBillingHandler_Debt(t *testing.T) {
	handler, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/debt?device=aa:bb:cc:dd:ee:ff&date=2024-02-05", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d body=%s", resp.Code, resp.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["total_debt"] != "77.70" {
		t.Fatalf("total debt mismatch: %v", body["total_debt"])
	}
	if body["bw_delta"] != float64(1500) {
		t.Fatalf("bw delta mismatch: %v", body["bw_delta"])
	}
	if body["period_start"] != "2024-01-20" || body["period_end"] != "2024-02-20" {
		t.Fatalf("period mismatch: %v - %v", body["period_start"], body["period_end"])
	}
}

func TestBillingHandler_ConsumptionValidation(t *testing.T) {
	handler, _ := newHandler(t)

	for _, target := range []string{
		"/api/v1/billing/consumption?date=2024-02-05",
		"/api/v1/billing/consumption?device=" + testDevice + "&date=not-a-date",
		"/api/v1/billing/consumption?device=ZZZZ&date=2024-02-05",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.Code)
		}
	}
}

func TestBillingHandler_Fleet(t *testing.T) {
	handler, _ := newHandler(t)
	payload := `{"devices":["` + testDevice + `","00005555AAAA"],"date":"2024-02-05"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/fleet", strings.NewReader(payload))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d body=%s", resp.Code, resp.Body.String())
	}
	var body struct {
		Devices   []map[string]any `json:"devices"`
		TotalDebt string           `json:"total_debt"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	// Second device has no readings: undetermined, zero debt.
	if len(body.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(body.Devices))
	}
	if body.TotalDebt != "77.70" {
		t.Fatalf("total debt mismatch: %s", body.TotalDebt)
	}
}

func TestBillingHandler_InvoicePDFWritesAudit(t *testing.T) {
	handler, recorder := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/invoice.pdf?device="+testDevice+"&date=2024-02-05", nil)
	req.Header.Set("X-Actor", "office@example.test")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type mismatch: %s", got)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("expected pdf payload")
	}
	if recorder.count() != 1 {
		t.Fatalf("expected one audit entry, got %d", recorder.count())
	}
	recorder.mu.Lock()
	entry := recorder.entries[0]
	recorder.mu.Unlock()
	if entry.Action != "invoice.export.pdf" || entry.DeviceKey != testDevice {
		t.Fatalf("audit entry mismatch: %+v", entry)
	}
}

func TestBillingHandler_InvoiceXLSX(t *testing.T) {
	handler, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/invoice.xlsx?device="+testDevice+"&date=2024-02-05", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("expected xlsx payload")
	}
}

func TestBillingHandler_UnknownRoute(t *testing.T) {
	handler, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/unknown", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
