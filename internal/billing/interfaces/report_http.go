package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"printfleet-cloud/internal/audit"
	"printfleet-cloud/internal/billing/application"
	billing "printfleet-cloud/internal/billing/domain"
	"printfleet-cloud/internal/observability/metrics"
	reading "printfleet-cloud/internal/reading/domain"
)

const dateParamLayout = "2006-01-02"

// BillingHandler handles billing report APIs.
type BillingHandler struct {
	service     *application.BillingService
	auditLogger audit.Logger
}

// NewBillingHandler constructs a handler. The audit logger may be nil.
func NewBillingHandler(service *application.BillingService, auditLogger audit.Logger) (*BillingHandler, error) {
	if service == nil {
		return nil, errors.New("billing handler: nil service")
	}
	return &BillingHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles billing routes under /api/v1/billing.
func (h *BillingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/billing/consumption" && r.Method == http.MethodGet:
		h.handleConsumption(w, r)
	case r.URL.Path == "/api/v1/billing/debt" && r.Method == http.MethodGet:
		h.handleDebt(w, r)
	case r.URL.Path == "/api/v1/billing/fleet" && r.Method == http.MethodPost:
		h.handleFleet(w, r)
	case r.URL.Path == "/api/v1/billing/invoice.pdf" && r.Method == http.MethodGet:
		h.handleInvoice(w, r, "pdf")
	case r.URL.Path == "/api/v1/billing/invoice.xlsx" && r.Method == http.MethodGet:
		h.handleInvoice(w, r, "xlsx")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *BillingHandler) handleConsumption(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	device, date, err := reportParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.service.ConsumptionForPeriod(r.Context(), device, date)
	metrics.ObserveReport("consumption", time.Since(started), err)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	observeBoundaries(report)
	writeJSON(w, consumptionDTO(report))
}

func (h *BillingHandler) handleDebt(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	device, date, err := reportParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.service.DebtForPeriod(r.Context(), device, date)
	metrics.ObserveReport("debt", time.Since(started), err)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	observeBoundaries(report.PeriodReport)
	writeJSON(w, debtDTO(report))
}

func (h *BillingHandler) handleFleet(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req struct {
		Devices []string `json:"devices"`
		Date    string   `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Devices) == 0 {
		http.Error(w, "devices is required", http.StatusBadRequest)
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fleet, err := h.service.FleetReport(r.Context(), req.Devices, date)
	metrics.ObserveReport("fleet", time.Since(started), err)
	metrics.ObserveFleetReport(len(req.Devices), err)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	devices := make([]map[string]any, 0, len(fleet.Devices))
	for _, d := range fleet.Devices {
		devices = append(devices, debtDTO(d))
	}
	deviceErrors := make([]map[string]any, 0, len(fleet.Errors))
	for _, e := range fleet.Errors {
		deviceErrors = append(deviceErrors, map[string]any{"device": e.DeviceKey, "error": e.Err.Error()})
	}
	writeJSON(w, map[string]any{
		"period_start":      fleet.Period.Start.Format(dateParamLayout),
		"period_end":        fleet.Period.End.Format(dateParamLayout),
		"devices":           devices,
		"total_bw_delta":    fleet.TotalBlackWhiteDelta,
		"total_color_delta": fleet.TotalColorDelta,
		"total_debt":        fleet.TotalDebt.StringFixed(2),
		"errors":            deviceErrors,
	})
}

func (h *BillingHandler) handleInvoice(w http.ResponseWriter, r *http.Request, format string) {
	device, date, err := reportParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.service.DebtForPeriod(r.Context(), device, date)
	if err != nil {
		metrics.ObserveInvoiceExport(format, err)
		respondServiceError(w, err)
		return
	}

	var payload []byte
	var contentType string
	switch format {
	case "pdf":
		payload, err = BuildInvoicePDF(report)
		contentType = "application/pdf"
	case "xlsx":
		payload, err = BuildInvoiceXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	metrics.ObserveInvoiceExport(format, err)
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+report.DeviceKey+"-"+report.Period.Key()+"."+format)
	_, _ = w.Write(payload)

	h.logAudit(r, report, "invoice.export."+format)
}

func (h *BillingHandler) logAudit(r *http.Request, report application.DebtReport, action string) {
	if h.auditLogger == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"period": report.Period.Key(),
		"total":  report.Debt.TotalDebt.StringFixed(2),
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        r.Header.Get("X-Actor"),
		Action:       action,
		ResourceType: "invoice",
		ResourceID:   report.DeviceKey + "|" + report.Period.Key(),
		DeviceKey:    report.DeviceKey,
		Metadata:     meta,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

func observeBoundaries(report application.PeriodReport) {
	metrics.ObserveBoundaryResolution(billing.RoleStart.String(), report.Consumption.StartReading != nil, nil)
	metrics.ObserveBoundaryResolution(billing.RoleEnd.String(), report.Consumption.EndReading != nil, nil)
}

func reportParams(r *http.Request) (device string, date time.Time, err error) {
	device = r.URL.Query().Get("device")
	if device == "" {
		return "", time.Time{}, errors.New("device is required")
	}
	date, err = parseDateParam(r.URL.Query().Get("date"))
	return device, date, err
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	parsed, err := time.Parse(dateParamLayout, raw)
	if err != nil {
		return time.Time{}, errors.New("date must be formatted as " + dateParamLayout)
	}
	return parsed, nil
}

func consumptionDTO(report application.PeriodReport) map[string]any {
	dto := map[string]any{
		"device":       report.DeviceKey,
		"period_start": report.Period.Start.Format(dateParamLayout),
		"period_end":   report.Period.End.Format(dateParamLayout),
		"bw_delta":     report.Consumption.BlackWhiteDelta,
		"color_delta":  report.Consumption.ColorDelta,
		"determined":   report.Consumption.Determined(),
	}
	if start := report.Consumption.StartReading; start != nil {
		dto["start_reading"] = readingDTO(*start)
	}
	if end := report.Consumption.EndReading; end != nil {
		dto["end_reading"] = readingDTO(*end)
	}
	return dto
}

func debtDTO(report application.DebtReport) map[string]any {
	dto := consumptionDTO(report.PeriodReport)
	dto["bw_amount"] = report.Debt.BlackWhiteAmount.StringFixed(2)
	dto["color_amount"] = report.Debt.ColorAmount.StringFixed(2)
	dto["total_debt"] = report.Debt.TotalDebt.StringFixed(2)
	dto["currency"] = report.Debt.Pricing.Currency
	return dto
}

func readingDTO(r reading.MeterReading) map[string]any {
	return map[string]any{
		"taken_at":    r.Timestamp.Format(time.RFC3339),
		"total_bw":    r.TotalBlackWhite,
		"total_color": r.TotalColor,
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reading.ErrEmptyDeviceKey),
		errors.Is(err, reading.ErrInvalidDeviceKey),
		errors.Is(err, billing.ErrInvalidReferenceDate),
		errors.Is(err, billing.ErrInvalidBoundaryDay),
		errors.Is(err, billing.ErrInvalidBoundaryRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "reading store unavailable", http.StatusServiceUnavailable)
	}
}
