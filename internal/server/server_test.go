package server

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/calckit/internal/cache"
	"github.com/iwvelando/calckit/internal/calculator"
	"github.com/iwvelando/calckit/internal/metrics"
	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/tables"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const jobsYAML = `jobs:
  - name: Mortgage
    kind: amortization
    active: true
    params:
      principal: 175000
      annualRate: 4.5
      termYears: 30
  - name: Divider
    kind: resistors
    active: true
    params:
      topology: parallel
      resistors:
        - id: 1
          value: 1000
        - id: 2
          value: 1000
  - name: Funeral only
    kind: settlement
    active: true
    params:
      funeralExpenses: 10000
      relationship: cousin
`

const cousinTablesYAML = `tables:
  settlementMultipliers:
    cousin: 1.5
`

func newTestHandler(t *testing.T, maxBodySize int64) (http.Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	svc := calculator.NewService(zap.NewNop(), cache.NewMemory(time.Hour), m, tables.Default())
	return NewHandler(zap.NewNop(), svc, m, maxBodySize, "1.2.3"), m
}

func postJSON(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp["error"]
}

func TestCalculationEndpoints(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	tests := []struct {
		name    string
		path    string
		payload string
		key     string
	}{
		{"Amortization", "/api/amortization", `{"principal":"175,000","annualRate":4.5,"termYears":30}`, "summary"},
		{"APR", "/api/apr", `{"principal":400000,"annualRate":6.5,"termYears":30,"fees":7000}`, "aprPercent"},
		{"Resistors", "/api/resistors", `{"topology":"parallel","resistors":[{"id":1,"value":1000},{"id":2,"value":1000}],"target":250}`, "missing"},
		{"Affordability", "/api/affordability", `{"annualIncome":120000,"monthlyDebts":500,"downPayment":60000,"annualRate":6.5,"termYears":30,"propertyTaxRate":0.83}`, "homePrice"},
		{"Capital gains", "/api/capital-gains", `{"salePrice":500000,"purchasePrice":300000,"state":"WA"}`, "totalTax"},
		{"Settlement", "/api/settlement", `{"annualIncome":50000,"workYearsRemaining":20,"relationship":"spouse"}`, "total"},
		{"Drywall", "/api/drywall", `{"lengthFt":12,"widthFt":10,"heightFt":8,"includeCeiling":true}`, "sheets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.payload))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
			var resp map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if _, ok := resp[tt.key]; !ok {
				t.Errorf("response missing %q: %s", tt.key, rr.Body.String())
			}
		})
	}
}

func TestAffordabilityResult(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	rr := postJSON(t, handler, "/api/affordability", map[string]interface{}{
		"annualIncome": 120000,
		"monthlyDebts": 500,
		"downPayment":  60000,
		"annualRate":   6.5,
		"termYears":    30,
		"county":       "yellowstone",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Found     bool    `json:"found"`
		HomePrice float64 `json:"homePrice"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Found || resp.HomePrice != 390000 {
		t.Errorf("unexpected result %+v", resp)
	}
}

func TestCalculationErrors(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	tests := []struct {
		name         string
		path         string
		body         string
		expectStatus int
		expectError  string
	}{
		{"Malformed JSON", "/api/apr", `{"principal":`, http.StatusBadRequest, "failed to decode request"},
		{"Unknown topology", "/api/resistors", `{"topology":"bridge"}`, http.StatusBadRequest, "unknown topology"},
		{"Unknown state", "/api/capital-gains", `{"salePrice":1,"state":"ZZ"}`, http.StatusBadRequest, "no capital gains rate"},
		{"Unknown sheet size", "/api/drywall", `{"sheetSize":"5x9"}`, http.StatusBadRequest, "no drywall prices"},
		{"Term too long", "/api/amortization", `{"principal":100000,"annualRate":5,"termYears":10000000}`, http.StatusBadRequest, "exceeds the maximum"},
		{"APR term too long", "/api/apr", `{"principal":100000,"annualRate":5,"termYears":"10000000"}`, http.StatusBadRequest, "exceeds the maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectStatus {
				t.Fatalf("expected status %d, got %d", tt.expectStatus, rr.Code)
			}
			if msg := decodeError(t, rr); !strings.Contains(msg, tt.expectError) {
				t.Errorf("error %q does not contain %q", msg, tt.expectError)
			}
		})
	}
}

func TestPermissiveNumbersNeverFail(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	tests := []struct {
		name    string
		path    string
		payload map[string]interface{}
	}{
		{"Garbage", "/api/amortization", map[string]interface{}{"principal": "lots", "annualRate": "n/a", "termYears": nil}},
		{"NaN principal", "/api/amortization", map[string]interface{}{"principal": "NaN", "annualRate": 6.5, "termYears": 30}},
		{"Infinite rate", "/api/apr", map[string]interface{}{"principal": 100000, "annualRate": "Inf", "termYears": 30, "fees": "-inf"}},
		{"NaN income", "/api/settlement", map[string]interface{}{"annualIncome": "NaN", "workYearsRemaining": "Infinity"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, handler, tt.path, tt.payload)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("expected a complete JSON body, got %q: %v", rr.Body.String(), err)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/amortization"},
		{http.MethodGet, "/api/jobs"},
		{http.MethodGet, "/api/jobs/export"},
		{http.MethodPost, "/api/tables"},
		{http.MethodPost, "/api/version"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != http.StatusMethodNotAllowed {
				t.Fatalf("expected status 405, got %d", rr.Code)
			}
		})
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	handler, _ := newTestHandler(t, 64)

	body := `{"principal":100000,"annualRate":5,"termYears":30,"startDate":"` + strings.Repeat("x", 128) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/amortization", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "exceeds limit") {
		t.Fatalf("expected limit error message, got %q", msg)
	}
}

func TestRequestID(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	generated := rr.Header().Get(RequestIDHeader)
	if len(generated) != 36 {
		t.Errorf("expected a generated UUID request ID, got %q", generated)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != "client-supplied" {
		t.Errorf("expected client request ID to be kept, got %q", got)
	}
}

func TestHandleVersion(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", resp["version"])
	}
}

func TestHandleTables(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	t.Run("JSON", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var got tables.Tables
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to decode tables: %v", err)
		}
		if got.StateCapitalGainsRates["CA"] != 13.3 {
			t.Errorf("unexpected CA rate %v", got.StateCapitalGainsRates["CA"])
		}
	})

	t.Run("YAML", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tables?format=yaml", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/yaml" {
			t.Errorf("expected YAML content type, got %q", ct)
		}
		var got tables.Tables
		if err := yaml.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to decode tables: %v", err)
		}
		if got.SettlementMultipliers["spouse"] != 3.5 {
			t.Errorf("unexpected spouse multiplier %v", got.SettlementMultipliers["spouse"])
		}
	})

	t.Run("Unknown format", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tables?format=xml", nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestHandleJobsUpload(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "config.yaml")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(jobsYAML + cousinTablesYAML)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp jobsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0].Fields[0].Text != "$886.70" {
		t.Errorf("unexpected monthly payment %q", resp.Jobs[0].Fields[0].Text)
	}
	if resp.Jobs[1].Fields[2].Text != "500 Ω" {
		t.Errorf("unexpected equivalent %q", resp.Jobs[1].Fields[2].Text)
	}
	// The uploaded tables add the cousin multiplier: 10000 + 1.5 × 10000.
	if resp.Jobs[2].Error != "" || resp.Jobs[2].Fields[3].Value != 25000 {
		t.Errorf("unexpected settlement job %+v", resp.Jobs[2])
	}
	if !strings.HasPrefix(resp.CSV, "job,kind,field,value\n") {
		t.Errorf("expected CSV data in response, got %q", resp.CSV)
	}
	if resp.Duration == "" {
		t.Error("expected duration in response")
	}
}

func TestHandleJobsRawBody(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	bad := jobsYAML + "  - name: Mystery\n    kind: tarot\n    active: true\n"
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(bad))
	req.Header.Set("Content-Type", "application/yaml")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp jobsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Warnings) == 0 {
		t.Error("expected a warning for the unknown kind")
	}
	if resp.Jobs[2].Error == "" {
		t.Error("expected the cousin relationship to be unknown without table overrides")
	}
	if resp.Jobs[3].Error == "" {
		t.Error("expected the unknown kind to fail")
	}
}

func TestHandleJobsUploadTooLarge(t *testing.T) {
	handler, _ := newTestHandler(t, 64)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "config.yaml")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(strings.Repeat("a", 128))); err != nil {
		t.Fatalf("failed to write oversized payload: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", msg)
	}
}

func TestHandleJobsMissingFile(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "missing configuration file" {
		t.Fatalf("expected missing file error, got %q", msg)
	}
}

func TestHandleJobsInvalidYAML(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader("jobs: [unterminated"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	payload := map[string]interface{}{
		"jobs": []interface{}{
			map[string]interface{}{
				"name":   "sample",
				"kind":   "apr",
				"active": true,
			},
		},
		"extra": map[string]interface{}{
			"note": "kept",
		},
		"output": map[string]interface{}{
			"format": "pretty",
		},
		"logging": map[string]interface{}{
			"level": "info",
		},
	}

	rr := postJSON(t, handler, "/api/jobs/export", payload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	yamlStr := resp["configYaml"]
	var top []string
	for _, line := range strings.Split(strings.TrimRight(yamlStr, "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "-") {
			continue
		}
		top = append(top, strings.TrimSuffix(strings.Fields(line)[0], ":"))
	}

	expected := []string{"logging", "output", "jobs", "extra"}
	if strings.Join(top, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected top-level order %v, got %v", expected, top)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, constants.DefaultMaxBodySizeBytes)

	postJSON(t, handler, "/api/settlement", map[string]interface{}{"annualIncome": 1000, "workYearsRemaining": 1})
	postJSON(t, handler, "/api/settlement", map[string]interface{}{"annualIncome": 1000, "workYearsRemaining": 1})
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := rr.Body.String()

	for _, want := range []string{
		`calckit_http_requests_total{code="200",path="/api/settlement"} 2`,
		`calckit_http_requests_total{code="404",path="unmatched"} 1`,
		`calckit_calculations_total{kind="settlement",outcome="ok"} 1`,
		`calckit_cache_hits_total{kind="settlement"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	h := &handler{logger: zap.NewNop()}

	rr := httptest.NewRecorder()
	h.writeJSON(rr, http.StatusOK, map[string]float64{"value": math.NaN()})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "failed to encode response" {
		t.Errorf("unexpected error message %q", msg)
	}
}
