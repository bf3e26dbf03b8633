// Package server exposes the calculators over HTTP as a JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/calckit/internal/calculator"
	"github.com/iwvelando/calckit/internal/config"
	"github.com/iwvelando/calckit/internal/metrics"
	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/output"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

type handler struct {
	logger      *zap.Logger
	svc         *calculator.Service
	metrics     *metrics.Metrics
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the calculator API.
func NewHandler(logger *zap.Logger, svc *calculator.Service, m *metrics.Metrics, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, svc: svc, metrics: m, maxBodySize: maxBodySize, version: trimmedVersion}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/amortization", handleCalculation(h, "server.handleAmortization", svc.Amortization))
	mux.HandleFunc("/api/apr", handleCalculation(h, "server.handleAPR", svc.APR))
	mux.HandleFunc("/api/resistors", handleCalculation(h, "server.handleResistors", svc.Resistors))
	mux.HandleFunc("/api/affordability", handleCalculation(h, "server.handleAffordability", svc.Affordability))
	mux.HandleFunc("/api/capital-gains", handleCalculation(h, "server.handleCapitalGains", svc.CapitalGains))
	mux.HandleFunc("/api/settlement", handleCalculation(h, "server.handleSettlement", svc.Settlement))
	mux.HandleFunc("/api/drywall", handleCalculation(h, "server.handleDrywall", svc.Drywall))

	// Batch jobs from an uploaded configuration file
	mux.HandleFunc("/api/jobs", h.handleJobs)

	// Config serialization endpoint for downloads
	mux.HandleFunc("/api/jobs/export", h.handleConfigExport)

	mux.HandleFunc("/api/tables", h.handleTables)
	mux.HandleFunc("/api/version", h.handleVersion)

	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	return h.requestMiddleware(mux)
}

// handleCalculation decodes a JSON request, runs calc, and writes the result.
// Calculator errors are input problems and map to 400.
func handleCalculation[Req, Resp any](h *handler, op string, calc func(context.Context, Req) (Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		var req Req
		if !h.decodeJSON(w, r, &req, op) {
			return
		}

		resp, err := calc(r.Context(), req)
		if err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}

		h.writeJSON(w, http.StatusOK, resp)
	}
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

type jobsResponse struct {
	Jobs     []jobResult `json:"jobs"`
	CSV      string      `json:"csv"`
	Warnings []string    `json:"warnings,omitempty"`
	Duration string      `json:"duration"`
}

type jobResult struct {
	Name   string       `json:"name"`
	Kind   string       `json:"kind"`
	Fields []fieldValue `json:"fields,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type fieldValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// handleJobs runs the active jobs of an uploaded configuration, either as a
// multipart "file" field or as a raw YAML body.
func (h *handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleJobs"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	configBytes, ok := h.readConfigUpload(w, r, op)
	if !ok {
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	svc := h.svc.WithTables(h.svc.Tables().Merge(cfg.Tables))
	results := calculator.RunJobs(r.Context(), h.logger, svc, cfg.Jobs)

	csv, err := output.CsvString(results)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to render results: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	response := jobsResponse{
		Jobs:     buildJobResults(results),
		CSV:      csv,
		Warnings: warnings,
		Duration: elapsed.String(),
	}

	h.logger.Info("jobs computed",
		zap.String("op", op),
		zap.String("requestID", requestID(r)),
		zap.Int("jobs", len(response.Jobs)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) readConfigUpload(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxBodySize); err != nil {
			h.respondUploadError(w, r, err, op)
			return nil, false
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing configuration file", op)
			return nil, false
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", op),
					zap.Error(closeErr),
				)
			}
		}()
		src = file
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		h.respondUploadError(w, r, err, op)
		return nil, false
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "empty configuration", op)
		return nil, false
	}
	return buf.Bytes(), true
}

func (h *handler) respondUploadError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds limit of %d bytes", h.maxBodySize), op)
		return
	}
	h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err), op)
}

func buildJobResults(results []calculator.JobResult) []jobResult {
	out := make([]jobResult, 0, len(results))
	for _, result := range results {
		jr := jobResult{Name: result.Name, Kind: result.Kind}
		if result.Err != nil {
			jr.Error = result.Err.Error()
		}
		for _, field := range result.Fields {
			jr.Fields = append(jr.Fields, fieldValue{
				Label: field.Label,
				Value: field.Value,
				Text:  field.String(),
			})
		}
		out = append(out, jr)
	}
	return out
}

// handleConfigExport turns a JSON configuration into YAML with the sections
// in a stable, readable order.
func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload map[string]interface{}
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output", "cache", "tables", "jobs"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

// handleTables returns the lookup tables as JSON, or YAML with ?format=yaml.
func (h *handler) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	t := h.svc.Tables()
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		h.writeJSON(w, http.StatusOK, t)
	case "yaml", "yml":
		body, err := yaml.Marshal(t)
		if err != nil {
			h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode tables: %v", err), "server.handleTables")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			h.logger.Error("failed to write YAML response", zap.Error(err))
		}
	default:
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "format must be json or yaml", "server.handleTables")
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("requestID", requestID(r)),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes payload before writing the header, so an unencodable
// result becomes a 500 with an error envelope instead of a truncated 200.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

type requestIDKey struct{}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestMiddleware tags every request with an ID, logs it, and counts the
// response status. A client-supplied X-Request-ID is kept.
func (h *handler) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if rec.status == http.StatusNotFound {
			path = "unmatched"
		}
		h.metrics.ObserveRequest(path, strconv.Itoa(rec.status))
		h.logger.Debug("request completed",
			zap.String("op", "server.requestMiddleware"),
			zap.String("requestID", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
