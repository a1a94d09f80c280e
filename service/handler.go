package service

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"

	reporter "github.com/ethereum-optimism/infra/op-reporter"
	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// MaxRequestBytes bounds the size of a submitted run result
const MaxRequestBytes = 32 << 20

// ReportResponse is the body returned by the reports endpoint
type ReportResponse struct {
	RunID   string                   `json:"runId,omitempty"`
	Reports []reporter.WrittenReport `json:"reports"`
	Errors  map[string]string        `json:"errors,omitempty"`
}

// Handler serves report generation over HTTP
type Handler struct {
	log     log.Logger
	engine  *reporter.Engine
	metrics metrics.Metricer
}

func NewHandler(log log.Logger, engine *reporter.Engine, m metrics.Metricer) *Handler {
	if m == nil {
		m = metrics.NoopMetrics
	}
	return &Handler{log: log, engine: engine, metrics: m}
}

// Routes returns the CORS-enabled handler for every endpoint
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/reports", h.HandleReports)
	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

func (h *Handler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("Received health check request", "path", r.URL.Path)
	w.Write([]byte("OK")) //nolint:errcheck
}

// HandleReports decodes a run result from the request body and generates the
// reports. It answers 200 when every format was written, 207 when only some
// were, 500 when none were, and 400 when the run result is malformed.
func (h *Handler) HandleReports(w http.ResponseWriter, r *http.Request) {
	run, err := types.DecodeRunResult(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	if err != nil {
		h.log.Warn("Rejected run result", "err", err)
		h.metrics.RecordErrorDetails("http.decode", err)
		h.respond(w, http.StatusBadRequest, ReportResponse{
			Reports: []reporter.WrittenReport{},
			Errors:  map[string]string{"input": err.Error()},
		})
		return
	}

	result, err := h.engine.Generate(r.Context(), run)
	if err != nil {
		status := http.StatusInternalServerError
		if types.IsMalformedInput(err) {
			status = http.StatusBadRequest
		}
		h.log.Warn("Report generation failed", "err", err)
		h.respond(w, status, ReportResponse{
			Reports: []reporter.WrittenReport{},
			Errors:  map[string]string{"input": err.Error()},
		})
		return
	}

	resp := ReportResponse{RunID: result.RunID, Reports: result.Reports}
	status := http.StatusOK
	if len(result.Failures) > 0 {
		status = http.StatusMultiStatus
		if len(result.Reports) == 0 {
			status = http.StatusInternalServerError
		}
		resp.Errors = make(map[string]string, len(result.Failures))
		for format, failure := range result.Failures {
			resp.Errors[string(format)] = failure.Error()
		}
	}
	h.log.Info("Served report request", "run_id", result.RunID, "status", status, "reports", len(result.Reports))
	h.respond(w, status, resp)
}

func (h *Handler) respond(w http.ResponseWriter, status int, body ReportResponse) {
	h.metrics.RecordHTTPRequest(status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to write response", "err", err)
	}
}
