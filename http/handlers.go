package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"heartrisk/dataset"
	"heartrisk/db"
	"heartrisk/ml"
	"heartrisk/monitoring"
	"heartrisk/service"
)

// Scorer is the scoring surface the API exposes.
type Scorer interface {
	Choices() dataset.Choices
	Schema() *ml.FeatureSchema
	Predict(ctx context.Context, in dataset.FormInput) (*service.Prediction, error)
	History(ctx context.Context, limit int) ([]db.PredictionRecord, error)
}

type API struct {
	scorer  Scorer
	metrics *monitoring.MetricsCollector
	hub     *monitoring.WebSocketHub
	logger  *zap.Logger
}

// NewAPI builds the handler set. metrics and hub may be nil, in which case
// their routes are not registered.
func NewAPI(scorer Scorer, metrics *monitoring.MetricsCollector, hub *monitoring.WebSocketHub, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{scorer: scorer, metrics: metrics, hub: hub, logger: logger}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/form", a.handleForm)
	mux.HandleFunc("GET /api/schema", a.handleSchema)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("GET /api/predictions", a.handlePredictions)
	if a.metrics != nil {
		mux.HandleFunc("GET /api/metrics", a.handleMetrics)
	}
	if a.hub != nil {
		mux.HandleFunc("GET /api/ws/predictions", a.hub.HandleWebSocket)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleForm(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.scorer.Choices())
}

func (a *API) handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.scorer.Schema())
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var in dataset.FormInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	prediction, err := a.scorer.Predict(r.Context(), in)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			a.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		}
		writeError(w, status, service.ErrorKind(err), err)
		return
	}
	respondJSON(w, http.StatusOK, prediction)
}

func (a *API) handlePredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 1000 {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("limit must be between 1 and 1000"))
			return
		}
		limit = l
	}

	records, err := a.scorer.History(r.Context(), limit)
	if err != nil {
		a.logger.Error("history query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(records),
		"data":  records,
	})
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(a.metrics.ExportPrometheus()))
		return
	}
	snapshot := a.metrics.Snapshot()
	if a.hub != nil {
		snapshot["websocket_clients"] = a.hub.ClientCount()
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// statusFor maps prediction errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrUnknownCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error(), "kind": kind})
}
