package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"netwatch/internal/codec"
	"netwatch/internal/domain"
	"netwatch/internal/service"
)

// NetworkHandler handles network API requests
type NetworkHandler struct {
	svc *service.NetworkService
}

// NewNetworkHandler creates a new network handler
func NewNetworkHandler(svc *service.NetworkService) *NetworkHandler {
	return &NetworkHandler{svc: svc}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ConnectRequest is the body of POST /api/connections
type ConnectRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// ConnectResponse reports a connect outcome. Error is set when the
// connection was created but could not be logged.
type ConnectResponse struct {
	service.ConnectResult
	Error string `json:"error,omitempty"`
}

// Stats summarizes the graph
type Stats struct {
	Devices   int    `json:"devices"`
	Edges     int    `json:"edges"`
	Flagged   int    `json:"flagged"`
	Anomalies int    `json:"anomalies"`
	Threshold int    `json:"threshold"`
	Capacity  int    `json:"capacity"`
	Store     string `json:"store"`
}

// NewRouter mounts the API, the event stream and the metrics endpoint and
// wraps them in the standard middleware
func NewRouter(h *NetworkHandler, events http.Handler, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stats", h.GetStats)
	mux.HandleFunc("GET /api/devices", h.ListDevices)
	mux.HandleFunc("GET /api/devices/{address}", h.GetDevice)
	mux.HandleFunc("GET /api/anomalies", h.ListAnomalies)
	mux.HandleFunc("POST /api/connections", h.CreateConnection)
	mux.HandleFunc("GET /api/export/json", h.ExportJSON)
	mux.HandleFunc("GET /api/export/yaml", h.ExportYAML)

	if events != nil {
		mux.Handle("GET /events", events)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return Chain(mux,
		Recover,
		Logger,
	)
}

// GetStats returns graph totals
func (h *NetworkHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	m := h.svc.NetworkMap()
	writeJSON(w, Stats{
		Devices:   len(m.Devices),
		Edges:     len(m.Edges),
		Flagged:   m.FlaggedCount(),
		Anomalies: len(h.svc.Anomalies()),
		Threshold: h.svc.Threshold(),
		Capacity:  h.svc.Capacity(),
		Store:     h.svc.StoreLocation(),
	}, http.StatusOK)
}

// ListDevices returns every device in registration order
func (h *NetworkHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListDevices(), http.StatusOK)
}

// GetDevice returns one device by address
func (h *NetworkHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		writeError(w, "Device address required", "", http.StatusBadRequest)
		return
	}

	device, err := h.svc.Device(address)
	if errors.Is(err, domain.ErrUnknownDevice) {
		writeError(w, "Device not found", address, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("handler: failed to get device: %v", err)
		writeError(w, "Failed to get device", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, device, http.StatusOK)
}

// ListAnomalies returns flagged and suspicious devices
func (h *NetworkHandler) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Anomalies(), http.StatusOK)
}

// CreateConnection connects two addresses
func (h *NetworkHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.Connect(r.Context(), req.A, req.B)
	if errors.Is(err, domain.ErrInvalidAddress) {
		writeError(w, "Invalid address", err.Error(), http.StatusBadRequest)
		return
	}

	resp := ConnectResponse{ConnectResult: res}
	if err != nil {
		// The edge is in the graph but not in the log
		log.Printf("handler: connection %s <-> %s not logged: %v", req.A, req.B, err)
		resp.Error = err.Error()
		writeJSON(w, resp, http.StatusInternalServerError)
		return
	}

	switch res.Outcome {
	case domain.OutcomeCreated:
		writeJSON(w, resp, http.StatusCreated)
	case domain.OutcomeAlreadyExists:
		writeJSON(w, resp, http.StatusOK)
	case domain.OutcomeSelfLoopRejected:
		writeJSON(w, resp, http.StatusUnprocessableEntity)
	default:
		writeJSON(w, resp, http.StatusConflict)
	}
}

// ExportJSON exports the network map as JSON
func (h *NetworkHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	h.export(w, codec.NewJSONCodec(), "application/json", "network.json")
}

// ExportYAML exports the network map as YAML
func (h *NetworkHandler) ExportYAML(w http.ResponseWriter, r *http.Request) {
	h.export(w, codec.NewYAMLCodec(), "application/x-yaml", "network.yaml")
}

func (h *NetworkHandler) export(w http.ResponseWriter, exp codec.Exporter, contentType, filename string) {
	m := h.svc.NetworkMap()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := exp.Export(&m, w); err != nil {
		log.Printf("handler: failed to export %s: %v", exp.Format(), err)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("handler: failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:   error,
		Details: details,
	}, statusCode)
}
