package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rl1809/blood-bank/internal/core/domain"
)

type HTTPHandler struct {
	ledger Invoker
}

type InvokeHTTPRequest struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
}

type InvokeHTTPResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewHTTPHandler(ledger Invoker) *HTTPHandler {
	return &HTTPHandler{ledger: ledger}
}

func (h *HTTPHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req InvokeHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, InvokeHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if req.Function == "" {
		writeJSON(w, http.StatusBadRequest, InvokeHTTPResponse{
			Success: false,
			Message: "missing function",
		})
		return
	}

	payload, err := h.ledger.Invoke(r.Context(), req.Function, req.Args)
	if err != nil {
		writeJSON(w, httpStatus(err), InvokeHTTPResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	// plain-text results (initialisation) are reported as the message
	if !json.Valid(payload) {
		writeJSON(w, http.StatusOK, InvokeHTTPResponse{
			Success: true,
			Message: string(payload),
		})
		return
	}

	writeJSON(w, http.StatusOK, InvokeHTTPResponse{
		Success: true,
		Message: fmt.Sprintf("%s succeeded", req.Function),
		Payload: payload,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func httpStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
