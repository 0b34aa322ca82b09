// Package httpapi exposes the CCIP-Read gateway endpoint (C5) over
// plain net/http, mirroring the ERC-3668 GET and POST call shapes.
package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ethdenver2026/ens-gateway/dispatch"
)

// maxRequestBody bounds the POST body CCIP-Read clients may send. ERC-3668
// calldata for ENS lookups is small; this is generous headroom against
// abusive or malformed requests.
const maxRequestBody = 16 * 1024

// postRequest is the POST /gateway JSON body shape: {"sender":"0x...","calldata":"0x..."}.
type postRequest struct {
	Sender   string `json:"sender"`
	Calldata string `json:"calldata"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Server serves the gateway's CCIP-Read HTTP surface.
type Server struct {
	registry *dispatch.Registry
	mux      *http.ServeMux
}

// New builds a Server that dispatches every request through registry.
func New(registry *dispatch.Registry) *Server {
	s := &Server{registry: registry, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /gateway/{sender}/{data}", s.handleGet)
	s.mux.HandleFunc("POST /gateway", s.handlePost)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sender := r.PathValue("sender")
	data := strings.TrimSuffix(r.PathValue("data"), ".json")

	calldata, err := decodeHexCalldata(data)
	if err != nil {
		s.logRequest(r, "malformed GET calldata", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Unexpected error"})
		return
	}

	s.dispatch(w, r, sender, calldata)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		s.logRequest(r, "failed reading POST body", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Unexpected error"})
		return
	}
	if len(body) > maxRequestBody {
		s.logRequest(r, "POST body exceeds size limit", "bytes", len(body))
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Unexpected error"})
		return
	}

	var req postRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.logRequest(r, "malformed POST body", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Unexpected error"})
		return
	}

	calldata, err := decodeHexCalldata(req.Calldata)
	if err != nil {
		s.logRequest(r, "malformed POST calldata", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Unexpected error"})
		return
	}

	s.dispatch(w, r, req.Sender, calldata)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, sender string, calldata []byte) {
	requestID := uuid.NewString()
	logger := slog.With("request_id", requestID, "sender", sender)
	logger.Info("gateway request", "method", r.Method, "bytes", len(calldata))

	resp, err := s.registry.Dispatch(r.Context(), dispatch.RPCCall{To: sender, Data: calldata})
	if err != nil {
		logger.Error("dispatch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Unexpected error"})
		return
	}

	logger.Info("gateway response", "status", resp.Status)
	writeJSON(w, resp.Status, resp.Body)
}

func (s *Server) logRequest(r *http.Request, msg string, args ...any) {
	slog.With("request_id", uuid.NewString()).Warn(msg, append([]any{"method", r.Method, "path", r.URL.Path}, args...)...)
}

// decodeHexCalldata accepts calldata with or without a "0x" prefix. An
// empty string decodes to no selector, matching the ERC-3668 "no
// calldata" boundary case rather than failing outright.
func decodeHexCalldata(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
