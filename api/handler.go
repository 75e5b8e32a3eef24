// Package api serves the screener over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"stock-screener/fields"
	"stock-screener/models"
	"stock-screener/screener"
)

type Handler struct {
	Engine   *screener.Engine
	Sessions *SessionStore
	logger   *zap.Logger
}

func NewHandler(engine *screener.Engine, sessions *SessionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessions == nil {
		sessions = NewSessionStore(engine, 0)
	}
	return &Handler{Engine: engine, Sessions: sessions, logger: logger}
}

// Routes returns the router with every endpoint mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/search", h.Search)
	r.Get("/api/stock", h.GetStock)
	r.Get("/api/help", h.Help)
	r.Get("/api/fields", h.Fields)
	r.Post("/api/sessions", h.CreateSession)
	r.Delete("/api/sessions/{id}", h.DeleteSession)
	r.Post("/api/query", h.Query)
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// QueryRequest is the body of POST /api/query. An empty Session starts a
// new conversation.
type QueryRequest struct {
	Session string `json:"session"`
	Q       string `json:"q"`
}

// QueryResponse is a screener response tagged with its session.
type QueryResponse struct {
	Session string `json:"session"`
	screener.Response
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Q) == "" {
		http.Error(w, "Missing field 'q'", http.StatusBadRequest)
		return
	}
	if req.Session == "" {
		req.Session = h.Sessions.Create()
	}

	var resp screener.Response
	err := h.Sessions.With(req.Session, func(s *screener.Session) {
		resp = s.Query(req.Q)
	})
	if errors.Is(err, ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Session: req.Session, Response: resp})
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"session": h.Sessions.Create()})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Delete(chi.URLParam(r, "id")) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing query parameter 'q'", http.StatusBadRequest)
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := h.Engine.Index().Search(query, limit)
	if err != nil {
		h.logger.Error("search failed", zap.String("q", query), zap.Error(err))
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []models.Stock{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "Missing symbol parameter", http.StatusBadRequest)
		return
	}

	// exchange is optional; when given the stock must be listed there
	stock := h.Engine.Index().GetStock(symbol, r.URL.Query().Get("exchange"))

	if stock == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":       "Stock not found",
			"suggestions": h.Engine.Suggest(symbol),
		})
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

func (h *Handler) Help(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"help":     screener.HelpText(),
		"examples": screener.Examples,
	})
}

func (h *Handler) Fields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":  fields.Fields(),
		"sectors": fields.Sectors(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
