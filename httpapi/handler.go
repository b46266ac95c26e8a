// Package httpapi exposes the rebate engine over HTTP.
//
// Every operation is a POST with a JSON body, dispatched by action name.
// Responses use a uniform envelope: {"success": true, "data": ...} on
// success and {"success": false, "message": ...} on failure. Batch
// operations report per-item failures inside the data payload and still
// return 200; only request-shape failures map to error statuses.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	rebate "github.com/xraph/rebate"
)

// Handler serves the rebate HTTP API.
type Handler struct {
	engine   *rebate.Engine
	basePath string
	mux      http.Handler
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithBasePath sets the URL prefix for all routes (default "/rebate").
func WithBasePath(path string) HandlerOption {
	return func(h *Handler) {
		if path != "" {
			h.basePath = path
		}
	}
}

// NewHandler builds the chi router for the rebate API.
func NewHandler(engine *rebate.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:   engine,
		basePath: "/rebate",
	}
	for _, opt := range opts {
		opt(h)
	}
	if !strings.HasPrefix(h.basePath, "/") {
		h.basePath = "/" + h.basePath
	}

	r := chi.NewRouter()
	r.Route(h.basePath, func(r chi.Router) {
		r.Post("/bindAgency", h.bindAgency)
		r.Post("/bindAgencyByName", h.bindAgencyByName)
		r.Post("/setIndependentRebate", h.setIndependentRebate)
		r.Post("/unbindAgency", h.unbindAgency)
		r.Post("/compare", h.compare)
		r.Post("/getCustomerRebate", h.getCustomerRebate)
		r.Post("/updateCustomerRebate", h.updateCustomerRebate)
		r.Post("/batchUpdateCustomerRebate", h.batchUpdateCustomerRebate)
	})
	h.mux = r
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ──────────────────────────────────────────────────
// Binding actions
// ──────────────────────────────────────────────────

func (h *Handler) bindAgency(w http.ResponseWriter, r *http.Request) {
	var req rebate.BindRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.BindAgency(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, result)
}

func (h *Handler) bindAgencyByName(w http.ResponseWriter, r *http.Request) {
	var req rebate.BindRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.BindAgencyByName(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, result)
}

func (h *Handler) unbindAgency(w http.ResponseWriter, r *http.Request) {
	var req rebate.UnbindRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.UnbindAgency(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, result)
}

// ──────────────────────────────────────────────────
// Rate actions
// ──────────────────────────────────────────────────

func (h *Handler) setIndependentRebate(w http.ResponseWriter, r *http.Request) {
	var req rebate.IndependentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.SetIndependentRebate(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, result)
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	var req rebate.CompareRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.Compare(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, result)
}

// ──────────────────────────────────────────────────
// Customer override actions
// ──────────────────────────────────────────────────

type customerRebateQuery struct {
	CustomerID  string `json:"customerId"`
	TalentOneID string `json:"talentOneId"`
	Platform    string `json:"platform"`
}

func (h *Handler) getCustomerRebate(w http.ResponseWriter, r *http.Request) {
	var q customerRebateQuery
	if err := decodeBody(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.engine.GetCustomerRebate(r.Context(), q.CustomerID, q.TalentOneID, q.Platform)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, view)
}

func (h *Handler) updateCustomerRebate(w http.ResponseWriter, r *http.Request) {
	var req rebate.OverrideRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.engine.UpdateCustomerRebate(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, view)
}

func (h *Handler) batchUpdateCustomerRebate(w http.ResponseWriter, r *http.Request) {
	var req rebate.BatchOverrideRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.BatchUpdateCustomerRebate(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, result)
}
