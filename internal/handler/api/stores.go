// Package api serves the store registry as a JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/lojas/internal/domain"
	"github.com/dukerupert/lojas/internal/handler"
	"github.com/dukerupert/lojas/internal/router"
	"github.com/dukerupert/lojas/internal/service"
)

// StoreHandler exposes StoreService over HTTP.
type StoreHandler struct {
	service service.StoreService
	logger  *slog.Logger
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(service service.StoreService, logger *slog.Logger) *StoreHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the store routes:
//
//	GET    /stores       list stores with their address
//	GET    /stores/{id}  one store
//	POST   /stores       create
//	PUT    /stores/{id}  update
//	DELETE /stores/{id}  delete
func (h *StoreHandler) RegisterRoutes(r *router.Router) {
	r.Get("/stores", h.List)
	r.Get("/stores/{id}", h.Get)
	r.Post("/stores", h.Create)
	r.Put("/stores/{id}", h.Update)
	r.Delete("/stores/{id}", h.Delete)
}

// storeRequest is the body of POST and PUT. Absent keys stay nil.
type storeRequest struct {
	Name         *string `json:"name"`
	PostalCode   *string `json:"postal_code"`
	StreetNumber *string `json:"street_number"`
	Complement   *string `json:"complement"`
}

type addressResponse struct {
	domain.Address
	PostalCodeMasked string `json:"postal_code_masked"`
}

type storeResponse struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Address *addressResponse `json:"address"`
}

type messageResponse struct {
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

func newStoreResponse(s domain.Store) storeResponse {
	resp := storeResponse{ID: s.ID, Name: s.Name}
	if s.Address != nil {
		resp.Address = &addressResponse{
			Address:          *s.Address,
			PostalCodeMasked: s.Address.MaskedPostalCode(),
		}
	}
	return resp
}

// List handles GET /stores
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]storeResponse, 0, len(stores))
	for _, s := range stores {
		resp = append(resp, newStoreResponse(s))
	}
	handler.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /stores/{id}
func (h *StoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := storeID(r, "store.get")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	store, err := h.service.GetStore(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, newStoreResponse(*store))
}

// Create handles POST /stores
func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStoreRequest(r, "store.create")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	id, err := h.service.CreateStore(r.Context(), service.CreateStoreParams{
		Name:         deref(req.Name),
		PostalCode:   deref(req.PostalCode),
		StreetNumber: deref(req.StreetNumber),
		Complement:   deref(req.Complement),
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, messageResponse{ID: id, Message: "Store created"})
}

// Update handles PUT /stores/{id}
func (h *StoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := storeID(r, "store.update")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	req, err := decodeStoreRequest(r, "store.update")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	err = h.service.UpdateStore(r.Context(), id, service.UpdateStoreParams{
		Name:         req.Name,
		PostalCode:   req.PostalCode,
		StreetNumber: req.StreetNumber,
		Complement:   req.Complement,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, messageResponse{ID: id, Message: "Store updated"})
}

// Delete handles DELETE /stores/{id}
func (h *StoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := storeID(r, "store.delete")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.service.DeleteStore(r.Context(), id); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, messageResponse{ID: id, Message: "Store deleted"})
}

// NotFound answers unknown routes with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	handler.ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func storeID(r *http.Request, op string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(op, "Invalid store id")
	}
	return id, nil
}

func decodeStoreRequest(r *http.Request, op string) (storeRequest, error) {
	var req storeRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return req, domain.Invalid(op, "Request body too large")
		case errors.Is(err, io.EOF):
			return req, domain.Invalid(op, "Request body is empty")
		default:
			return req, domain.Invalid(op, "Invalid JSON body")
		}
	}
	return req, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
