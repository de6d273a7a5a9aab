package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/veriloc/internal/api/middleware"
	"github.com/mcoot/veriloc/internal/api/request"
	"github.com/mcoot/veriloc/internal/api/response"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/auth"
)

// AdminHandler handles admin account and session endpoints
type AdminHandler struct {
	authService *auth.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *auth.Service) *AdminHandler {
	return &AdminHandler{
		authService: authService,
	}
}

// Login handles POST /api/v1/admins/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/admins/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		WriteError(w, NewUnauthorizedError())
		return
	}

	if err := h.authService.Logout(r.Context(), session.Token); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Create handles POST /api/v1/admins
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetAdmin(r.Context())

	var req request.CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	admin, err := h.authService.CreateAdmin(r.Context(), actor, auth.NewAdmin{
		Username:      req.Username,
		Password:      req.Password,
		Email:         req.Email,
		FingerprintID: model.Identity(req.FingerprintID),
		IsSuperAdmin:  req.IsSuperAdmin,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AdminFromModel(admin))
}

// List handles GET /api/v1/admins
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.authService.ListAdmins(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AdminsFromModel(admins))
}

// GetMe handles GET /api/v1/admins/me
func (h *AdminHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	admin := middleware.MustGetAdmin(r.Context())
	response.JSON(w, http.StatusOK, response.AdminFromModel(admin))
}

// Update handles PATCH /api/v1/admins/{id}
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetAdmin(r.Context())
	id := model.AdminID(mux.Vars(r)["id"])

	var req request.UpdateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	in := auth.AdminUpdate{
		Username:     req.Username,
		Email:        req.Email,
		IsSuperAdmin: req.IsSuperAdmin,
	}
	if req.FingerprintID != nil {
		fp := model.Identity(*req.FingerprintID)
		in.FingerprintID = &fp
	}

	admin, err := h.authService.UpdateAdmin(r.Context(), actor, id, in)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AdminFromModel(admin))
}

// Delete handles DELETE /api/v1/admins/{id}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetAdmin(r.Context())
	id := model.AdminID(mux.Vars(r)["id"])

	if err := h.authService.DeleteAdmin(r.Context(), actor, id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
