package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/middleware"
	"github.com/doorlist/doorlist/internal/response"
	"github.com/doorlist/doorlist/internal/service"
)

type AuthHandler struct {
	service   service.AuthService
	jwtSecret string
}

func NewAuthHandler(svc service.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{service: svc, jwtSecret: jwtSecret}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireJWT(h.jwtSecret))
		r.Get("/me", h.me)
	})
	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	res, err := h.service.Login(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	if userID == uuid.Nil {
		response.Unauthorized(w, "invalid authorization token")
		return
	}
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, user)
}
