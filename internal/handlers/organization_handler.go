package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/middleware"
	"github.com/doorlist/doorlist/internal/response"
	"github.com/doorlist/doorlist/internal/service"
)

type OrganizationHandler struct {
	orgs   service.OrganizationService
	events service.EventService
}

func NewOrganizationHandler(orgs service.OrganizationService, events service.EventService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, events: events}
}

// Routes are mounted behind JWT auth; every operation acts as the
// authenticated user.
func (h *OrganizationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{orgID}", h.get)
	r.Patch("/{orgID}", h.update)
	r.Get("/{orgID}/members", h.listMembers)
	r.Post("/{orgID}/members", h.addMember)
	r.Post("/{orgID}/events", h.createEvent)
	r.Get("/{orgID}/events", h.listEvents)
	return r
}

func (h *OrganizationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrgRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	org, err := h.orgs.CreateOrganization(r.Context(), middleware.UserID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, org)
}

func (h *OrganizationHandler) list(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.ListOrganizations(r.Context(), middleware.UserID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, orgs)
}

func (h *OrganizationHandler) get(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuidParam(r, "orgID")
	if err != nil {
		response.BadRequest(w, "invalid organization id")
		return
	}
	org, err := h.orgs.GetOrganization(r.Context(), orgID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) update(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuidParam(r, "orgID")
	if err != nil {
		response.BadRequest(w, "invalid organization id")
		return
	}
	var patch domain.OrgPatch
	if err := decodeJSON(r, &patch); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	org, err := h.orgs.UpdateOrganization(r.Context(), middleware.UserID(r), orgID, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) listMembers(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuidParam(r, "orgID")
	if err != nil {
		response.BadRequest(w, "invalid organization id")
		return
	}
	members, err := h.orgs.ListMembers(r.Context(), middleware.UserID(r), orgID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, members)
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *OrganizationHandler) addMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuidParam(r, "orgID")
	if err != nil {
		response.BadRequest(w, "invalid organization id")
		return
	}
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	role, ok := domain.ParseOrgRole(req.Role)
	if !ok {
		response.BadRequest(w, "invalid role")
		return
	}
	if err := h.orgs.AddMember(r.Context(), middleware.UserID(r), orgID, req.Email, role); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrganizationHandler) createEvent(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuidParam(r, "orgID")
	if err != nil {
		response.BadRequest(w, "invalid organization id")
		return
	}
	var req domain.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	event, err := h.events.CreateEvent(r.Context(), middleware.UserID(r), orgID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, event)
}

func (h *OrganizationHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuidParam(r, "orgID")
	if err != nil {
		response.BadRequest(w, "invalid organization id")
		return
	}
	limit, offset := pagination(r)
	list, err := h.events.ListOrgEvents(r.Context(), middleware.UserID(r), orgID, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, list)
}
