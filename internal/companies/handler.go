package companies

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-registry/meridian/internal/audit"
	"github.com/meridian-registry/meridian/internal/entity"
	"github.com/meridian-registry/meridian/internal/shared"
)

// Handler exposes the company service over REST.
type Handler struct {
	logger  *slog.Logger
	service *Service
	audit   audit.Recorder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, recorder audit.Recorder) *Handler {
	return &Handler{logger: logger, service: service, audit: recorder}
}

// Routes mounts the company endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/", h.Update)
	r.Get("/", h.List)
	r.Get("/count", h.Count)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var form CompanyForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	saved, err := h.service.Save(r.Context(), form.toModel())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.recordMutation(r, string(entity.ActionSave), saved.ID)
	h.writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var form CompanyForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	updated, err := h.service.Update(r.Context(), form.toModel())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.recordMutation(r, string(entity.ActionUpdate), updated.ID)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}
	company, err := h.service.Find(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, company)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := entity.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		http.Error(w, "invalid filter", http.StatusBadRequest)
		return
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("size"))
	pageNumber, _ := strconv.Atoi(r.URL.Query().Get("page"))
	order := parseOrder(r.URL.Query().Get("order"), r.URL.Query().Get("dir"))

	page, err := h.service.FindAll(r.Context(), filter, pageSize, pageNumber, order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	filter, err := entity.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		http.Error(w, "invalid filter", http.StatusBadRequest)
		return
	}
	total, err := h.service.CountAll(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"total": total})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.recordMutation(r, string(entity.ActionRemove), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordMutation(r *http.Request, action string, entityID int64) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		return
	}
	h.audit.Record(r.Context(), audit.NewEvent(actor.UserID, action, Resource, entityID))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}

// writeError maps the service error taxonomy onto wire statuses:
// 401 unauthorized, 404 not found, 409 validation or version conflict,
// 422 duplicate.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
	case errors.Is(err, entity.ErrUnauthorized):
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrNoResult):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, entity.ErrStaleVersion):
		http.Error(w, "entity version conflict", http.StatusConflict)
	case errors.Is(err, entity.ErrDuplicate):
		http.Error(w, "duplicate entity", http.StatusUnprocessableEntity)
	case errors.Is(err, entity.ErrNonUniqueResult):
		http.Error(w, "filter matched more than one entity", http.StatusBadRequest)
	default:
		h.logger.Error("company request failed",
			slog.Any("error", err),
			slog.String("path", r.URL.Path),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func parseOrder(field, dir string) []entity.Order {
	if field == "" {
		return nil
	}
	return []entity.Order{{Field: field, Desc: dir == "desc"}}
}
