package internalhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hackmate/hackathon-helper/internal/app"
	"github.com/hackmate/hackathon-helper/internal/settings"
	"github.com/hackmate/hackathon-helper/internal/storage"
	"github.com/hackmate/hackathon-helper/internal/timezone"
	log "github.com/sirupsen/logrus"
)

// wallClockLayout is how the dialog layer sends creator-local times.
const wallClockLayout = "2006-01-02T15:04"

type handlers struct {
	app      *app.App
	settings *settings.Service
	users    storage.UserStorage
}

func (h *handlers) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", h.createEvent)
	mux.HandleFunc("GET /events", h.listEvents)
	mux.HandleFunc("GET /events/all", h.listAllEvents)
	mux.HandleFunc("GET /events/{id}", h.getEvent)
	mux.HandleFunc("GET /events/{id}/changes", h.listChanges)
	mux.HandleFunc("PATCH /events/{id}", h.updateEvent)
	mux.HandleFunc("DELETE /events/{id}", h.removeEvent)
	mux.HandleFunc("PUT /users/{id}", h.saveUser)
	mux.HandleFunc("GET /users/{id}/settings", h.getSettings)
	mux.HandleFunc("POST /users/{id}/settings/enabled", h.toggleEnabled)
	mux.HandleFunc("PUT /users/{id}/settings/offsets", h.setOffsets)
	mux.HandleFunc("POST /users/{id}/settings/categories/{category}", h.toggleCategory)
	return mux
}

type eventRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	Location        string   `json:"location"`
	Visibility      []string `json:"visibility"`
	CreatedBy       string   `json:"createdBy"`
	CreatorTimezone string   `json:"creatorTimezone"`
}

func (h *handlers) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	start, err := parseWallClock(req.StartTime)
	if err != nil {
		writeBadRequest(w, "invalid startTime")
		return
	}
	end, err := parseWallClock(req.EndTime)
	if err != nil {
		writeBadRequest(w, "invalid endTime")
		return
	}
	visibility, err := parseVisibility(req.Visibility)
	if err != nil {
		writeError(w, err)
		return
	}

	event, err := h.app.CreateEvent(r.Context(), storage.Event{
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       start,
		EndTime:         end,
		Location:        req.Location,
		Visibility:      visibility,
		CreatedBy:       req.CreatedBy,
		CreatorTimezone: req.CreatorTimezone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.app.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type updateEventRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	StartTime   *string  `json:"startTime"`
	EndTime     *string  `json:"endTime"`
	Location    *string  `json:"location"`
	Visibility  []string `json:"visibility"`
}

func (h *handlers) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	patch := app.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.StartTime != nil {
		start, err := parseWallClock(*req.StartTime)
		if err != nil {
			writeBadRequest(w, "invalid startTime")
			return
		}
		patch.StartTime = &start
	}
	if req.EndTime != nil {
		end, err := parseWallClock(*req.EndTime)
		if err != nil {
			writeBadRequest(w, "invalid endTime")
			return
		}
		patch.EndTime = &end
	}
	if req.Visibility != nil {
		visibility, err := parseVisibility(req.Visibility)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.Visibility = visibility
	}

	updated, err := h.app.UpdateEvent(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

func (h *handlers) removeEvent(w http.ResponseWriter, r *http.Request) {
	removed, err := h.app.RemoveEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	role, err := storage.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, err)
		return
	}
	viewerZone := r.URL.Query().Get("timezone")
	if viewerZone == "" {
		viewerZone = timezone.DefaultZone
	}
	if !timezone.IsSupported(viewerZone) {
		writeError(w, storage.ErrUnknownTimezone)
		return
	}

	views, err := h.app.ListForRole(r.Context(), role, viewerZone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handlers) listAllEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.app.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handlers) listChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := h.app.ChangeHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

type userRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Timezone string `json:"timezone"`
	Active   bool   `json:"active"`
}

func (h *handlers) saveUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	role, err := storage.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	if !timezone.IsSupported(req.Timezone) {
		writeError(w, storage.ErrUnknownTimezone)
		return
	}

	u := storage.User{
		ID:       r.PathValue("id"),
		Name:     req.Name,
		Role:     role,
		Timezone: req.Timezone,
		Active:   req.Active,
	}
	if err := h.users.SaveUser(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// userRole resolves the role used for lazy settings defaults: the stored
// user wins, otherwise the caller must pass ?role=.
func (h *handlers) userRole(r *http.Request, userID string) (storage.Role, error) {
	u, err := h.users.GetUser(r.Context(), userID)
	if err == nil {
		return u.Role, nil
	}
	if !errors.Is(err, storage.ErrNotFoundUser) {
		return "", err
	}
	return storage.ParseRole(r.URL.Query().Get("role"))
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	role, err := h.userRole(r, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.settings.GetOrCreate(r.Context(), userID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handlers) toggleEnabled(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	role, err := h.userRole(r, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.settings.ToggleEnabled(r.Context(), userID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handlers) setOffsets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Offsets []int `json:"offsets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	userID := r.PathValue("id")
	role, err := h.userRole(r, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.settings.SetReminderOffsets(r.Context(), userID, role, req.Offsets)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handlers) toggleCategory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	role, err := h.userRole(r, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.settings.ToggleCategory(r.Context(), userID, role, storage.Category(r.PathValue("category")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func parseWallClock(s string) (time.Time, error) {
	return time.Parse(wallClockLayout, s)
}

func parseVisibility(roles []string) ([]storage.Role, error) {
	visibility := make([]storage.Role, 0, len(roles))
	for _, r := range roles {
		role, err := storage.ParseVisibilityRole(r)
		if err != nil {
			return nil, err
		}
		visibility = append(visibility, role)
	}
	return visibility, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFoundEvent), errors.Is(err, storage.ErrNotFoundUser):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrIncorrectEventTime),
		errors.Is(err, storage.ErrEmptyVisibility),
		errors.Is(err, storage.ErrUnknownTimezone),
		errors.Is(err, storage.ErrUnknownRole),
		errors.Is(err, settings.ErrUnknownCategory):
		writeBadRequest(w, err.Error())
	default:
		log.Errorf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
