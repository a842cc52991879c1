package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/lavapp/api/internal/database"
)

// SettingsStore defines the database methods needed by settings handlers.
// Satisfied by *database.Queries.
type SettingsStore interface {
	GetCompanySettings(ctx context.Context) (database.CompanySettings, error)
	UpsertCompanySettings(ctx context.Context, arg database.UpsertCompanySettingsParams) (database.CompanySettings, error)
}

// SettingsHandler handles the company profile endpoints.
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

type settingsRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	LogoURL string `json:"logo_url"`
}

type settingsResponse struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	LogoURL *string `json:"logo_url"`
}

func toSettingsResponse(s database.CompanySettings) settingsResponse {
	return settingsResponse{
		Name:    s.Name,
		Phone:   textPtr(s.Phone),
		Address: textPtr(s.Address),
		LogoURL: textPtr(s.LogoURL),
	}
}

// Get returns the company profile, or an empty one before first save.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetCompanySettings(r.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, settingsResponse{})
			return
		}
		log.Error().Err(err).Msg("get settings")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// Update saves the company profile.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	toText := func(s string) pgtype.Text {
		if s == "" {
			return pgtype.Text{}
		}
		return pgtype.Text{String: s, Valid: true}
	}

	settings, err := h.store.UpsertCompanySettings(r.Context(), database.UpsertCompanySettingsParams{
		Name:    req.Name,
		Phone:   toText(req.Phone),
		Address: toText(req.Address),
		LogoURL: toText(req.LogoURL),
	})
	if err != nil {
		log.Error().Err(err).Msg("update settings")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}
