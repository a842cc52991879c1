package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/enum"
)

// PieceStore defines the database methods needed by piece handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PieceStore interface {
	ListPieces(ctx context.Context, arg database.ListPiecesParams) ([]database.Piece, error)
	GetPiece(ctx context.Context, id uuid.UUID) (database.Piece, error)
	CreatePiece(ctx context.Context, arg database.CreatePieceParams) (database.Piece, error)
	UpdatePiece(ctx context.Context, arg database.UpdatePieceParams) (database.Piece, error)
	DeletePiece(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// PieceHandler handles the piece catalog endpoints.
type PieceHandler struct {
	store PieceStore
}

// NewPieceHandler creates a new PieceHandler.
func NewPieceHandler(store PieceStore) *PieceHandler {
	return &PieceHandler{store: store}
}

// RegisterRoutes registers piece catalog endpoints on the given Chi router.
func (h *PieceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

// --- Request / Response types ---

type pieceRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	UnitType string `json:"unit_type"`
}

type pieceResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	UnitType  string    `json:"unit_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPieceResponse(p database.Piece) pieceResponse {
	return pieceResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     numericToString(p.Price),
		UnitType:  p.UnitType,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// parsePieceRequest validates the shared create/update payload.
func parsePieceRequest(req pieceRequest) (pgtype.Numeric, string, error) {
	if req.Name == "" {
		return pgtype.Numeric{}, "", errors.New("name is required")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		return pgtype.Numeric{}, "", errors.New("price must be a positive number")
	}
	if !enum.IsValidUnitType(req.UnitType) {
		return pgtype.Numeric{}, "", errors.New("unit_type must be UNIT or PAIR")
	}
	var n pgtype.Numeric
	_ = n.Scan(price.StringFixed(2))
	return n, req.UnitType, nil
}

// --- Handlers ---

// List returns the catalog ordered by name, with optional name search.
func (h *PieceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var search pgtype.Text
	if s := r.URL.Query().Get("search"); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	pieces, err := h.store.ListPieces(r.Context(), database.ListPiecesParams{
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Error().Err(err).Msg("list pieces")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]pieceResponse, len(pieces))
	for i, p := range pieces {
		resp[i] = toPieceResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single piece by ID.
func (h *PieceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid piece ID")
		return
	}

	piece, err := h.store.GetPiece(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "piece not found")
			return
		}
		log.Error().Err(err).Msg("get piece")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toPieceResponse(piece))
}

// Create adds a piece to the catalog.
func (h *PieceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req pieceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, unitType, err := parsePieceRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	piece, err := h.store.CreatePiece(r.Context(), database.CreatePieceParams{
		Name:     req.Name,
		Price:    price,
		UnitType: unitType,
	})
	if err != nil {
		log.Error().Err(err).Msg("create piece")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toPieceResponse(piece))
}

// Update changes a catalog entry. Existing order items keep their price
// snapshot.
func (h *PieceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid piece ID")
		return
	}

	var req pieceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, unitType, err := parsePieceRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	piece, err := h.store.UpdatePiece(r.Context(), database.UpdatePieceParams{
		ID:       id,
		Name:     req.Name,
		Price:    price,
		UnitType: unitType,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "piece not found")
			return
		}
		log.Error().Err(err).Msg("update piece")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toPieceResponse(piece))
}

// Delete removes a piece. Pieces referenced by order items cannot be deleted.
func (h *PieceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid piece ID")
		return
	}

	if _, err := h.store.DeletePiece(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "piece not found")
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeError(w, http.StatusConflict, "piece is used by orders and cannot be deleted")
			return
		}
		log.Error().Err(err).Msg("delete piece")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
