package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/auth"
	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/internal/service"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// GameHandler handles the lobby endpoints: creating, listing, joining and
// leaving games, seating scripted players and reading state.
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	var req struct {
		Name     string              `json:"name"`
		Capacity int                 `json:"capacity,omitempty"`
		Public   *bool               `json:"public,omitempty"`
		Roles    *dexter.RoleToggles `json:"roles,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	create := service.CreateGameRequest{Name: req.Name, Capacity: req.Capacity, Public: true, Roles: dexter.DefaultRoleToggles()}
	if req.Public != nil {
		create.Public = *req.Public
	}
	if req.Roles != nil {
		create.Roles = *req.Roles
	}

	view, err := h.gameSvc.CreateGame(r.Context(), id.ID, id.Name, create)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// ListGames handles GET /api/v1/games. filter=mine lists the caller's games;
// anything else lists public lobbies.
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var (
		games any
		err   error
	)
	switch r.URL.Query().Get("filter") {
	case "mine":
		mine, lerr := h.gameSvc.ListMine(r.Context(), userID)
		games, err = nonNil(mine), lerr
	default:
		open, lerr := h.gameSvc.ListOpen(r.Context())
		games, err = nonNil(open), lerr
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	view, err := h.gameSvc.GetGame(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GameLog handles GET /api/v1/games/{id}/log?since=N
func (h *GameHandler) GameLog(w http.ResponseWriter, r *http.Request) {
	since := 0
	if s := r.URL.Query().Get("since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	entries, err := h.gameSvc.GameLog(r.Context(), r.PathValue("id"), since)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	view, err := h.gameSvc.JoinGame(r.Context(), r.PathValue("id"), id.ID, id.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// LeaveGame handles POST /api/v1/games/{id}/leave
func (h *GameHandler) LeaveGame(w http.ResponseWriter, r *http.Request) {
	if err := h.gameSvc.LeaveGame(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// AddBot handles POST /api/v1/games/{id}/bots
func (h *GameHandler) AddBot(w http.ResponseWriter, r *http.Request) {
	view, err := h.gameSvc.AddScriptedPlayer(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// RemoveBot handles DELETE /api/v1/games/{id}/bots/{botId}
func (h *GameHandler) RemoveBot(w http.ResponseWriter, r *http.Request) {
	err := h.gameSvc.RemoveScriptedPlayer(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), r.PathValue("botId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.gameSvc.DeleteGame(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, dexter.ErrNotInGame):
		return http.StatusNotFound
	case errors.Is(err, dexter.ErrNotAuthorized), errors.Is(err, service.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, dexter.ErrInvalidTeamSize), errors.Is(err, dexter.ErrInvalidSelection),
		errors.Is(err, service.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, dexter.ErrInvalidPhaseTransition), errors.Is(err, dexter.ErrCardNotPlayable),
		errors.Is(err, dexter.ErrGameFull), errors.Is(err, dexter.ErrPlayerCountOutOfRange),
		errors.Is(err, dexter.ErrAlreadyJoined), errors.Is(err, dexter.ErrRoleAssignmentImpossible),
		errors.Is(err, service.ErrGameNotLobby), errors.Is(err, repository.ErrVersionConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeError(w, status, err.Error())
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
