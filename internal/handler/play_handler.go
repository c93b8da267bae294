package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/freeeve/dexter-sinister/internal/auth"
	"github.com/freeeve/dexter-sinister/internal/service"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// PlayHandler handles in-game endpoints. Each endpoint turns its body into
// one intent for the caller.
type PlayHandler struct {
	playSvc *service.PlayService
}

// NewPlayHandler creates a PlayHandler.
func NewPlayHandler(playSvc *service.PlayService) *PlayHandler {
	return &PlayHandler{playSvc: playSvc}
}

// intentBody is the union of fields any in-game endpoint accepts.
type intentBody struct {
	Members []string           `json:"members,omitempty"`
	Target  string             `json:"target,omitempty"`
	Remove  string             `json:"remove,omitempty"`
	Vote    dexter.Vote        `json:"vote,omitempty"`
	Card    dexter.MissionCard `json:"card,omitempty"`
	CardID  string             `json:"card_id,omitempty"`
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *PlayHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	view, err := h.playSvc.StartGame(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ProposeTeam handles POST /api/v1/games/{id}/team
func (h *PlayHandler) ProposeTeam(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, dexter.IntentPropose)
}

// Vote handles POST /api/v1/games/{id}/vote
func (h *PlayHandler) Vote(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, dexter.IntentVote)
}

// SubmitMissionCard handles POST /api/v1/games/{id}/mission
func (h *PlayHandler) SubmitMissionCard(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, dexter.IntentMissionCard)
}

// Intent returns a handler that submits kind for the caller. It serves the
// management, detour, CEO and end-of-game endpoints whose bodies need no
// checks beyond the engine's.
func (h *PlayHandler) Intent(kind dexter.IntentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.act(w, r, kind)
	}
}

func (h *PlayHandler) act(w http.ResponseWriter, r *http.Request, kind dexter.IntentKind) {
	var body intentBody
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch kind {
	case dexter.IntentVote:
		if body.Vote != dexter.VoteAgree && body.Vote != dexter.VoteRethrow {
			writeError(w, http.StatusBadRequest, "vote must be agree or rethrow")
			return
		}
	case dexter.IntentMissionCard:
		if body.Card != dexter.CardApprove && body.Card != dexter.CardRequest {
			writeError(w, http.StatusBadRequest, "card must be approve or request")
			return
		}
	case dexter.IntentPropose:
		if len(body.Members) == 0 {
			writeError(w, http.StatusBadRequest, "members is required")
			return
		}
	}

	in := dexter.Intent{
		Kind:    kind,
		Player:  auth.UserIDFromContext(r.Context()),
		Members: body.Members,
		Target:  body.Target,
		Remove:  body.Remove,
		Vote:    body.Vote,
		Card:    body.Card,
		CardID:  body.CardID,
	}
	view, err := h.playSvc.Act(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
