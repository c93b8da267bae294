package handler

import (
	"net/http"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// APIRoutes registers the JWT-protected endpoints. Paths are relative to
// /api/v1; the caller strips the prefix and applies auth.
func APIRoutes(users *UserHandler, games *GameHandler, play *PlayHandler) *http.ServeMux {
	api := http.NewServeMux()

	api.HandleFunc("GET /users/me", users.GetMe)
	api.HandleFunc("PATCH /users/me", users.UpdateMe)
	api.HandleFunc("GET /users/{id}", users.GetUser)

	api.HandleFunc("POST /games", games.CreateGame)
	api.HandleFunc("GET /games", games.ListGames)
	api.HandleFunc("GET /games/{id}", games.GetGame)
	api.HandleFunc("DELETE /games/{id}", games.DeleteGame)
	api.HandleFunc("GET /games/{id}/log", games.GameLog)
	api.HandleFunc("POST /games/{id}/join", games.JoinGame)
	api.HandleFunc("POST /games/{id}/leave", games.LeaveGame)
	api.HandleFunc("POST /games/{id}/bots", games.AddBot)
	api.HandleFunc("DELETE /games/{id}/bots/{botId}", games.RemoveBot)

	api.HandleFunc("POST /games/{id}/start", play.StartGame)
	api.HandleFunc("POST /games/{id}/team", play.ProposeTeam)
	api.HandleFunc("POST /games/{id}/vote", play.Vote)
	api.HandleFunc("POST /games/{id}/mission", play.SubmitMissionCard)
	api.HandleFunc("POST /games/{id}/management/draw", play.Intent(dexter.IntentDraw))
	api.HandleFunc("POST /games/{id}/management/skip", play.Intent(dexter.IntentSkipDraw))
	api.HandleFunc("POST /games/{id}/management/play", play.Intent(dexter.IntentPlay))
	api.HandleFunc("POST /games/{id}/management/skip-play", play.Intent(dexter.IntentSkipPlay))
	api.HandleFunc("POST /games/{id}/detour/shifting-priorities", play.Intent(dexter.IntentShiftingPriorities))
	api.HandleFunc("POST /games/{id}/detour/scope-creep", play.Intent(dexter.IntentScopeCreep))
	api.HandleFunc("POST /games/{id}/detour/service-reassignment", play.Intent(dexter.IntentServiceReassignment))
	api.HandleFunc("POST /games/{id}/ceo/take", play.Intent(dexter.IntentCeoTake))
	api.HandleFunc("POST /games/{id}/ceo/draw-two", play.Intent(dexter.IntentCeoDrawTwo))
	api.HandleFunc("POST /games/{id}/ceo/pick", play.Intent(dexter.IntentCeoPick))
	api.HandleFunc("POST /games/{id}/reveal", play.Intent(dexter.IntentReveal))
	api.HandleFunc("POST /games/{id}/assassinate", play.Intent(dexter.IntentAssassinate))
	api.HandleFunc("POST /games/{id}/next-round", play.Intent(dexter.IntentNextRound))

	return api
}
