package service

import "github.com/freeeve/dexter-sinister/pkg/dexter"

// GameView is one viewer's picture of a game: the redacted snapshot, how
// every seat appears to them and whose move it is.
type GameView struct {
	Game         *dexter.Game                 `json:"game"`
	Status       dexter.Status                `json:"status"`
	Appearances  map[string]dexter.Appearance `json:"appearances"`
	ActorsToMove []string                     `json:"actors_to_move"`
	TeamSize     int                          `json:"team_size,omitempty"`
}

// ViewFor builds the view of g for viewerID. Spectators pass any ID that
// is not seated and see no roles.
func ViewFor(g *dexter.Game, viewerID string) GameView {
	v := GameView{
		Game:         dexter.RedactFor(g, viewerID),
		Status:       g.Status(),
		Appearances:  dexter.Visibility(g, viewerID),
		ActorsToMove: g.ActorsToMove(),
	}
	if v.ActorsToMove == nil {
		v.ActorsToMove = []string{}
	}
	if g.Status() == dexter.StatusTeamProposal {
		if k, err := g.RequiredTeamSize(); err == nil {
			v.TeamSize = k
		}
	}
	return v
}
