package dexter

import "fmt"

// IntentKind names a player intent.
type IntentKind string

const (
	IntentPropose             IntentKind = "propose"
	IntentVote                IntentKind = "vote"
	IntentMissionCard         IntentKind = "missionCard"
	IntentDraw                IntentKind = "draw"
	IntentSkipDraw            IntentKind = "skipDraw"
	IntentPlay                IntentKind = "play"
	IntentSkipPlay            IntentKind = "skipPlay"
	IntentShiftingPriorities  IntentKind = "shiftingPriorities"
	IntentScopeCreep          IntentKind = "scopeCreep"
	IntentServiceReassignment IntentKind = "serviceReassignment"
	IntentCeoTake             IntentKind = "ceoTake"
	IntentCeoDrawTwo          IntentKind = "ceoDrawTwo"
	IntentCeoPick             IntentKind = "ceoPick"
	IntentReveal              IntentKind = "reveal"
	IntentAssassinate         IntentKind = "assassinate"
	IntentNextRound           IntentKind = "nextRound"
)

// Intent is one player decision in serializable form. Both people and
// scripted agents act through intents.
type Intent struct {
	Kind    IntentKind  `json:"kind"`
	Player  string      `json:"player"`
	Members []string    `json:"members,omitempty"`
	Target  string      `json:"target,omitempty"`
	Remove  string      `json:"remove,omitempty"`
	Vote    Vote        `json:"vote,omitempty"`
	Card    MissionCard `json:"card,omitempty"`
	CardID  string      `json:"card_id,omitempty"`
}

// Apply performs the intent against g.
func (in Intent) Apply(g *Game) error {
	switch in.Kind {
	case IntentPropose:
		return g.ProposeTeam(in.Player, in.Members, in.Target)
	case IntentVote:
		return g.SubmitVote(in.Player, in.Vote)
	case IntentMissionCard:
		return g.SubmitMissionCard(in.Player, in.Card)
	case IntentDraw:
		return g.DrawManagementCard(in.Player)
	case IntentSkipDraw:
		return g.SkipManagementDraw(in.Player)
	case IntentPlay:
		return g.PlayManagementCard(in.Player)
	case IntentSkipPlay:
		return g.SkipManagementPlay(in.Player)
	case IntentShiftingPriorities:
		return g.SubmitShiftingPrioritiesTeam(in.Player, in.Remove, in.Members)
	case IntentScopeCreep:
		return g.SubmitScopeCreepTeam(in.Player, in.Target)
	case IntentServiceReassignment:
		return g.SubmitServiceReassignment(in.Player, in.Remove, in.Target)
	case IntentCeoTake:
		return g.CeoTakeCard(in.Player, in.Target)
	case IntentCeoDrawTwo:
		return g.CeoDrawTwo(in.Player)
	case IntentCeoPick:
		return g.CeoPick(in.Player, in.CardID)
	case IntentReveal:
		return g.RevealLoyalty(in.Player, in.Target)
	case IntentAssassinate:
		return g.SubmitAssassination(in.Player, in.Target)
	case IntentNextRound:
		return g.NextRound(in.Player)
	}
	return fmt.Errorf("%w: unknown intent %q", ErrInvalidSelection, in.Kind)
}
