package dexter

import "slices"

// Status is the lifecycle value shown for a game.
type Status string

const (
	StatusLobby               Status = "lobby"
	StatusTeamProposal        Status = "teamProposal"
	StatusTeamVoting          Status = "teamVoting"
	StatusMission             Status = "mission"
	StatusResults             Status = "results"
	StatusAssassination       Status = "assassination"
	StatusShiftingPriorities  Status = "shiftingPriorities"
	StatusScopeCreep          Status = "scopeCreep"
	StatusServiceReassignment Status = "serviceReassignment"
	StatusGameOver            Status = "gameOver"

	// Overlay statuses suspend the underlying phase until resolved.
	StatusManagementPhase Status = "managementPhase"
	StatusCeoCardPlay     Status = "ceoCardPlay"
	StatusLoyaltyReveal   Status = "loyaltyReveal"
)

// Phase is the main state of a game. Each implementation carries only the
// fields that are meaningful while the game is in that status.
type Phase interface {
	Status() Status
	clonePhase() Phase
}

// Lobby is the pre-game phase.
type Lobby struct{}

// TeamProposal waits for the current TO to submit a team.
type TeamProposal struct{}

// Vote is a team-approval ballot.
type Vote string

const (
	VoteAgree   Vote = "agree"
	VoteRethrow Vote = "rethrow"
)

// TeamVoting collects one vote per seated player on a proposed team.
type TeamVoting struct {
	Team             []string        `json:"team"`
	Proposer         string          `json:"proposer"`
	ManagementTarget string          `json:"management_target,omitempty"`
	Votes            map[string]Vote `json:"votes"`
}

// MissionCard is a card played by a team member on a mission.
type MissionCard string

const (
	CardApprove MissionCard = "approve"
	CardRequest MissionCard = "request"
)

// Mission collects one card from each team member.
type Mission struct {
	Team             []string               `json:"team"`
	ManagementTarget string                 `json:"management_target,omitempty"`
	Cards            map[string]MissionCard `json:"cards"`
}

// Results shows the outcome of the last story until someone advances.
type Results struct {
	Story   int         `json:"story"`
	Outcome StoryResult `json:"outcome"`
	Approve int         `json:"approve"`
	Request int         `json:"request"`
}

// Assassination gives the Sniper one guess at the Duke.
type Assassination struct {
	Sniper string `json:"sniper"`
}

// Detour is the state shared by the team-mutation phases. Proposer and
// ManagementTarget are carried through so the team goes back to a vote
// exactly as it was proposed, apart from its members.
type Detour struct {
	Team             []string `json:"team"`
	Actor            string   `json:"actor"`
	CardID           string   `json:"card_id"`
	Proposer         string   `json:"proposer"`
	ManagementTarget string   `json:"management_target,omitempty"`
}

func (d *Detour) detour() *Detour { return d }

func (d *Detour) clone() Detour {
	c := *d
	c.Team = slices.Clone(d.Team)
	return c
}

// detourPhase is implemented by the three team-mutation phases.
type detourPhase interface {
	Phase
	detour() *Detour
}

// ShiftingPriorities lets the card player swap one member out and two in.
type ShiftingPriorities struct{ Detour }

// ScopeCreep lets the card player add one member.
type ScopeCreep struct{ Detour }

// ServiceReassignment lets the card player swap one member for another.
type ServiceReassignment struct{ Detour }

// GameOver is terminal. Winner is empty when the game was abandoned.
type GameOver struct {
	Winner Faction `json:"winner,omitempty"`
	Reason string  `json:"reason"`
}

func (*Lobby) Status() Status               { return StatusLobby }
func (*TeamProposal) Status() Status        { return StatusTeamProposal }
func (*TeamVoting) Status() Status          { return StatusTeamVoting }
func (*Mission) Status() Status             { return StatusMission }
func (*Results) Status() Status             { return StatusResults }
func (*Assassination) Status() Status       { return StatusAssassination }
func (*ShiftingPriorities) Status() Status  { return StatusShiftingPriorities }
func (*ScopeCreep) Status() Status          { return StatusScopeCreep }
func (*ServiceReassignment) Status() Status { return StatusServiceReassignment }
func (*GameOver) Status() Status            { return StatusGameOver }

func (p *Lobby) clonePhase() Phase        { return &Lobby{} }
func (p *TeamProposal) clonePhase() Phase { return &TeamProposal{} }

func (p *TeamVoting) clonePhase() Phase {
	c := *p
	c.Team = slices.Clone(p.Team)
	c.Votes = make(map[string]Vote, len(p.Votes))
	for k, v := range p.Votes {
		c.Votes[k] = v
	}
	return &c
}

func (p *Mission) clonePhase() Phase {
	c := *p
	c.Team = slices.Clone(p.Team)
	c.Cards = make(map[string]MissionCard, len(p.Cards))
	for k, v := range p.Cards {
		c.Cards[k] = v
	}
	return &c
}

func (p *Results) clonePhase() Phase       { c := *p; return &c }
func (p *Assassination) clonePhase() Phase { c := *p; return &c }
func (p *GameOver) clonePhase() Phase      { c := *p; return &c }

func (p *ShiftingPriorities) clonePhase() Phase  { return &ShiftingPriorities{p.clone()} }
func (p *ScopeCreep) clonePhase() Phase          { return &ScopeCreep{p.clone()} }
func (p *ServiceReassignment) clonePhase() Phase { return &ServiceReassignment{p.clone()} }

// Overlay is a sub-phase that blocks the underlying phase until its actor
// resolves it.
type Overlay interface {
	Status() Status
	OverlayActor() string
	cloneOverlay() Overlay
}

// ManagementDraw lets the designated player draw (or skip) a management
// card. Drawn is set once a card was drawn that can be played right away,
// and the actor must then play it or keep it.
type ManagementDraw struct {
	Actor string `json:"actor"`
	Drawn string `json:"drawn,omitempty"`
}

// CeoCardPlay lets the actor take another player's card or draw two and
// keep one. Candidates holds the two drawn cards while a pick is pending.
type CeoCardPlay struct {
	Actor      string   `json:"actor"`
	Candidates []string `json:"candidates,omitempty"`
}

// LoyaltyRevealOverlay lets the actor reveal their faction to one player.
type LoyaltyRevealOverlay struct {
	Actor string `json:"actor"`
}

func (*ManagementDraw) Status() Status       { return StatusManagementPhase }
func (*CeoCardPlay) Status() Status          { return StatusCeoCardPlay }
func (*LoyaltyRevealOverlay) Status() Status { return StatusLoyaltyReveal }

func (o *ManagementDraw) OverlayActor() string       { return o.Actor }
func (o *CeoCardPlay) OverlayActor() string          { return o.Actor }
func (o *LoyaltyRevealOverlay) OverlayActor() string { return o.Actor }

func (o *ManagementDraw) cloneOverlay() Overlay { c := *o; return &c }
func (o *CeoCardPlay) cloneOverlay() Overlay {
	c := *o
	c.Candidates = slices.Clone(o.Candidates)
	return &c
}
func (o *LoyaltyRevealOverlay) cloneOverlay() Overlay { c := *o; return &c }
