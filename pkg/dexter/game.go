package dexter

import (
	"fmt"
	"maps"
	"slices"
)

// PlayerKind separates people from scripted seats.
type PlayerKind string

const (
	PlayerHuman    PlayerKind = "human"
	PlayerScripted PlayerKind = "scripted"
)

// Player is a seat at the table.
type Player struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Host           bool       `json:"host"`
	Kind           PlayerKind `json:"kind"`
	ManagementCard string     `json:"management_card,omitempty"`
}

// IsScripted reports whether the seat is driven by the scripted agent policy.
func (p Player) IsScripted() bool { return p.Kind == PlayerScripted }

// Settings are fixed at creation time.
type Settings struct {
	Capacity int         `json:"capacity"`
	Public   bool        `json:"public"`
	Roles    RoleToggles `json:"roles"`
}

// StoryResult is the outcome slot for one story.
type StoryResult string

const (
	StoryUnresolved StoryResult = "unresolved"
	StoryDexter     StoryResult = "dexter"
	StorySinister   StoryResult = "sinister"
)

// Discard records a management card leaving play.
type Discard struct {
	CardID   string `json:"card_id"`
	PlayedBy string `json:"played_by,omitempty"`
	Story    int    `json:"story"`
	Seq      int    `json:"seq"`
}

// Revelation records that From showed their faction to To.
type Revelation struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Faction Faction `json:"faction"`
}

// RoundEffects are management card effects scoped to the current proposal
// or mission. They are cleared when the team is rejected or the story ends.
// LockedIn holds the players a detour added to the team this round; a later
// detour in the same round may not remove them. The proposer's original
// members stay removable.
type RoundEffects struct {
	TeamSizeOverride     int      `json:"team_size_override,omitempty"`
	LockedIn             []string `json:"locked_in,omitempty"`
	ForceSinisterRequest bool     `json:"force_sinister_request,omitempty"`
	ToleranceOne         bool     `json:"tolerance_one,omitempty"`
}

// Game is the single authoritative aggregate for one match.
type Game struct {
	ID                 string                    `json:"id"`
	Name               string                    `json:"name"`
	Settings           Settings                  `json:"settings"`
	Players            map[string]Player         `json:"players"`
	PlayerOrder        []string                  `json:"player_order"`
	Roles              map[string]Role           `json:"roles,omitempty"`
	CurrentTO          string                    `json:"current_to,omitempty"`
	CurrentStory       int                       `json:"current_story"`
	StoryResults       [StoriesTotal]StoryResult `json:"story_results"`
	VoteFailsThisRound int                       `json:"vote_fails_this_round"`
	Phase              Phase                     `json:"-"`
	Overlay            Overlay                   `json:"-"`
	ManagementDeck     []string                  `json:"management_deck,omitempty"`
	DiscardedCards     []Discard                 `json:"discarded_cards,omitempty"`
	PlayedCard         string                    `json:"played_card,omitempty"`
	Effects            RoundEffects              `json:"effects"`
	Revelations        []Revelation              `json:"revelations,omitempty"`
	Log                []LogEntry                `json:"log"`
	Version            int                       `json:"version"`
}

// NewGame creates a game in the lobby.
func NewGame(id, name string, settings Settings) (*Game, error) {
	if settings.Capacity < MinPlayers || settings.Capacity > MaxPlayers {
		return nil, fmt.Errorf("%w: capacity %d (need %d-%d)", ErrPlayerCountOutOfRange, settings.Capacity, MinPlayers, MaxPlayers)
	}
	g := &Game{
		ID:           id,
		Name:         name,
		Settings:     settings,
		Players:      make(map[string]Player),
		Phase:        &Lobby{},
		CurrentStory: 1,
	}
	for i := range g.StoryResults {
		g.StoryResults[i] = StoryUnresolved
	}
	g.logf("created", "", "Game %q created", name)
	return g, nil
}

// Status returns the overlay status when one is open, otherwise the phase status.
func (g *Game) Status() Status {
	if g.Overlay != nil {
		return g.Overlay.Status()
	}
	return g.Phase.Status()
}

// Clone returns a deep copy. Transitions are applied to clones by callers
// that must not observe a partially applied change.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = maps.Clone(g.Players)
	if c.Players == nil {
		c.Players = make(map[string]Player)
	}
	c.PlayerOrder = slices.Clone(g.PlayerOrder)
	c.Roles = maps.Clone(g.Roles)
	if g.Phase != nil {
		c.Phase = g.Phase.clonePhase()
	}
	if g.Overlay != nil {
		c.Overlay = g.Overlay.cloneOverlay()
	}
	c.ManagementDeck = slices.Clone(g.ManagementDeck)
	c.DiscardedCards = slices.Clone(g.DiscardedCards)
	c.Effects.LockedIn = slices.Clone(g.Effects.LockedIn)
	c.Revelations = slices.Clone(g.Revelations)
	c.Log = slices.Clone(g.Log)
	return &c
}

// IsSeated reports whether id is a player in this game.
func (g *Game) IsSeated(id string) bool {
	_, ok := g.Players[id]
	return ok
}

// Host returns the host's player ID, or "" when the table is empty.
func (g *Game) Host() string {
	for _, id := range g.PlayerOrder {
		if g.Players[id].Host {
			return id
		}
	}
	return ""
}

// HasHumans reports whether any seat is held by a person.
func (g *Game) HasHumans() bool {
	for _, p := range g.Players {
		if !p.IsScripted() {
			return true
		}
	}
	return false
}

// FactionOf returns the faction of a seated player's role.
func (g *Game) FactionOf(id string) Faction {
	return g.Roles[id].Faction()
}

// HasRole reports whether any seated player holds the role.
func (g *Game) HasRole(r Role) bool {
	for _, id := range g.PlayerOrder {
		if g.Roles[id] == r {
			return true
		}
	}
	return false
}

// PlayerWithRole returns the first seated player holding the role.
func (g *Game) PlayerWithRole(r Role) (string, bool) {
	for _, id := range g.PlayerOrder {
		if g.Roles[id] == r {
			return id, true
		}
	}
	return "", false
}

// RequiredTeamSize is the table size for the current story unless a
// management card overrides it for this proposal.
func (g *Game) RequiredTeamSize() (int, error) {
	if g.Effects.TeamSizeOverride > 0 {
		return g.Effects.TeamSizeOverride, nil
	}
	return TeamSize(len(g.PlayerOrder), g.CurrentStory)
}

// Winner returns the winning faction once the game is over.
func (g *Game) Winner() (Faction, bool) {
	over, ok := g.Phase.(*GameOver)
	if !ok {
		return "", false
	}
	return over.Winner, true
}

// nextAfter returns the seat after id, wrapping around.
func (g *Game) nextAfter(id string) string {
	if len(g.PlayerOrder) == 0 {
		return ""
	}
	i := slices.Index(g.PlayerOrder, id)
	return g.PlayerOrder[(i+1)%len(g.PlayerOrder)]
}

func (g *Game) name(id string) string {
	if p, ok := g.Players[id]; ok && p.Name != "" {
		return p.Name
	}
	return id
}

func (g *Game) touch() { g.Version++ }

func (g *Game) requireSeated(id string) error {
	if !g.IsSeated(id) {
		return fmt.Errorf("%w: %s", ErrNotInGame, id)
	}
	return nil
}

// requirePhase checks that no overlay is open and the phase has the given status.
func (g *Game) requirePhase(want Status) error {
	if g.Overlay != nil {
		return fmt.Errorf("%w: %s is waiting on %s", ErrInvalidPhaseTransition, g.Overlay.Status(), g.name(g.Overlay.OverlayActor()))
	}
	if got := g.Phase.Status(); got != want {
		return fmt.Errorf("%w: game is in %s, not %s", ErrInvalidPhaseTransition, got, want)
	}
	return nil
}

// validateMembers checks ids are distinct seated players.
func (g *Game) validateMembers(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !g.IsSeated(id) {
			return fmt.Errorf("%w: %s is not seated", ErrInvalidSelection, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s listed twice", ErrInvalidSelection, id)
		}
		seen[id] = true
	}
	return nil
}

func (g *Game) setHand(id, cardID string) {
	p := g.Players[id]
	p.ManagementCard = cardID
	g.Players[id] = p
}
