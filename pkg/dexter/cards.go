package dexter

import (
	"math/rand"
	"slices"
)

// Effect identifies what a management card does when played.
type Effect string

const (
	EffectShiftingPriorities  Effect = "shifting_priorities"
	EffectScopeCreep          Effect = "scope_creep"
	EffectServiceReassignment Effect = "service_reassignment"
	EffectForceSinister       Effect = "force_sinister_request"
	EffectToleranceOne        Effect = "tolerance_one"
	EffectLoyaltyReveal       Effect = "loyalty_reveal"
	EffectCEO                 Effect = "ceo"
)

// ManagementCard is a static catalog entry.
type ManagementCard struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Instructions string   `json:"instructions"`
	Effect       Effect   `json:"effect"`
	Phases       []Status `json:"phases"`
	Stories      []int    `json:"stories"`
}

// PlayableIn reports whether the card may be played in the given status and story.
func (c ManagementCard) PlayableIn(status Status, story int) bool {
	return slices.Contains(c.Phases, status) && slices.Contains(c.Stories, story)
}

var catalog = []ManagementCard{
	{
		ID:           "shifting-priorities",
		Title:        "Shifting Priorities",
		Instructions: "Swap one proposed team member out and bring two others in. The team is voted on again.",
		Effect:       EffectShiftingPriorities,
		Phases:       []Status{StatusTeamVoting},
		Stories:      []int{1, 2, 3, 4},
	},
	{
		ID:           "pivot",
		Title:        "Pivot",
		Instructions: "Swap one proposed team member out and bring two others in. The team is voted on again.",
		Effect:       EffectShiftingPriorities,
		Phases:       []Status{StatusTeamVoting},
		Stories:      []int{2, 3, 4, 5},
	},
	{
		ID:           "scope-creep",
		Title:        "Scope Creep",
		Instructions: "Add one more player to the proposed team. The team is voted on again.",
		Effect:       EffectScopeCreep,
		Phases:       []Status{StatusTeamVoting},
		Stories:      []int{1, 2, 3, 4},
	},
	{
		ID:           "late-feature-request",
		Title:        "Late Feature Request",
		Instructions: "Add one more player to the proposed team. The team is voted on again.",
		Effect:       EffectScopeCreep,
		Phases:       []Status{StatusTeamVoting},
		Stories:      []int{2, 3, 4, 5},
	},
	{
		ID:           "service-reassignment",
		Title:        "Service Reassignment",
		Instructions: "Replace one proposed team member with a player of your choice. The team is voted on again.",
		Effect:       EffectServiceReassignment,
		Phases:       []Status{StatusTeamVoting},
		Stories:      []int{1, 2, 3, 4, 5},
	},
	{
		ID:           "reorg",
		Title:        "Reorg",
		Instructions: "Replace one proposed team member with a player of your choice. The team is voted on again.",
		Effect:       EffectServiceReassignment,
		Phases:       []Status{StatusTeamVoting},
		Stories:      []int{3, 4, 5},
	},
	{
		ID:           "mandatory-code-review",
		Title:        "Mandatory Code Review",
		Instructions: "Every Sinister member on this mission must submit a request card.",
		Effect:       EffectForceSinister,
		Phases:       []Status{StatusMission},
		Stories:      []int{1, 2, 3, 4, 5},
	},
	{
		ID:           "audit-trail",
		Title:        "Audit Trail",
		Instructions: "Every Sinister member on this mission must submit a request card.",
		Effect:       EffectForceSinister,
		Phases:       []Status{StatusMission},
		Stories:      []int{3, 4, 5},
	},
	{
		ID:           "hotfix",
		Title:        "Hotfix",
		Instructions: "This story only fails if two or more request cards are submitted.",
		Effect:       EffectToleranceOne,
		Phases:       []Status{StatusMission},
		Stories:      []int{4, 5},
	},
	{
		ID:           "one-on-one",
		Title:        "One-on-One",
		Instructions: "Reveal your faction to one player of your choice.",
		Effect:       EffectLoyaltyReveal,
		Phases:       []Status{StatusTeamVoting, StatusMission},
		Stories:      []int{1, 2, 3, 4, 5},
	},
	{
		ID:           "skip-level-meeting",
		Title:        "Skip-Level Meeting",
		Instructions: "Reveal your faction to one player of your choice.",
		Effect:       EffectLoyaltyReveal,
		Phases:       []Status{StatusTeamVoting},
		Stories:      []int{3, 4, 5},
	},
	{
		ID:           "ceo-visit",
		Title:        "CEO Visit",
		Instructions: "Take the management card another player holds, or draw two cards and keep one.",
		Effect:       EffectCEO,
		Phases:       []Status{StatusTeamVoting, StatusMission},
		Stories:      []int{1, 2, 3, 4, 5},
	},
	{
		ID:           "board-meeting",
		Title:        "Board Meeting",
		Instructions: "Take the management card another player holds, or draw two cards and keep one.",
		Effect:       EffectCEO,
		Phases:       []Status{StatusTeamVoting},
		Stories:      []int{2, 3, 4, 5},
	},
}

// Catalog returns a copy of every management card.
func Catalog() []ManagementCard {
	out := make([]ManagementCard, len(catalog))
	copy(out, catalog)
	return out
}

// CardByID looks up a catalog entry.
func CardByID(id string) (ManagementCard, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return ManagementCard{}, false
}

// NewDeck returns every card ID in a shuffled order.
func NewDeck(rng *rand.Rand) []string {
	deck := make([]string, len(catalog))
	for i, c := range catalog {
		deck[i] = c.ID
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}
