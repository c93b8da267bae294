package bot

import (
	"math/rand"
	"slices"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// Agree probabilities for scripted votes.
const (
	dexterAgree          = 0.80
	sinisterAgreeBlended = 0.60
	sinisterAgree        = 0.25
	designateTarget      = 0.50
)

// Policy makes decisions for scripted players. Faction knowledge comes only
// from what the deciding seat can see (dexter.Visibility), so the same
// decisions work on a full game and on a redacted view.
type Policy struct {
	rng *rand.Rand
}

// NewPolicy creates a policy drawing from rng.
func NewPolicy(rng *rand.Rand) *Policy {
	return &Policy{rng: rng}
}

// ProposeTeam picks a uniformly random team of the required size. On
// stories that allow it, it sometimes names an off-team player without a
// card to draw a management card.
func (p *Policy) ProposeTeam(g *dexter.Game, actorID string) (dexter.Intent, error) {
	size, err := g.RequiredTeamSize()
	if err != nil {
		return dexter.Intent{}, err
	}
	team := sample(p.rng, g.PlayerOrder, size)

	var target string
	if g.CurrentStory < dexter.StoriesTotal && p.rng.Float64() < designateTarget {
		var eligible []string
		for _, id := range g.PlayerOrder {
			if !slices.Contains(team, id) && g.Players[id].ManagementCard == "" {
				eligible = append(eligible, id)
			}
		}
		if len(eligible) > 0 {
			target = pick(p.rng, eligible)
		}
	}
	return dexter.Intent{Kind: dexter.IntentPropose, Player: actorID, Members: team, Target: target}, nil
}

// Vote decides on the proposed team as seen by the voter. A vote that could
// be the fifth rejection is always agree.
func (p *Policy) Vote(g *dexter.Game, voterID string, team []string, seen map[string]dexter.Appearance) dexter.Vote {
	if g.VoteFailsThisRound >= dexter.MaxVoteFails-1 {
		return dexter.VoteAgree
	}
	chance := dexterAgree
	if seen[voterID].Faction() == dexter.FactionSinister {
		chance = sinisterAgree
		for _, id := range team {
			if seen[id].Faction() == dexter.FactionSinister {
				chance = sinisterAgreeBlended
				break
			}
		}
	}
	if p.rng.Float64() < chance {
		return dexter.VoteAgree
	}
	return dexter.VoteRethrow
}

// MissionCard plays to the player's faction.
func (p *Policy) MissionCard(g *dexter.Game, playerID string) dexter.MissionCard {
	if g.FactionOf(playerID) == dexter.FactionSinister {
		return dexter.CardRequest
	}
	return dexter.CardApprove
}

// ManagementDecision resolves an open draw: draw when offered, and play a
// drawn card whenever it is playable.
func (p *Policy) ManagementDecision(g *dexter.Game, md *dexter.ManagementDraw) dexter.Intent {
	if md.Drawn == "" {
		return dexter.Intent{Kind: dexter.IntentDraw, Player: md.Actor}
	}
	return dexter.Intent{Kind: dexter.IntentPlay, Player: md.Actor}
}

// Detour picks the team change for a management detour.
func (p *Policy) Detour(g *dexter.Game, phase dexter.Phase) (dexter.Intent, bool) {
	var d dexter.Detour
	switch ph := phase.(type) {
	case *dexter.ShiftingPriorities:
		d = ph.Detour
	case *dexter.ScopeCreep:
		d = ph.Detour
	case *dexter.ServiceReassignment:
		d = ph.Detour
	default:
		return dexter.Intent{}, false
	}

	var removable, offTeam []string
	for _, id := range g.PlayerOrder {
		switch {
		case !slices.Contains(d.Team, id):
			offTeam = append(offTeam, id)
		case !slices.Contains(g.Effects.LockedIn, id):
			removable = append(removable, id)
		}
	}

	in := dexter.Intent{Player: d.Actor}
	switch phase.(type) {
	case *dexter.ShiftingPriorities:
		if len(removable) == 0 || len(offTeam) < 2 {
			return dexter.Intent{}, false
		}
		in.Kind = dexter.IntentShiftingPriorities
		in.Remove = pick(p.rng, removable)
		in.Members = sample(p.rng, offTeam, 2)
	case *dexter.ScopeCreep:
		if len(offTeam) == 0 {
			return dexter.Intent{}, false
		}
		in.Kind = dexter.IntentScopeCreep
		in.Target = pick(p.rng, offTeam)
	case *dexter.ServiceReassignment:
		if len(removable) == 0 || len(offTeam) == 0 {
			return dexter.Intent{}, false
		}
		in.Kind = dexter.IntentServiceReassignment
		in.Remove = pick(p.rng, removable)
		in.Target = pick(p.rng, offTeam)
	}
	return in, true
}

// Ceo draws two and keeps one at random.
func (p *Policy) Ceo(ceo *dexter.CeoCardPlay) dexter.Intent {
	if len(ceo.Candidates) == 0 {
		return dexter.Intent{Kind: dexter.IntentCeoDrawTwo, Player: ceo.Actor}
	}
	return dexter.Intent{Kind: dexter.IntentCeoPick, Player: ceo.Actor, CardID: pick(p.rng, ceo.Candidates)}
}

// RevealTarget picks a random other player.
func (p *Policy) RevealTarget(g *dexter.Game, actorID string) string {
	others := slices.DeleteFunc(slices.Clone(g.PlayerOrder), func(id string) bool { return id == actorID })
	return pick(p.rng, others)
}

// AssassinationTarget guesses among players the Sniper does not know to be
// Sinister.
func (p *Policy) AssassinationTarget(g *dexter.Game, sniperID string, seen map[string]dexter.Appearance) string {
	var candidates []string
	for _, id := range g.PlayerOrder {
		if id != sniperID && seen[id].Faction() != dexter.FactionSinister {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return pick(p.rng, candidates)
}
