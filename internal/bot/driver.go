package bot

import (
	"errors"
	"fmt"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// ErrStepLimit is returned by Run when a game does not settle.
var ErrStepLimit = errors.New("scripted step limit reached")

// Driver turns the current snapshot into intents for every scripted player
// the game is waiting on.
type Driver struct {
	policy *Policy
}

// NewDriver creates a driver around policy.
func NewDriver(policy *Policy) *Driver {
	return &Driver{policy: policy}
}

// Step returns the pending scripted intents for g, all decided against the
// same snapshot. Results are advanced only when no person is seated, so
// people keep control of the pace of their own games.
func (d *Driver) Step(g *dexter.Game) ([]dexter.Intent, error) {
	return d.step(g, func(id string) map[string]dexter.Appearance { return dexter.Visibility(g, id) })
}

// step decides with seenBy supplying what each scripted seat knows.
func (d *Driver) step(g *dexter.Game, seenBy func(id string) map[string]dexter.Appearance) ([]dexter.Intent, error) {
	if g.Overlay != nil {
		actor := g.Overlay.OverlayActor()
		if !d.scripted(g, actor) {
			return nil, nil
		}
		in, err := d.overlay(g, actor)
		if err != nil {
			return nil, err
		}
		return []dexter.Intent{in}, nil
	}

	var out []dexter.Intent
	switch ph := g.Phase.(type) {
	case *dexter.TeamProposal:
		if d.scripted(g, g.CurrentTO) {
			in, err := d.policy.ProposeTeam(g, g.CurrentTO)
			if err != nil {
				return nil, err
			}
			out = append(out, in)
		}
	case *dexter.TeamVoting:
		for _, id := range g.ActorsToMove() {
			if d.scripted(g, id) {
				out = append(out, dexter.Intent{Kind: dexter.IntentVote, Player: id, Vote: d.policy.Vote(g, id, ph.Team, seenBy(id))})
			}
		}
	case *dexter.Mission:
		for _, id := range g.ActorsToMove() {
			if d.scripted(g, id) {
				out = append(out, dexter.Intent{Kind: dexter.IntentMissionCard, Player: id, Card: d.policy.MissionCard(g, id)})
			}
		}
	case *dexter.ShiftingPriorities, *dexter.ScopeCreep, *dexter.ServiceReassignment:
		actors := g.ActorsToMove()
		if len(actors) == 1 && d.scripted(g, actors[0]) {
			in, ok := d.policy.Detour(g, ph)
			if !ok {
				return nil, fmt.Errorf("no legal team change for %s", ph.Status())
			}
			out = append(out, in)
		}
	case *dexter.Assassination:
		if d.scripted(g, ph.Sniper) {
			out = append(out, dexter.Intent{Kind: dexter.IntentAssassinate, Player: ph.Sniper, Target: d.policy.AssassinationTarget(g, ph.Sniper, seenBy(ph.Sniper))})
		}
	case *dexter.Results:
		if !g.HasHumans() && len(g.PlayerOrder) > 0 {
			out = append(out, dexter.Intent{Kind: dexter.IntentNextRound, Player: g.PlayerOrder[0]})
		}
	}
	return out, nil
}

func (d *Driver) overlay(g *dexter.Game, actor string) (dexter.Intent, error) {
	switch o := g.Overlay.(type) {
	case *dexter.ManagementDraw:
		return d.policy.ManagementDecision(g, o), nil
	case *dexter.CeoCardPlay:
		return d.policy.Ceo(o), nil
	case *dexter.LoyaltyRevealOverlay:
		return dexter.Intent{Kind: dexter.IntentReveal, Player: actor, Target: d.policy.RevealTarget(g, actor)}, nil
	}
	return dexter.Intent{}, fmt.Errorf("unknown overlay %s", g.Overlay.Status())
}

func (d *Driver) scripted(g *dexter.Game, id string) bool {
	p, ok := g.Players[id]
	return ok && p.IsScripted()
}

// Apply applies a batch of intents in order. It stops at the first error,
// so callers should apply to a clone and discard it on failure.
func (d *Driver) Apply(g *dexter.Game, intents []dexter.Intent) error {
	for _, in := range intents {
		if err := in.Apply(g); err != nil {
			return fmt.Errorf("%s %s: %w", in.Player, in.Kind, err)
		}
	}
	return nil
}

// Run steps g until nothing scripted is pending or limit batches have been
// applied. It returns the number of batches applied.
func (d *Driver) Run(g *dexter.Game, limit int) (int, error) {
	for n := 0; n < limit; n++ {
		intents, err := d.Step(g)
		if err != nil {
			return n, err
		}
		if len(intents) == 0 {
			return n, nil
		}
		if err := d.Apply(g, intents); err != nil {
			return n, err
		}
	}
	return limit, ErrStepLimit
}

// StepFor returns the intents playerID should submit now, decided by the
// policy as if that seat were scripted. It works on redacted views, so
// remote clients can play a person's seat; seen is the seat's appearance
// map from the server, and nil means derive it from g. In Results only the
// host advances, so several clients never skip a story between them.
func (d *Driver) StepFor(g *dexter.Game, playerID string, seen map[string]dexter.Appearance) ([]dexter.Intent, error) {
	if !g.IsSeated(playerID) {
		return nil, nil
	}
	if g.Overlay == nil && g.Phase.Status() == dexter.StatusResults {
		if g.Host() == playerID {
			return []dexter.Intent{{Kind: dexter.IntentNextRound, Player: playerID}}, nil
		}
		return nil, nil
	}

	c := g.Clone()
	for id, p := range c.Players {
		if id == playerID {
			p.Kind = dexter.PlayerScripted
		} else {
			p.Kind = dexter.PlayerHuman
		}
		c.Players[id] = p
	}
	if seen == nil {
		seen = dexter.Visibility(g, playerID)
	}
	intents, err := d.step(c, func(string) map[string]dexter.Appearance { return seen })
	if err != nil {
		return nil, err
	}
	out := intents[:0]
	for _, in := range intents {
		if in.Player == playerID {
			out = append(out, in)
		}
	}
	return out, nil
}
