package dexter

import (
	"fmt"
	"slices"
)

// SubmitShiftingPrioritiesTeam swaps one unlocked member out and two
// off-team players in, then sends the team back to a vote.
func (g *Game) SubmitShiftingPrioritiesTeam(actorID, removeID string, addIDs []string) error {
	d, err := g.requireDetour(StatusShiftingPriorities, actorID)
	if err != nil {
		return err
	}
	if len(addIDs) != 2 {
		return fmt.Errorf("%w: add exactly 2 players, got %d", ErrInvalidTeamSize, len(addIDs))
	}
	if err := g.checkRemovable(d, removeID); err != nil {
		return err
	}
	if err := g.checkAddable(d, addIDs...); err != nil {
		return err
	}
	team := slices.DeleteFunc(slices.Clone(d.Team), func(s string) bool { return s == removeID })
	g.logf("shiftingPriorities", actorID, "%s replaced %s with %s", g.name(actorID), g.name(removeID), g.names(addIDs))
	g.returnToVote(d, append(team, addIDs...), addIDs)
	return nil
}

// SubmitScopeCreepTeam adds one off-team player and sends the team back to
// a vote.
func (g *Game) SubmitScopeCreepTeam(actorID, addID string) error {
	d, err := g.requireDetour(StatusScopeCreep, actorID)
	if err != nil {
		return err
	}
	if err := g.checkAddable(d, addID); err != nil {
		return err
	}
	g.logf("scopeCreep", actorID, "%s added %s", g.name(actorID), g.name(addID))
	g.returnToVote(d, append(slices.Clone(d.Team), addID), []string{addID})
	return nil
}

// SubmitServiceReassignment swaps one unlocked member for one off-team
// player and sends the team back to a vote.
func (g *Game) SubmitServiceReassignment(actorID, removeID, addID string) error {
	d, err := g.requireDetour(StatusServiceReassignment, actorID)
	if err != nil {
		return err
	}
	if err := g.checkRemovable(d, removeID); err != nil {
		return err
	}
	if err := g.checkAddable(d, addID); err != nil {
		return err
	}
	team := slices.Clone(d.Team)
	team[slices.Index(team, removeID)] = addID
	g.logf("serviceReassignment", actorID, "%s reassigned %s to %s", g.name(actorID), g.name(removeID), g.name(addID))
	g.returnToVote(d, team, []string{addID})
	return nil
}

func (g *Game) requireDetour(want Status, actorID string) (*Detour, error) {
	if err := g.requirePhase(want); err != nil {
		return nil, err
	}
	d := g.Phase.(detourPhase).detour()
	if actorID != d.Actor {
		return nil, fmt.Errorf("%w: %s is changing the team", ErrNotAuthorized, g.name(d.Actor))
	}
	return d, nil
}

func (g *Game) checkRemovable(d *Detour, id string) error {
	if !slices.Contains(d.Team, id) {
		return fmt.Errorf("%w: %s is not on the team", ErrInvalidSelection, g.name(id))
	}
	if slices.Contains(g.Effects.LockedIn, id) {
		return fmt.Errorf("%w: %s is locked in", ErrInvalidSelection, g.name(id))
	}
	return nil
}

func (g *Game) checkAddable(d *Detour, ids ...string) error {
	if err := g.validateMembers(ids); err != nil {
		return err
	}
	for _, id := range ids {
		if slices.Contains(d.Team, id) {
			return fmt.Errorf("%w: %s is already on the team", ErrInvalidSelection, g.name(id))
		}
	}
	return nil
}

// returnToVote reopens voting on the mutated team. Added members are locked
// in for the rest of the round and the team size is overridden to match.
func (g *Game) returnToVote(d *Detour, team, added []string) {
	target := d.ManagementTarget
	if slices.Contains(team, target) {
		target = ""
	}
	g.Effects.TeamSizeOverride = len(team)
	g.Effects.LockedIn = append(g.Effects.LockedIn, added...)
	g.PlayedCard = ""
	g.Phase = &TeamVoting{
		Team:             team,
		Proposer:         d.Proposer,
		ManagementTarget: target,
		Votes:            make(map[string]Vote),
	}
	g.logf("teamVoting", d.Proposer, "Vote on %s", g.names(team))
	g.touch()
}
