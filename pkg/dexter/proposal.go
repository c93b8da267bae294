package dexter

import (
	"fmt"
	"slices"
	"strings"
)

// ProposeTeam submits the TO's team. On stories 1-4 the TO may also name an
// off-team player without a management card to draw one once the team is
// approved.
func (g *Game) ProposeTeam(actorID string, members []string, target string) error {
	if err := g.requirePhase(StatusTeamProposal); err != nil {
		return err
	}
	if err := g.requireSeated(actorID); err != nil {
		return err
	}
	if actorID != g.CurrentTO {
		return fmt.Errorf("%w: %s is not the TO", ErrNotAuthorized, g.name(actorID))
	}
	want, err := g.RequiredTeamSize()
	if err != nil {
		return err
	}
	if len(members) != want {
		return fmt.Errorf("%w: story %d needs %d members, got %d", ErrInvalidTeamSize, g.CurrentStory, want, len(members))
	}
	if err := g.validateMembers(members); err != nil {
		return err
	}
	if target != "" {
		if err := g.validateManagementTarget(members, target); err != nil {
			return err
		}
	}

	g.Phase = &TeamVoting{
		Team:             slices.Clone(members),
		Proposer:         actorID,
		ManagementTarget: target,
		Votes:            make(map[string]Vote),
	}
	g.logf("teamProposed", actorID, "%s proposed %s", g.name(actorID), g.names(members))
	if target != "" {
		g.logf("managementTarget", actorID, "%s will draw a management card if the team is approved", g.name(target))
	}
	g.touch()
	return nil
}

func (g *Game) validateManagementTarget(members []string, target string) error {
	if g.CurrentStory >= StoriesTotal {
		return fmt.Errorf("%w: no management cards on story %d", ErrInvalidSelection, g.CurrentStory)
	}
	if !g.IsSeated(target) {
		return fmt.Errorf("%w: %s is not seated", ErrInvalidSelection, target)
	}
	if slices.Contains(members, target) {
		return fmt.Errorf("%w: %s is on the team", ErrInvalidSelection, g.name(target))
	}
	if g.Players[target].ManagementCard != "" {
		return fmt.Errorf("%w: %s already holds a management card", ErrInvalidSelection, g.name(target))
	}
	return nil
}

func (g *Game) names(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.name(id)
	}
	return strings.Join(out, ", ")
}
