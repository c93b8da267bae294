package dexter

import (
	"fmt"
	"slices"
)

// SubmitMissionCard records a team member's mission card. A second card from
// the same member is ignored. While a force-request effect is active, cards
// from Sinister members are recorded as request.
func (g *Game) SubmitMissionCard(actorID string, c MissionCard) error {
	if err := g.requirePhase(StatusMission); err != nil {
		return err
	}
	if err := g.requireSeated(actorID); err != nil {
		return err
	}
	m := g.Phase.(*Mission)
	if !slices.Contains(m.Team, actorID) {
		return fmt.Errorf("%w: %s is not on the team", ErrNotAuthorized, g.name(actorID))
	}
	if c != CardApprove && c != CardRequest {
		return fmt.Errorf("%w: mission card %q", ErrInvalidSelection, c)
	}
	if _, played := m.Cards[actorID]; played {
		return nil
	}

	if g.Effects.ForceSinisterRequest && g.FactionOf(actorID) == FactionSinister {
		c = CardRequest
	}
	m.Cards[actorID] = c
	g.logf("missionCard", actorID, "%s submitted a mission card", g.name(actorID))
	if len(m.Cards) == len(m.Team) {
		g.resolveMission(m)
	}
	g.touch()
	return nil
}

// resolveMission scores the story. Any request card fails it, or two under
// a tolerance effect.
func (g *Game) resolveMission(m *Mission) {
	approve, request := 0, 0
	for _, c := range m.Cards {
		if c == CardRequest {
			request++
		} else {
			approve++
		}
	}
	threshold := 1
	if g.Effects.ToleranceOne {
		threshold = 2
	}
	outcome := StoryDexter
	if request >= threshold {
		outcome = StorySinister
	}

	story := g.CurrentStory
	g.StoryResults[story-1] = outcome
	g.Effects = RoundEffects{}
	g.PlayedCard = ""
	g.logf("storyResolved", "", "Story %d: %s (%d approve, %d request)", story, outcome, approve, request)

	res := Evaluate(g.StoryResults, g.VoteFailsThisRound, g.HasRole(Sniper))
	switch {
	case res.Provisional:
		sniper, _ := g.PlayerWithRole(Sniper)
		g.Phase = &Assassination{Sniper: sniper}
		g.logf("assassination", sniper, "Dexter completed %d stories; the Sniper takes aim", StoriesToWin)
	case res.Decided:
		g.endGame(res.Winner, fmt.Sprintf("%d stories", StoriesToWin))
	default:
		g.Phase = &Results{Story: story, Outcome: outcome, Approve: approve, Request: request}
	}
}

// NextRound advances past the results of a story. Any seated player may
// trigger it.
func (g *Game) NextRound(actorID string) error {
	if err := g.requirePhase(StatusResults); err != nil {
		return err
	}
	if err := g.requireSeated(actorID); err != nil {
		return err
	}

	g.CurrentStory++
	if g.CurrentStory > StoriesTotal {
		g.endGame(FinalWinner(g.StoryResults), "all stories played")
		g.touch()
		return nil
	}
	g.Effects = RoundEffects{}
	g.PlayedCard = ""
	g.CurrentTO = g.nextAfter(g.CurrentTO)
	g.Phase = &TeamProposal{}
	g.logf("teamProposal", g.CurrentTO, "Story %d: %s is TO", g.CurrentStory, g.name(g.CurrentTO))
	g.touch()
	return nil
}

// SubmitAssassination is the Sniper's single guess at the Duke.
func (g *Game) SubmitAssassination(actorID, targetID string) error {
	if err := g.requirePhase(StatusAssassination); err != nil {
		return err
	}
	a := g.Phase.(*Assassination)
	if actorID != a.Sniper {
		return fmt.Errorf("%w: only the sniper may shoot", ErrNotAuthorized)
	}
	if !g.IsSeated(targetID) || g.FactionOf(targetID) != FactionDexter {
		return fmt.Errorf("%w: target must be a Dexter player", ErrInvalidSelection)
	}

	g.logf("assassination", actorID, "%s took aim at %s", g.name(actorID), g.name(targetID))
	if g.Roles[targetID] == Duke {
		g.endGame(FactionSinister, "the sniper found the duke")
	} else {
		g.endGame(FactionDexter, "the sniper missed")
	}
	g.touch()
	return nil
}
