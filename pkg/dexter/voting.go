package dexter

import "fmt"

// SubmitVote records a player's vote on the proposed team. A second vote
// from the same player is ignored. The team is resolved once every seated
// player has voted.
func (g *Game) SubmitVote(actorID string, v Vote) error {
	if err := g.requirePhase(StatusTeamVoting); err != nil {
		return err
	}
	if err := g.requireSeated(actorID); err != nil {
		return err
	}
	if v != VoteAgree && v != VoteRethrow {
		return fmt.Errorf("%w: vote %q", ErrInvalidSelection, v)
	}
	tv := g.Phase.(*TeamVoting)
	if _, voted := tv.Votes[actorID]; voted {
		return nil
	}

	tv.Votes[actorID] = v
	g.logf("vote", actorID, "%s voted", g.name(actorID))
	if len(tv.Votes) == len(g.PlayerOrder) {
		g.resolveVotes(tv)
	}
	g.touch()
	return nil
}

// resolveVotes approves the team on a strict majority of agree votes.
func (g *Game) resolveVotes(tv *TeamVoting) {
	agree := 0
	for _, v := range tv.Votes {
		if v == VoteAgree {
			agree++
		}
	}
	rethrow := len(tv.Votes) - agree

	if agree > rethrow {
		g.VoteFailsThisRound = 0
		g.Phase = &Mission{
			Team:             tv.Team,
			ManagementTarget: tv.ManagementTarget,
			Cards:            make(map[string]MissionCard),
		}
		g.logf("teamApproved", "", "Team approved %d-%d: %s", agree, rethrow, g.names(tv.Team))
		if tv.ManagementTarget != "" && g.IsSeated(tv.ManagementTarget) {
			g.Overlay = &ManagementDraw{Actor: tv.ManagementTarget}
			g.logf("managementPhase", tv.ManagementTarget, "%s may draw a management card", g.name(tv.ManagementTarget))
		}
		return
	}

	g.VoteFailsThisRound++
	g.Effects = RoundEffects{}
	g.PlayedCard = ""
	g.logf("teamRejected", "", "Team rejected %d-%d (%d/%d)", agree, rethrow, g.VoteFailsThisRound, MaxVoteFails)
	if g.VoteFailsThisRound >= MaxVoteFails {
		g.endGame(FactionSinister, fmt.Sprintf("%d teams rejected", MaxVoteFails))
		return
	}
	g.CurrentTO = g.nextAfter(g.CurrentTO)
	g.Phase = &TeamProposal{}
	g.logf("teamProposal", g.CurrentTO, "%s is TO", g.name(g.CurrentTO))
}
