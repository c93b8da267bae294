package dexter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	cards := Catalog()
	require.Len(t, cards, 13)
	seen := make(map[string]bool)
	for _, c := range cards {
		assert.False(t, seen[c.ID], "duplicate card %s", c.ID)
		seen[c.ID] = true
		assert.NotEmpty(t, c.Phases, c.ID)
		assert.NotEmpty(t, c.Stories, c.ID)
		got, ok := CardByID(c.ID)
		assert.True(t, ok)
		assert.Equal(t, c.Effect, got.Effect)
	}
	_, ok := CardByID("nope")
	assert.False(t, ok)

	hotfix, _ := CardByID("hotfix")
	assert.True(t, hotfix.PlayableIn(StatusMission, 4))
	assert.False(t, hotfix.PlayableIn(StatusMission, 1))
	assert.False(t, hotfix.PlayableIn(StatusTeamVoting, 4))
}

func TestManagementDrawKeepsUnplayableCard(t *testing.T) {
	g := sixPlayers(t)
	g.ManagementDeck = []string{"scope-creep", "hotfix"}
	approveTeam(t, g, "p3", "p1", "p2")
	require.Equal(t, StatusManagementPhase, g.Status())

	assert.ErrorIs(t, g.SubmitMissionCard("p1", CardApprove), ErrInvalidPhaseTransition)
	assert.ErrorIs(t, g.DrawManagementCard("p4"), ErrNotAuthorized)

	require.NoError(t, g.DrawManagementCard("p3"))
	assert.Equal(t, "scope-creep", g.Players["p3"].ManagementCard)
	assert.Equal(t, StatusMission, g.Status())
	assert.Equal(t, []string{"hotfix"}, g.ManagementDeck)
	assert.ErrorIs(t, g.DrawManagementCard("p3"), ErrInvalidPhaseTransition)
}

func TestManagementDrawPlayableForcesRequest(t *testing.T) {
	g := sixPlayers(t)
	g.ManagementDeck = []string{"mandatory-code-review"}
	approveTeam(t, g, "p3", "p1", "p4")

	require.NoError(t, g.DrawManagementCard("p3"))
	md, ok := g.Overlay.(*ManagementDraw)
	require.True(t, ok)
	assert.Equal(t, "mandatory-code-review", md.Drawn)
	assert.ErrorIs(t, g.PlayManagementCard("p1"), ErrNotAuthorized)

	require.NoError(t, g.PlayManagementCard("p3"))
	assert.Nil(t, g.Overlay)
	assert.True(t, g.Effects.ForceSinisterRequest)
	assert.Empty(t, g.Players["p3"].ManagementCard)
	require.Len(t, g.DiscardedCards, 1)
	assert.Equal(t, "p3", g.DiscardedCards[0].PlayedBy)

	require.NoError(t, g.SubmitMissionCard("p1", CardApprove))
	require.NoError(t, g.SubmitMissionCard("p4", CardApprove))
	assert.Equal(t, StorySinister, g.StoryResults[0])
	assert.False(t, g.Effects.ForceSinisterRequest)
}

func TestForceRequestRewritesSubmittedCards(t *testing.T) {
	g := sixPlayers(t)
	approveTeam(t, g, "", "p1", "p4")
	require.NoError(t, g.SubmitMissionCard("p4", CardApprove))
	g.setHand("p2", "mandatory-code-review")
	require.NoError(t, g.PlayManagementCard("p2"))
	assert.Equal(t, CardRequest, g.Phase.(*Mission).Cards["p4"])
}

func TestSkipManagementPlayKeepsCard(t *testing.T) {
	g := sixPlayers(t)
	g.ManagementDeck = []string{"ceo-visit"}
	approveTeam(t, g, "p3", "p1", "p2")
	require.NoError(t, g.DrawManagementCard("p3"))
	assert.ErrorIs(t, g.SkipManagementPlay("p4"), ErrNotAuthorized)
	require.NoError(t, g.SkipManagementPlay("p3"))
	assert.Equal(t, "ceo-visit", g.Players["p3"].ManagementCard)
	assert.Equal(t, StatusMission, g.Status())
	assert.ErrorIs(t, g.SkipManagementPlay("p3"), ErrInvalidPhaseTransition)
}

func TestSkipManagementDraw(t *testing.T) {
	g := sixPlayers(t)
	g.ManagementDeck = []string{"hotfix"}
	approveTeam(t, g, "p3", "p1", "p2")
	require.NoError(t, g.SkipManagementDraw("p3"))
	assert.Empty(t, g.Players["p3"].ManagementCard)
	assert.Equal(t, []string{"hotfix"}, g.ManagementDeck)
	assert.Equal(t, StatusMission, g.Status())
}

func TestPlayOutsideWindowKeepsCard(t *testing.T) {
	g := sixPlayers(t)
	require.NoError(t, g.ProposeTeam("p1", []string{"p1", "p2"}, ""))
	g.setHand("p5", "hotfix")
	version := g.Version

	assert.ErrorIs(t, g.PlayManagementCard("p5"), ErrCardNotPlayable)
	assert.Equal(t, "hotfix", g.Players["p5"].ManagementCard)
	assert.Equal(t, version, g.Version)
	assert.ErrorIs(t, g.PlayManagementCard("p6"), ErrInvalidSelection)
}

func TestScopeCreepThenServiceReassignment(t *testing.T) {
	g := sixPlayers(t)
	require.NoError(t, g.ProposeTeam("p1", []string{"p1", "p2"}, ""))
	require.NoError(t, g.SubmitVote("p1", VoteAgree))
	g.setHand("p5", "scope-creep")
	g.setHand("p6", "service-reassignment")

	require.NoError(t, g.PlayManagementCard("p5"))
	assert.Equal(t, StatusScopeCreep, g.Status())
	assert.Equal(t, []string{"p5"}, g.ActorsToMove())
	assert.ErrorIs(t, g.SubmitScopeCreepTeam("p1", "p3"), ErrNotAuthorized)
	assert.ErrorIs(t, g.SubmitScopeCreepTeam("p5", "p1"), ErrInvalidSelection)
	assert.ErrorIs(t, g.PlayManagementCard("p6"), ErrCardNotPlayable)

	require.NoError(t, g.SubmitScopeCreepTeam("p5", "p3"))
	tv, ok := g.Phase.(*TeamVoting)
	require.True(t, ok)
	assert.Equal(t, []string{"p1", "p2", "p3"}, tv.Team)
	assert.Equal(t, "p1", tv.Proposer)
	assert.Empty(t, tv.Votes)
	size, _ := g.RequiredTeamSize()
	assert.Equal(t, 3, size)
	assert.Equal(t, []string{"p3"}, g.Effects.LockedIn)

	require.NoError(t, g.PlayManagementCard("p6"))
	assert.Equal(t, StatusServiceReassignment, g.Status())
	assert.ErrorIs(t, g.SubmitServiceReassignment("p6", "p3", "p4"), ErrInvalidSelection)
	assert.ErrorIs(t, g.SubmitServiceReassignment("p6", "p1", "p2"), ErrInvalidSelection)
	require.NoError(t, g.SubmitServiceReassignment("p6", "p1", "p4"))
	assert.Equal(t, []string{"p4", "p2", "p3"}, g.Phase.(*TeamVoting).Team)
	assert.ElementsMatch(t, []string{"p3", "p4"}, g.Effects.LockedIn)
}

func TestShiftingPriorities(t *testing.T) {
	g := sixPlayers(t)
	require.NoError(t, g.ProposeTeam("p1", []string{"p1", "p2"}, "p6"))
	g.setHand("p5", "shifting-priorities")
	require.NoError(t, g.PlayManagementCard("p5"))

	assert.ErrorIs(t, g.SubmitShiftingPrioritiesTeam("p5", "p1", []string{"p3"}), ErrInvalidTeamSize)
	assert.ErrorIs(t, g.SubmitShiftingPrioritiesTeam("p5", "p4", []string{"p3", "p6"}), ErrInvalidSelection)
	assert.ErrorIs(t, g.SubmitShiftingPrioritiesTeam("p5", "p1", []string{"p3", "p3"}), ErrInvalidSelection)

	require.NoError(t, g.SubmitShiftingPrioritiesTeam("p5", "p1", []string{"p3", "p6"}))
	tv := g.Phase.(*TeamVoting)
	assert.Equal(t, []string{"p2", "p3", "p6"}, tv.Team)
	assert.Empty(t, tv.ManagementTarget, "a target added to the team loses the draw")
}

func TestRejectionClearsRoundEffects(t *testing.T) {
	g := sixPlayers(t)
	require.NoError(t, g.ProposeTeam("p1", []string{"p1", "p2"}, ""))
	g.setHand("p5", "scope-creep")
	require.NoError(t, g.PlayManagementCard("p5"))
	require.NoError(t, g.SubmitScopeCreepTeam("p5", "p3"))
	for _, id := range g.PlayerOrder {
		require.NoError(t, g.SubmitVote(id, VoteRethrow))
	}
	assert.Equal(t, RoundEffects{}, g.Effects)
	size, _ := g.RequiredTeamSize()
	assert.Equal(t, 2, size)
}

func TestToleranceOne(t *testing.T) {
	g := sixPlayers(t)
	g.CurrentStory = 4
	g.Phase = &Mission{Team: []string{"p1", "p4", "p5"}, Cards: make(map[string]MissionCard)}
	g.setHand("p2", "hotfix")
	require.NoError(t, g.PlayManagementCard("p2"))
	assert.True(t, g.Effects.ToleranceOne)

	require.NoError(t, g.SubmitMissionCard("p1", CardApprove))
	require.NoError(t, g.SubmitMissionCard("p4", CardRequest))
	require.NoError(t, g.SubmitMissionCard("p5", CardApprove))
	assert.Equal(t, StoryDexter, g.StoryResults[3])
}

func TestCeoTakeCard(t *testing.T) {
	g := sixPlayers(t)
	require.NoError(t, g.ProposeTeam("p1", []string{"p1", "p2"}, ""))
	g.setHand("p2", "ceo-visit")
	g.setHand("p5", "scope-creep")

	require.NoError(t, g.PlayManagementCard("p2"))
	assert.Equal(t, StatusCeoCardPlay, g.Status())
	assert.ErrorIs(t, g.SubmitVote("p3", VoteAgree), ErrInvalidPhaseTransition)
	assert.ErrorIs(t, g.CeoTakeCard("p2", "p3"), ErrInvalidSelection)
	assert.ErrorIs(t, g.CeoTakeCard("p5", "p2"), ErrNotAuthorized)

	require.NoError(t, g.CeoTakeCard("p2", "p5"))
	assert.Equal(t, "scope-creep", g.Players["p2"].ManagementCard)
	assert.Empty(t, g.Players["p5"].ManagementCard)
	assert.Equal(t, StatusTeamVoting, g.Status())
	assert.Empty(t, g.PlayedCard)
}

func TestCeoDrawTwoAndPick(t *testing.T) {
	g := sixPlayers(t)
	require.NoError(t, g.ProposeTeam("p1", []string{"p1", "p2"}, ""))
	g.ManagementDeck = []string{"hotfix", "audit-trail", "pivot"}
	g.setHand("p2", "ceo-visit")
	require.NoError(t, g.PlayManagementCard("p2"))

	assert.ErrorIs(t, g.CeoPick("p2", "hotfix"), ErrInvalidSelection)
	require.NoError(t, g.CeoDrawTwo("p2"))
	assert.Equal(t, []string{"hotfix", "audit-trail"}, g.Overlay.(*CeoCardPlay).Candidates)
	assert.ErrorIs(t, g.CeoDrawTwo("p2"), ErrInvalidPhaseTransition)
	assert.ErrorIs(t, g.CeoPick("p2", "pivot"), ErrInvalidSelection)

	require.NoError(t, g.CeoPick("p2", "audit-trail"))
	assert.Equal(t, "audit-trail", g.Players["p2"].ManagementCard)
	assert.Equal(t, []string{"pivot"}, g.ManagementDeck)
	last := g.DiscardedCards[len(g.DiscardedCards)-1]
	assert.Equal(t, "hotfix", last.CardID)
	assert.Empty(t, last.PlayedBy)
	assert.Nil(t, g.Overlay)
}

func TestLoyaltyReveal(t *testing.T) {
	g := sixPlayers(t)
	require.NoError(t, g.ProposeTeam("p1", []string{"p1", "p2"}, ""))
	g.setHand("p4", "one-on-one")
	require.NoError(t, g.PlayManagementCard("p4"))
	assert.Equal(t, StatusLoyaltyReveal, g.Status())

	assert.ErrorIs(t, g.RevealLoyalty("p4", "p4"), ErrInvalidSelection)
	assert.ErrorIs(t, g.RevealLoyalty("p3", "p2"), ErrNotAuthorized)
	require.NoError(t, g.RevealLoyalty("p4", "p2"))

	assert.Equal(t, []Revelation{{From: "p4", To: "p2", Faction: FactionSinister}}, g.Revelations)
	assert.Equal(t, AppearSinister, Visibility(g, "p2")["p4"])
	assert.Equal(t, AppearUnknown, Visibility(g, "p3")["p4"])
	assert.Equal(t, StatusTeamVoting, g.Status())
}

func TestDeckRecyclesDiscards(t *testing.T) {
	g := sixPlayers(t)
	g.ManagementDeck = nil
	g.DiscardedCards = []Discard{{CardID: "hotfix"}, {CardID: "pivot"}, {CardID: "reorg"}}
	g.setHand("p1", "pivot")

	assert.Equal(t, "hotfix", g.drawCard())
	assert.Equal(t, []string{"reorg"}, g.ManagementDeck)

	g.ManagementDeck = nil
	g.DiscardedCards = nil
	assert.Empty(t, g.drawCard())
}
