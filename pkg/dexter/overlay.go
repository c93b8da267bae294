package dexter

import (
	"fmt"
	"slices"
)

// CeoTakeCard takes another player's management card.
func (g *Game) CeoTakeCard(actorID, fromID string) error {
	ceo, err := g.requireCeo(actorID)
	if err != nil {
		return err
	}
	if len(ceo.Candidates) > 0 {
		return fmt.Errorf("%w: pick one of the drawn cards", ErrInvalidPhaseTransition)
	}
	if fromID == actorID || !g.IsSeated(fromID) {
		return fmt.Errorf("%w: cannot take a card from %s", ErrInvalidSelection, fromID)
	}
	card := g.Players[fromID].ManagementCard
	if card == "" {
		return fmt.Errorf("%w: %s holds no management card", ErrInvalidSelection, g.name(fromID))
	}
	if g.Players[actorID].ManagementCard != "" {
		return fmt.Errorf("%w: %s already holds a management card", ErrInvalidSelection, g.name(actorID))
	}

	g.setHand(fromID, "")
	g.setHand(actorID, card)
	g.logf("ceo", actorID, "%s took %s's management card", g.name(actorID), g.name(fromID))
	g.closeOverlay()
	g.touch()
	return nil
}

// CeoDrawTwo draws up to two cards for the actor to choose from. With an
// empty deck the overlay simply closes.
func (g *Game) CeoDrawTwo(actorID string) error {
	ceo, err := g.requireCeo(actorID)
	if err != nil {
		return err
	}
	if len(ceo.Candidates) > 0 {
		return fmt.Errorf("%w: cards already drawn", ErrInvalidPhaseTransition)
	}
	for range 2 {
		if c := g.drawCard(); c != "" {
			ceo.Candidates = append(ceo.Candidates, c)
		}
	}
	if len(ceo.Candidates) == 0 {
		g.logf("ceo", actorID, "The management deck is empty")
		g.closeOverlay()
	} else {
		g.logf("ceo", actorID, "%s drew %d cards", g.name(actorID), len(ceo.Candidates))
	}
	g.touch()
	return nil
}

// CeoPick keeps one of the drawn cards and discards the rest.
func (g *Game) CeoPick(actorID, cardID string) error {
	ceo, err := g.requireCeo(actorID)
	if err != nil {
		return err
	}
	if !slices.Contains(ceo.Candidates, cardID) {
		return fmt.Errorf("%w: %q was not drawn", ErrInvalidSelection, cardID)
	}
	if g.Players[actorID].ManagementCard != "" {
		return fmt.Errorf("%w: %s already holds a management card", ErrInvalidSelection, g.name(actorID))
	}

	for _, c := range ceo.Candidates {
		if c != cardID {
			g.discard(c, "")
		}
	}
	g.setHand(actorID, cardID)
	g.logf("ceo", actorID, "%s kept one card", g.name(actorID))
	g.closeOverlay()
	g.touch()
	return nil
}

// RevealLoyalty shows the actor's faction to one other player.
func (g *Game) RevealLoyalty(actorID, targetID string) error {
	lr, ok := g.Overlay.(*LoyaltyRevealOverlay)
	if !ok {
		return fmt.Errorf("%w: no loyalty reveal pending", ErrInvalidPhaseTransition)
	}
	if lr.Actor != actorID {
		return fmt.Errorf("%w: waiting on %s", ErrNotAuthorized, g.name(lr.Actor))
	}
	if targetID == actorID || !g.IsSeated(targetID) {
		return fmt.Errorf("%w: cannot reveal to %s", ErrInvalidSelection, targetID)
	}

	g.Revelations = append(g.Revelations, Revelation{From: actorID, To: targetID, Faction: g.FactionOf(actorID)})
	g.logf("loyaltyReveal", actorID, "%s revealed their loyalty to %s", g.name(actorID), g.name(targetID))
	g.closeOverlay()
	g.touch()
	return nil
}

func (g *Game) requireCeo(actorID string) (*CeoCardPlay, error) {
	ceo, ok := g.Overlay.(*CeoCardPlay)
	if !ok {
		return nil, fmt.Errorf("%w: no CEO play pending", ErrInvalidPhaseTransition)
	}
	if ceo.Actor != actorID {
		return nil, fmt.Errorf("%w: waiting on %s", ErrNotAuthorized, g.name(ceo.Actor))
	}
	return ceo, nil
}

// closeOverlay ends the open sub-phase and lets the underlying phase
// resolve if it was already complete.
func (g *Game) closeOverlay() {
	g.Overlay = nil
	g.PlayedCard = ""
	g.resumeUnderlying()
}

// resumeUnderlying resolves a vote or mission whose last ballot or card
// arrived, or whose last missing player left, while an overlay was open.
func (g *Game) resumeUnderlying() {
	if g.Overlay != nil {
		return
	}
	switch p := g.Phase.(type) {
	case *TeamVoting:
		if len(p.Votes) == len(g.PlayerOrder) {
			g.resolveVotes(p)
		}
	case *Mission:
		if len(p.Team) > 0 && len(p.Cards) == len(p.Team) {
			g.resolveMission(p)
		}
	}
}
