package dexter

import (
	"fmt"
	"slices"
)

// DrawManagementCard draws the top card for the designated player. When the
// card can be played right away the overlay stays open for a play-or-keep
// decision; otherwise it closes and the card is kept.
func (g *Game) DrawManagementCard(actorID string) error {
	md, err := g.pendingDraw(actorID)
	if err != nil {
		return err
	}
	if g.Players[actorID].ManagementCard != "" {
		return fmt.Errorf("%w: %s already holds a management card", ErrInvalidSelection, g.name(actorID))
	}

	card := g.drawCard()
	if card == "" {
		g.logf("managementDraw", actorID, "The management deck is empty")
		g.Overlay = nil
		g.resumeUnderlying()
		g.touch()
		return nil
	}
	g.setHand(actorID, card)
	g.logf("managementDraw", actorID, "%s drew a management card", g.name(actorID))
	if c, _ := CardByID(card); c.PlayableIn(g.Phase.Status(), g.CurrentStory) {
		md.Drawn = card
	} else {
		g.Overlay = nil
		g.resumeUnderlying()
	}
	g.touch()
	return nil
}

// SkipManagementDraw declines the draw.
func (g *Game) SkipManagementDraw(actorID string) error {
	if _, err := g.pendingDraw(actorID); err != nil {
		return err
	}
	g.logf("managementSkip", actorID, "%s declined to draw", g.name(actorID))
	g.Overlay = nil
	g.resumeUnderlying()
	g.touch()
	return nil
}

// SkipManagementPlay keeps a freshly drawn card for later.
func (g *Game) SkipManagementPlay(actorID string) error {
	md, ok := g.Overlay.(*ManagementDraw)
	if !ok || md.Drawn == "" {
		return fmt.Errorf("%w: no drawn card to keep", ErrInvalidPhaseTransition)
	}
	if md.Actor != actorID {
		return fmt.Errorf("%w: waiting on %s", ErrNotAuthorized, g.name(md.Actor))
	}
	g.logf("managementKeep", actorID, "%s kept their management card", g.name(actorID))
	g.Overlay = nil
	g.resumeUnderlying()
	g.touch()
	return nil
}

// PlayManagementCard plays the card in the actor's hand. It is legal right
// after drawing it, or at any later point where the current phase and story
// are within the card's window and no other sub-phase is open.
func (g *Game) PlayManagementCard(actorID string) error {
	if err := g.requireSeated(actorID); err != nil {
		return err
	}
	cardID := g.Players[actorID].ManagementCard
	if md, ok := g.Overlay.(*ManagementDraw); ok && md.Drawn != "" {
		if md.Actor != actorID {
			return fmt.Errorf("%w: waiting on %s", ErrNotAuthorized, g.name(md.Actor))
		}
	} else if g.Overlay != nil {
		return fmt.Errorf("%w: %s is open", ErrInvalidPhaseTransition, g.Overlay.Status())
	}
	if cardID == "" {
		return fmt.Errorf("%w: %s holds no management card", ErrInvalidSelection, g.name(actorID))
	}
	card, ok := CardByID(cardID)
	if !ok {
		return fmt.Errorf("%w: unknown card %q", ErrInvalidSelection, cardID)
	}
	if !card.PlayableIn(g.Phase.Status(), g.CurrentStory) || !g.effectFeasible(card.Effect) {
		return fmt.Errorf("%w: %s in %s on story %d", ErrCardNotPlayable, card.Title, g.Phase.Status(), g.CurrentStory)
	}

	g.Overlay = nil
	g.setHand(actorID, "")
	g.discard(cardID, actorID)
	g.PlayedCard = cardID
	g.logf("managementPlay", actorID, "%s played %s", g.name(actorID), card.Title)
	g.applyEffect(card, actorID)
	g.touch()
	return nil
}

func (g *Game) pendingDraw(actorID string) (*ManagementDraw, error) {
	md, ok := g.Overlay.(*ManagementDraw)
	if !ok || md.Drawn != "" {
		return nil, fmt.Errorf("%w: no management draw pending", ErrInvalidPhaseTransition)
	}
	if md.Actor != actorID {
		return nil, fmt.Errorf("%w: waiting on %s", ErrNotAuthorized, g.name(md.Actor))
	}
	return md, nil
}

// effectFeasible rejects team mutations that have no legal submission.
func (g *Game) effectFeasible(e Effect) bool {
	tv, ok := g.Phase.(*TeamVoting)
	if !ok {
		return true
	}
	offTeam := len(g.PlayerOrder) - len(tv.Team)
	removable := 0
	for _, id := range tv.Team {
		if !slices.Contains(g.Effects.LockedIn, id) {
			removable++
		}
	}
	switch e {
	case EffectShiftingPriorities:
		return removable >= 1 && offTeam >= 2
	case EffectScopeCreep:
		return offTeam >= 1
	case EffectServiceReassignment:
		return removable >= 1 && offTeam >= 1
	}
	return true
}

func (g *Game) applyEffect(card ManagementCard, actorID string) {
	switch card.Effect {
	case EffectShiftingPriorities, EffectScopeCreep, EffectServiceReassignment:
		tv := g.Phase.(*TeamVoting)
		d := Detour{
			Team:             slices.Clone(tv.Team),
			Actor:            actorID,
			CardID:           card.ID,
			Proposer:         tv.Proposer,
			ManagementTarget: tv.ManagementTarget,
		}
		switch card.Effect {
		case EffectShiftingPriorities:
			g.Phase = &ShiftingPriorities{d}
		case EffectScopeCreep:
			g.Phase = &ScopeCreep{d}
		default:
			g.Phase = &ServiceReassignment{d}
		}
		g.logf(string(g.Phase.Status()), actorID, "Voting is suspended while %s changes the team", g.name(actorID))
	case EffectForceSinister:
		g.Effects.ForceSinisterRequest = true
		if m, ok := g.Phase.(*Mission); ok {
			for id := range m.Cards {
				if g.FactionOf(id) == FactionSinister {
					m.Cards[id] = CardRequest
				}
			}
		}
	case EffectToleranceOne:
		g.Effects.ToleranceOne = true
	case EffectLoyaltyReveal:
		g.Overlay = &LoyaltyRevealOverlay{Actor: actorID}
	case EffectCEO:
		g.Overlay = &CeoCardPlay{Actor: actorID}
	}
}

// drawCard takes the top card, recycling discarded cards in play order when
// the deck runs out. It returns "" when every card is held.
func (g *Game) drawCard() string {
	if len(g.ManagementDeck) == 0 {
		g.ManagementDeck = g.recyclable()
		if len(g.ManagementDeck) > 0 {
			g.logf("managementDeck", "", "The discard pile was recycled into the deck")
		}
	}
	if len(g.ManagementDeck) == 0 {
		return ""
	}
	card := g.ManagementDeck[0]
	g.ManagementDeck = g.ManagementDeck[1:]
	return card
}

// recyclable lists discarded cards that are not currently held or offered,
// in the order they were last discarded.
func (g *Game) recyclable() []string {
	held := make(map[string]bool)
	for _, p := range g.Players {
		if p.ManagementCard != "" {
			held[p.ManagementCard] = true
		}
	}
	if ceo, ok := g.Overlay.(*CeoCardPlay); ok {
		for _, c := range ceo.Candidates {
			held[c] = true
		}
	}
	var out []string
	for i := len(g.DiscardedCards) - 1; i >= 0; i-- {
		id := g.DiscardedCards[i].CardID
		if held[id] {
			continue
		}
		held[id] = true
		out = append(out, id)
	}
	slices.Reverse(out)
	return out
}

func (g *Game) discard(cardID, playedBy string) {
	g.DiscardedCards = append(g.DiscardedCards, Discard{
		CardID:   cardID,
		PlayedBy: playedBy,
		Story:    min(g.CurrentStory, StoriesTotal),
		Seq:      len(g.Log) + 1,
	})
}
