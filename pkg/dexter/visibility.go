package dexter

// Appearance is how one player looks to a viewer. A viewer's own entry is
// their exact role.
type Appearance string

const (
	AppearUnknown       Appearance = "unknown"
	AppearDexter        Appearance = "dexter"
	AppearSinister      Appearance = "sinister"
	AppearDukeCandidate Appearance = "duke_candidate"
)

// Faction returns the faction an appearance implies, or "" when it implies
// none.
func (a Appearance) Faction() Faction {
	switch a {
	case AppearSinister:
		return FactionSinister
	case AppearDexter:
		return FactionDexter
	}
	return Role(a).Faction()
}

// Hidden replaces values a viewer may not see in a redacted snapshot.
const Hidden = "hidden"

// Visibility returns what viewerID knows about every seated player. Once the
// game is over every role is public.
func Visibility(g *Game, viewerID string) map[string]Appearance {
	out := make(map[string]Appearance, len(g.PlayerOrder))
	_, over := g.Phase.(*GameOver)
	viewer, seated := g.Roles[viewerID]
	for _, id := range g.PlayerOrder {
		role, assigned := g.Roles[id]
		switch {
		case !assigned:
			out[id] = AppearUnknown
		case over || id == viewerID:
			out[id] = Appearance(role)
		case !seated:
			out[id] = AppearUnknown
		default:
			out[id] = appearsAs(viewer, role)
		}
		if out[id] == AppearUnknown && seated {
			for _, r := range g.Revelations {
				if r.From == id && r.To == viewerID {
					out[id] = Appearance(r.Faction)
				}
			}
		}
	}
	return out
}

func appearsAs(viewer, target Role) Appearance {
	switch {
	case viewer == Duke && target.Faction() == FactionSinister && target != Nerlin:
		return AppearSinister
	case viewer == SupportManager && (target == Duke || target == DevSlayer):
		return AppearDukeCandidate
	case viewer.Faction() == FactionSinister && target.Faction() == FactionSinister:
		return AppearSinister
	}
	return AppearUnknown
}

// RedactFor returns a copy of g that is safe to send to viewerID: other
// players' roles, ballots, mission cards and hands are hidden, as are the
// deck order, any card being offered to someone else and discards nobody
// played (passed-over CEO draws, hands of players who left). After game
// over only the deck is hidden.
func RedactFor(g *Game, viewerID string) *Game {
	c := g.Clone()
	c.ManagementDeck = nil
	if _, over := c.Phase.(*GameOver); over {
		return c
	}

	roles := make(map[string]Role, 1)
	if r, ok := g.Roles[viewerID]; ok {
		roles[viewerID] = r
	}
	c.Roles = roles

	for id, p := range c.Players {
		if id != viewerID && p.ManagementCard != "" {
			p.ManagementCard = Hidden
			c.Players[id] = p
		}
	}
	switch p := c.Phase.(type) {
	case *TeamVoting:
		for id := range p.Votes {
			if id != viewerID {
				p.Votes[id] = Vote(Hidden)
			}
		}
	case *Mission:
		for id := range p.Cards {
			if id != viewerID {
				p.Cards[id] = MissionCard(Hidden)
			}
		}
	}
	switch o := c.Overlay.(type) {
	case *ManagementDraw:
		if o.Actor != viewerID && o.Drawn != "" {
			o.Drawn = Hidden
		}
	case *CeoCardPlay:
		if o.Actor != viewerID {
			for i := range o.Candidates {
				o.Candidates[i] = Hidden
			}
		}
	}

	for i, d := range c.DiscardedCards {
		if d.PlayedBy == "" {
			c.DiscardedCards[i].CardID = Hidden
		}
	}

	revealed := c.Revelations[:0]
	for _, r := range c.Revelations {
		if r.From == viewerID || r.To == viewerID {
			revealed = append(revealed, r)
		}
	}
	c.Revelations = revealed
	return c
}
