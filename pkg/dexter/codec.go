package dexter

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Status Status          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// gameAlias drops Game's methods so the codec does not recurse.
type gameAlias Game

type gameWire struct {
	*gameAlias
	Phase   envelope  `json:"phase"`
	Overlay *envelope `json:"overlay,omitempty"`
}

// MarshalJSON encodes the phase and overlay unions with a status discriminator.
func (g *Game) MarshalJSON() ([]byte, error) {
	phase, err := encodeUnion(g.Phase)
	if err != nil {
		return nil, fmt.Errorf("encode phase: %w", err)
	}
	w := gameWire{gameAlias: (*gameAlias)(g), Phase: *phase}
	if g.Overlay != nil {
		if w.Overlay, err = encodeUnion(g.Overlay); err != nil {
			return nil, fmt.Errorf("encode overlay: %w", err)
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a snapshot written by MarshalJSON.
func (g *Game) UnmarshalJSON(data []byte) error {
	w := gameWire{gameAlias: (*gameAlias)(g)}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	phase, err := decodePhase(w.Phase)
	if err != nil {
		return err
	}
	g.Phase = phase
	g.Overlay = nil
	if w.Overlay != nil {
		if g.Overlay, err = decodeOverlay(*w.Overlay); err != nil {
			return err
		}
	}
	if g.Players == nil {
		g.Players = make(map[string]Player)
	}
	return nil
}

func encodeUnion(v interface{ Status() Status }) (*envelope, error) {
	if v == nil {
		return &envelope{Status: StatusLobby}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &envelope{Status: v.Status(), Data: data}, nil
}

func decodePhase(e envelope) (Phase, error) {
	var p Phase
	switch e.Status {
	case StatusLobby, "":
		return &Lobby{}, nil
	case StatusTeamProposal:
		return &TeamProposal{}, nil
	case StatusTeamVoting:
		p = &TeamVoting{}
	case StatusMission:
		p = &Mission{}
	case StatusResults:
		p = &Results{}
	case StatusAssassination:
		p = &Assassination{}
	case StatusShiftingPriorities:
		p = &ShiftingPriorities{}
	case StatusScopeCreep:
		p = &ScopeCreep{}
	case StatusServiceReassignment:
		p = &ServiceReassignment{}
	case StatusGameOver:
		p = &GameOver{}
	default:
		return nil, fmt.Errorf("unknown phase status %q", e.Status)
	}
	if len(e.Data) > 0 {
		if err := json.Unmarshal(e.Data, p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Status, err)
		}
	}
	switch v := p.(type) {
	case *TeamVoting:
		if v.Votes == nil {
			v.Votes = make(map[string]Vote)
		}
	case *Mission:
		if v.Cards == nil {
			v.Cards = make(map[string]MissionCard)
		}
	}
	return p, nil
}

func decodeOverlay(e envelope) (Overlay, error) {
	var o Overlay
	switch e.Status {
	case StatusManagementPhase:
		o = &ManagementDraw{}
	case StatusCeoCardPlay:
		o = &CeoCardPlay{}
	case StatusLoyaltyReveal:
		o = &LoyaltyRevealOverlay{}
	default:
		return nil, fmt.Errorf("unknown overlay status %q", e.Status)
	}
	if len(e.Data) > 0 {
		if err := json.Unmarshal(e.Data, o); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Status, err)
		}
	}
	return o, nil
}
