package dexter

import (
	"fmt"
	"math/rand"
)

// Role is a secret identity assigned at game start.
type Role string

const (
	LoyalDexter    Role = "loyal_dexter"
	Duke           Role = "duke"
	SupportManager Role = "support_manager"
	SinisterSpy    Role = "sinister_spy"
	Sniper         Role = "sniper"
	Nerlin         Role = "nerlin"
	DevSlayer      Role = "dev_slayer"
)

// Faction is one of the two teams a role belongs to.
type Faction string

const (
	FactionDexter   Faction = "dexter"
	FactionSinister Faction = "sinister"
)

// Player count bounds.
const (
	MinPlayers = 5
	MaxPlayers = 12
)

// Faction returns the team the role plays for, or "" for an unknown role.
func (r Role) Faction() Faction {
	switch r {
	case LoyalDexter, Duke, SupportManager:
		return FactionDexter
	case SinisterSpy, Sniper, Nerlin, DevSlayer:
		return FactionSinister
	}
	return ""
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case LoyalDexter, Duke, SupportManager, SinisterSpy, Sniper, Nerlin, DevSlayer:
		return true
	}
	return false
}

// RoleToggles selects the optional named roles for a game.
type RoleToggles struct {
	Duke           bool `json:"duke"`
	SupportManager bool `json:"support_manager"`
	Sniper         bool `json:"sniper"`
	Nerlin         bool `json:"nerlin"`
	DevSlayer      bool `json:"dev_slayer"`
}

// DefaultRoleToggles enables the Duke and nothing else.
func DefaultRoleToggles() RoleToggles {
	return RoleToggles{Duke: true}
}

// DexterCount returns how many Dexter roles a game of n players has.
func DexterCount(n int) (int, error) {
	switch {
	case n >= 5 && n <= 6:
		return 3, nil
	case n >= 7 && n <= 8:
		return 4, nil
	case n >= 9 && n <= 10:
		return 5, nil
	case n >= 11 && n <= 12:
		return 6, nil
	}
	return 0, fmt.Errorf("%w: %d players (need %d-%d)", ErrRoleAssignmentImpossible, n, MinPlayers, MaxPlayers)
}

// RolesFor builds the role multiset for n players. Named roles take a slot
// from their faction; the rest is filled with the generic role of each
// faction, never going negative. Named roles that do not fit their faction
// are dropped in toggle order, so the split always matches DexterCount. If
// the result is still short it is padded with the generic role of the
// smaller faction.
func RolesFor(n int, toggles RoleToggles) ([]Role, error) {
	dexters, err := DexterCount(n)
	if err != nil {
		return nil, err
	}
	sinisters := n - dexters

	var named []Role
	for _, opt := range []struct {
		on   bool
		role Role
	}{
		{toggles.Duke, Duke},
		{toggles.SupportManager, SupportManager},
		{toggles.Sniper, Sniper},
		{toggles.Nerlin, Nerlin},
		{toggles.DevSlayer, DevSlayer},
	} {
		if opt.on {
			named = append(named, opt.role)
		}
	}

	roles := make([]Role, 0, n)
	namedDexter, namedSinister := 0, 0
	for _, r := range named {
		if r.Faction() == FactionDexter && namedDexter < dexters {
			namedDexter++
			roles = append(roles, r)
		} else if r.Faction() == FactionSinister && namedSinister < sinisters {
			namedSinister++
			roles = append(roles, r)
		}
	}
	for i := 0; i < max(dexters-namedDexter, 0); i++ {
		roles = append(roles, LoyalDexter)
	}
	for i := 0; i < max(sinisters-namedSinister, 0); i++ {
		roles = append(roles, SinisterSpy)
	}

	for len(roles) < n {
		d, s := factionCounts(roles)
		if s < d {
			roles = append(roles, SinisterSpy)
		} else {
			roles = append(roles, LoyalDexter)
		}
	}
	return roles, nil
}

// AssignRoles shuffles the role multiset for len(order) players and zips it
// positionally against the seating order.
func AssignRoles(order []string, toggles RoleToggles, rng *rand.Rand) (map[string]Role, error) {
	roles, err := RolesFor(len(order), toggles)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(order) {
		return nil, fmt.Errorf("%w: %d roles for %d players", ErrRoleAssignmentImpossible, len(roles), len(order))
	}
	rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	assigned := make(map[string]Role, len(order))
	for i, id := range order {
		assigned[id] = roles[i]
	}
	return assigned, nil
}

func factionCounts(roles []Role) (dexter, sinister int) {
	for _, r := range roles {
		if r.Faction() == FactionDexter {
			dexter++
		} else {
			sinister++
		}
	}
	return dexter, sinister
}
