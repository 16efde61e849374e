package engine

import (
	"fmt"
	"math/rand"
)

// Team is the side a role wins with ("Town", "Mafia", "Liberal", ...).
type Team string

// Role is game-specific static data. A player's team is a pure function of
// its role and never changes during a game.
type Role interface {
	Name() string
	Team() Team
}

// SimpleRole covers roles with no behaviour beyond identity. Variants with
// richer roles embed it.
type SimpleRole struct {
	RoleName string
	RoleTeam Team
}

func (r SimpleRole) Name() string { return r.RoleName }
func (r SimpleRole) Team() Team   { return r.RoleTeam }

// Seat is one configured participant: a unique name and the Agent that
// produces its decisions.
type Seat struct {
	Name  string
	Model string // informational, recorded with the roster
	Agent Agent
}

// Player is one seat after role assignment.
type Player struct {
	Name  string
	Model string
	Role  Role
	Alive bool

	// UsedOneShot flips once when a single-use ability fires.
	UsedOneShot bool
	// Master names the player whose ballot this player must mirror, for
	// dependent-voter rules. Empty for independent voters.
	Master string

	Agent Agent
}

// Roster is the full table of players in seating order.
type Roster struct {
	Players []*Player
}

// RoleTable maps a player count to the exact multiset of roles dealt for
// that count. Editing the table is the only way to change game balance.
type RoleTable map[int][]Role

// RolesFor returns a copy of the role list for n players, or a SetupError
// when the count is unsupported.
func (t RoleTable) RolesFor(n int) ([]Role, error) {
	roles, ok := t[n]
	if !ok {
		return nil, &SetupError{Reason: fmt.Sprintf("unsupported player count %d", n)}
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out, nil
}

// AssignRoles shuffles roles over seats and builds the roster. It fails with
// a SetupError before any phase runs when the counts don't line up or a seat
// name repeats.
func AssignRoles(seats []Seat, roles []Role, rng *rand.Rand) (*Roster, error) {
	if len(seats) != len(roles) {
		return nil, &SetupError{Reason: fmt.Sprintf("have %d seats but %d roles", len(seats), len(roles))}
	}
	seen := make(map[string]bool, len(seats))
	for _, s := range seats {
		if s.Name == "" {
			return nil, &SetupError{Reason: "seat with empty name"}
		}
		if seen[s.Name] {
			return nil, &SetupError{Reason: "duplicate seat name " + s.Name}
		}
		seen[s.Name] = true
	}

	shuffled := make([]Role, len(roles))
	copy(shuffled, roles)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	roster := &Roster{}
	for i, s := range seats {
		roster.Players = append(roster.Players, &Player{
			Name:  s.Name,
			Model: s.Model,
			Role:  shuffled[i],
			Alive: true,
			Agent: s.Agent,
		})
	}
	return roster, nil
}

// Find returns the player with the given name, dead or alive.
func (r *Roster) Find(name string) *Player {
	for _, p := range r.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Alive returns the living players in seating order.
func (r *Roster) Alive() []*Player {
	var out []*Player
	for _, p := range r.Players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// AliveNames returns the names of living players in seating order.
func (r *Roster) AliveNames() []string {
	var out []string
	for _, p := range r.Players {
		if p.Alive {
			out = append(out, p.Name)
		}
	}
	return out
}

// AliveHolder returns the first living player holding the named role, or nil
// when the role has no living holder.
func (r *Roster) AliveHolder(roleName string) *Player {
	for _, p := range r.Players {
		if p.Alive && p.Role.Name() == roleName {
			return p
		}
	}
	return nil
}

// Holder returns the player holding the named role regardless of life state.
func (r *Roster) Holder(roleName string) *Player {
	for _, p := range r.Players {
		if p.Role.Name() == roleName {
			return p
		}
	}
	return nil
}

// AliveOnTeam counts living players on the given team.
func (r *Roster) AliveOnTeam(team Team) int {
	n := 0
	for _, p := range r.Players {
		if p.Alive && p.Role.Team() == team {
			n++
		}
	}
	return n
}

// TeamAlive returns the living players on the given team in seating order.
func (r *Roster) TeamAlive(team Team) []*Player {
	var out []*Player
	for _, p := range r.Players {
		if p.Alive && p.Role.Team() == team {
			out = append(out, p)
		}
	}
	return out
}

// Neighbors returns the living players seated immediately left and right of
// name, wrapping around the table. Both are nil when fewer than two other
// players live.
func (r *Roster) Neighbors(name string) (left, right *Player) {
	alive := r.Alive()
	if len(alive) < 3 {
		return nil, nil
	}
	for i, p := range alive {
		if p.Name == name {
			return alive[(i-1+len(alive))%len(alive)], alive[(i+1)%len(alive)]
		}
	}
	return nil, nil
}
