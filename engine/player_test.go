package engine_test

import (
	"testing"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

func role(name string, team engine.Team) engine.Role {
	return engine.SimpleRole{RoleName: name, RoleTeam: team}
}

func seatList(names ...string) []engine.Seat {
	seats := make([]engine.Seat, len(names))
	for i, n := range names {
		seats[i] = engine.Seat{Name: n, Agent: scripted()}
	}
	return seats
}

func TestAssignRolesPreservesMultiset(t *testing.T) {
	roles := []engine.Role{
		role("Wolf", "Evil"), role("Wolf", "Evil"),
		role("Seer", "Town"), role("Villager", "Town"), role("Villager", "Town"),
	}
	want := map[string]int{"Wolf": 2, "Seer": 1, "Villager": 2}

	for seed := int64(1); seed <= 25; seed++ {
		roster, err := engine.AssignRoles(seatList("A", "B", "C", "D", "E"), roles, engine.NewRand(seed))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		got := make(map[string]int)
		for _, p := range roster.Players {
			got[p.Role.Name()]++
			if !p.Alive {
				t.Errorf("seed %d: %s dealt in dead", seed, p.Name)
			}
		}
		for name, n := range want {
			if got[name] != n {
				t.Fatalf("seed %d: %s count = %d, want %d", seed, name, got[name], n)
			}
		}
	}
}

func TestAssignRolesSetupErrors(t *testing.T) {
	roles := []engine.Role{role("Villager", "Town"), role("Villager", "Town")}
	tests := []struct {
		name  string
		seats []engine.Seat
	}{
		{"count mismatch", seatList("A")},
		{"duplicate name", seatList("A", "A")},
		{"empty name", seatList("A", "")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.AssignRoles(tc.seats, roles, engine.NewRand(1))
			if !engine.IsSetupError(err) {
				t.Fatalf("err = %v, want SetupError", err)
			}
		})
	}
}

func TestRolesForUnsupportedCount(t *testing.T) {
	table := engine.RoleTable{5: make([]engine.Role, 5)}
	if _, err := table.RolesFor(6); !engine.IsSetupError(err) {
		t.Fatalf("err = %v, want SetupError", err)
	}
}

func TestNeighborsWrapAround(t *testing.T) {
	roles := []engine.Role{role("V", "Town"), role("V", "Town"), role("V", "Town"), role("V", "Town")}
	roster, err := engine.AssignRoles(seatList("A", "B", "C", "D"), roles, engine.NewRand(1))
	if err != nil {
		t.Fatal(err)
	}

	left, right := roster.Neighbors("A")
	if left.Name != "D" || right.Name != "B" {
		t.Errorf("Neighbors(A) = %s,%s, want D,B", left.Name, right.Name)
	}

	// Dead players are skipped when wrapping.
	roster.Find("D").Alive = false
	left, right = roster.Neighbors("A")
	if left.Name != "C" || right.Name != "B" {
		t.Errorf("Neighbors(A) with D dead = %s,%s, want C,B", left.Name, right.Name)
	}

	// With fewer than three alive there is no meaningful circle.
	roster.Find("C").Alive = false
	if left, right = roster.Neighbors("A"); left != nil || right != nil {
		t.Error("Neighbors must be nil with fewer than three alive")
	}
}

func TestRosterTeamAccessors(t *testing.T) {
	roles := []engine.Role{role("Wolf", "Evil"), role("V", "Town"), role("V", "Town")}
	roster, err := engine.AssignRoles(seatList("A", "B", "C"), roles, engine.NewRand(3))
	if err != nil {
		t.Fatal(err)
	}

	if n := roster.AliveOnTeam("Town"); n != 2 {
		t.Errorf("AliveOnTeam(Town) = %d, want 2", n)
	}
	wolves := roster.TeamAlive("Evil")
	if len(wolves) != 1 || wolves[0].Role.Name() != "Wolf" {
		t.Fatalf("TeamAlive(Evil) = %v, want the one wolf", wolves)
	}
	wolves[0].Alive = false
	if n := roster.AliveOnTeam("Evil"); n != 0 {
		t.Errorf("AliveOnTeam(Evil) after death = %d, want 0", n)
	}
	if h := roster.AliveHolder("Wolf"); h != nil {
		t.Error("AliveHolder must ignore dead holders")
	}
	if h := roster.Holder("Wolf"); h == nil {
		t.Error("Holder must still find dead holders")
	}
}
