package agent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nstehr/vimy/tactician/model"
	"github.com/nstehr/vimy/tactician/tactics"
)

func party(round int, hp ...int) *model.Snapshot {
	ids := []string{"knight", "cleric", "orc"}
	sides := []model.Side{model.SideAgent, model.SideAgent, model.SideOpponent}
	s := &model.Snapshot{Round: round}
	for i, h := range hp {
		s.Combatants = append(s.Combatants, model.Combatant{ID: ids[i], Side: sides[i], HP: h, MaxHP: 100})
	}
	return s
}

func TestDetectObservations(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur *model.Snapshot
		want      []tactics.Observation
	}{
		{"nil prev", nil, party(1, 100, 100, 100), nil},
		{"no change", party(1, 100, 80, 60), party(2, 100, 80, 60), nil},
		{
			"healing only",
			party(1, 100, 80, 60),
			party(2, 70, 80, 75),
			[]tactics.Observation{
				{Kind: tactics.ObservedHealing, Target: "orc", Side: model.SideOpponent, Amount: 15, Round: 2},
			},
		},
		{
			"knockout and revive",
			party(3, 10, 0, 60),
			party(4, 0, 25, 60),
			[]tactics.Observation{
				{Kind: tactics.ObservedKO, Target: "knight", Side: model.SideAgent, Amount: 10, Round: 4},
				{Kind: tactics.ObservedRevive, Target: "cleric", Side: model.SideAgent, Amount: 25, Round: 4},
			},
		},
		{"combatant joined", party(1, 100, 100), party(2, 100, 100, 40), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectObservations(tt.prev, tt.cur)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("observations (-want +got):\n%s", diff)
			}
		})
	}
}
