package altnames

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/instrument-catalog/internal/domain/catalog"
)

func rows(names ...string) []catalog.AlternateName {
	out := make([]catalog.AlternateName, 0, len(names))
	for i, n := range names {
		out = append(out, catalog.AlternateName{ID: uuid.New(), InstrumentID: 1, Name: n, Index: int16(i)})
	}
	return out
}

// replay executes the plan one statement at a time against an in-memory table
// and fails on the first statement that would break either unique constraint.
func replay(t *testing.T, existing []catalog.AlternateName, p Plan) []catalog.AlternateName {
	t.Helper()
	table := map[uuid.UUID]catalog.AlternateName{}
	for _, r := range existing {
		table[r.ID] = r
	}
	check := func(step string) {
		byIndex := map[int16]bool{}
		byName := map[string]bool{}
		for _, r := range table {
			if byIndex[r.Index] {
				t.Fatalf("%s: duplicate index %d", step, r.Index)
			}
			if byName[r.Name] {
				t.Fatalf("%s: duplicate name %q", step, r.Name)
			}
			byIndex[r.Index] = true
			byName[r.Name] = true
		}
	}
	for _, id := range p.Deletes {
		if _, ok := table[id]; !ok {
			t.Fatalf("delete of unknown row %s", id)
		}
		delete(table, id)
		check("delete")
	}
	for _, m := range append(append([]Move{}, p.Parks...), p.Moves...) {
		r, ok := table[m.ID]
		if !ok {
			t.Fatalf("move of unknown row %s", m.ID)
		}
		r.Index = m.Index
		table[m.ID] = r
		check(fmt.Sprintf("move to %d", m.Index))
	}
	for _, ins := range p.Inserts {
		id := uuid.New()
		table[id] = catalog.AlternateName{ID: id, Name: ins.Name, Index: ins.Index}
		check(fmt.Sprintf("insert %q", ins.Name))
	}
	out := make([]catalog.AlternateName, 0, len(table))
	for _, r := range table {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b catalog.AlternateName) int { return int(a.Index) - int(b.Index) })
	return out
}

func TestBuild(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		target   []string
	}{
		{"empty to some", nil, []string{"A", "B"}},
		{"clear", []string{"A", "B"}, nil},
		{"shrink", []string{"A", "B", "C"}, []string{"A", "B"}},
		{"swap", []string{"A", "B"}, []string{"B", "A"}},
		{"rotate", []string{"A", "B", "C"}, []string{"C", "A", "B"}},
		{"grow", []string{"A"}, []string{"A", "B", "C"}},
		{"rename middle", []string{"A", "B", "C"}, []string{"A", "X", "C"}},
		{"delete head", []string{"A", "B", "C"}, []string{"B", "C"}},
		{"replace all", []string{"A", "B"}, []string{"C", "D", "E"}},
		{"insert at front", []string{"A", "B"}, []string{"Z", "A", "B"}},
		{"reverse ten", []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, []string{"9", "8", "7", "6", "5", "4", "3", "2", "1", "0"}},
		{"case change", []string{"harp"}, []string{"Harp"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			existing := rows(tc.existing...)
			p := Build(existing, tc.target)
			got := Names(replay(t, existing, p))
			want := tc.target
			if want == nil {
				want = []string{}
			}
			if !slices.Equal(got, want) {
				t.Fatalf("result = %v, want %v", got, want)
			}
			if applied := Names(Apply(existing, p)); !slices.Equal(applied, want) {
				t.Fatalf("Apply = %v, want %v", applied, want)
			}
		})
	}
}

func TestBuildShrinkKeepsSurvivingRows(t *testing.T) {
	existing := rows("A", "B", "C")
	p := Build(existing, []string{"A", "B"})
	if len(p.Deletes) != 1 || p.Deletes[0] != existing[2].ID {
		t.Fatalf("expected only C deleted, got %+v", p.Deletes)
	}
	if len(p.Parks) != 0 || len(p.Moves) != 0 || len(p.Inserts) != 0 {
		t.Fatalf("expected no other statements, got %+v", p)
	}
}

func TestBuildNoOp(t *testing.T) {
	existing := rows("Concert Harp", "Orchestral Harp")
	if p := Build(existing, []string{"Concert Harp", "Orchestral Harp"}); !p.NoOp() {
		t.Fatalf("expected no-op plan, got %+v", p)
	}
	if p := Build(nil, nil); !p.NoOp() {
		t.Fatalf("expected no-op plan for empty lists, got %+v", p)
	}
}

func TestBuildIgnoresDuplicateTargets(t *testing.T) {
	existing := rows("A")
	p := Build(existing, []string{"A", "B", "A"})
	if got := Names(replay(t, existing, p)); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("result = %v", got)
	}
}
