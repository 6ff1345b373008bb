// Package altnames computes how to turn an instrument's stored alternate-name
// rows into a new ordered list without ever violating the (instrument, index)
// or (instrument, name) uniqueness constraints mid-transaction.
//
// Rows keep their surrogate id and name for their whole life; only their
// index moves. A surviving row whose index changes is first parked at a
// negative index, so the final moves only ever land on indexes that are free.
package altnames

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/yungbote/instrument-catalog/internal/domain/catalog"
)

type Move struct {
	ID    uuid.UUID
	Index int16
}

type Insert struct {
	Name  string
	Index int16
}

// Plan is applied in field order: Deletes, Parks, Moves, Inserts.
type Plan struct {
	Deletes []uuid.UUID
	Parks   []Move
	Moves   []Move
	Inserts []Insert
}

func (p Plan) NoOp() bool {
	return len(p.Deletes) == 0 && len(p.Parks) == 0 && len(p.Moves) == 0 && len(p.Inserts) == 0
}

// Build plans the transition from existing to target. Names match exactly.
// Later exact duplicates in target are ignored.
func Build(existing []catalog.AlternateName, target []string) Plan {
	target = dedupe(target)

	byName := make(map[string]catalog.AlternateName, len(existing))
	for _, row := range existing {
		byName[row.Name] = row
	}
	want := make(map[string]int16, len(target))
	for i, name := range target {
		want[name] = int16(i)
	}

	var p Plan
	for _, row := range existing {
		if _, keep := want[row.Name]; !keep {
			p.Deletes = append(p.Deletes, row.ID)
		}
	}

	park := int16(-1)
	for i, name := range target {
		idx := int16(i)
		row, ok := byName[name]
		if !ok {
			p.Inserts = append(p.Inserts, Insert{Name: name, Index: idx})
			continue
		}
		if row.Index == idx {
			continue
		}
		p.Parks = append(p.Parks, Move{ID: row.ID, Index: park})
		p.Moves = append(p.Moves, Move{ID: row.ID, Index: idx})
		park--
	}
	return p
}

// Apply returns the rows that result from applying p to existing, ordered by
// index. New rows get uuid.Nil ids. Used to check plans without a database.
func Apply(existing []catalog.AlternateName, p Plan) []catalog.AlternateName {
	rows := make(map[uuid.UUID]catalog.AlternateName, len(existing))
	for _, row := range existing {
		rows[row.ID] = row
	}
	for _, id := range p.Deletes {
		delete(rows, id)
	}
	for _, m := range p.Parks {
		r := rows[m.ID]
		r.Index = m.Index
		rows[m.ID] = r
	}
	for _, m := range p.Moves {
		r := rows[m.ID]
		r.Index = m.Index
		rows[m.ID] = r
	}
	out := make([]catalog.AlternateName, 0, len(rows)+len(p.Inserts))
	for _, r := range rows {
		out = append(out, r)
	}
	for _, ins := range p.Inserts {
		out = append(out, catalog.AlternateName{Name: ins.Name, Index: ins.Index})
	}
	slices.SortFunc(out, func(a, b catalog.AlternateName) int { return cmp.Compare(a.Index, b.Index) })
	return out
}

func Names(rows []catalog.AlternateName) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
