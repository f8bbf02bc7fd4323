// Package grid reconciles spreadsheet-style edits of monthly allocation cells with the stored
// allocations. Only cells whose value changed are written, each independently.
package grid

import (
	"context"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MaxConcurrentWrites bounds the writes issued by one commit.
const MaxConcurrentWrites = 4

// Writer persists single cells.
type Writer interface {
	// CreateAllocation stores a new cell and returns its id and stored percentage.
	CreateAllocation(ctx context.Context, cell Cell, percentage interface{}) (string, float64, error)
	// UpdateAllocation changes the percentage of an existing cell and returns the stored value.
	UpdateAllocation(ctx context.Context, id string, percentage interface{}) (float64, error)
}

// Cell is one month of one resource/project pair as the editor sees it.
type Cell struct {
	ResourceID   string `json:"resourceId"`
	ProjectID    string `json:"projectId"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	AllocationID string `json:"allocationId"`
	// Persisted is the last percentage known to be stored; 0 for cells without an allocation.
	Persisted float64 `json:"persisted"`
	Text      string  `json:"text"`
}

// Action is what a commit does with a cell.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Outcome reports the write of one cell. Error is empty on success.
type Outcome struct {
	Cell         Cell    `json:"cell"`
	Action       Action  `json:"action"`
	AllocationID string  `json:"allocationId,omitempty"`
	Percentage   float64 `json:"percentage"`
	Error        string  `json:"error,omitempty"`
	Err          error   `json:"-"`
}

// OK reports whether the write succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// ParseValue parses the text of a cell. Blank, non-numeric and non-finite text does not parse.
func ParseValue(text string) (float64, bool) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatValue renders a stored percentage as cell text.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Decide returns the write a cell needs. A cell with an allocation is updated when its value
// differs from the persisted one; text that does not parse is still sent so the store can reject
// it. A cell without an allocation is created only for a positive number.
func Decide(c Cell) Action {
	v, ok := ParseValue(c.Text)
	if c.AllocationID != "" {
		if ok && v == c.Persisted {
			return ActionNone
		}
		return ActionUpdate
	}
	if ok && v > 0 {
		return ActionCreate
	}
	return ActionNone
}

// Apply performs the write Decide selects for c.
func Apply(ctx context.Context, w Writer, c Cell) Outcome {
	out := Outcome{Cell: c, Action: Decide(c), AllocationID: c.AllocationID, Percentage: c.Persisted}

	var value interface{} = c.Text
	if v, ok := ParseValue(c.Text); ok {
		value = v
	}

	switch out.Action {
	case ActionCreate:
		id, stored, err := w.CreateAllocation(ctx, c, value)
		if err != nil {
			out.Err = err
			break
		}
		out.AllocationID, out.Percentage = id, stored
	case ActionUpdate:
		stored, err := w.UpdateAllocation(ctx, c.AllocationID, value)
		if err != nil {
			out.Err = err
			break
		}
		out.Percentage = stored
	}
	if out.Err != nil {
		out.Error = out.Err.Error()
	}
	return out
}

// Commit writes every changed cell concurrently and returns one outcome per written cell, in
// input order. A failed cell neither stops nor rolls back the others.
func Commit(ctx context.Context, w Writer, cells []Cell) []Outcome {
	pending := make([]int, 0, len(cells))
	for i, c := range cells {
		if Decide(c) != ActionNone {
			pending = append(pending, i)
		}
	}

	outcomes := make([]Outcome, len(pending))
	var g errgroup.Group
	g.SetLimit(MaxConcurrentWrites)
	for slot, idx := range pending {
		slot, c := slot, cells[idx]
		g.Go(func() error {
			outcomes[slot] = Apply(ctx, w, c)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
