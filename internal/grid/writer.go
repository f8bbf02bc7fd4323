package grid

import (
	"context"

	"github.com/podplan/backend/internal/services"
)

// AllocationWriter writes cells through the allocation service.
type AllocationWriter struct {
	svc *services.AllocationService
}

func NewAllocationWriter(svc *services.AllocationService) *AllocationWriter {
	return &AllocationWriter{svc: svc}
}

func (w *AllocationWriter) CreateAllocation(ctx context.Context, c Cell, percentage interface{}) (string, float64, error) {
	a, err := w.svc.WithContext(ctx).Create(&services.CreateAllocationRequest{
		ResourceID: c.ResourceID,
		ProjectID:  c.ProjectID,
		Percentage: percentage,
		Month:      c.Month,
		Year:       c.Year,
	})
	if err != nil {
		return "", 0, err
	}
	return a.ID, a.Percentage, nil
}

func (w *AllocationWriter) UpdateAllocation(ctx context.Context, id string, percentage interface{}) (float64, error) {
	a, err := w.svc.WithContext(ctx).Update(id, &services.UpdateAllocationRequest{Percentage: percentage})
	if err != nil {
		return 0, err
	}
	return a.Percentage, nil
}

// RowsFromGroup turns one group of the allocation grid into session rows.
func RowsFromGroup(year int, g services.GridGroup) []Row {
	rows := make([]Row, 0, len(g.Rows))
	for _, r := range g.Rows {
		row := Row{ItemID: r.ItemID, Cells: make([]Cell, 0, len(r.Cells))}
		for _, c := range r.Cells {
			row.Cells = append(row.Cells, Cell{
				ResourceID:   r.ResourceID,
				ProjectID:    r.ProjectID,
				Year:         year,
				Month:        c.Month,
				AllocationID: c.ID,
				Persisted:    c.Percentage,
			})
		}
		rows = append(rows, row)
	}
	return rows
}
