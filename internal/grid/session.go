package grid

import (
	"context"
	"errors"
	"sync"
)

// State of an edit session.
type State int

const (
	Idle State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// Key is a navigation key pressed inside the grid.
type Key string

const (
	KeyLeft   Key = "ArrowLeft"
	KeyRight  Key = "ArrowRight"
	KeyUp     Key = "ArrowUp"
	KeyDown   Key = "ArrowDown"
	KeyTab    Key = "Tab"
	KeyEnter  Key = "Enter"
	KeyEscape Key = "Escape"
)

var (
	ErrNotEditing  = errors.New("grid: no row is being edited")
	ErrEditing     = errors.New("grid: a row is already being edited")
	ErrUnknownCell = errors.New("grid: cell is not part of the session")
	ErrUnknownKey  = errors.New("grid: unsupported navigation key")
)

// Row is one item (a resource under a project, or a project under a resource) with its twelve
// monthly cells.
type Row struct {
	ItemID string `json:"itemId"`
	Cells  []Cell `json:"cells"`
}

// Position addresses a cell by row item and month.
type Position struct {
	ItemID string `json:"itemId"`
	Month  int    `json:"month"`
}

// Session is the edit state of one grid. One parent group is editable at a time; typing only
// changes memory until a cell is left or the session exits.
type Session struct {
	mu     sync.Mutex
	writer Writer
	state  State
	parent string
	items  []string
	cells  map[Position]*Cell
}

func NewSession(w Writer) *Session {
	return &Session{writer: w}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Parent returns the key of the group being edited, empty when idle.
func (s *Session) Parent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parent
}

// Begin snapshots rows of parentKey and enters Editing. Cells start with the text of their
// persisted value.
func (s *Session) Begin(parentKey string, rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Editing {
		return ErrEditing
	}

	s.parent = parentKey
	s.items = make([]string, 0, len(rows))
	s.cells = make(map[Position]*Cell)
	for _, r := range rows {
		s.items = append(s.items, r.ItemID)
		for _, c := range r.Cells {
			c := c
			if c.Text == "" {
				c.Text = FormatValue(c.Persisted)
			}
			s.cells[Position{ItemID: r.ItemID, Month: c.Month}] = &c
		}
	}
	s.state = Editing
	return nil
}

// Switch exits the current group, if any, and begins editing another one.
func (s *Session) Switch(ctx context.Context, parentKey string, rows []Row) ([]Outcome, error) {
	var outcomes []Outcome
	if s.State() == Editing {
		var err error
		if outcomes, err = s.Exit(ctx); err != nil {
			return nil, err
		}
	}
	return outcomes, s.Begin(parentKey, rows)
}

// SetValue records typed text without writing anything.
func (s *Session) SetValue(itemID string, month int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cell(Position{ItemID: itemID, Month: month})
	if err != nil {
		return err
	}
	c.Text = text
	return nil
}

// Value returns the current text and allocation id of a cell.
func (s *Session) Value(itemID string, month int) (Cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cell(Position{ItemID: itemID, Month: month})
	if err != nil {
		return Cell{}, err
	}
	return *c, nil
}

// Leave commits the cell focus is leaving. The outcome Action is ActionNone when nothing
// was written.
func (s *Session) Leave(ctx context.Context, itemID string, month int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cell(Position{ItemID: itemID, Month: month})
	if err != nil {
		return Outcome{}, err
	}
	out := Apply(ctx, s.writer, *c)
	absorb(c, out)
	return out, nil
}

// Navigate commits the cell at from and returns the position key moves to. Left, Right and Tab
// wrap around the twelve months; Up, Down and Enter stay within the first and last row. Escape
// exits the session and returns the outcomes of that exit.
func (s *Session) Navigate(ctx context.Context, from Position, key Key) (Position, []Outcome, error) {
	if key == KeyEscape {
		outcomes, err := s.Exit(ctx)
		return from, outcomes, err
	}

	to, err := s.move(from, key)
	if err != nil {
		return from, nil, err
	}
	out, err := s.Leave(ctx, from.ItemID, from.Month)
	if err != nil {
		return from, nil, err
	}
	return to, []Outcome{out}, nil
}

func (s *Session) move(from Position, key Key) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return from, ErrNotEditing
	}

	row := -1
	for i, item := range s.items {
		if item == from.ItemID {
			row = i
			break
		}
	}
	if row < 0 || from.Month < 1 || from.Month > 12 {
		return from, ErrUnknownCell
	}

	to := from
	switch key {
	case KeyLeft:
		to.Month = from.Month - 1
		if to.Month < 1 {
			to.Month = 12
		}
	case KeyRight, KeyTab:
		to.Month = from.Month + 1
		if to.Month > 12 {
			to.Month = 1
		}
	case KeyUp:
		if row > 0 {
			to.ItemID = s.items[row-1]
		}
	case KeyDown, KeyEnter:
		if row < len(s.items)-1 {
			to.ItemID = s.items[row+1]
		}
	default:
		return from, ErrUnknownKey
	}
	return to, nil
}

// Exit commits every changed cell concurrently, waits for all writes and returns to Idle.
// Failed cells are reported in their outcome; the session still exits.
func (s *Session) Exit(ctx context.Context) ([]Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return nil, ErrNotEditing
	}

	cells := make([]Cell, 0, len(s.cells))
	for _, item := range s.items {
		for month := 1; month <= 12; month++ {
			p := Position{ItemID: item, Month: month}
			if c, ok := s.cells[p]; ok {
				cells = append(cells, *c)
			}
		}
	}

	outcomes := Commit(ctx, s.writer, cells)

	s.state = Idle
	s.parent = ""
	s.items = nil
	s.cells = nil
	return outcomes, nil
}

func (s *Session) cell(p Position) (*Cell, error) {
	if s.state != Editing {
		return nil, ErrNotEditing
	}
	c, ok := s.cells[p]
	if !ok {
		return nil, ErrUnknownCell
	}
	return c, nil
}

// absorb records a successful write so the cell is not written again.
func absorb(c *Cell, out Outcome) {
	if out.Action == ActionNone || out.Err != nil {
		return
	}
	c.AllocationID = out.AllocationID
	c.Persisted = out.Percentage
}
