package grid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeWriter stores cells in memory and fails any write for a month listed in failMonths.
type fakeWriter struct {
	mu         sync.Mutex
	creates    int
	updates    int
	nextID     int
	stored     map[string]float64
	failMonths map[int]bool
	delay      time.Duration
	inFlight   int32
	maxFlight  int32
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{stored: make(map[string]float64), failMonths: make(map[int]bool)}
}

var errRejected = errors.New("percentage rejected")

func (w *fakeWriter) enter() func() {
	n := atomic.AddInt32(&w.inFlight, 1)
	for {
		peak := atomic.LoadInt32(&w.maxFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&w.maxFlight, peak, n) {
			break
		}
	}
	time.Sleep(w.delay)
	return func() { atomic.AddInt32(&w.inFlight, -1) }
}

func (w *fakeWriter) CreateAllocation(_ context.Context, c Cell, percentage interface{}) (string, float64, error) {
	defer w.enter()()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.creates++
	v, ok := percentage.(float64)
	if !ok || v < 0 || v > 100 || w.failMonths[c.Month] {
		return "", 0, errRejected
	}
	w.nextID++
	id := fmt.Sprintf("a%d", w.nextID)
	w.stored[id] = v
	return id, v, nil
}

func (w *fakeWriter) UpdateAllocation(_ context.Context, id string, percentage interface{}) (float64, error) {
	defer w.enter()()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates++
	v, ok := percentage.(float64)
	if !ok || v < 0 || v > 100 {
		return 0, errRejected
	}
	w.stored[id] = v
	return v, nil
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"25", 25, true},
		{" 12.5 ", 12.5, true},
		{"40%", 40, true},
		{"0", 0, true},
		{"-5", -5, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseValue(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseValue(%q) = %v, %v; want %v, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want Action
	}{
		{"placeholder zero", Cell{Text: "0"}, ActionNone},
		{"placeholder blank", Cell{Text: ""}, ActionNone},
		{"placeholder negative", Cell{Text: "-3"}, ActionNone},
		{"placeholder garbage", Cell{Text: "x"}, ActionNone},
		{"placeholder positive", Cell{Text: "25"}, ActionCreate},
		{"stored unchanged", Cell{AllocationID: "a1", Persisted: 50, Text: "50"}, ActionNone},
		{"stored unchanged formatted", Cell{AllocationID: "a1", Persisted: 50, Text: "50.0"}, ActionNone},
		{"stored changed", Cell{AllocationID: "a1", Persisted: 50, Text: "60"}, ActionUpdate},
		{"stored to zero", Cell{AllocationID: "a1", Persisted: 50, Text: "0"}, ActionUpdate},
		{"stored garbage", Cell{AllocationID: "a1", Persisted: 50, Text: "x"}, ActionUpdate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.cell); got != tt.want {
				t.Errorf("Decide() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	for v, want := range map[float64]string{0: "0", 50: "50", 12.5: "12.5"} {
		if got := FormatValue(v); got != want {
			t.Errorf("FormatValue(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestApply_RejectedTextIsSent(t *testing.T) {
	w := newFakeWriter()
	out := Apply(context.Background(), w, Cell{AllocationID: "a1", Persisted: 50, Text: "lots"})
	if out.OK() || out.Error == "" || out.Percentage != 50 {
		t.Errorf("Apply() = %+v, want failure keeping persisted value", out)
	}
	if w.updates != 1 {
		t.Errorf("updates = %d, want 1", w.updates)
	}
}

func TestCommit_OnlyChangedCells(t *testing.T) {
	w := newFakeWriter()
	cells := []Cell{
		{Month: 1, Text: "0"},
		{Month: 2, Text: "30"},
		{Month: 3, AllocationID: "a9", Persisted: 20, Text: "20"},
		{Month: 4, AllocationID: "a8", Persisted: 20, Text: "45"},
	}
	outcomes := Commit(context.Background(), w, cells)
	if len(outcomes) != 2 {
		t.Fatalf("Commit() returned %d outcomes, want 2", len(outcomes))
	}
	if outcomes[0].Cell.Month != 2 || outcomes[0].Action != ActionCreate || outcomes[0].AllocationID == "" {
		t.Errorf("outcomes[0] = %+v", outcomes[0])
	}
	if outcomes[1].Cell.Month != 4 || outcomes[1].Action != ActionUpdate || outcomes[1].Percentage != 45 {
		t.Errorf("outcomes[1] = %+v", outcomes[1])
	}
	if w.creates != 1 || w.updates != 1 {
		t.Errorf("creates=%d updates=%d, want 1/1", w.creates, w.updates)
	}
}

func TestCommit_PartialFailureKeepsOrder(t *testing.T) {
	w := newFakeWriter()
	w.failMonths[3] = true
	w.delay = 5 * time.Millisecond

	cells := make([]Cell, 0, 12)
	for m := 1; m <= 12; m++ {
		cells = append(cells, Cell{Month: m, Text: "10"})
	}
	outcomes := Commit(context.Background(), w, cells)
	if len(outcomes) != 12 {
		t.Fatalf("Commit() returned %d outcomes", len(outcomes))
	}
	for i, out := range outcomes {
		if out.Cell.Month != i+1 {
			t.Errorf("outcomes[%d] is month %d", i, out.Cell.Month)
		}
		if (out.Cell.Month == 3) == out.OK() {
			t.Errorf("month %d OK = %v", out.Cell.Month, out.OK())
		}
	}
	if got := atomic.LoadInt32(&w.maxFlight); got > MaxConcurrentWrites {
		t.Errorf("max concurrent writes = %d, limit %d", got, MaxConcurrentWrites)
	}
	if got := atomic.LoadInt32(&w.maxFlight); got < 2 {
		t.Errorf("max concurrent writes = %d, want writes to overlap", got)
	}
}
