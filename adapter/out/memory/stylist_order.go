package memory

import (
	"context"
	"sync"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
)

// Orders is an in-memory order ledger.
type Orders struct {
	mu    sync.RWMutex
	lines []domain.OrderLine
}

var _ out.OrderRepository = (*Orders)(nil)

func NewOrders(lines ...domain.OrderLine) *Orders {
	return &Orders{lines: lines}
}

// Add appends line items.
func (o *Orders) Add(lines ...domain.OrderLine) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, lines...)
}

func (o *Orders) ScanOrderLines(ctx context.Context, fn func(*domain.OrderLine) error) error {
	o.mu.RLock()
	lines := append([]domain.OrderLine(nil), o.lines...)
	o.mu.RUnlock()

	for i := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(&lines[i]); err != nil {
			return err
		}
	}
	return nil
}
