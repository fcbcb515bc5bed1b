package out

import (
	"context"

	"stylist_server/core/domain"
)

// OrderRepository - 주문 라인 아이템 조회
type OrderRepository interface {
	// ScanOrderLines streams every line item of every order.
	ScanOrderLines(ctx context.Context, fn func(*domain.OrderLine) error) error
}
