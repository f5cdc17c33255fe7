package engine

import "fmt"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the side a taker order consumes liquidity from.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type OrderType string

const (
	TypeGoodTillCancel OrderType = "GOOD_TILL_CANCEL"
	TypeGoodForDay     OrderType = "GOOD_FOR_DAY"
	TypeFillAndKill    OrderType = "FILL_AND_KILL"
	TypeFillOrKill     OrderType = "FILL_OR_KILL"
	TypeMarket         OrderType = "MARKET"
)

// edge case: price stored as int64 ticks to avoid floating-point precision errors
type Order struct {
	ID                uint64
	Side              Side
	Type              OrderType
	Price             int64 // ticks; assigned during admission for MARKET orders
	InitialQuantity   int64
	RemainingQuantity int64
}

func NewOrder(orderType OrderType, id uint64, side Side, price, quantity int64) *Order {
	return &Order{
		ID:                id,
		Side:              side,
		Type:              orderType,
		Price:             price,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
	}
}

// NewMarketOrder creates a MARKET order; its price is assigned by the book
// during admission, before insertion.
func NewMarketOrder(id uint64, side Side, quantity int64) *Order {
	return NewOrder(TypeMarket, id, side, 0, quantity)
}

func (o *Order) FilledQuantity() int64 {
	return o.InitialQuantity - o.RemainingQuantity
}

func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}

// Fill consumes quantity from the order's remaining quantity. A quantity
// exceeding the remaining quantity is a caller contract violation.
func (o *Order) Fill(quantity int64) error {
	if quantity > o.RemainingQuantity {
		return fmt.Errorf("order (%d) cannot be filled, quantity %d exceeds remaining %d",
			o.ID, quantity, o.RemainingQuantity)
	}
	o.RemainingQuantity -= quantity
	return nil
}

// ToGoodTillCancel converts a MARKET order into a priced GOOD_TILL_CANCEL
// order. One-time conversion, only valid from MARKET.
func (o *Order) ToGoodTillCancel(price int64) error {
	if o.Type != TypeMarket {
		return fmt.Errorf("order (%d) cannot have its price adjusted, only market orders can", o.ID)
	}
	o.Price = price
	o.Type = TypeGoodTillCancel
	return nil
}

// OrderModify is a replace request: the resting order keeps its id and
// type but takes the requested side, price and quantity.
type OrderModify struct {
	OrderID  uint64
	Side     Side
	Price    int64
	Quantity int64
}

func (m OrderModify) ToOrder(orderType OrderType) *Order {
	return NewOrder(orderType, m.OrderID, m.Side, m.Price, m.Quantity)
}
