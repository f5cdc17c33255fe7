package engine

// TradeInfo is one leg of a match: the participating order, the price it
// executed at (its own resting price) and the executed quantity.
type TradeInfo struct {
	OrderID  uint64
	Price    int64
	Quantity int64
}

// Trade is the immutable result of one matching iteration: a bid leg and
// an ask leg with the same quantity but each side's own price.
type Trade struct {
	TradeID   string
	Bid       TradeInfo
	Ask       TradeInfo
	Timestamp int64 // unix milliseconds
}
