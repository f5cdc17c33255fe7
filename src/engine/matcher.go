package engine

import (
	"github.com/google/btree"
	"github.com/google/uuid"
)

// AddOrder admits an order to the book and runs the matching loop.
// Rejected orders (duplicate id, non-crossing FILL_AND_KILL, underfunded
// FILL_OR_KILL, MARKET against an empty side) leave no state change and
// return no trades.
func (ob *OrderBook) AddOrder(order *Order) []*Trade {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.addOrderLocked(order)
}

// ModifyOrder replaces a resting order with the requested side, price and
// quantity, preserving its original type. Unknown ids are a no-op.
// Re-admission is subject to the same rules as AddOrder, so a modified
// FILL_AND_KILL that no longer crosses is rejected.
func (ob *OrderBook) ModifyOrder(modify OrderModify) []*Trade {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	entry, exists := ob.orders[modify.OrderID]
	if !exists {
		return nil
	}

	orderType := entry.order.Type
	ob.cancelLocked(modify.OrderID)
	return ob.addOrderLocked(modify.ToOrder(orderType))
}

func (ob *OrderBook) addOrderLocked(order *Order) []*Trade {
	// edge case: silently reject ids already resting in the book
	if _, exists := ob.orders[order.ID]; exists {
		return nil
	}

	switch order.Type {
	case TypeFillAndKill:
		if !ob.canMatch(order.Side, order.Price) {
			ob.log.Debug().
				Uint64("order_id", order.ID).
				Str("side", string(order.Side)).
				Int64("price", order.Price).
				Msg("Rejected FILL_AND_KILL order: does not cross")
			return nil
		}
	case TypeFillOrKill:
		if !ob.canFullyFill(order.Side, order.Price, order.RemainingQuantity) {
			ob.log.Debug().
				Uint64("order_id", order.ID).
				Str("side", string(order.Side)).
				Int64("price", order.Price).
				Int64("quantity", order.RemainingQuantity).
				Msg("Rejected FILL_OR_KILL order: insufficient depth")
			return nil
		}
	case TypeMarket:
		// converted to the worst resting opposite price so it can cross
		// the book's entire current depth
		worst, ok := ob.worstPrice(order.Side.Opposite())
		if !ok {
			ob.log.Debug().
				Uint64("order_id", order.ID).
				Str("side", string(order.Side)).
				Msg("Rejected MARKET order: no opposite liquidity")
			return nil
		}
		if err := order.ToGoodTillCancel(worst); err != nil {
			panic(err)
		}
	}

	ob.insertLocked(order)

	ob.log.Debug().
		Uint64("order_id", order.ID).
		Str("side", string(order.Side)).
		Str("type", string(order.Type)).
		Int64("price", order.Price).
		Int64("quantity", order.RemainingQuantity).
		Msg("Order admitted")

	return ob.matchLocked()
}

// canMatch reports whether a priced order crosses the opposite best.
func (ob *OrderBook) canMatch(side Side, price int64) bool {
	best := ob.bestLevel(side.Opposite())
	if best == nil {
		return false
	}
	if side == SideBuy {
		return price >= best.Price
	}
	return price <= best.Price
}

// canFullyFill reports whether the aggregate depth resting at or better
// than price on the opposite side covers the full quantity. It consults
// the level index only, never the order lists.
func (ob *OrderBook) canFullyFill(side Side, price, quantity int64) bool {
	if !ob.canMatch(side, price) {
		return false
	}

	index := ob.levelIndex(side.Opposite())
	remaining := quantity

	ob.tree(side.Opposite()).Ascend(func(item btree.Item) bool {
		var levelPrice int64
		if side == SideBuy {
			levelPrice = item.(*PriceLevelItemAscending).PriceLevel.Price
			if levelPrice > price {
				return false
			}
		} else {
			levelPrice = item.(*PriceLevelItem).PriceLevel.Price
			if levelPrice < price {
				return false
			}
		}
		remaining -= index[levelPrice].Quantity
		return remaining > 0
	})

	return remaining <= 0
}

// matchLocked consumes crossing liquidity from both sides until the best
// bid no longer reaches the best ask, then kills any FILL_AND_KILL
// remainder left at the front of either side.
func (ob *OrderBook) matchLocked() []*Trade {
	var trades []*Trade

	for {
		bidLevel := ob.bestLevel(SideBuy)
		askLevel := ob.bestLevel(SideSell)
		if bidLevel == nil || askLevel == nil {
			break
		}
		if bidLevel.Price < askLevel.Price {
			break
		}

		for bidLevel.Orders.Len() > 0 && askLevel.Orders.Len() > 0 {
			bid := bidLevel.front()
			ask := askLevel.front()

			// fills the lowest available volume of the both
			quantity := min(bid.RemainingQuantity, ask.RemainingQuantity)

			// quantity is the min of both remainings, so a fill failure
			// means the book's bookkeeping is already corrupt
			if err := bid.Fill(quantity); err != nil {
				panic(err)
			}
			if err := ask.Fill(quantity); err != nil {
				panic(err)
			}

			if bid.IsFilled() {
				bidLevel.Orders.Remove(bidLevel.Orders.Front())
				delete(ob.orders, bid.ID)
			}
			if ask.IsFilled() {
				askLevel.Orders.Remove(askLevel.Orders.Front())
				delete(ob.orders, ask.ID)
			}

			ob.onOrderMatched(SideBuy, bidLevel.Price, quantity, bid.IsFilled())
			ob.onOrderMatched(SideSell, askLevel.Price, quantity, ask.IsFilled())

			trade := &Trade{
				TradeID:   uuid.New().String(),
				Bid:       TradeInfo{OrderID: bid.ID, Price: bid.Price, Quantity: quantity},
				Ask:       TradeInfo{OrderID: ask.ID, Price: ask.Price, Quantity: quantity},
				Timestamp: ob.clk.Now().UnixMilli(),
			}
			trades = append(trades, trade)

			ob.log.Debug().
				Str("trade_id", trade.TradeID).
				Uint64("buy_order_id", bid.ID).
				Uint64("sell_order_id", ask.ID).
				Int64("quantity", quantity).
				Int64("bid_price", bid.Price).
				Int64("ask_price", ask.Price).
				Msg("Trade executed")
		}

		// edge case: remove empty price levels before re-evaluating bests
		if bidLevel.Orders.Len() == 0 {
			ob.removeLevel(SideBuy, bidLevel.Price)
		}
		if askLevel.Orders.Len() == 0 {
			ob.removeLevel(SideSell, askLevel.Price)
		}
	}

	// a partially filled FILL_AND_KILL order is always at the front of its
	// side after matching; only the single best order is examined
	if bidLevel := ob.bestLevel(SideBuy); bidLevel != nil {
		if order := bidLevel.front(); order.Type == TypeFillAndKill {
			ob.cancelLocked(order.ID)
		}
	}
	if askLevel := ob.bestLevel(SideSell); askLevel != nil {
		if order := askLevel.front(); order.Type == TypeFillAndKill {
			ob.cancelLocked(order.ID)
		}
	}

	return trades
}
