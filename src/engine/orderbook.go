package engine

import (
	"container/list"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/btree"
	"github.com/rs/zerolog"
)

// PriceLevel holds the resting orders at one price on one side.
// Invariant: never empty while present in a side's tree.
type PriceLevel struct {
	Price  int64
	Orders *list.List // of *Order, fifo ordering for time priority
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price, Orders: list.New()}
}

func (pl *PriceLevel) front() *Order {
	return pl.Orders.Front().Value.(*Order)
}

type PriceLevelItem struct {
	PriceLevel *PriceLevel
}

func (p *PriceLevelItem) Less(than btree.Item) bool {
	other := than.(*PriceLevelItem)
	return p.PriceLevel.Price > other.PriceLevel.Price
}

type PriceLevelItemAscending struct {
	PriceLevel *PriceLevel
}

func (p *PriceLevelItemAscending) Less(than btree.Item) bool {
	other := than.(*PriceLevelItemAscending)
	return p.PriceLevel.Price < other.PriceLevel.Price
}

// LevelData is the incrementally maintained per-price aggregate: total
// remaining quantity and resting order count. It always equals what a
// scan of the corresponding PriceLevel would produce.
type LevelData struct {
	Quantity   int64
	OrderCount int64
}

type LevelInfo struct {
	Price    int64
	Quantity int64
}

// orderEntry locates a resting order: the order itself, its owning price
// level and its list element, so removal never scans the level.
type orderEntry struct {
	order *Order
	level *PriceLevel
	elem  *list.Element
}

type Config struct {
	// ExpiryHour is the local hour-of-day (0-23) at which GOOD_FOR_DAY
	// orders expire.
	ExpiryHour int
	Clock      clock.Clock
	Logger     zerolog.Logger
}

type OrderBook struct {
	Bids *btree.BTree // sorted descending (highest first)
	Asks *btree.BTree // sorted ascending (lowest first)

	bidLevels map[int64]*LevelData
	askLevels map[int64]*LevelData
	orders    map[uint64]*orderEntry

	mu  sync.RWMutex
	clk clock.Clock
	log zerolog.Logger

	expiryHour int
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

func NewOrderBook(cfg Config) *OrderBook {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &OrderBook{
		Bids:       btree.New(32),
		Asks:       btree.New(32),
		bidLevels:  make(map[int64]*LevelData),
		askLevels:  make(map[int64]*LevelData),
		orders:     make(map[uint64]*orderEntry),
		clk:        cfg.Clock,
		log:        cfg.Logger,
		expiryHour: cfg.ExpiryHour,
		done:       make(chan struct{}),
	}
}

// CancelOrder removes a resting order. Unknown ids are a no-op.
func (ob *OrderBook) CancelOrder(orderID uint64) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.cancelLocked(orderID)
}

// Size returns the number of currently resting orders.
func (ob *OrderBook) Size() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return len(ob.orders)
}

// Levels returns a point-in-time snapshot of (price, aggregate remaining
// quantity) pairs: bids best-first descending, asks best-first ascending.
func (ob *OrderBook) Levels() (bids []LevelInfo, asks []LevelInfo) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	bids = make([]LevelInfo, 0, ob.Bids.Len())
	asks = make([]LevelInfo, 0, ob.Asks.Len())

	ob.Bids.Ascend(func(item btree.Item) bool {
		price := item.(*PriceLevelItem).PriceLevel.Price
		bids = append(bids, LevelInfo{Price: price, Quantity: ob.bidLevels[price].Quantity})
		return true
	})

	ob.Asks.Ascend(func(item btree.Item) bool {
		price := item.(*PriceLevelItemAscending).PriceLevel.Price
		asks = append(asks, LevelInfo{Price: price, Quantity: ob.askLevels[price].Quantity})
		return true
	})

	return bids, asks
}

func (ob *OrderBook) tree(side Side) *btree.BTree {
	if side == SideBuy {
		return ob.Bids
	}
	return ob.Asks
}

func (ob *OrderBook) levelIndex(side Side) map[int64]*LevelData {
	if side == SideBuy {
		return ob.bidLevels
	}
	return ob.askLevels
}

func (ob *OrderBook) probeItem(side Side, price int64) btree.Item {
	if side == SideBuy {
		return &PriceLevelItem{PriceLevel: &PriceLevel{Price: price}}
	}
	return &PriceLevelItemAscending{PriceLevel: &PriceLevel{Price: price}}
}

func (ob *OrderBook) levelAt(side Side, price int64) *PriceLevel {
	item := ob.tree(side).Get(ob.probeItem(side, price))
	if item == nil {
		return nil
	}
	if side == SideBuy {
		return item.(*PriceLevelItem).PriceLevel
	}
	return item.(*PriceLevelItemAscending).PriceLevel
}

func (ob *OrderBook) getOrCreateLevel(side Side, price int64) *PriceLevel {
	if level := ob.levelAt(side, price); level != nil {
		return level
	}

	level := newPriceLevel(price)
	if side == SideBuy {
		ob.Bids.ReplaceOrInsert(&PriceLevelItem{PriceLevel: level})
	} else {
		ob.Asks.ReplaceOrInsert(&PriceLevelItemAscending{PriceLevel: level})
	}
	return level
}

func (ob *OrderBook) removeLevel(side Side, price int64) {
	ob.tree(side).Delete(ob.probeItem(side, price))
}

// bestLevel returns the best price level of a side: highest bid, lowest ask.
func (ob *OrderBook) bestLevel(side Side) *PriceLevel {
	tree := ob.tree(side)
	if tree.Len() == 0 {
		return nil
	}
	item := tree.Min()
	if side == SideBuy {
		return item.(*PriceLevelItem).PriceLevel
	}
	return item.(*PriceLevelItemAscending).PriceLevel
}

// worstPrice returns the least favorable resting price of a side: lowest
// bid, highest ask. Used for market order conversion.
func (ob *OrderBook) worstPrice(side Side) (int64, bool) {
	tree := ob.tree(side)
	if tree.Len() == 0 {
		return 0, false
	}
	item := tree.Max()
	if side == SideBuy {
		return item.(*PriceLevelItem).PriceLevel.Price, true
	}
	return item.(*PriceLevelItemAscending).PriceLevel.Price, true
}

// insertLocked appends the order at the tail of its side/price level and
// registers it in the locator and the level aggregate.
func (ob *OrderBook) insertLocked(order *Order) {
	level := ob.getOrCreateLevel(order.Side, order.Price)
	elem := level.Orders.PushBack(order)

	ob.orders[order.ID] = &orderEntry{order: order, level: level, elem: elem}
	ob.onOrderAdded(order)
}

func (ob *OrderBook) cancelLocked(orderID uint64) {
	entry, exists := ob.orders[orderID]
	if !exists {
		return
	}

	order := entry.order
	entry.level.Orders.Remove(entry.elem)
	// edge case: remove empty price level
	if entry.level.Orders.Len() == 0 {
		ob.removeLevel(order.Side, order.Price)
	}
	delete(ob.orders, orderID)

	ob.onOrderCancelled(order)

	ob.log.Debug().
		Uint64("order_id", orderID).
		Str("side", string(order.Side)).
		Int64("price", order.Price).
		Int64("remaining_quantity", order.RemainingQuantity).
		Msg("Order cancelled")
}

func (ob *OrderBook) onOrderAdded(order *Order) {
	index := ob.levelIndex(order.Side)
	data, exists := index[order.Price]
	if !exists {
		data = &LevelData{}
		index[order.Price] = data
	}
	data.Quantity += order.RemainingQuantity
	data.OrderCount++
}

func (ob *OrderBook) onOrderCancelled(order *Order) {
	index := ob.levelIndex(order.Side)
	data := index[order.Price]
	data.Quantity -= order.RemainingQuantity
	data.OrderCount--
	if data.OrderCount == 0 {
		delete(index, order.Price)
	}
}

func (ob *OrderBook) onOrderMatched(side Side, price, quantity int64, fullyFilled bool) {
	index := ob.levelIndex(side)
	data := index[price]
	data.Quantity -= quantity
	if fullyFilled {
		data.OrderCount--
	}
	if data.OrderCount == 0 {
		delete(index, price)
	}
}
