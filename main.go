package main

import (
	"time"

	"github.com/rs/zerolog"

	"order-book/src/config"
	"order-book/src/engine"
	"order-book/src/logger"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()

	cfg := config.Load()

	log.Info().
		Int("expiry_hour", cfg.ExpiryHour).
		Msg("Initializing order book")

	book := engine.NewOrderBook(engine.Config{
		ExpiryHour: cfg.ExpiryHour,
		Logger:     log,
	})
	book.Start()

	// good till cancel orders
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeGoodTillCancel, 1, engine.SideSell, 11, 100)))
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeGoodTillCancel, 2, engine.SideSell, 11, 110)))
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeGoodTillCancel, 4, engine.SideBuy, 12, 50)))
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeGoodTillCancel, 5, engine.SideBuy, 10, 200)))

	// market orders
	logTrades(log, book.AddOrder(engine.NewMarketOrder(3, engine.SideBuy, 5)))
	logTrades(log, book.AddOrder(engine.NewMarketOrder(6, engine.SideSell, 10)))

	// fill and kill orders
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeFillAndKill, 7, engine.SideBuy, 13, 75)))
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeFillAndKill, 8, engine.SideSell, 10, 150)))

	// fill or kill orders
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeFillOrKill, 9, engine.SideBuy, 14, 60)))
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeFillOrKill, 10, engine.SideSell, 9, 120)))

	// good for day orders, swept at the expiry hour
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeGoodForDay, 11, engine.SideBuy, 15, 80)))
	logTrades(log, book.AddOrder(engine.NewOrder(engine.TypeGoodForDay, 12, engine.SideSell, 8, 130)))

	// cancel cases: resting order, fill-and-kill remainder, unknown id
	book.CancelOrder(2)
	book.CancelOrder(7)
	book.CancelOrder(15)

	// modify cases: price+quantity, side change, unknown id
	logTrades(log, book.ModifyOrder(engine.OrderModify{OrderID: 4, Side: engine.SideBuy, Price: 13, Quantity: 60}))
	logTrades(log, book.ModifyOrder(engine.OrderModify{OrderID: 12, Side: engine.SideSell, Price: 7, Quantity: 140}))
	logTrades(log, book.ModifyOrder(engine.OrderModify{OrderID: 20, Side: engine.SideBuy, Price: 10, Quantity: 50}))

	bids, asks := book.Levels()
	log.Info().
		Int("resting_orders", book.Size()).
		Interface("bids", bids).
		Interface("asks", asks).
		Msg("Order book snapshot")

	shutdown(log, book, cfg.ShutdownTimeout)
	logger.CloseLogger()
}

func logTrades(log zerolog.Logger, trades []*engine.Trade) {
	for _, trade := range trades {
		log.Info().
			Str("trade_id", trade.TradeID).
			Uint64("buyer_id", trade.Bid.OrderID).
			Uint64("seller_id", trade.Ask.OrderID).
			Int64("bid_price", trade.Bid.Price).
			Int64("ask_price", trade.Ask.Price).
			Int64("quantity", trade.Bid.Quantity).
			Msg("Trade executed")
	}
}

func shutdown(log zerolog.Logger, book *engine.OrderBook, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		book.Close()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Shutdown complete")
	case <-time.After(timeout):
		// edge case: timeout during shutdown is acceptable
		log.Warn().
			Dur("timeout", timeout).
			Msg("Timeout waiting for sweeper shutdown")
	}
}
