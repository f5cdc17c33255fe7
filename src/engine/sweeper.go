package engine

import "time"

// grace past the cutoff so a wake never lands just before it
const expiryGrace = 100 * time.Millisecond

// Start launches the expiration sweeper, which cancels all resting
// GOOD_FOR_DAY orders at the configured daily cutoff hour. GOOD_TILL_CANCEL
// orders are never expired.
func (ob *OrderBook) Start() {
	ob.wg.Add(1)
	go ob.sweepExpiredOrders()
}

// Close signals the sweeper to stop and waits for it to exit. Safe to call
// more than once.
func (ob *OrderBook) Close() {
	ob.closeOnce.Do(func() {
		close(ob.done)
	})
	ob.wg.Wait()
}

func (ob *OrderBook) sweepExpiredOrders() {
	defer ob.wg.Done()

	for {
		// next wake time is computed outside the lock
		now := ob.clk.Now()
		timer := ob.clk.Timer(nextExpiry(now, ob.expiryHour).Sub(now) + expiryGrace)

		select {
		case <-ob.done:
			timer.Stop()
			return
		case <-timer.C:
		}

		ob.expireGoodForDayOrders()
	}
}

func (ob *OrderBook) expireGoodForDayOrders() {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	var expired []uint64
	for id, entry := range ob.orders {
		if entry.order.Type == TypeGoodForDay {
			expired = append(expired, id)
		}
	}

	// expiry takes the same cancellation path as an external cancel request
	for _, id := range expired {
		ob.cancelLocked(id)
	}

	if len(expired) > 0 {
		ob.log.Info().
			Int("expired_orders", len(expired)).
			Int("expiry_hour", ob.expiryHour).
			Msg("Expired GOOD_FOR_DAY orders")
	}
}

// nextExpiry returns the next daily cutoff instant: today at hour if still
// ahead, otherwise the same hour tomorrow.
func nextExpiry(now time.Time, hour int) time.Time {
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !now.Before(cutoff) {
		cutoff = cutoff.AddDate(0, 0, 1)
	}
	return cutoff
}
