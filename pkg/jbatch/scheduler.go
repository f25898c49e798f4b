package jbatch

// ShouldBroadcast reports whether nowMillis should trigger an automatic
// broadcast: the current batch is non-empty and either has reached the
// size trigger or has been idle past the time trigger (spec section 4.5,
// "Broadcast... triggered automatically when the current batch size >= 50
// operations or 5s have passed since last broadcast and the batch is
// non-empty"). A batch already Sent is never re-triggered.
func (s *State) ShouldBroadcast(nowMillis uint64) bool {
	if s.Sent != nil || s.isEmpty() {
		return false
	}
	if opsCount(s.Current) >= broadcastOpThreshold {
		return true
	}
	return nowMillis-s.LastBroadcastMillis >= broadcastIdleMillis
}
