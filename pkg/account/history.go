package account

// maxFrameHistory and maxMempool bound the account machine's retained state
// per spec section 5 (component budget): frame history and pending-tx queue
// never grow unbounded.
const (
	maxFrameHistory = 10
	maxMempool      = 1000
)

// frameHistory is a fixed-capacity ring of the most recently committed
// frames, newest last. It plays the same bounded-retention role as the
// teacher's hashicorp/golang-lru cache, but a ring is the right shape here:
// history is walked in order for dispute proofs, not looked up by key.
type frameHistory struct {
	buf []*Frame
}

func newFrameHistory() *frameHistory {
	return &frameHistory{buf: make([]*Frame, 0, maxFrameHistory)}
}

func (h *frameHistory) push(f *Frame) {
	h.buf = append(h.buf, f)
	if len(h.buf) > maxFrameHistory {
		h.buf = h.buf[len(h.buf)-maxFrameHistory:]
	}
}

// at returns the frame at the given height, or nil if it has scrolled out
// of the retained window.
func (h *frameHistory) at(height uint64) *Frame {
	for _, f := range h.buf {
		if f.Height == height {
			return f
		}
	}
	return nil
}

// clone returns a copy of the ring whose backing array is independent of
// h's, so pushing onto the clone never touches h. The retained *Frame
// values themselves are shared, not copied.
func (h *frameHistory) clone() *frameHistory {
	cp := &frameHistory{buf: make([]*Frame, len(h.buf))}
	copy(cp.buf, h.buf)
	return cp
}

func (h *frameHistory) latest() *Frame {
	if len(h.buf) == 0 {
		return nil
	}
	return h.buf[len(h.buf)-1]
}

// enqueueMempool appends tx, evicting the oldest entry when the bound is
// exceeded so a misbehaving peer cannot grow memory unboundedly (spec
// section 6, shared-resource policy).
func (a *Account) enqueueMempool(tx Tx) {
	a.Mempool = append(a.Mempool, tx)
	if len(a.Mempool) > maxMempool {
		a.Mempool = a.Mempool[len(a.Mempool)-maxMempool:]
	}
}

// EnqueueMempool is the exported form callers outside the package (the
// entity machine's tx handlers) use to queue an account-transaction.
func (a *Account) EnqueueMempool(tx Tx) { a.enqueueMempool(tx) }
