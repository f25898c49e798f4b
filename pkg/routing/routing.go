// Package routing defines the pathfinding contract the entity layer
// depends on to turn a "pay this amount to this entity" request into a
// concrete chain of account hops, without owning any particular
// pathfinding strategy itself (spec section 1: "builder/pathfinder
// interface only", out of scope for this repo). Grounded on the teacher's
// own preference for narrow, adapter-shaped interfaces at layer boundaries
// (see pkg/jurisdiction.Adapter, pkg/runtime.Encoder) rather than a
// concrete implementation living in the core.
package routing

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/entity"
)

// Hop is one leg of a multi-hop payment: send amount of tokenID across the
// account between via and its next counterparty on the path. A Builder
// returns these in order from the payment's originator to its final
// recipient; the entity layer turns each Hop into an htlc_lock (or a
// direct_payment for a single-hop route) against the named account.
type Hop struct {
	Via     entity.EntityID
	TokenID entity.TokenID
	Amount  *big.Int
}

// Builder finds a route for amount of tokenID from one entity to another
// across the accounts this runtime knows about. No implementation ships in
// this repo: route construction depends on a gossip-distributed view of
// account capacities and liquidity that is explicitly out of scope (spec
// section 1's "gossip topology construction" non-goal), so entity handlers
// that need multi-hop routing accept a Builder and remain agnostic to how
// one is produced.
type Builder interface {
	BuildRoute(from, to entity.EntityID, tokenID entity.TokenID, amount *big.Int) ([]Hop, error)
}
