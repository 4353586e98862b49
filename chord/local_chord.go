package chord

import (
	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/protocol"
)

func (n *LocalNode) isMine(id uint64) bool {
	return chord.Contains(id, n.table.Predecessor().ID(), n.ID())
}

// findOwner returns the next hop toward the owner of id. It is self only when
// this node owns id; any other address must be forwarded to and asked again.
func (n *LocalNode) findOwner(id uint64) protocol.Address {
	id = n.Space.Normalize(id)

	if n.isMine(id) {
		return n.Identity
	}

	// a successor finger still pointing at ourselves has not been learned yet
	if _, succ, ok := n.table.Successor(); ok && !succ.Equal(n.Identity) {
		if chord.Contains(id, n.ID(), succ.ID()) {
			return succ
		}
	}

	if closest, ok := n.closestPrecedingFinger(id); ok {
		return closest
	}

	return n.table.Predecessor()
}

// closestPrecedingFinger picks, among fingers strictly between self and id,
// the one with the largest clockwise distance from self.
func (n *LocalNode) closestPrecedingFinger(id uint64) (protocol.Address, bool) {
	var (
		closest  protocol.Address
		distance uint64
		found    bool
	)
	for _, f := range n.table.Fingers() {
		owner := f.Owner
		if !chord.BetweenStrict(n.ID(), owner.ID(), id) {
			continue
		}
		if d := n.Space.Distance(n.ID(), owner.ID()); !found || d > distance {
			closest, distance, found = owner, d, true
		}
	}
	return closest, found
}
