package chord

import (
	"math/rand"
	"sort"
	"testing"

	"go.miragespace.co/copper/kv/memory"
	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newDetachedNode(t *testing.T, space chord.Space, id uint64) *LocalNode {
	return NewLocalNode(NodeConfig{
		Logger:     zaptest.NewLogger(t),
		Identity:   testAddress(uint16(20000+id), id),
		Space:      space,
		Transport:  new(mocks.Transport),
		KVProvider: memory.New(),
	})
}

func successorOf(ids []uint64, key uint64) uint64 {
	for _, id := range ids {
		if id >= key {
			return id
		}
	}
	return ids[0]
}

// makeRing links nodes by predecessor. With fingers, every finger names the true owner
// of its offset; without, fingers keep pointing at their own node.
func makeRing(t *testing.T, space chord.Space, count int, fingers bool) (map[uint64]*LocalNode, []uint64) {
	picked := make(map[uint64]bool)
	ids := make([]uint64, 0, count)
	for len(ids) < count {
		id := uint64(rand.Int63n(int64(space)))
		if picked[id] {
			continue
		}
		picked[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	nodes := make(map[uint64]*LocalNode)
	for _, id := range ids {
		nodes[id] = newDetachedNode(t, space, id)
	}
	for i, id := range ids {
		pred := ids[(i+len(ids)-1)%len(ids)]
		nodes[id].table.SetPredecessor(nodes[pred].Identity)
		if !fingers {
			continue
		}
		for _, offset := range nodes[id].table.Offsets() {
			owner := nodes[successorOf(ids, offset)]
			require.NoError(t, nodes[id].table.UpsertFinger(offset, owner.Identity))
		}
	}
	return nodes, ids
}

func TestFindOwnerSingleton(t *testing.T) {
	as := require.New(t)

	n := newDetachedNode(t, 8, 5)
	for id := uint64(0); id < 32; id++ {
		as.True(n.findOwner(id).Equal(n.Identity))
	}
}

func TestFindOwnerFastPath(t *testing.T) {
	as := require.New(t)

	a := newDetachedNode(t, 8, 1)
	b := newDetachedNode(t, 8, 6)
	a.table.SetPredecessor(b.Identity)
	as.NoError(a.table.UpsertFinger(2, b.Identity))

	as.True(a.findOwner(0).Equal(a.Identity))
	as.True(a.findOwner(3).Equal(b.Identity))
	// ids are normalized before routing
	as.True(a.findOwner(8 + 3).Equal(b.Identity))
}

func TestFindOwnerFallsBackToPredecessor(t *testing.T) {
	as := require.New(t)

	a := newDetachedNode(t, 8, 1)
	b := newDetachedNode(t, 8, 6)
	a.table.SetPredecessor(b.Identity)

	// every finger still points at a, so nothing precedes 4
	as.True(a.findOwner(4).Equal(b.Identity))
}

func TestClosestPrecedingFinger(t *testing.T) {
	as := require.New(t)

	space := chord.Space(64)
	n := newDetachedNode(t, space, 10)
	n.table.SetPredecessor(testAddress(20005, 5))
	far := testAddress(20040, 40)
	near := testAddress(20020, 20)
	as.NoError(n.table.UpsertFinger(11, testAddress(20012, 12)))
	as.NoError(n.table.UpsertFinger(18, near))
	as.NoError(n.table.UpsertFinger(42, far))

	closest, ok := n.closestPrecedingFinger(45)
	as.True(ok)
	as.True(closest.Equal(far))

	closest, ok = n.closestPrecedingFinger(30)
	as.True(ok)
	as.True(closest.Equal(near))

	// no finger sits strictly between 10 and 11
	_, ok = n.closestPrecedingFinger(11)
	as.False(ok)
}

func TestRoutingConvergence(t *testing.T) {
	for _, fingers := range []bool{true, false} {
		space := chord.Space(64)
		k := 7
		nodes, ids := makeRing(t, space, k, fingers)

		for start := range nodes {
			for id := uint64(0); id < uint64(space); id++ {
				curr := nodes[start]
				hops := 0
				for {
					next := curr.findOwner(id)
					if next.Equal(curr.Identity) {
						break
					}
					hops++
					require.LessOrEqual(t, hops, k, "id %d from %d (fingers: %v)", id, start, fingers)
					curr = nodes[next.ID()]
				}
				require.Equal(t, successorOf(ids, id), curr.ID(), "id %d from %d (fingers: %v)", id, start, fingers)
				require.True(t, curr.isMine(id))
			}
		}
	}
}
