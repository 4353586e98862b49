package chord

import (
	"fmt"
	"net/http"
	"strings"

	"go.miragespace.co/copper/spec/protocol"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

func formatNode(n protocol.Address) string {
	return n.String()
}

var vOptions = []func(*graph.VertexProperties){
	graph.VertexAttribute("shape", "box"),
}

var rootVOptions = append(vOptions,
	graph.VertexAttribute("style", "filled"),
	graph.VertexAttribute("color", "yellow"),
)

var predVOptions = append(vOptions,
	graph.VertexAttribute("style", "filled"),
	graph.VertexAttribute("color", "lightgrey"),
)

// RingGraphHandler draws what root knows about the ring: its predecessor and
// the owners recorded in its finger table, as DOT.
func RingGraphHandler(root *LocalNode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ring := graph.New(formatNode, graph.Directed())

		pre := root.table.Predecessor()
		ring.AddVertex(root.Identity, rootVOptions...)
		if !pre.Equal(root.Identity) {
			ring.AddVertex(pre, predVOptions...)
			ring.AddEdge(formatNode(pre), formatNode(root.Identity), graph.EdgeAttribute("style", "dashed"))
		}

		labels := make(map[string][]string)
		owners := make([]protocol.Address, 0)
		for _, f := range root.table.Fingers() {
			if f.Owner.Equal(root.Identity) {
				continue
			}
			key := formatNode(f.Owner)
			if _, ok := labels[key]; !ok {
				owners = append(owners, f.Owner)
				ring.AddVertex(f.Owner, vOptions...)
			}
			labels[key] = append(labels[key], fmt.Sprintf("%d", f.Offset))
		}

		for _, owner := range owners {
			key := formatNode(owner)
			label := strings.Join(labels[key], ",")
			if err := ring.AddEdge(formatNode(root.Identity), key, graph.EdgeAttribute("label", label)); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("content-type", "text/plain")
		draw.DOT(ring, w)
	}
}
