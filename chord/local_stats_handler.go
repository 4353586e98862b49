package chord

import (
	"fmt"
	"math/bits"
	"net/http"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

func (n *LocalNode) printSummary(w http.ResponseWriter) {
	pre := n.table.Predecessor()

	fmt.Fprintf(w, "Current state: %s\n", n.state.Get().String())
	fmt.Fprintf(w, "State history: %v\n", n.state.History())
	fmt.Fprintf(w, "Ring size: %d\n", uint64(n.Space))
	fmt.Fprintf(w, "---\n")

	nodesTable := table.NewWriter()
	nodesTable.SetOutputMirror(w)
	nodesTable.AppendHeader(table.Row{"Where", "ID", "Address"})
	nodesTable.AppendRow(table.Row{"Predecessor", pre.ID(), pre.HostPort()})
	nodesTable.AppendRow(table.Row{"Local", n.ID(), n.Identity.HostPort()})
	nodesTable.SetStyle(table.StyleDefault)
	nodesTable.Style().Options.SeparateRows = true
	nodesTable.Render()

	fmt.Fprintf(w, "---\n")

	c := n.Counters()
	countersTable := table.NewWriter()
	countersTable.SetOutputMirror(w)
	countersTable.AppendHeader(table.Row{"get", "put", "mgmt", "pending acks"})
	countersTable.AppendRow(table.Row{c.Get, c.Put, c.Mgmt, n.PendingAcks()})
	countersTable.SetStyle(table.StyleDefault)
	countersTable.Render()

	fmt.Fprintf(w, "---\n")

	fingerTable := table.NewWriter()
	fingerTable.SetOutputMirror(w)
	fingerTable.AppendHeader(table.Row{"k", "Offset", "Owner", "Address"})
	for _, f := range n.table.Fingers() {
		step := n.Space.Distance(n.ID(), f.Offset)
		fingerTable.AppendRow(table.Row{bits.TrailingZeros64(step), f.Offset, f.Owner.ID(), f.Owner.HostPort()})
	}
	fingerTable.SetCaption("(range: %d)", uint64(n.Space))
	fingerTable.SetStyle(table.StyleDefault)
	fingerTable.Render()

	fmt.Fprintf(w, "---\n")

	keysTable := table.NewWriter()
	keysTable.SetOutputMirror(w)
	keysTable.AppendHeader(table.Row{"owner", "key", "value"})

	keys := n.KVProvider.RangeKeys(0, 0)
	values := n.KVProvider.Export(keys)
	for i, key := range keys {
		ownership := ""
		if !n.isMine(key) {
			ownership = "X"
		}
		keysTable.AppendRow(table.Row{ownership, key, values[i]})
	}
	keysTable.SetCaption("(With %d keys; X in owner column indicates incorrect owner)", len(keys))
	keysTable.SetStyle(table.StyleDefault)
	keysTable.Render()
}

func (n *LocalNode) printKey(w http.ResponseWriter, key string) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "invalid key: %v", err)
		return
	}
	val, ok := n.KVProvider.Get(n.Space.Normalize(id))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "key %d is not stored on this node", id)
		return
	}
	fmt.Fprintf(w, "%v", val)
}

func (n *LocalNode) StatsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "text/plain; charset=utf-8")

	query := r.URL.Query()
	if query.Has("key") {
		n.printKey(w, query.Get("key"))
		return
	}
	n.printSummary(w)
}
