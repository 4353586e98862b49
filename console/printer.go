package console

import (
	"fmt"
	"io"
	"sync"

	"go.miragespace.co/copper/chord"
	"go.miragespace.co/copper/spec/protocol"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	foundColor   = color.New(color.FgGreen)
	missingColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	ackColor     = color.New(color.FgBlue)
)

// printer serializes writes from the input loop and the delivery loop.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) help() {
	p.mu.Lock()
	defer p.mu.Unlock()
	headerColor.Fprintln(p.out, "commands:")
	for _, u := range usages {
		fmt.Fprintf(p.out, "  %s\n", u)
	}
}

func (p *printer) prompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, "> ")
}

func (p *printer) info(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) failure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	errorColor.Fprintf(p.out, "error: %v\n", err)
}

func (p *printer) answer(a protocol.Answer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a.ValExists {
		foundColor.Fprintf(p.out, "key %d = %v\n", a.Key, a.Value)
	} else {
		missingColor.Fprintf(p.out, "key %d not found\n", a.Key)
	}
}

func (p *printer) ack(id uint64, known bool, pending int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if known {
		ackColor.Fprintf(p.out, "ack %d (%d pending)\n", id, pending)
	} else {
		missingColor.Fprintf(p.out, "unexpected ack %d\n", id)
	}
}

func (p *printer) stats(origin protocol.Address, total chord.Counters) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"get", "put", "mgmt", "total"})
	t.AppendRow(table.Row{total.Get, total.Put, total.Mgmt, total.Get + total.Put + total.Mgmt})
	t.SetCaption("(ring totals, walk started at %s)", origin.HostPort())
	t.SetStyle(table.StyleDefault)
	t.Render()
}

func (p *printer) counters(node protocol.Address, local chord.Counters) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"node", "address", "get", "put", "mgmt"})
	t.AppendRow(table.Row{node.ID(), node.HostPort(), local.Get, local.Put, local.Mgmt})
	t.SetStyle(table.StyleLight)
	t.Render()
}
