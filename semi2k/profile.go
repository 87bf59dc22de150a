//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package semi2k

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/markkurossi/ringmpc/cexpr"
	"github.com/markkurossi/ringmpc/p2p"
	"github.com/markkurossi/tabulate"
)

// FileSize implements human readable byte counts.
type FileSize uint64

func (s FileSize) String() string {
	if s > 1000*1000*1000*1000 {
		return fmt.Sprintf("%dTB", s/(1000*1000*1000*1000))
	} else if s > 1000*1000*1000 {
		return fmt.Sprintf("%dGB", s/(1000*1000*1000))
	} else if s > 1000*1000 {
		return fmt.Sprintf("%dMB", s/(1000*1000))
	} else if s > 1000 {
		return fmt.Sprintf("%dkB", s/1000)
	} else {
		return fmt.Sprintf("%dB", s)
	}
}

// Counter records the invocations of one kernel kind.
type Counter struct {
	Calls    uint64
	Elements uint64
}

// Profile records kernel invocations and renders a profiling report
// with the estimated costs from the cost table.
type Profile struct {
	Start  time.Time
	m      sync.Mutex
	counts [numKinds]Counter
	costs  *Costs
}

// NewProfile creates a new profile for the cost table.
func NewProfile(costs *Costs) *Profile {
	return &Profile{
		Start: time.Now(),
		costs: costs,
	}
}

func (p *Profile) record(kind Kind, elements int) {
	p.m.Lock()
	p.counts[kind].Calls++
	p.counts[kind].Elements += uint64(elements)
	p.m.Unlock()
}

// Count returns the counter of the kernel kind.
func (p *Profile) Count(kind Kind) Counter {
	p.m.Lock()
	defer p.m.Unlock()
	return p.counts[kind]
}

// Rounds returns the estimated number of communication rounds of all
// recorded top-level invocations of the kernel kind.
func (p *Profile) Rounds(kind Kind, params cexpr.Params) int64 {
	c := p.Count(kind)
	return int64(c.Calls) * p.costs.Lookup(kind).Latency.Eval(params)
}

// Print prints the profiling report to w.
func (p *Profile) Print(w io.Writer, params cexpr.Params, stats p2p.IOStats) {
	sent := stats.Sent.Load()
	received := stats.Recvd.Load()
	flushed := stats.Flushed.Load()

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Kernel").SetAlign(tabulate.ML)
	tab.Header("Calls").SetAlign(tabulate.MR)
	tab.Header("Elements").SetAlign(tabulate.MR)
	tab.Header("Latency").SetAlign(tabulate.ML)
	tab.Header("Comm/elem").SetAlign(tabulate.ML)
	tab.Header("Est. Xfer").SetAlign(tabulate.MR)

	p.m.Lock()
	counts := p.counts
	p.m.Unlock()

	var calls, elements uint64
	for kind, count := range counts {
		if count.Calls == 0 {
			continue
		}
		calls += count.Calls
		elements += count.Elements
		cost := p.costs.Lookup(Kind(kind))
		bits := cost.Comm.Eval(params) * int64(count.Elements)

		row := tab.Row()
		row.Column(Kind(kind).String())
		row.Column(fmt.Sprintf("%d", count.Calls))
		row.Column(fmt.Sprintf("%d", count.Elements))
		row.Column(cost.Latency.String()).SetFormat(tabulate.FmtItalic)
		row.Column(cost.Comm.String()).SetFormat(tabulate.FmtItalic)
		row.Column(FileSize(bits / 8).String())
	}

	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", calls)).SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", elements)).SetFormat(tabulate.FmtBold)
	row.Column("")
	row.Column("")
	row.Column(FileSize(sent + received).String()).SetFormat(tabulate.FmtBold)

	row = tab.Row()
	row.Column("├╴Sent").SetFormat(tabulate.FmtItalic)
	row.Column("")
	row.Column("")
	row.Column("")
	row.Column("")
	row.Column(FileSize(sent).String()).SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("├╴Rcvd").SetFormat(tabulate.FmtItalic)
	row.Column("")
	row.Column("")
	row.Column("")
	row.Column("")
	row.Column(FileSize(received).String()).SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("╰╴Flcd").SetFormat(tabulate.FmtItalic)
	row.Column("")
	row.Column("")
	row.Column("")
	row.Column("")
	row.Column(fmt.Sprintf("%v", flushed)).SetFormat(tabulate.FmtItalic)

	tab.Print(w)
	fmt.Fprintf(w, "Elapsed: %v\n", time.Since(p.Start))
}
