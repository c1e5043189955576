package discovery

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress follows the enrichment of a search's shortlisted candidates
type Progress interface {
	// Resolved records one candidate handed back by the resolver
	Resolved(identifier string, degraded bool)
	// Close finishes the display and returns the final tally
	Close() EnrichmentTally
}

// EnrichmentTally counts resolved candidates; Degraded ones fell back to a
// placeholder after every provider failed
type EnrichmentTally struct {
	Resolved int
	Degraded int
}

func (t *EnrichmentTally) record(degraded bool) {
	t.Resolved++
	if degraded {
		t.Degraded++
	}
}

// CountingProgress keeps the tally without drawing anything. The server
// and MCP binaries use it.
type CountingProgress struct {
	tally EnrichmentTally
}

func NewCountingProgress() *CountingProgress {
	return &CountingProgress{}
}

func (p *CountingProgress) Resolved(_ string, degraded bool) { p.tally.record(degraded) }
func (p *CountingProgress) Close() EnrichmentTally         { return p.tally }

// BarProgress draws the shortlist as a terminal bar naming the handle just
// resolved and how many came back degraded
type BarProgress struct {
	bar   *progressbar.ProgressBar
	tally EnrichmentTally
}

func NewBarProgress(w io.Writer, candidates int) *BarProgress {
	return &BarProgress{
		bar: progressbar.NewOptions(candidates,
			progressbar.OptionSetDescription("Enriching creators"),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(24),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "#",
				SaucerPadding: ".",
				BarStart:      "|",
				BarEnd:        "|",
			})),
	}
}

func (p *BarProgress) Resolved(identifier string, degraded bool) {
	p.tally.record(degraded)
	desc := fmt.Sprintf("@%s", identifier)
	if p.tally.Degraded > 0 {
		desc = fmt.Sprintf("@%s (%d degraded)", identifier, p.tally.Degraded)
	}
	p.bar.Describe(desc)
	_ = p.bar.Add(1)
}

func (p *BarProgress) Close() EnrichmentTally {
	_ = p.bar.Finish()
	return p.tally
}
