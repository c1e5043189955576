package discovery

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountingProgressTally(t *testing.T) {
	p := NewCountingProgress()
	p.Resolved("ana", false)
	p.Resolved("ghost", true)
	p.Resolved("ben", false)

	assert.Equal(t, EnrichmentTally{Resolved: 3, Degraded: 1}, p.Close())
}

func TestBarProgressNamesHandles(t *testing.T) {
	var buf bytes.Buffer
	p := NewBarProgress(&buf, 2)
	p.Resolved("ghost", true)
	p.Resolved("chefada", false)

	tally := p.Close()

	assert.Equal(t, EnrichmentTally{Resolved: 2, Degraded: 1}, tally)
	assert.Contains(t, buf.String(), "@chefada (1 degraded)")
}
