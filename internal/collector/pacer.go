package collector

import "time"

// FetchKind distinguishes the two paced call classes.
type FetchKind int

const (
	FetchPage FetchKind = iota
	FetchThread
)

// Outcome reports how a paced call went.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRateLimited
)

// Pacer adapts inter-request delays to observed rate limiting. Every
// rate-limit hit stretches the delays; every subsequent success walks them
// back toward the configured base. Not safe for concurrent use; the
// collector issues calls sequentially.
type Pacer struct {
	basePage   time.Duration
	baseThread time.Duration
	hits       int
	totalHits  int
}

func NewPacer(pageDelay, threadDelay time.Duration) *Pacer {
	if pageDelay <= 0 {
		pageDelay = 500 * time.Millisecond
	}
	if threadDelay <= 0 {
		threadDelay = time.Second
	}
	return &Pacer{basePage: pageDelay, baseThread: threadDelay}
}

// Delay returns the current delay for a fetch kind, scaled by outstanding
// rate-limit pressure: base * (1 + 0.5*hits).
func (p *Pacer) Delay(kind FetchKind) time.Duration {
	base := p.basePage
	if kind == FetchThread {
		base = p.baseThread
	}
	scale := 1 + 0.5*float64(p.hits)
	return time.Duration(float64(base) * scale)
}

// Observe records a call outcome and adjusts pressure.
func (p *Pacer) Observe(outcome Outcome) {
	switch outcome {
	case OutcomeRateLimited:
		p.hits++
		p.totalHits++
	case OutcomeOK:
		if p.hits > 0 {
			p.hits--
		}
	}
}

// Hits returns the current outstanding rate-limit pressure.
func (p *Pacer) Hits() int {
	return p.hits
}

// TotalHits returns every rate-limit hit observed over the pacer's life,
// regardless of later recovery.
func (p *Pacer) TotalHits() int {
	return p.totalHits
}
