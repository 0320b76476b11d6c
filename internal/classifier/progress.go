package classifier

import "time"

// Progress tracks throughput for operator logging during long runs.
type Progress struct {
	start    time.Time
	Analyzed int
	Failed   int
}

func NewProgress() *Progress {
	return &Progress{start: time.Now()}
}

// Throughput returns messages per minute since the run started.
func (p *Progress) Throughput() float64 {
	elapsed := time.Since(p.start).Minutes()
	if elapsed <= 0 || p.Analyzed == 0 {
		return 0
	}
	return float64(p.Analyzed) / elapsed
}

// ETA estimates time remaining for the given backlog. Zero when throughput
// is not yet measurable.
func (p *Progress) ETA(remaining int) time.Duration {
	tp := p.Throughput()
	if tp <= 0 || remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining) / tp * float64(time.Minute))
}
