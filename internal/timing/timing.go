package timing

import (
	"time"
)

// Stopwatch measures the phases of a single chat request (retrieval,
// generation, total) so the response can report time_taken and the log can
// break the latency down.
type Stopwatch struct {
	start  time.Time
	phases []Phase
}

type Phase struct {
	Name     string
	Duration time.Duration
}

func Start() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

// Mark records a named phase ending now and starting at the previous mark
// (or at Start for the first phase).
func (s *Stopwatch) Mark(name string) time.Duration {
	last := s.start
	for _, p := range s.phases {
		last = last.Add(p.Duration)
	}
	d := time.Since(last)
	s.phases = append(s.phases, Phase{Name: name, Duration: d})
	return d
}

// Elapsed returns total wall-clock time since Start.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Seconds returns total elapsed time in seconds, the unit exposed in chat
// responses.
func (s *Stopwatch) Seconds() float64 {
	return s.Elapsed().Seconds()
}

// Phases returns the recorded phases in order.
func (s *Stopwatch) Phases() []Phase {
	out := make([]Phase, len(s.phases))
	copy(out, s.phases)
	return out
}
