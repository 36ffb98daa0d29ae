package timeline

import "time"

// DefaultInterval es la cadencia por carácter del efecto de tipeo.
const DefaultInterval = 30 * time.Millisecond

// Ticker abstrae time.Ticker para poder manejar los ticks a mano en tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc construye un Ticker con el intervalo dado.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker envuelve time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }

func (t timeTicker) Stop() { t.t.Stop() }
