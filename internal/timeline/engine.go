package timeline

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mock-interviewer/internal/domain"
)

var (
	ErrClosed         = errors.New("timeline closed")
	ErrUnknownMessage = errors.New("timeline unknown message")
)

// Engine es dueño de la secuencia ordenada de mensajes y del efecto de tipeo.
// Toda mutación ocurre bajo mu; a lo sumo un reveal está activo a la vez.
type Engine struct {
	mu        sync.Mutex
	messages  []domain.Message
	active    *reveal
	closed    bool
	interval  time.Duration
	newTicker TickerFunc
	onChange  func()
	logger    *zap.Logger
}

// reveal es el handle de una revelación en curso. Sólo muta su mensaje mientras
// siga siendo Engine.active.
type reveal struct {
	index  int
	runes  []rune
	pos    int
	ticker Ticker
	stop   chan struct{}
	done   chan struct{}
}

// NewEngine crea un timeline vacío. Un intervalo <= 0 usa DefaultInterval y un
// newTicker nil usa time.Ticker.
func NewEngine(interval time.Duration, newTicker TickerFunc, logger *zap.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		interval:  interval,
		newTicker: newTicker,
		logger:    logger,
	}
}

// OnChange registra la función que se llama tras cada mutación visible. Se invoca
// sin tener el lock tomado, así que puede llamar a Snapshot.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Append agrega el mensaje tal cual al final y devuelve su índice.
func (e *Engine) Append(msg domain.Message) int {
	e.mu.Lock()
	idx := e.appendLocked(msg)
	e.mu.Unlock()
	e.notify()
	return idx
}

// AppendImmediate agrega un mensaje ya revelado por completo, sin pasar por el
// scheduler.
func (e *Engine) AppendImmediate(msg domain.Message) int {
	msg.Revealed = msg.Content
	return e.Append(msg)
}

func (e *Engine) appendLocked(msg domain.Message) int {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	e.messages = append(e.messages, msg)
	return len(e.messages) - 1
}

// Reveal empieza a mostrar fullText en el mensaje index, un carácter por tick.
// Si había otro reveal activo, primero se completa de golpe.
func (e *Engine) Reveal(index int, fullText string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= len(e.messages) {
		e.mu.Unlock()
		return ErrUnknownMessage
	}

	e.flushLocked()

	msg := &e.messages[index]
	msg.Content = fullText
	msg.Revealed = ""

	runes := []rune(fullText)
	if len(runes) == 0 {
		e.mu.Unlock()
		e.notify()
		return nil
	}

	r := &reveal{
		index:  index,
		runes:  runes,
		ticker: e.newTicker(e.interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	e.active = r
	e.mu.Unlock()

	e.logger.Debug("reveal started", zap.Int("index", index), zap.Int("runes", len(runes)))
	go e.run(r)
	e.notify()
	return nil
}

func (e *Engine) run(r *reveal) {
	defer close(r.done)
	defer r.ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C():
			changed, more := e.step(r)
			if changed {
				e.notify()
			}
			if !more {
				return
			}
		}
	}
}

// step avanza un carácter. Devuelve si hubo cambio y si quedan ticks por hacer.
func (e *Engine) step(r *reveal) (bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != r {
		return false, false
	}
	r.pos++
	e.messages[r.index].Revealed = string(r.runes[:r.pos])
	if r.pos >= len(r.runes) {
		e.active = nil
		return true, false
	}
	return true, true
}

// Flush completa al instante el reveal activo, si lo hay.
func (e *Engine) Flush() {
	e.mu.Lock()
	flushed := e.flushLocked()
	e.mu.Unlock()
	if flushed {
		e.notify()
	}
}

func (e *Engine) flushLocked() bool {
	r := e.active
	if r == nil {
		return false
	}
	e.active = nil
	close(r.stop)
	msg := &e.messages[r.index]
	msg.Revealed = msg.Content
	return true
}

// Close detiene el reveal activo sin completarlo y rechaza reveals posteriores.
// Espera a que la goroutine del tick termine.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	r := e.active
	e.active = nil
	if r != nil {
		close(r.stop)
	}
	e.mu.Unlock()

	if r != nil {
		<-r.done
	}
}

// Active devuelve el índice del mensaje que se está revelando.
func (e *Engine) Active() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return 0, false
	}
	return e.active.index, true
}

// Len devuelve la cantidad de mensajes.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}

// Message devuelve una copia del mensaje index.
func (e *Engine) Message(index int) (domain.Message, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.messages) {
		return domain.Message{}, false
	}
	return e.messages[index], true
}

// Snapshot copia el estado visible del timeline.
func (e *Engine) Snapshot() []domain.MessageView {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.MessageView, len(e.messages))
	for i, m := range e.messages {
		out[i] = domain.MessageView{
			Speaker:  m.Speaker,
			Kind:     m.Kind,
			Revealed: m.Revealed,
			Complete: m.Complete(),
		}
	}
	return out
}

func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}
