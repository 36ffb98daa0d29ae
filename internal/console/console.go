// Package console es una superficie de render por líneas para terminales sin TTY
// completo. Escribe el tipeo del entrevistador a medida que avanza.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mock-interviewer/internal/domain"
	"mock-interviewer/internal/interview"
)

const (
	cmdSummary = "/summary"
	cmdQuit    = "/quit"
)

// Driver es lo que la consola necesita del controlador de la entrevista.
type Driver interface {
	Subscribe(fn func(domain.View))
	BeginInterview(ctx context.Context) error
	SubmitAnswer(ctx context.Context, text string) error
	RequestSummary(ctx context.Context) error
	State() domain.State
}

// Surface lee respuestas de in y escribe la transcripción en out.
type Surface struct {
	driver Driver
	in     io.Reader
	out    io.Writer
	logger *zap.Logger

	mu      sync.Mutex
	printed int
	partial int
	pending bool
	idle    chan struct{}
}

func NewSurface(driver Driver, in io.Reader, out io.Writer, logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Surface{
		driver: driver,
		in:     in,
		out:    out,
		logger: logger,
		idle:   make(chan struct{}, 1),
	}
}

// Run arranca la entrevista y atiende la entrada hasta /quit, EOF o cancelación.
func (s *Surface) Run(ctx context.Context, title string) error {
	s.driver.Subscribe(s.render)
	defer s.driver.Subscribe(nil)

	fmt.Fprintf(s.out, "===== %s =====\n", title)
	fmt.Fprintf(s.out, "Type your answer and press Enter. %s shows your performance summary, %s exits.\n\n", cmdSummary, cmdQuit)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(s.in)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	s.handle(s.driver.BeginInterview(ctx))
	for {
		if err := s.waitIdle(ctx); err != nil {
			return nil
		}
		fmt.Fprint(s.out, "> ")

		var line string
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		case line = <-lines:
		}

		switch cmd := strings.TrimSpace(line); {
		case strings.EqualFold(cmd, cmdQuit):
			return nil
		case strings.EqualFold(cmd, cmdSummary):
			s.handle(s.driver.RequestSummary(ctx))
		case cmd == "" && s.driver.State() == domain.StateUnstarted:
			s.handle(s.driver.BeginInterview(ctx))
		default:
			s.handle(s.driver.SubmitAnswer(ctx, line))
		}
	}
}

// handle informa los errores que el controlador no muestra en el timeline.
func (s *Surface) handle(err error) {
	switch {
	case err == nil, errors.Is(err, interview.ErrEmptyAnswer):
	case errors.Is(err, interview.ErrBusy):
		fmt.Fprintln(s.out, "Please wait for the interviewer.")
	case errors.Is(err, interview.ErrNoSession), errors.Is(err, interview.ErrNoQuestion):
		fmt.Fprintln(s.out, "The interview has not started yet. Press Enter to retry.")
	default:
		s.logger.Debug("console action failed", zap.Error(err))
		if s.driver.State() == domain.StateUnstarted {
			fmt.Fprintln(s.out, "Press Enter to retry.")
		}
	}
}

// render escribe sólo lo nuevo desde la última vista.
func (s *Surface) render(v domain.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.printed < len(v.Messages) {
		msg := v.Messages[s.printed]
		if msg.Speaker == domain.SpeakerCandidate && msg.Kind == domain.KindQuestionAnswer {
			// Ya está en pantalla: el candidato lo tipeó.
			s.printed++
			continue
		}
		if s.partial == 0 {
			fmt.Fprint(s.out, label(msg))
		}
		if len(msg.Revealed) > s.partial {
			fmt.Fprint(s.out, msg.Revealed[s.partial:])
			s.partial = len(msg.Revealed)
		}
		if !msg.Complete {
			break
		}
		fmt.Fprint(s.out, "\n\n")
		s.printed++
		s.partial = 0
	}

	s.pending = v.Busy || s.printed < len(v.Messages)
	if !s.pending {
		select {
		case s.idle <- struct{}{}:
		default:
		}
	}
}

func (s *Surface) waitIdle(ctx context.Context) error {
	for {
		s.mu.Lock()
		pending := s.pending
		s.mu.Unlock()
		if !pending {
			return nil
		}
		select {
		case <-s.idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func label(msg domain.MessageView) string {
	switch msg.Kind {
	case domain.KindSummary:
		return "----- Performance Summary -----\n"
	case domain.KindNotice:
		return "[!] "
	default:
		return "Interviewer: "
	}
}
