package questionbank

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mock-interviewer/internal/domain"
)

// Bank es el banco de preguntas guionado, una lista por etapa de dificultad.
type Bank struct {
	Title            string   `yaml:"title"`
	Greeting         string   `yaml:"greeting"`
	Acknowledgements []string `yaml:"acknowledgements"`
	Clarification    string   `yaml:"clarification"`
	Closing          string   `yaml:"closing"`
	Stages           []Stage  `yaml:"stages"`
}

// Stage agrupa las preguntas de una dificultad.
type Stage struct {
	Name      string   `yaml:"name"`
	Questions []string `yaml:"questions"`
}

// Load carga el banco desde un archivo YAML.
func Load(filename string) (*Bank, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", filename, err)
	}
	return Parse(data)
}

// Parse decodifica y valida un banco en YAML.
func Parse(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("validate question bank: %w", err)
	}
	return &b, nil
}

func (b *Bank) validate() error {
	if len(b.Stages) != int(domain.MaxStage)+1 {
		return fmt.Errorf("expected %d stages, got %d", int(domain.MaxStage)+1, len(b.Stages))
	}
	for i, s := range b.Stages {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("stage %d must have a name", i)
		}
		if len(s.Questions) == 0 {
			return fmt.Errorf("stage %q must have at least one question", s.Name)
		}
	}
	if strings.TrimSpace(b.Closing) == "" {
		return errors.New("closing message is required")
	}
	return nil
}

// Question devuelve la n-ésima pregunta de la etapa, rotando si hay menos preguntas
// que turnos.
func (b *Bank) Question(stage domain.Stage, n int) string {
	idx := int(stage)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(b.Stages) {
		idx = len(b.Stages) - 1
	}
	qs := b.Stages[idx].Questions
	if n < 0 {
		n = 0
	}
	return qs[n%len(qs)]
}

// Acknowledgement devuelve un acuse de recibo para el turno n.
func (b *Bank) Acknowledgement(n int) string {
	if len(b.Acknowledgements) == 0 {
		return ""
	}
	if n < 0 {
		n = 0
	}
	return b.Acknowledgements[n%len(b.Acknowledgements)]
}
