package seed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// AssumeYes answers every question with yes. It backs the --yes flag.
type AssumeYes struct{}

// Confirm always returns true.
func (AssumeYes) Confirm(string) (bool, error) {
	return true, nil
}

// Prompt asks questions on out and reads answers from in.
type Prompt struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompt builds a Prompt over a terminal or any other line source.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{reader: bufio.NewReader(in), out: out}
}

// Confirm accepts "yes" or "y"; anything else, including end of input, is no.
func (p *Prompt) Confirm(question string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s (yes/no): ", question); err != nil {
		return false, err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}
