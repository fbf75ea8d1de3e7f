// Package prompt implements the blocking interactive questions asked while
// resolving a binary: free-form answers validated by a predicate and
// yes/no confirmations.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrDeclined is returned by CheckConfirm when the user answers no.
var ErrDeclined = errors.New("operation declined by user")

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Interactive reports whether stdin is attached to a terminal.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NonEmpty is a validation predicate accepting any non-blank answer.
func NonEmpty(answer string) bool {
	return strings.TrimSpace(answer) != ""
}

// IsDir is a validation predicate accepting existing directories.
func IsDir(answer string) bool {
	info, err := os.Stat(answer)
	return err == nil && info.IsDir()
}

// Ask repeats the question until validate accepts the answer. After the
// first rejection errorMessage is shown instead of the question.
func (p *Prompter) Ask(question, errorMessage string, validate func(string) bool) (string, error) {
	answer, err := p.readLine(question + ": ")
	for err == nil && !validate(answer) {
		answer, err = p.readLine(errorMessage + ": ")
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Confirm asks a yes/no question. def is "y", "n" or "" and decides what an
// empty answer means; with "" an empty answer is asked again.
func (p *Prompter) Confirm(question, def string) (bool, error) {
	var options string
	switch def {
	case "y":
		options = "[Y/n]"
	case "n":
		options = "[y/N]"
	default:
		options = "[y/n]"
	}

	answer, err := p.readLine(fmt.Sprintf("%s %s: ", question, options))
	for err == nil {
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "":
			if def == "y" {
				return true, nil
			}
			if def == "n" {
				return false, nil
			}
		}
		answer, err = p.readLine(`Please type either "y" or "n": `)
	}
	return false, err
}

// CheckConfirm asks for confirmation (default yes) and returns ErrDeclined
// if the user refuses.
func (p *Prompter) CheckConfirm(question string) error {
	ok, err := p.Confirm(question, "y")
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		// A final unterminated line is still an answer.
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
