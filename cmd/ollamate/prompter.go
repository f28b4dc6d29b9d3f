package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ollamate/core/models"
)

// stdinPrompter implements models.Prompter over a line-oriented terminal.
type stdinPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newStdinPrompter(in io.Reader, out io.Writer) *stdinPrompter {
	return &stdinPrompter{in: bufio.NewScanner(in), out: out}
}

func (p *stdinPrompter) PickOne(_ context.Context, title string, options []string, current string) (string, error) {
	fmt.Fprintln(p.out, title)
	for i, opt := range options {
		marker := " "
		if opt == current {
			marker = "*"
		}
		fmt.Fprintf(p.out, " %s %2d) %s\n", marker, i+1, opt)
	}
	fmt.Fprint(p.out, "choice (empty to cancel): ")

	if !p.in.Scan() {
		return "", models.ErrCancelled
	}
	line := strings.TrimSpace(p.in.Text())
	if line == "" {
		return "", models.ErrCancelled
	}

	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(options) {
			return "", fmt.Errorf("choice out of range: %d", n)
		}
		return options[n-1], nil
	}
	for _, opt := range options {
		if opt == line {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown option: %s", line)
}

func (p *stdinPrompter) Input(_ context.Context, prompt string, validate func(string) error) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s (empty to cancel): ", prompt)
		if !p.in.Scan() {
			return "", models.ErrCancelled
		}
		line := strings.TrimSpace(p.in.Text())
		if line == "" {
			return "", models.ErrCancelled
		}
		if validate != nil {
			if err := validate(line); err != nil {
				printError(p.out, err.Error())
				continue
			}
		}
		return line, nil
	}
}
