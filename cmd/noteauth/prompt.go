package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var errInputClosed = errors.New("input closed")

// prompter reads answers line by line from the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, color.CyanString("? "), question, " ")
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", errInputClosed
	}
	return strings.TrimSpace(line), nil
}

// confirm treats anything but an explicit yes as no.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *prompter) info(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *prompter) success(format string, args ...any) {
	fmt.Fprintln(p.out, color.GreenString("✓ "+format, args...))
}

func (p *prompter) warn(format string, args ...any) {
	fmt.Fprintln(p.out, color.YellowString("! "+format, args...))
}

// normalizeCode drops the separators people type inside codes.
func normalizeCode(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}
