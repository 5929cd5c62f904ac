package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusLabelWidth = 22

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// statusPrinter writes labelled status lines, coloured only on terminals.
type statusPrinter struct {
	out      io.Writer
	colorize bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	fmt.Fprintln(p.out, renderStatusLine(label, kind, message, p.colorize))
}

func (p *statusPrinter) section(title string) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if p.colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	fmt.Fprintln(p.out, line)
	fmt.Fprintln(p.out, rule)
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	tag := "[" + style.label + "]"
	if colorize {
		tag = style.color + tag + ansiReset
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", tag)
	if message != "" {
		line += " " + message
	}
	return line
}

// shouldColorize reports whether writer is a terminal. NO_COLOR disables colour.
func shouldColorize(writer io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
