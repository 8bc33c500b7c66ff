package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Amr-9/VanityHunter/pkg/generator"
)

// Prompter asks the user questions on a line-oriented terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) readLine() (string, bool) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// Confirm asks a yes/no question. Anything but y or yes, including end of
// input, is a no.
func (p *Prompter) Confirm(question string) bool {
	fmt.Fprintf(p.out, "    %s %s ", question, colorDim.Sprint("[y/N]"))
	answer, _ := p.readLine()
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// ConfirmLongTask asks before a task projected to take a long time.
// It matches the batch.Runner Confirm hook.
func (p *Prompter) ConfirmLongTask(task generator.Task, d generator.Difficulty) bool {
	colorWarn.Fprintf(p.out, "\n    ⚠ %s is %s: 1 in %s, about %s per match\n",
		task, d.Tier, FormatProbability(d.Probability), FormatDuration(d.Projected))
	return p.Confirm("Start anyway?")
}

// AskToContinue offers to run another search.
func (p *Prompter) AskToContinue() bool {
	fmt.Fprintf(p.out, "\n    %s Search again  │  %s Exit\n", colorOK.Sprint("[Enter]"), colorError.Sprint("[Q]"))
	fmt.Fprintf(p.out, "    %s ", colorTitle.Sprint("→"))
	answer, ok := p.readLine()
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer != "q" && answer != "quit" && answer != "exit"
}

// AskTask builds a task interactively. It re-asks each field until the
// answer is valid and returns an error only when input runs out.
func (p *Prompter) AskTask() (generator.Task, error) {
	task := generator.Task{TargetCount: 1, Priority: 1}

	colorLabel.Fprintln(p.out, "    🌐 SELECT NETWORK")
	for i, c := range generator.Currencies() {
		fmt.Fprintf(p.out, "    %s %-6s %s\n", colorTitle.Sprintf("[%d]", i+1), c, colorDim.Sprint(c.Name()))
	}
	for {
		fmt.Fprintf(p.out, "\n    %s ", colorOK.Sprint("→"))
		answer, ok := p.readLine()
		if !ok {
			return task, io.ErrUnexpectedEOF
		}
		if c, err := pickCurrency(answer); err == nil {
			task.Currency = c
			break
		}
		colorError.Fprintf(p.out, "    ⚠ Unknown network %q\n", answer)
	}

	colorLabel.Fprintln(p.out, "\n    🎯 TARGET PATTERN")
	for {
		fmt.Fprintf(p.out, "    %s (%s): ", colorTitle.Sprint("Prefix"), prefixHint(task.Currency))
		prefix, ok := p.readLine()
		if !ok {
			return task, io.ErrUnexpectedEOF
		}
		fmt.Fprintf(p.out, "    %s (...xxx): ", colorTitle.Sprint("Suffix"))
		suffix, ok := p.readLine()
		if !ok {
			return task, io.ErrUnexpectedEOF
		}

		switch {
		case prefix != "" && suffix != "":
			colorError.Fprintln(p.out, "    ⚠ Enter a prefix or a suffix, not both")
			continue
		case prefix != "":
			task.PatternType, task.Pattern = generator.Prefix, prefix
		case suffix != "":
			task.PatternType, task.Pattern = generator.Suffix, suffix
		default:
			colorError.Fprintln(p.out, "    ⚠ A pattern is required")
			continue
		}
		if task.Currency.IsEVM() {
			task.Pattern = strings.TrimPrefix(task.Pattern, "0x")
		}
		if err := generator.ValidatePattern(task.Currency, task.PatternType, task.Pattern, false); err != nil {
			colorError.Fprintf(p.out, "    ⚠ %v\n", err)
			continue
		}
		break
	}

	fmt.Fprintf(p.out, "    %s [1]: ", colorTitle.Sprint("How many"))
	answer, ok := p.readLine()
	if !ok {
		return task, io.ErrUnexpectedEOF
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 0 {
		task.TargetCount = n
	}
	return task, nil
}

// pickCurrency accepts a menu number or a ticker.
func pickCurrency(answer string) (generator.Currency, error) {
	all := generator.Currencies()
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(all) {
			return all[n-1], nil
		}
		return generator.CurrencyUnknown, generator.ErrUnknownCurrency
	}
	return generator.ParseCurrency(answer)
}

func prefixHint(c generator.Currency) string {
	switch {
	case c.IsEVM():
		return "0x..., hex"
	case c.LeadingChar() != "":
		return c.LeadingChar() + "..., Base58"
	default:
		return "Base58"
	}
}
