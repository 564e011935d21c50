// Package console implements core.Presenter for interactive terminals using
// github.com/fatih/color for styling. Input and output are injectable so the
// presenter can be driven from tests or pipes.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/hupe1980/taskmesh/core"
)

var (
	titleStyle   = color.New(color.FgBlue, color.Bold)
	promptStyle  = color.New(color.FgCyan, color.Bold)
	headerStyle  = color.New(color.FgMagenta, color.Bold)
	dimStyle     = color.New(color.Faint)
	doneStyle    = color.New(color.FgGreen)
	pendingStyle = color.New(color.FgYellow)

	kindStyles = map[core.MessageKind]struct {
		icon  string
		style *color.Color
	}{
		core.MessageSuccess: {"✓", color.New(color.FgGreen, color.Bold)},
		core.MessageError:   {"✗", color.New(color.FgRed, color.Bold)},
		core.MessageWarning: {"⚠", color.New(color.FgYellow, color.Bold)},
		core.MessageInfo:    {"ℹ", color.New(color.FgBlue, color.Bold)},
	}
)

// Console renders to an io.Writer and reads answers line by line from an
// io.Reader.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// New creates a console presenter. Nil arguments default to stdin and
// stdout.
func New(in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Console{in: bufio.NewReader(in), out: out}
}

// DisplayMenu prints title and the numbered options.
func (c *Console) DisplayMenu(title string, options []core.MenuOption) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	titleStyle.Fprintln(c.out, "== "+title+" ==")
	fmt.Fprintln(c.out)
	for _, o := range options {
		fmt.Fprintf(c.out, "  [%s] %s\n", o.Key, o.Label)
	}
	fmt.Fprintln(c.out)
}

// Choice reads one trimmed line.
func (c *Console) Choice(prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	promptStyle.Fprint(c.out, prompt+": ")
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Text reads a line, returning def on empty input. Required prompts repeat
// until the answer is not blank.
func (c *Console) Text(prompt, def string, required bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if def != "" {
			promptStyle.Fprintf(c.out, "%s (%s): ", prompt, def)
		} else {
			promptStyle.Fprint(c.out, prompt+": ")
		}

		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		value := strings.TrimSpace(line)
		if value == "" {
			value = def
		}
		if value != "" || !required {
			return value, nil
		}
		c.message(core.MessageError, "This field is required")
	}
}

// Confirm asks a yes/no question. Empty input selects def; unrecognized
// answers ask again.
func (c *Console) Confirm(prompt string, def bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		promptStyle.Fprintf(c.out, "%s [%s]: ", prompt, hint)
		line, err := c.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		c.message(core.MessageError, "Please enter y or n")
	}
}

// DisplayTasks prints tasks as a numbered table.
func (c *Console) DisplayTasks(tasks []core.Task, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	if len(tasks) == 0 {
		dimStyle.Fprintln(c.out, "No tasks found")
		return
	}

	headerStyle.Fprintln(c.out, title)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTitle\tDescription\tStatus\tCreated")
	for i, t := range tasks {
		description := t.Description
		if description == "" {
			description = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, shortID(t.ID), t.Title, description, statusText(t), t.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
	fmt.Fprintln(c.out)
}

// DisplayTask prints every field of t.
func (c *Console) DisplayTask(t core.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	description := t.Description
	if description == "" {
		description = "No description"
	}

	fmt.Fprintln(c.out)
	titleStyle.Fprintln(c.out, "== Task Details ==")
	fmt.Fprintf(c.out, "Title:       %s\n", t.Title)
	fmt.Fprintf(c.out, "Description: %s\n", description)
	fmt.Fprintf(c.out, "Status:      %s\n", statusText(t))
	fmt.Fprintf(c.out, "ID:          %s\n", t.ID)
	fmt.Fprintf(c.out, "Created:     %s\n", t.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(c.out, "Updated:     %s\n", t.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	if t.CompletedAt != nil {
		fmt.Fprintf(c.out, "Completed:   %s\n", t.CompletedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
}

// DisplayMessage prints a status line styled by kind.
func (c *Console) DisplayMessage(kind core.MessageKind, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message(kind, text)
}

// DisplayWelcome prints the start banner.
func (c *Console) DisplayWelcome(app, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	titleStyle.Fprintf(c.out, "Welcome to %s ", app)
	dimStyle.Fprintf(c.out, "v%s\n", version)
	fmt.Fprintln(c.out, "Manage your tasks from the terminal.")
}

// DisplayGoodbye prints the exit line.
func (c *Console) DisplayGoodbye() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	titleStyle.Fprintln(c.out, "Goodbye!")
}

// message renders a status line; caller must hold mu.
func (c *Console) message(kind core.MessageKind, text string) {
	s, ok := kindStyles[kind]
	if !ok {
		s = kindStyles[core.MessageInfo]
	}
	fmt.Fprintln(c.out)
	s.style.Fprint(c.out, s.icon)
	fmt.Fprintln(c.out, " "+text)
}

// readLine returns the next line without its terminator. A final line
// without newline is returned before io.EOF.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func statusText(t core.Task) string {
	if t.IsCompleted() {
		return doneStyle.Sprint("✓ " + string(t.Status))
	}
	return pendingStyle.Sprint("○ " + string(t.Status))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
