package core

// MessageKind selects how a status line is rendered.
type MessageKind string

const (
	MessageInfo    MessageKind = "info"
	MessageSuccess MessageKind = "success"
	MessageWarning MessageKind = "warning"
	MessageError   MessageKind = "error"
)

// ParseMessageKind maps unknown kinds to MessageInfo.
func ParseMessageKind(s string) MessageKind {
	switch k := MessageKind(s); k {
	case MessageSuccess, MessageWarning, MessageError:
		return k
	}
	return MessageInfo
}

// MenuOption is one selectable menu entry.
type MenuOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Presenter renders tasks and collects user input.
type Presenter interface {
	DisplayMenu(title string, options []MenuOption)
	// Choice reads a single trimmed selection.
	Choice(prompt string) (string, error)
	// Text reads a line, returning def on empty input. When required is set
	// it keeps asking until it gets a non-blank answer.
	Text(prompt, def string, required bool) (string, error)
	Confirm(prompt string, def bool) (bool, error)
	DisplayTasks(tasks []Task, title string)
	DisplayTask(t Task)
	DisplayMessage(kind MessageKind, text string)
	DisplayWelcome(app, version string)
	DisplayGoodbye()
}
