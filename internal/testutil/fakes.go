package testutil

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/hupe1980/taskmesh/core"
)

// RecordingHandler is a core.Handler that records every message and answers
// through Reply. A nil Reply answers with an empty success result.
type RecordingHandler struct {
	HandlerName string
	Reply       func(msg core.Message) core.Response

	mu       sync.Mutex
	messages []core.Message
}

// NewRecordingHandler creates a handler named name.
func NewRecordingHandler(name string) *RecordingHandler {
	return &RecordingHandler{HandlerName: name}
}

// Name returns the handler's routing name.
func (h *RecordingHandler) Name() string { return h.HandlerName }

// Handle records msg and replies.
func (h *RecordingHandler) Handle(_ context.Context, msg core.Message) core.Response {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()

	if h.Reply != nil {
		return h.Reply(msg)
	}
	resp, err := core.NewSuccessResponse(msg.RequestID(), h.HandlerName, map[string]any{})
	if err != nil {
		panic(err)
	}
	return resp
}

// Messages returns a copy of the recorded messages.
func (h *RecordingHandler) Messages() []core.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]core.Message(nil), h.messages...)
}

// Actions returns the recorded actions in order.
func (h *RecordingHandler) Actions() []string {
	msgs := h.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Action()
	}
	return out
}

// PresenterCall is one recorded Presenter invocation.
type PresenterCall struct {
	Method string
	Args   []any
}

// RecordingPresenter is a core.Presenter that records output calls and
// serves input from scripted answers. Running out of answers yields io.EOF.
type RecordingPresenter struct {
	mu      sync.Mutex
	calls   []PresenterCall
	answers []string
	confirm []bool
}

// NewRecordingPresenter creates a presenter answering Choice and Text with
// answers in order.
func NewRecordingPresenter(answers ...string) *RecordingPresenter {
	return &RecordingPresenter{answers: answers}
}

// QueueConfirm appends answers for Confirm.
func (p *RecordingPresenter) QueueConfirm(answers ...bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirm = append(p.confirm, answers...)
}

// QueueAnswers appends answers for Choice and Text.
func (p *RecordingPresenter) QueueAnswers(answers ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers = append(p.answers, answers...)
}

// Calls returns a copy of the recorded calls.
func (p *RecordingPresenter) Calls() []PresenterCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PresenterCall(nil), p.calls...)
}

// CallsTo returns the recorded calls of method.
func (p *RecordingPresenter) CallsTo(method string) []PresenterCall {
	var out []PresenterCall
	for _, c := range p.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Messages returns the text of every DisplayMessage call.
func (p *RecordingPresenter) Messages() []string {
	var out []string
	for _, c := range p.CallsTo("DisplayMessage") {
		out = append(out, c.Args[1].(string))
	}
	return out
}

func (p *RecordingPresenter) record(method string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, PresenterCall{Method: method, Args: args})
}

func (p *RecordingPresenter) next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *RecordingPresenter) DisplayMenu(title string, options []core.MenuOption) {
	p.record("DisplayMenu", title, options)
}

func (p *RecordingPresenter) Choice(prompt string) (string, error) {
	p.record("Choice", prompt)
	return p.next()
}

func (p *RecordingPresenter) Text(prompt, def string, required bool) (string, error) {
	p.record("Text", prompt, def, required)
	a, err := p.next()
	if err != nil {
		return "", err
	}
	if a == "" {
		return def, nil
	}
	return a, nil
}

func (p *RecordingPresenter) Confirm(prompt string, def bool) (bool, error) {
	p.record("Confirm", prompt, def)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.confirm) == 0 {
		return def, nil
	}
	a := p.confirm[0]
	p.confirm = p.confirm[1:]
	return a, nil
}

func (p *RecordingPresenter) DisplayTasks(tasks []core.Task, title string) {
	p.record("DisplayTasks", tasks, title)
}

func (p *RecordingPresenter) DisplayTask(t core.Task) { p.record("DisplayTask", t) }

func (p *RecordingPresenter) DisplayMessage(kind core.MessageKind, text string) {
	p.record("DisplayMessage", kind, text)
}

func (p *RecordingPresenter) DisplayWelcome(app, version string) {
	p.record("DisplayWelcome", app, version)
}

func (p *RecordingPresenter) DisplayGoodbye() { p.record("DisplayGoodbye") }

// ErrStoreUnavailable is returned by every FailingStore operation.
var ErrStoreUnavailable = errors.New("store unavailable")

// FailingStore is a core.TaskStore whose every operation fails with Err
// (ErrStoreUnavailable when nil). It also fails Ping.
type FailingStore struct {
	Err error
}

func (s FailingStore) err() error {
	if s.Err != nil {
		return s.Err
	}
	return ErrStoreUnavailable
}

func (s FailingStore) Ping(context.Context) error { return s.err() }

func (s FailingStore) Save(context.Context, core.Task) (core.Task, error) {
	return core.Task{}, s.err()
}

func (s FailingStore) Get(context.Context, string, string) (core.Task, bool, error) {
	return core.Task{}, false, s.err()
}

func (s FailingStore) GetAll(context.Context, string) ([]core.Task, error) { return nil, s.err() }

func (s FailingStore) Update(context.Context, core.Task) (core.Task, error) {
	return core.Task{}, s.err()
}

func (s FailingStore) Delete(context.Context, string, string) (bool, error) { return false, s.err() }

func (s FailingStore) Query(context.Context, core.TaskFilter) ([]core.Task, error) {
	return nil, s.err()
}

func (s FailingStore) Clear(context.Context, string) (int, error) { return 0, s.err() }
