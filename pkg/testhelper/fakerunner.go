package testhelper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"networkinfo/internal/executor"
)

type Response struct {
	Output string
	Err    error
	// Delay blocks the call, honoring ctx, before answering.
	Delay time.Duration
}

// FakeRunner answers command lines with canned responses and records every
// call. Keys are the command and its arguments joined by single spaces;
// a key ending in "*" matches by prefix.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []string
	// Default answers unknown commands. The zero value returns an
	// ExecutionFailed error.
	Default *Response
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: map[string]Response{}}
}

func (f *FakeRunner) On(cmdline string, output string) *FakeRunner {
	return f.OnResponse(cmdline, Response{Output: output})
}

func (f *FakeRunner) OnError(cmdline string, err error) *FakeRunner {
	return f.OnResponse(cmdline, Response{Err: err})
}

func (f *FakeRunner) OnResponse(cmdline string, r Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = r
	return f
}

func (f *FakeRunner) Run(ctx context.Context, _ time.Duration, name string, args ...string) (string, error) {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	f.calls = append(f.calls, cmdline)
	r, ok := f.lookup(cmdline)
	f.mu.Unlock()

	if !ok {
		return "", &executor.ExecError{Kind: executor.ErrExecutionFailed, Command: cmdline, ExitCode: 127, Stderr: "not scripted"}
	}
	if r.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", &executor.ExecError{Kind: executor.ErrTimeout, Command: cmdline, ExitCode: -1, Err: ctx.Err()}
		case <-time.After(r.Delay):
		}
	}
	return strings.TrimSpace(r.Output), r.Err
}

func (f *FakeRunner) lookup(cmdline string) (Response, bool) {
	if r, ok := f.responses[cmdline]; ok {
		return r, true
	}
	best := ""
	for k := range f.responses {
		if strings.HasSuffix(k, "*") && strings.HasPrefix(cmdline, strings.TrimSuffix(k, "*")) && len(k) > len(best) {
			best = k
		}
	}
	if best != "" {
		return f.responses[best], true
	}
	if f.Default != nil {
		return *f.Default, true
	}
	return Response{}, false
}

func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts calls whose command line starts with prefix.
func (f *FakeRunner) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// ExitError builds the error a real executor returns for a non-zero exit.
func ExitError(cmdline string, code int) error {
	return &executor.ExecError{Kind: executor.ErrExecutionFailed, Command: cmdline, ExitCode: code}
}

// Notification is one recorded user notification.
type Notification struct {
	Title string
	Body  string
}

type NotificationRecorder struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
}

func (r *NotificationRecorder) Notify(_ context.Context, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, Notification{Title: title, Body: body})
	return nil
}

func (r *NotificationRecorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

func (r *NotificationRecorder) String() string {
	return fmt.Sprintf("%v", r.Sent())
}
