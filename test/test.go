// Package test holds helpers shared by the hand written mocks and the tests that
// drive them.
package test

import (
	"os"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// ConfigLogging sends test logs to a console writer at warn level so failures
// stay readable.
func ConfigLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

type CallWatcher struct {
	mu            sync.Mutex
	functionCalls map[string][][]interface{}
}

func NewCallWatcher() *CallWatcher {
	return &CallWatcher{functionCalls: make(map[string][][]interface{})}
}

func (w *CallWatcher) GetCall(funcName string) [][]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	calls := make([][]interface{}, 0)
	for name, c := range w.functionCalls {
		if matches(name, funcName) {
			calls = append(calls, c...)
		}
	}
	return calls
}

func (w *CallWatcher) GetCallCount(funcName string) int {
	return len(w.GetCall(funcName))
}

// AddCall records a call against the name of the function that invoked it.
func (w *CallWatcher) AddCall(args ...interface{}) {
	pc := make([]uintptr, 15)
	n := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:n])
	frame, _ := frames.Next()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.functionCalls[frame.Function] = append(w.functionCalls[frame.Function], args)
}

func (w *CallWatcher) VerifyCount(funcName string, want int, t *testing.T) {
	t.Helper()
	if got := w.GetCallCount(funcName); got != want {
		t.Errorf("unexpected call count for %s got=%d want=%d", funcName, got, want)
	}
}

func matches(fullName, funcName string) bool {
	return fullName == funcName || strings.HasSuffix(fullName, "."+funcName)
}
