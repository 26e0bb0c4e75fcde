package goroutine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)

	rh.SafeGo(func() { panic("boom") })

	assert.Eventually(t, func() bool { return log.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, log.msgs[0], "boom")
}

func TestEvery_KeepsRunningAfterPanicAndStopsOnCancel(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	rh.Every(ctx, 5*time.Millisecond, func(context.Context) {
		if calls.Add(1) == 1 {
			panic("first tick")
		}
	})

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.Equal(t, 1, log.count())
}
