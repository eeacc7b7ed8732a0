package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xmlbridge/pkg/observability"
)

// syncBuffer guards a buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func TestSpinnerStop(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Exporting Article 1...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
	s.Stop()

	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop, want false")
	}
	if !strings.Contains(out.String(), "Exporting Article 1...") {
		t.Errorf("spinner output %q missing message", out.String())
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerTo(ctx, &syncBuffer{}, "Exporting...")
	s.Start()
	cancel()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Cancelled() = false after context cancellation, want true")
	}
	s.Stop()
}

func TestSpinnerTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s := newSpinnerTo(ctx, &syncBuffer{}, "Exporting...")
	s.Start()
	time.Sleep(80 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Cancelled() = false after timeout, want true")
	}
}

func TestStageHooks(t *testing.T) {
	var out, logs syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Exporting")
	h := &stageHooks{logger: newLogger(&logs, log.DebugLevel)}
	h.attach(s)

	s.Start()
	h.OnStageStart(context.Background(), observability.StageDecompose)
	time.Sleep(100 * time.Millisecond)
	h.OnStageComplete(context.Background(), observability.StageDecompose, 3*time.Millisecond, nil)
	s.Stop()
	h.attach(nil)
	h.OnStageStart(context.Background(), observability.StageRender)

	if !strings.Contains(out.String(), "Exporting decompose") {
		t.Errorf("spinner output %q missing stage", out.String())
	}
	if !strings.Contains(logs.String(), "stage complete") {
		t.Errorf("logs %q missing stage completion", logs.String())
	}
}
