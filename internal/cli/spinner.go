package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xmlbridge/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a progress line until stopped or until its context ends.
// The line shows the current export stage next to the message.
type Spinner struct {
	w       io.Writer
	message string
	stage   string
	width   int

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	halted   atomic.Bool
	stopped  chan struct{}
	mu       sync.Mutex
}

// newSpinner creates a spinner writing to stderr that stops when ctx ends.
func newSpinner(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetStage shows stage next to the message on the next frame.
func (s *Spinner) SetStage(stage string) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.message
	if s.stage != "" {
		line += " " + s.stage
	}
	s.width = max(s.width, len(line)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
}

// Stop halts the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.halted.Store(true)
		s.cancel()
		<-s.stopped
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Cancelled reports whether the parent context ended before Stop.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil && !s.halted.Load()
}

// stageHooks reports pipeline stages on the active spinner and at debug
// level on the logger.
type stageHooks struct {
	observability.NoopPipelineHooks

	logger *log.Logger
	mu     sync.Mutex
	active *Spinner
}

func (h *stageHooks) attach(s *Spinner) {
	h.mu.Lock()
	h.active = s
	h.mu.Unlock()
}

func (h *stageHooks) OnStageStart(_ context.Context, stage string) {
	h.mu.Lock()
	s := h.active
	h.mu.Unlock()
	if s != nil {
		s.SetStage(stage)
	}
}

func (h *stageHooks) OnStageComplete(_ context.Context, stage string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("stage failed", "stage", stage, "err", err)
		return
	}
	h.logger.Debug("stage complete", "stage", stage, "took", d.Round(time.Millisecond))
}
