package application

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// SessionSweeper periodically removes expired conversations.
// It is optional: expiry is also swept whenever a conversation is started.
type SessionSweeper struct {
	chat     *ChatService
	clock    clockwork.Clock
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSessionSweeper creates a sweeper running every interval on clock
func NewSessionSweeper(chat *ChatService, clock clockwork.Clock, interval time.Duration) *SessionSweeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionSweeper{
		chat:     chat,
		clock:    clock,
		interval: interval,
	}
}

// Start launches the sweep loop. It is a no-op when already running or when the interval is not positive.
func (s *SessionSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.interval <= 0 {
		return
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(sweepCtx, s.done)
	logrus.Infof("Session sweeper started, interval: %v", s.interval)
}

// Stop cancels the loop and waits for it to exit
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
}

// IsRunning reports whether the sweep loop is active
func (s *SessionSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SessionSweeper) run(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		close(done)
		s.mu.Unlock()
	}()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Session sweeper stopped")
			return
		case <-ticker.Chan():
			removed := s.chat.SweepExpired(s.chat.Timeout())
			logrus.Debugf("Periodic sweep removed %d conversations", removed)
		}
	}
}
