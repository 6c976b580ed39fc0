// internal/live/tasks.go
package live

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// TaskConfig drives the repeating auto tasks. Each iteration waits
// Interval plus a uniform jitter in [0, Jitter) so the cadence does not
// look machine-regular to the platform.
type TaskConfig struct {
	Interval time.Duration
	Jitter   time.Duration
}

func (c TaskConfig) withDefaults() TaskConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	return c
}

// AutoPopupTask cycles through a list of goods identifiers, opening the
// "now explaining" popup for each in turn. A failed iteration is logged
// and skipped; only cancellation stops the task.
type AutoPopupTask struct {
	exec   *Executor
	ids    []int64
	cfg    TaskConfig
	rng    *rand.Rand
	logger *zap.Logger
}

// NewAutoPopupTask creates a popup rotation over ids.
func NewAutoPopupTask(exec *Executor, ids []int64, cfg TaskConfig, logger *zap.Logger) (*AutoPopupTask, error) {
	if len(ids) == 0 {
		return nil, errors.New("auto popup: at least one goods id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoPopupTask{
		exec:   exec,
		ids:    ids,
		cfg:    cfg.withDefaults(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger.Named("auto_popup"),
	}, nil
}

// Run loops until ctx is cancelled, returning ctx.Err() wrapped as the
// task result.
func (t *AutoPopupTask) Run(ctx context.Context) error {
	t.logger.Info("Auto popup task started.",
		zap.Int("goods_count", len(t.ids)), zap.Duration("interval", t.cfg.Interval))
	for i := 0; ; i++ {
		id := t.ids[i%len(t.ids)]
		if err := t.exec.PopUp(ctx, id); err != nil {
			if errors.Is(err, ErrAborted) {
				return fmt.Errorf("auto popup stopped: %w", err)
			}
			t.logger.Warn("Popup iteration failed, skipping.",
				zap.Int64("goods_id", id), zap.String("code", string(CodeFor(err))), zap.Error(err))
		}
		if err := sleepJittered(ctx, t.cfg, t.rng); err != nil {
			return err
		}
	}
}

// AutoMessageTask sends messages from a configured list on an interval,
// either in order or randomly, optionally pinned.
type AutoMessageTask struct {
	exec     *Executor
	messages []string
	random   bool
	pin      bool
	cfg      TaskConfig
	rng      *rand.Rand
	logger   *zap.Logger
}

// NewAutoMessageTask creates a message rotation over messages.
func NewAutoMessageTask(exec *Executor, messages []string, random, pin bool, cfg TaskConfig, logger *zap.Logger) (*AutoMessageTask, error) {
	if len(messages) == 0 {
		return nil, errors.New("auto message: at least one message is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoMessageTask{
		exec:     exec,
		messages: messages,
		random:   random,
		pin:      pin,
		cfg:      cfg.withDefaults(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger.Named("auto_message"),
	}, nil
}

// Run loops until ctx is cancelled.
func (t *AutoMessageTask) Run(ctx context.Context) error {
	t.logger.Info("Auto message task started.",
		zap.Int("message_count", len(t.messages)), zap.Bool("random", t.random))
	for i := 0; ; i++ {
		idx := i % len(t.messages)
		if t.random {
			idx = t.rng.Intn(len(t.messages))
		}
		pinned, err := t.exec.SendMessage(ctx, t.messages[idx], t.pin)
		switch {
		case errors.Is(err, ErrAborted):
			return fmt.Errorf("auto message stopped: %w", err)
		case err != nil:
			t.logger.Warn("Message iteration failed, skipping.",
				zap.String("code", string(CodeFor(err))), zap.Error(err))
		case t.pin && !pinned:
			t.logger.Debug("Message sent unpinned; pin control absent.")
		}
		if err := sleepJittered(ctx, t.cfg, t.rng); err != nil {
			return err
		}
	}
}

// sleepJittered pauses for the task interval plus jitter, honoring
// cancellation.
func sleepJittered(ctx context.Context, cfg TaskConfig, rng *rand.Rand) error {
	d := cfg.Interval
	if cfg.Jitter > 0 {
		d += time.Duration(rng.Int63n(int64(cfg.Jitter)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return abortIfDone(ctx)
	case <-timer.C:
		return nil
	}
}
