// Package arena drives a battle session on a fixed cadence so observers can
// follow it turn by turn.
package arena

import (
	"context"
	"errors"
	"sync"
	"time"

	"brawlsim/internal/combat"

	"go.uber.org/zap"
)

const (
	DefaultInterval = 1800 * time.Millisecond
	MinInterval     = time.Millisecond
)

var ErrNotRunning = errors.New("arena runner is not running")

type actionReq struct {
	action combat.Action
	reply  chan error
}

// Runner is the single owner of a session while Run executes. Other
// goroutines talk to it only through Act, SetAuto and Cancel.
type Runner struct {
	eng      *combat.Engine
	interval time.Duration
	log      *zap.Logger

	// OnTurn, if set, is called after every resolved turn from the Run
	// goroutine.
	OnTurn func(combat.TurnResult)

	actions    chan actionReq
	auto       chan bool
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
}

func NewRunner(eng *combat.Engine, interval time.Duration, log *zap.Logger) *Runner {
	if interval < MinInterval {
		interval = MinInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		eng:      eng,
		interval: interval,
		log:      log,
		actions:  make(chan actionReq),
		auto:     make(chan bool),
		cancel:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run advances s one turn per tick until the battle ends, ctx is done or
// Cancel is called. While auto-battle is off and the player is up, ticks are
// skipped until an action arrives or auto-battle is switched back on.
// A Runner runs one session only.
func (r *Runner) Run(ctx context.Context, s *combat.Session) (*combat.BattleOutcome, error) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log := r.log.With(zap.String("battle", s.ID))
	log.Info("arena battle running", zap.Duration("tick", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.eng.Cancel(s)
			return nil, ctx.Err()
		case <-r.cancel:
			r.eng.Cancel(s)
			return nil, combat.ErrBattleCancelled
		case on := <-r.auto:
			s.SetAutoBattle(on)
			log.Debug("auto-battle toggled", zap.Bool("on", on))
		case req := <-r.actions:
			req.reply <- r.eng.Submit(s, req.action)
		case <-ticker.C:
			if s.AwaitingInput() {
				continue
			}
			tr, out, err := r.eng.Advance(ctx, s)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					r.eng.Cancel(s)
				}
				return nil, err
			}
			if r.OnTurn != nil {
				r.OnTurn(tr)
			}
			if out != nil {
				return out, nil
			}
		}
	}
}

// Act queues a manual action for the player's next turn and reports whether
// the engine accepted it.
func (r *Runner) Act(ctx context.Context, a combat.Action) error {
	req := actionReq{action: a, reply: make(chan error, 1)}
	select {
	case r.actions <- req:
	case <-r.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.reply
}

// SetAuto switches auto-battle on or off.
func (r *Runner) SetAuto(ctx context.Context, on bool) error {
	select {
	case r.auto <- on:
		return nil
	case <-r.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel aborts the battle before the next turn. Safe to call more than once.
func (r *Runner) Cancel() {
	r.cancelOnce.Do(func() { close(r.cancel) })
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }
