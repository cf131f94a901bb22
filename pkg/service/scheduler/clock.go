package scheduler

import (
	"context"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/utils/errutil"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTickInterval = time.Minute
	defaultUserTimeout  = 15 * time.Second
	defaultConcurrency  = 8
)

// Clock drives the proactive side of the engine: a background loop that
// evaluates every user's trigger rules once per tick.
//
// Architecture assumptions:
// - Correctness across replicas comes from the delivery ledger's atomic
//   claims, not from running a single clock. Multiple clocks may tick; only
//   one wins each occurrence.
type Clock struct {
	repo        interfaces.Repository
	resolver    *Resolver
	interval    time.Duration
	userTimeout time.Duration
	concurrency int
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// ClockOption configures the clock
type ClockOption func(*Clock)

// WithTickInterval overrides the tick interval
func WithTickInterval(d time.Duration) ClockOption {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithUserTimeout overrides the per-user evaluation deadline
func WithUserTimeout(d time.Duration) ClockOption {
	return func(c *Clock) {
		if d > 0 {
			c.userTimeout = d
		}
	}
}

// WithConcurrency overrides the per-tick fan-out limit
func WithConcurrency(n int) ClockOption {
	return func(c *Clock) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClock creates a trigger clock over the given resolver
func NewClock(repo interfaces.Repository, resolver *Resolver, opts ...ClockOption) *Clock {
	c := &Clock{
		repo:        repo,
		resolver:    resolver,
		interval:    defaultTickInterval,
		userTimeout: defaultUserTimeout,
		concurrency: defaultConcurrency,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins the background tick loop. Does not block.
func (c *Clock) Start(ctx context.Context) error {
	logging.Default().Info("trigger clock starting",
		"interval", c.interval.String(),
		"concurrency", c.concurrency)

	go c.run(ctx)

	return nil
}

// Stop signals the clock to stop and waits for in-flight evaluations to drain
func (c *Clock) Stop() {
	logging.Default().Info("trigger clock stopping")
	close(c.stopCh)
	<-c.doneCh
	logging.Default().Info("trigger clock stopped")
}

func (c *Clock) run(ctx context.Context) {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Tick(ctx, time.Now().UTC())

		case <-c.stopCh:
			logging.Default().Info("trigger clock received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("trigger clock context cancelled")
			return
		}
	}
}

// Tick evaluates all users' rules at the given instant. Exported so a single
// evaluation pass can be driven directly, e.g. from tests or a one-shot run.
func (c *Clock) Tick(ctx context.Context, now time.Time) {
	users, err := c.repo.User().List(ctx)
	if err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "tick failed to list users"), "tick failed to list users")
		return
	}
	if len(users) == 0 {
		return
	}

	eg := &errgroup.Group{}
	eg.SetLimit(c.concurrency)

	for _, user := range users {
		eg.Go(func() error {
			c.evaluateUser(ctx, user, now)
			return nil
		})
	}

	// Workers never return errors; failures are contained per user.
	_ = eg.Wait()
}

// evaluateUser runs the resolver for one user with a deadline and panic
// containment, so one bad user cannot stall or kill the tick.
func (c *Clock) evaluateUser(ctx context.Context, user *model.User, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, c.userTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			errutil.Handle(ctx, goerr.New("panic during user evaluation",
				goerr.V("user_id", user.ID),
				goerr.V("panic", r)), "panic during user evaluation")
		}
	}()

	c.resolver.Resolve(ctx, user, now)
}
