package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rockbears/log"

	"github.com/shipyard-ci/shipctl/sdk"
	shiplog "github.com/shipyard-ci/shipctl/sdk/log"
)

// Poll intervals
const (
	InProgressInterval = 10 * time.Second
	IdleInterval       = 30 * time.Second
)

// StatusFetcher fetches the aggregate status of the workflows in view.
type StatusFetcher func(ctx context.Context) (*sdk.WorkflowStatusResponse, error)

// StatusApplier merges a status response and returns true if anything is in progress.
type StatusApplier func(st *sdk.WorkflowStatusResponse) bool

// Poller refreshes the status of the workflows, faster while something is running.
// At most one poll is scheduled at any time. A failed poll is retried as if
// something was running, until the poller is stopped.
type Poller struct {
	clock    clockwork.Clock
	fetch    StatusFetcher
	apply    StatusApplier
	notifier Notifier
	slot     *Slot

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	timer      clockwork.Timer
	next       time.Duration
	inProgress bool
	stopped    bool
	polls      int
	onPoll     func(inProgress bool, err error)
}

// NewPoller returns a poller. Nothing is scheduled until Poll is called.
func NewPoller(ctx context.Context, clock clockwork.Clock, fetch StatusFetcher, apply StatusApplier, notifier Notifier) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	p := &Poller{
		clock:    clock,
		fetch:    fetch,
		apply:    apply,
		notifier: notifier,
		slot:     NewSlot(SlotStatus),
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	return p
}

// OnPoll registers a callback run after every poll.
func (p *Poller) OnPoll(fn func(inProgress bool, err error)) {
	p.mu.Lock()
	p.onPoll = fn
	p.mu.Unlock()
}

// Poll fetches the status now and schedules the next poll.
func (p *Poller) Poll(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return false, sdk.WithStack(sdk.ErrRequestAborted)
	}
	p.clearTimer()
	p.mu.Unlock()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(p.ctx, cancel)()

	reqCtx, token := p.slot.Begin(reqCtx)
	defer p.slot.End(token)
	reqCtx = context.WithValue(reqCtx, shiplog.RequestToken, token)

	st, err := p.fetch(reqCtx)
	if err != nil {
		if reqCtx.Err() != nil || !p.slot.IsLatest(token) {
			log.Debug(ctx, "status poll %d aborted", token)
			// a cancelled caller aborts its request, not the polling
			if p.ctx.Err() == nil && p.slot.IsLatest(token) {
				p.resume()
			}
			return false, sdk.NewError(sdk.ErrRequestAborted, err)
		}
		p.notifier.Error(ctx, "Unable to fetch status", sdk.UserMessage(err))
		p.schedule(true)
		p.done(true, err)
		return true, err
	}

	if !p.slot.IsLatest(token) {
		return false, sdk.WithStack(sdk.ErrRequestAborted)
	}
	inProgress := p.apply(st)
	log.Debug(ctx, "status poll %d: in progress=%t", token, inProgress)
	p.schedule(inProgress)
	p.done(inProgress, nil)
	return inProgress, nil
}

func (p *Poller) done(inProgress bool, err error) {
	p.mu.Lock()
	p.polls++
	fn := p.onPoll
	p.mu.Unlock()
	if fn != nil {
		fn(inProgress, err)
	}
}

func (p *Poller) schedule(inProgress bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.clearTimer()
	p.inProgress = inProgress
	p.next = IdleInterval
	if inProgress {
		p.next = InProgressInterval
	}
	p.timer = p.clock.AfterFunc(p.next, func() {
		_, _ = p.Poll(p.ctx)
	})
}

// resume schedules the next poll with the interval of the last completed one.
func (p *Poller) resume() {
	p.mu.Lock()
	inProgress := p.inProgress
	p.mu.Unlock()
	p.schedule(inProgress)
}

// clearTimer must be called with the lock held.
func (p *Poller) clearTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Next returns the delay of the pending poll, zero if none is pending.
func (p *Poller) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer == nil {
		return 0
	}
	return p.next
}

// Pending returns true if a poll is scheduled.
func (p *Poller) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

// InProgress returns the result of the last poll.
func (p *Poller) InProgress() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inProgress
}

// Polls returns the number of completed polls.
func (p *Poller) Polls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

// Stop cancels the pending poll and the in-flight request. The poller cannot be restarted.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.clearTimer()
	p.mu.Unlock()
	p.slot.Abort()
	p.cancel()
}
