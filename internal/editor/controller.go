// Package editor drives a single edit through its lifecycle: validate the
// request, call the transformer with retries, optionally crop the result,
// and publish every state change to subscribers.
package editor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"editlab/internal/domain"
	"editlab/internal/imgutil"
	"editlab/internal/infra"
	"editlab/internal/retry"
	"editlab/internal/transform"
)

// State names the phases an edit moves through. A controller starts idle,
// walks forward through the pipeline, and always ends in DONE or FAILED.
type State string

const (
	StateIdle       State = "IDLE"
	StateValidating State = "VALIDATING"
	StateCalling    State = "CALLING"
	StateCropping   State = "CROPPING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// Terminal reports whether no further transitions will happen for the
// current edit.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Snapshot is an immutable view of the controller at one point in time.
// Result keeps pointing at the last successful edit even after a later
// attempt fails; Prompt is the instruction that produced it.
type Snapshot struct {
	State     State
	Err       error
	Result    *domain.EditResult
	Prompt    string
	UpdatedAt time.Time
}

// SubmitOptions selects the post-processing applied to the provider output.
// AutoRatio keeps whatever dimensions the model returned; otherwise
// AspectRatio must hold a parseable "W:H" value and the result is
// center-cropped to it.
type SubmitOptions struct {
	AutoRatio   bool
	AspectRatio string
}

// Options wires a controller. Transformer is required.
type Options struct {
	Transformer transform.Transformer
	Retry       retry.Policy
	Logger      *infra.Logger
}

// Controller owns the edit lifecycle for one user session. At most one
// edit runs at a time; a Submit while another edit is in flight is
// rejected with domain.ErrEditInFlight.
type Controller struct {
	transformer transform.Transformer
	retry       retry.Policy
	logger      *infra.Logger

	mu        sync.Mutex
	state     State
	err       error
	result    *domain.EditResult
	prompt    string
	updatedAt time.Time
	inFlight  bool
	observers []func(Snapshot)
}

func New(opts Options) *Controller {
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Controller{
		transformer: opts.Transformer,
		retry:       opts.Retry,
		logger:      logger,
		state:       StateIdle,
		updatedAt:   time.Now(),
	}
}

// Subscribe registers fn to run after every state change. Callbacks run on
// the goroutine driving the edit, in transition order.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Snapshot returns the current state of the controller.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// InFlight reports whether an edit is currently running.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Reserve claims the single in-flight slot ahead of a submission, so a
// caller can reject a concurrent edit before acknowledging the request.
// A successful Reserve must be followed by SubmitReserved, which releases
// the slot when the edit finishes.
func (c *Controller) Reserve() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return domain.ErrEditInFlight
	}
	c.inFlight = true
	return nil
}

// Submit runs one edit to completion and returns its result. Once the
// controller reaches a terminal state the next Submit is accepted and the
// lifecycle starts over.
func (c *Controller) Submit(ctx context.Context, req domain.EditRequest, opts SubmitOptions) (domain.EditResult, error) {
	if err := c.Reserve(); err != nil {
		return domain.EditResult{}, err
	}
	return c.run(ctx, req, opts)
}

// SubmitReserved runs an edit whose slot was already claimed with Reserve.
func (c *Controller) SubmitReserved(ctx context.Context, req domain.EditRequest, opts SubmitOptions) (domain.EditResult, error) {
	return c.run(ctx, req, opts)
}

func (c *Controller) run(ctx context.Context, req domain.EditRequest, opts SubmitOptions) (domain.EditResult, error) {
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	c.transition(func() {
		c.state = StateValidating
		c.err = nil
	})
	if err := req.Validate(); err != nil {
		return domain.EditResult{}, c.fail(err)
	}
	var ratio domain.AspectRatio
	if !opts.AutoRatio {
		r, err := domain.ParseAspectRatio(opts.AspectRatio)
		if err != nil {
			return domain.EditResult{}, c.fail(domain.Validation(err.Error()))
		}
		ratio = r
	}

	c.transition(func() { c.state = StateCalling })
	result, err := retry.Do(ctx, c.retry, func(ctx context.Context) (domain.EditResult, error) {
		return c.transformer.Transform(ctx, req)
	})
	if err != nil {
		return domain.EditResult{}, c.fail(err)
	}

	if !opts.AutoRatio {
		c.transition(func() { c.state = StateCropping })
		cropped, err := imgutil.CropToRatio(result.ImageBytes, ratio)
		if err != nil {
			return domain.EditResult{}, c.fail(err)
		}
		result = domain.EditResult{ImageBytes: cropped, MIMEType: "image/png"}
	}

	c.transition(func() {
		c.state = StateDone
		c.err = nil
		c.result = &result
		c.prompt = req.Prompt
	})
	c.logger.Info().
		Str("mime", result.MIMEType).
		Int("bytes", len(result.ImageBytes)).
		Msg("editor: edit completed")

	return result, nil
}

// fail moves to FAILED while keeping the last successful result visible.
func (c *Controller) fail(err error) error {
	c.logger.Warn().Err(err).Msg("editor: edit failed")
	c.transition(func() {
		c.state = StateFailed
		c.err = err
	})
	return err
}

func (c *Controller) transition(mutate func()) {
	c.mu.Lock()
	mutate()
	c.updatedAt = time.Now()
	snap := c.snapshotLocked()
	observers := append([]func(Snapshot){}, c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{State: c.state, Err: c.err, Result: c.result, Prompt: c.prompt, UpdatedAt: c.updatedAt}
}
