package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/publora/publora/internal/models"
)

type ContainerState string

const (
	StateCreated    ContainerState = "CREATED"
	StateInProgress ContainerState = "IN_PROGRESS"
	StateFinished   ContainerState = "FINISHED"
	StateError      ContainerState = "ERROR"
	StateExpired    ContainerState = "EXPIRED"
	StatePublished  ContainerState = "PUBLISHED"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultPollCeiling  = 5 * time.Minute
)

// CreateFunc creates a vendor-side media container and returns its id.
type CreateFunc func(ctx context.Context) (string, error)

// StatusFunc reports a container's state plus the vendor's detail string.
type StatusFunc func(ctx context.Context, containerID string) (ContainerState, string, error)

// PublishFunc turns a finished container into a live post, returning the
// vendor post id.
type PublishFunc func(ctx context.Context, containerID string) (string, error)

// Pipeline runs the create / poll / publish sequence vendors with async
// media processing require. Zero value uses the 30s / 5m defaults.
type Pipeline struct {
	Interval time.Duration
	Ceiling  time.Duration
}

func (p *Pipeline) interval() time.Duration {
	if p == nil || p.Interval <= 0 {
		return defaultPollInterval
	}
	return p.Interval
}

func (p *Pipeline) ceiling() time.Duration {
	if p == nil || p.Ceiling <= 0 {
		return defaultPollCeiling
	}
	return p.Ceiling
}

// Run executes the full sequence. A nil status skips polling for containers
// that are immediately publishable.
func (p *Pipeline) Run(ctx context.Context, pf models.Platform, create CreateFunc, status StatusFunc, publish PublishFunc) (string, error) {
	containerID, err := create(ctx)
	if err != nil {
		return "", err
	}

	if status != nil {
		if err := p.Await(ctx, pf, containerID, status); err != nil {
			return "", err
		}
	}

	return publish(ctx, containerID)
}

// Await polls a container until it reaches a publishable state. Vendor ERROR
// and EXPIRED are terminal and fatal immediately; exceeding the ceiling is a
// timeout carrying ErrStillProcessing so callers can tell the two apart.
func (p *Pipeline) Await(ctx context.Context, pf models.Platform, containerID string, status StatusFunc) error {
	deadline := time.Now().Add(p.ceiling())

	check := func() (bool, error) {
		state, detail, err := status(ctx, containerID)
		if err != nil {
			return false, err
		}
		switch state {
		case StateFinished, StatePublished:
			return true, nil
		case StateError, StateExpired:
			msg := fmt.Sprintf("media processing failed with status %s", state)
			return false, &Error{Code: ErrCodeAPI, Platform: pf, Message: msg, Details: detail}
		default:
			return false, nil
		}
	}

	done, err := check()
	if err != nil || done {
		return err
	}

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := check()
			if err != nil || done {
				return err
			}
			if time.Now().After(deadline) {
				return &Error{
					Code:     ErrCodeAPI,
					Platform: pf,
					Message:  fmt.Sprintf("media processing timed out after %s, it may still complete on the vendor side", p.ceiling()),
					Err:      ErrStillProcessing,
				}
			}
		}
	}
}
