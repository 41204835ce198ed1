package platform

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func TestPipelineRunPublishesFinishedContainer(t *testing.T) {
	p := &Pipeline{Interval: time.Millisecond, Ceiling: time.Second}

	var polls int32
	create := func(ctx context.Context) (string, error) { return "container-1", nil }
	status := func(ctx context.Context, id string) (ContainerState, string, error) {
		if atomic.AddInt32(&polls, 1) < 3 {
			return StateInProgress, "IN_PROGRESS", nil
		}
		return StateFinished, "", nil
	}
	publish := func(ctx context.Context, id string) (string, error) {
		require.Equal(t, "container-1", id)
		return "post-9", nil
	}

	postID, err := p.Run(context.Background(), models.PlatformInstagram, create, status, publish)
	require.NoError(t, err)
	require.Equal(t, "post-9", postID)
	require.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(3))
}

func TestPipelineRunSkipsPollingWithoutStatus(t *testing.T) {
	p := &Pipeline{}

	create := func(ctx context.Context) (string, error) { return "c", nil }
	publish := func(ctx context.Context, id string) (string, error) { return "p", nil }

	postID, err := p.Run(context.Background(), models.PlatformFacebook, create, nil, publish)
	require.NoError(t, err)
	require.Equal(t, "p", postID)
}

func TestPipelineAwaitTimeoutMarksStillProcessing(t *testing.T) {
	p := &Pipeline{Interval: time.Millisecond, Ceiling: 10 * time.Millisecond}

	status := func(ctx context.Context, id string) (ContainerState, string, error) {
		return StateInProgress, "IN_PROGRESS", nil
	}

	err := p.Await(context.Background(), models.PlatformInstagram, "c", status)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrStillProcessing))
	require.Equal(t, ErrCodeAPI, CodeOf(err))
}

func TestPipelineAwaitTerminalErrorIsNotStillProcessing(t *testing.T) {
	p := &Pipeline{Interval: time.Millisecond, Ceiling: time.Second}

	status := func(ctx context.Context, id string) (ContainerState, string, error) {
		return StateError, "bad media", nil
	}

	err := p.Await(context.Background(), models.PlatformInstagram, "c", status)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrStillProcessing))
	require.Equal(t, ErrCodeAPI, CodeOf(err))
	require.Contains(t, err.Error(), "bad media")
}

func TestPipelineAwaitRespectsCancellation(t *testing.T) {
	p := &Pipeline{Interval: 10 * time.Millisecond, Ceiling: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	status := func(ctx context.Context, id string) (ContainerState, string, error) {
		return StateInProgress, "", nil
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := p.Await(ctx, models.PlatformTikTok, "c", status)
	require.ErrorIs(t, err, context.Canceled)
}
