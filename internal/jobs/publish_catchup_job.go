package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/publora/publora/internal/queue"
	"github.com/publora/publora/internal/repository"
)

// PublishCatchupJob re-enqueues scheduled posts whose publish task never
// fired, typically after a queue wipe or an outage spanning the due time.
type PublishCatchupJob struct {
	pr     repository.PostRepository
	client *asynq.Client
}

func NewPublishCatchupJob(pr repository.PostRepository, client *asynq.Client) *PublishCatchupJob {
	return &PublishCatchupJob{
		pr:     pr,
		client: client,
	}
}

func (c *PublishCatchupJob) Run() {
	ctx := context.Background()

	// grace period keeps in-flight publishes from being enqueued twice
	due, err := c.pr.GetDue(ctx, time.Now().Add(-10*time.Minute))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range due {
		payload := queue.PublishPostPayload{PostID: post.ID}
		if err := queue.EnqueuePost(c.client, payload, 0); err != nil {
			slog.Info("unable to re-enqueue overdue post",
				"post_id", post.ID,
				"error", err.Error())
		}
	}
}
