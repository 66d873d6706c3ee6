package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aiworkforce/dashboard-server-go/internal/repository"
)

type CleanupJob struct {
	oauthStateRepo repository.OAuthStateRepository
	interval       time.Duration
	done           chan struct{}
	finished       chan struct{}
}

func NewCleanupJob(oauthStateRepo repository.OAuthStateRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		oauthStateRepo: oauthStateRepo,
		interval:       interval,
		done:           make(chan struct{}),
		finished:       make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

// Stop signals the job and waits for an in-flight cleanup to finish.
func (j *CleanupJob) Stop() {
	close(j.done)
	<-j.finished
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	defer close(j.finished)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "oauth states", j.oauthStateRepo.DeleteExpired)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
