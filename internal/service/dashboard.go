package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aiworkforce/dashboard-server-go/internal/backend"
	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/trial"
)

type DashboardBackend interface {
	ListAgents(ctx context.Context, token string, page backend.Page) ([]model.Agent, error)
	ListDataSources(ctx context.Context, token string, page backend.Page) ([]model.DataSource, error)
	GetUsageStats(ctx context.Context, token string) (*model.UsageStats, error)
}

type DashboardService struct {
	backend DashboardBackend
	now     func() time.Time
}

func NewDashboardService(backend DashboardBackend) *DashboardService {
	return &DashboardService{backend: backend, now: time.Now}
}

// Stats issues the three backend reads concurrently and joins on all of them.
// A failed read does not cancel the others; the first error is returned.
func (s *DashboardService) Stats(ctx context.Context, token string) (*model.DashboardStats, error) {
	var (
		g       errgroup.Group
		agents  []model.Agent
		sources []model.DataSource
		usage   *model.UsageStats
	)

	g.Go(func() error {
		var err error
		agents, err = s.backend.ListAgents(ctx, token, backend.Page{})
		return err
	})
	g.Go(func() error {
		var err error
		sources, err = s.backend.ListDataSources(ctx, token, backend.Page{})
		return err
	})
	g.Go(func() error {
		var err error
		usage, err = s.backend.GetUsageStats(ctx, token)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &model.DashboardStats{
		TotalAgents:      len(agents),
		TotalDataSources: len(sources),
	}
	for _, a := range agents {
		if a.IsPrivate {
			stats.PrivateAgents++
		}
	}
	for _, ds := range sources {
		if ds.IsConnected {
			stats.ConnectedDataSources++
		}
		stats.TotalDocuments += ds.DocumentCount
		stats.TotalRawSizeBytes += ds.RawSizeBytes
	}
	if usage != nil {
		stats.Usage = *usage
	}
	return stats, nil
}

// TrialInfo is the trial evaluation for a session, with its window when known.
type TrialInfo struct {
	Status model.TrialStatus `json:"status,omitempty"`
	trial.Result
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func (s *DashboardService) Trial(sess *model.Session) (*TrialInfo, error) {
	now := s.now()
	result, err := trial.Evaluate(sess.TrialStartDate, sess.TrialStatus, now)
	if errors.Is(err, trial.ErrNoTrialFound) {
		return nil, apperrors.NoTrialFound()
	}
	if err != nil {
		return nil, err
	}

	info := &TrialInfo{Status: sess.TrialStatus, Result: result}
	if sess.TrialStartDate != nil && result.Limits != nil {
		window := trial.NewWindow(*sess.TrialStartDate, now)
		info.Start = &window.Start
		info.End = &window.End
	}
	return info, nil
}
