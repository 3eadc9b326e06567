package services

import (
	"context"

	"github.com/championsarena/arena-server/models"
	"github.com/championsarena/arena-server/repositories"
	"golang.org/x/sync/errgroup"
)

// DashboardOverview — данные пользовательской панели: каталог целиком
// и турниры, в которых участвует пользователь.
type DashboardOverview struct {
	Tournaments []models.Tournament `json:"tournaments"`
	History     []models.Tournament `json:"history"`
}

type DashboardService interface {
	Overview(ctx context.Context, userID int) (*DashboardOverview, error)
}

type dashboardService struct {
	tournamentService TournamentService
	registrationRepo  repositories.RegistrationRepository
}

func NewDashboardService(
	tournamentService TournamentService,
	registrationRepo repositories.RegistrationRepository,
) DashboardService {
	return &dashboardService{
		tournamentService: tournamentService,
		registrationRepo:  registrationRepo,
	}
}

func (s *dashboardService) Overview(ctx context.Context, userID int) (*DashboardOverview, error) {
	var (
		tournaments []models.Tournament
		joinedIDs   []int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournaments, err = s.tournamentService.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		joinedIDs, err = s.registrationRepo.ListTournamentIDsByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &DashboardOverview{
		Tournaments: tournaments,
		History:     HistoryByIDs(joinedIDs, tournaments),
	}, nil
}
