package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/championsarena/arena-server/models"
	"github.com/championsarena/arena-server/realtime"
	"github.com/championsarena/arena-server/repositories"
	"github.com/championsarena/arena-server/storage"
)

// FlexInt принимает число как JSON number или как числовую строку.
// Исторически админка отправляла spots строкой ("20").
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("value %q is not an integer", s)
	}
	*f = FlexInt(n)
	return nil
}

// TournamentInput — редактируемые поля турнира. id, created_at и used_spots
// в типе отсутствуют намеренно: их нельзя передать ни при создании,
// ни при обновлении.
type TournamentInput struct {
	GameTitle string  `json:"game_title"`
	Date      string  `json:"date"`
	Location  string  `json:"location"`
	Spots     FlexInt `json:"spots"`
	PrizePool string  `json:"prize_pool"`
	Details   *string `json:"details"`
}

type TournamentService interface {
	List(ctx context.Context) ([]models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	Create(ctx context.Context, input TournamentInput) (*models.Tournament, error)
	Update(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	UploadBanner(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	repo             repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	uploader         storage.FileUploader
	hub              *realtime.Hub
	logger           *slog.Logger
}

func NewTournamentService(
	repo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	uploader storage.FileUploader,
	hub *realtime.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		repo:             repo,
		registrationRepo: registrationRepo,
		uploader:         uploader,
		hub:              hub,
		logger:           logger,
	}
}

func (s *tournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	participants, err := s.registrationRepo.MapUserIDsByTournament(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		tournaments[i].Participants = participants[tournaments[i].ID]
		s.attachBannerURL(&tournaments[i])
	}
	return tournaments, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	tournament.Participants, err = s.registrationRepo.ListUserIDsByTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachBannerURL(tournament)
	return tournament, nil
}

// Create валидирует поля локально, до какого-либо обращения к БД.
// used_spots новой записи всегда 0, prize_pool по умолчанию "0".
func (s *tournamentService) Create(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	tournament, err := tournamentFromInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created",
		slog.Int("id", tournament.ID),
		slog.String("game_title", tournament.GameTitle),
		slog.Int("spots", tournament.Spots),
	)
	tournament.Participants = []int{}
	return tournament, nil
}

// Update принимает тот же набор редактируемых полей, что и Create.
// Счётчик занятых мест не затрагивается даже при уменьшении spots ниже
// used_spots: такой запрос отклонит check-ограничение БД.
func (s *tournamentService) Update(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error) {
	tournament, err := tournamentFromInput(input)
	if err != nil {
		return nil, err
	}
	tournament.ID = id

	if err := s.repo.Update(ctx, tournament); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrTournamentInvalid):
			return nil, ErrTournamentInvalidSpots
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.broadcastCapacity(updated)
	return updated, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if tournament.BannerKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *tournament.BannerKey); err != nil {
			s.logger.Warn("failed to delete tournament banner",
				slog.Int("tournament_id", id), slog.Any("error", err))
		}
	}

	s.logger.Info("tournament deleted", slog.Int("id", id))
	return nil
}

func (s *tournamentService) UploadBanner(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrBannerStorageDisabled
	}

	tournament, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/banner-%d", id, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	if err := s.repo.UpdateBannerKey(ctx, id, &result.Key); err != nil {
		return nil, err
	}

	if tournament.BannerKey != nil {
		if delErr := s.uploader.Delete(ctx, *tournament.BannerKey); delErr != nil {
			s.logger.Warn("failed to delete previous banner",
				slog.Int("tournament_id", id), slog.Any("error", delErr))
		}
	}

	return s.GetByID(ctx, id)
}

func (s *tournamentService) attachBannerURL(t *models.Tournament) {
	if t.BannerKey == nil || s.uploader == nil {
		return
	}
	u := s.uploader.GetPublicURL(*t.BannerKey)
	if u != "" {
		t.BannerURL = &u
	}
}

func (s *tournamentService) broadcastCapacity(t *models.Tournament) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(strconv.Itoa(t.ID), realtime.Message{
		Type: realtime.TypeTournamentUpdated,
		Payload: realtime.CapacityPayload{
			TournamentID: t.ID,
			Spots:        t.Spots,
			UsedSpots:    t.UsedSpots,
		},
		RoomID: strconv.Itoa(t.ID),
	})
}

func tournamentFromInput(input TournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.GameTitle) == "" ||
		strings.TrimSpace(input.Date) == "" ||
		strings.TrimSpace(input.Location) == "" ||
		input.Spots == 0 {
		return nil, ErrTournamentFieldsMissing
	}
	if input.Spots < 0 {
		return nil, ErrTournamentInvalidSpots
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, ErrTournamentInvalidDate
	}

	prizePool := strings.TrimSpace(input.PrizePool)
	if prizePool == "" {
		prizePool = "0"
	}

	return &models.Tournament{
		GameTitle: strings.TrimSpace(input.GameTitle),
		Date:      date,
		Location:  strings.TrimSpace(input.Location),
		Spots:     int(input.Spots),
		PrizePool: prizePool,
		Details:   input.Details,
	}, nil
}
