package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/championsarena/arena-server/events"
	"github.com/championsarena/arena-server/models"
	"github.com/championsarena/arena-server/realtime"
	"github.com/championsarena/arena-server/repositories"
)

// maxRegistrationRetries ограничивает повторы цикла read-check-write
// при конкурентных регистрациях на один турнир.
const maxRegistrationRetries = 3

type RegistrationService interface {
	// Register добавляет пользователя в турнир, атомарно инкрементируя
	// счётчик занятых мест. Возвращает турнир в состоянии после записи.
	Register(ctx context.Context, userID, tournamentID int) (*models.Tournament, error)
	ListParticipants(ctx context.Context, tournamentID int) ([]int, error)
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	userRepo         repositories.UserRepository
	hub              *realtime.Hub
	feed             *events.Feed
	logger           *slog.Logger
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	hub *realtime.Hub,
	feed *events.Feed,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		userRepo:         userRepo,
		hub:              hub,
		feed:             feed,
		logger:           logger,
	}
}

// Register выполняет ограниченный цикл оптимистичной блокировки:
// читает турнир, проверяет членство и ёмкость, затем пытается применить
// условную транзакцию (вставка участника + used_spots+1), привязанную к
// прочитанной версии записи. Несовпадение версии означает конкурирующую
// запись — чтение повторяется. Частичных состояний не бывает: либо
// фиксируются оба изменения, либо ни одного.
func (s *registrationService) Register(ctx context.Context, userID, tournamentID int) (*models.Tournament, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to verify user %d: %w", userID, err)
	}

	for attempt := 0; attempt < maxRegistrationRetries; attempt++ {
		tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return nil, ErrTournamentNotFound
			}
			return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
		}

		registered, err := s.registrationRepo.Exists(ctx, tournamentID, userID)
		if err != nil {
			return nil, err
		}
		if registered {
			return nil, ErrAlreadyRegistered
		}

		if tournament.UsedSpots >= tournament.Spots {
			return nil, ErrTournamentFull
		}

		applied, err := s.registrationRepo.Register(ctx, tournamentID, userID, tournament.Version)
		if err != nil {
			if errors.Is(err, repositories.ErrRegistrationDuplicate) {
				return nil, ErrAlreadyRegistered
			}
			return nil, err
		}
		if !applied {
			s.logger.Debug("registration retry after version conflict",
				slog.Int("tournament_id", tournamentID),
				slog.Int("user_id", userID),
				slog.Int("attempt", attempt+1))
			continue
		}

		updated, err := s.tournamentRepo.GetByID(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		s.notify(ctx, userID, updated)
		return updated, nil
	}

	return nil, ErrRegistrationConflict
}

func (s *registrationService) ListParticipants(ctx context.Context, tournamentID int) ([]int, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.registrationRepo.ListUserIDsByTournament(ctx, tournamentID)
}

// notify рассылает обновление занятости: best-effort, сбой доставки
// не влияет на результат регистрации.
func (s *registrationService) notify(ctx context.Context, userID int, t *models.Tournament) {
	if s.hub != nil {
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

	if err := s.feed.PublishRegistration(ctx, events.RegistrationRecord{
		TournamentID: t.ID,
		UserID:       userID,
		UsedSpots:    t.UsedSpots,
		Spots:        t.Spots,
		Timestamp:    time.Now().Unix(),
	}); err != nil {
		s.logger.Warn("failed to publish registration event",
			slog.Int("tournament_id", t.ID), slog.Any("error", err))
	}

	s.logger.Info("user registered for tournament",
		slog.Int("tournament_id", t.ID),
		slog.Int("user_id", userID),
		slog.Int("used_spots", t.UsedSpots),
		slog.Int("spots", t.Spots))
}
