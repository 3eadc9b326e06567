package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/championsarena/arena-server/models"
	"github.com/championsarena/arena-server/repositories"
)

// fakeStore — общая память для фейковых репозиториев. Один мьютекс на
// всё хранилище, чтобы условная транзакция регистрации была атомарной,
// как в Postgres.
type fakeStore struct {
	mu sync.Mutex

	nextUserID       int
	nextTournamentID int

	users       map[int]*models.User
	tournaments map[int]*models.Tournament
	regs        []models.Registration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[int]*models.User),
		tournaments: make(map[int]*models.Tournament),
	}
}

func (s *fakeStore) addUser(name, email string, role models.UserRole) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	u := &models.User{
		ID:           s.nextUserID,
		DisplayName:  name,
		Email:        email,
		Role:         role,
		AuthProvider: models.ProviderPassword,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) isRegistered(tournamentID, userID int) bool {
	for _, reg := range s.regs {
		if reg.TournamentID == tournamentID && reg.UserID == userID {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	s *fakeStore
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	user.CreatedAt = time.Now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeTournamentRepo struct {
	s *fakeStore

	createCalls int
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.createCalls++
	r.s.nextTournamentID++
	t.ID = r.s.nextTournamentID
	t.UsedSpots = 0
	t.Version = 0
	t.CreatedAt = time.Now()
	stored := *t
	r.s.tournaments[t.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(_ context.Context) ([]models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tournaments := make([]models.Tournament, 0, len(r.s.tournaments))
	for _, t := range r.s.tournaments {
		tournaments = append(tournaments, *t)
	}
	sort.Slice(tournaments, func(i, j int) bool {
		return tournaments[i].Date.Before(tournaments[j].Date)
	})
	return tournaments, nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Spots < existing.UsedSpots {
		return repositories.ErrTournamentInvalid
	}
	existing.GameTitle = t.GameTitle
	existing.Date = t.Date
	existing.Location = t.Location
	existing.Spots = t.Spots
	existing.PrizePool = t.PrizePool
	existing.Details = t.Details
	existing.Version++
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.s.tournaments, id)
	kept := r.s.regs[:0]
	for _, reg := range r.s.regs {
		if reg.TournamentID != id {
			kept = append(kept, reg)
		}
	}
	r.s.regs = kept
	return nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(_ context.Context, id int, bannerKey *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	return nil
}

type fakeRegistrationRepo struct {
	s *fakeStore
}

func (r *fakeRegistrationRepo) Register(_ context.Context, tournamentID, userID, expectedVersion int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[tournamentID]
	if !ok {
		return false, repositories.ErrRegistrationTournamentInvalid
	}
	if t.Version != expectedVersion || t.UsedSpots >= t.Spots {
		return false, nil
	}
	if r.s.isRegistered(tournamentID, userID) {
		return false, repositories.ErrRegistrationDuplicate
	}
	t.UsedSpots++
	t.Version++
	r.s.regs = append(r.s.regs, models.Registration{
		TournamentID: tournamentID,
		UserID:       userID,
		CreatedAt:    time.Now(),
	})
	return true, nil
}

func (r *fakeRegistrationRepo) Exists(_ context.Context, tournamentID, userID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.isRegistered(tournamentID, userID), nil
}

func (r *fakeRegistrationRepo) ListUserIDsByTournament(_ context.Context, tournamentID int) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]int, 0)
	for _, reg := range r.s.regs {
		if reg.TournamentID == tournamentID {
			ids = append(ids, reg.UserID)
		}
	}
	return ids, nil
}

func (r *fakeRegistrationRepo) ListTournamentIDsByUser(_ context.Context, userID int) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]int, 0)
	for _, reg := range r.s.regs {
		if reg.UserID == userID {
			ids = append(ids, reg.TournamentID)
		}
	}
	return ids, nil
}

func (r *fakeRegistrationRepo) MapUserIDsByTournament(_ context.Context) (map[int][]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byTournament := make(map[int][]int)
	for _, reg := range r.s.regs {
		byTournament[reg.TournamentID] = append(byTournament[reg.TournamentID], reg.UserID)
	}
	return byTournament, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
