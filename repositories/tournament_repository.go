package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/championsarena/arena-server/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentInvalid  = errors.New("tournament violates a database constraint")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	// Update переписывает редактируемые поля и инкрементирует version.
	// used_spots и created_at запросом не затрагиваются.
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id int) error
	UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error
}

type postgresTournamentRepository struct {
	db SQLExecutor
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, game_title, date, location, spots, used_spots,
	prize_pool, details, banner_key, version, created_at
`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	// used_spots и version получают значения по умолчанию (0) на стороне БД.
	query := `
		INSERT INTO tournaments (game_title, date, location, spots, prize_pool, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, used_spots, version, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.GameTitle, t.Date, t.Location, t.Spots, t.PrizePool, t.Details,
	).Scan(&t.ID, &t.UsedSpots, &t.Version, &t.CreatedAt)

	return handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + `FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.GameTitle, &t.Date, &t.Location, &t.Spots, &t.UsedSpots,
		&t.PrizePool, &t.Details, &t.BannerKey, &t.Version, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	// Панели сортируют каталог по ближайшей дате.
	query := `SELECT` + tournamentColumns + `FROM tournaments ORDER BY date ASC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.GameTitle, &t.Date, &t.Location, &t.Spots, &t.UsedSpots,
			&t.PrizePool, &t.Details, &t.BannerKey, &t.Version, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			game_title = $1,
			date = $2,
			location = $3,
			spots = $4,
			prize_pool = $5,
			details = $6,
			version = version + 1
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		t.GameTitle, t.Date, t.Location, t.Spots, t.PrizePool, t.Details, t.ID,
	)
	if err != nil {
		return handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	query := `UPDATE tournaments SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23514": // check_violation: spots > 0, used_spots <= spots
			return ErrTournamentInvalid
		}
	}
	return err
}
