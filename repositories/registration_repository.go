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
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationDuplicate         = errors.New("user already registered for this tournament")
	ErrRegistrationUserInvalid       = errors.New("registration user reference invalid")
	ErrRegistrationTournamentInvalid = errors.New("registration tournament reference invalid")
)

type RegistrationRepository interface {
	// Register выполняет условную транзакцию регистрации: вставка строки
	// участника и инкремент used_spots под защитой версии турнира.
	// Возвращает applied=false без ошибки, если версия успела измениться
	// или мест не осталось — вызывающая сторона перечитывает и повторяет.
	Register(ctx context.Context, tournamentID, userID, expectedVersion int) (applied bool, err error)

	Exists(ctx context.Context, tournamentID, userID int) (bool, error)
	ListUserIDsByTournament(ctx context.Context, tournamentID int) ([]int, error)
	ListTournamentIDsByUser(ctx context.Context, userID int) ([]int, error)
	// MapUserIDsByTournament возвращает всех участников каталога одним запросом.
	MapUserIDsByTournament(ctx context.Context) (map[int][]int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Register(ctx context.Context, tournamentID, userID, expectedVersion int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	// Сначала условный инкремент: если версия ушла или мест нет,
	// строка участника не появится вовсе.
	guard := `
		UPDATE tournaments
		SET used_spots = used_spots + 1, version = version + 1
		WHERE id = $1 AND version = $2 AND used_spots < spots`

	result, err := tx.ExecContext(ctx, guard, tournamentID, expectedVersion)
	if err != nil {
		txErr = err
		return false, fmt.Errorf("failed to increment used spots: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		txErr = err
		return false, fmt.Errorf("failed to check guard result: %w", err)
	}
	if rowsAffected == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	insert := `INSERT INTO registrations (tournament_id, user_id) VALUES ($1, $2)`
	if _, err = tx.ExecContext(ctx, insert, tournamentID, userID); err != nil {
		txErr = err
		return false, mapRegistrationError(err)
	}

	if err = tx.Commit(); err != nil {
		txErr = err
		return false, fmt.Errorf("failed to commit registration: %w", err)
	}
	return true, nil
}

func (r *postgresRegistrationRepository) Exists(ctx context.Context, tournamentID, userID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM registrations WHERE tournament_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tournamentID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return exists, nil
}

func (r *postgresRegistrationRepository) ListUserIDsByTournament(ctx context.Context, tournamentID int) ([]int, error) {
	query := `SELECT user_id FROM registrations WHERE tournament_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament participants: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *postgresRegistrationRepository) ListTournamentIDsByUser(ctx context.Context, userID int) ([]int, error) {
	query := `SELECT tournament_id FROM registrations WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user registrations: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *postgresRegistrationRepository) MapUserIDsByTournament(ctx context.Context) (map[int][]int, error) {
	query := `SELECT tournament_id, user_id FROM registrations ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to map participants: %w", err)
	}
	defer rows.Close()

	byTournament := make(map[int][]int)
	for rows.Next() {
		var reg models.Registration
		if scanErr := rows.Scan(&reg.TournamentID, &reg.UserID); scanErr != nil {
			return nil, scanErr
		}
		byTournament[reg.TournamentID] = append(byTournament[reg.TournamentID], reg.UserID)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return byTournament, nil
}

func scanIDs(rows *sql.Rows) ([]int, error) {
	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func mapRegistrationError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "registrations_tournament_id_user_id_key" {
				return ErrRegistrationDuplicate
			}
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "registrations_user_id_fkey":
				return ErrRegistrationUserInvalid
			case "registrations_tournament_id_fkey":
				return ErrRegistrationTournamentInvalid
			}
		}
	}
	return fmt.Errorf("failed to create registration: %w", err)
}
