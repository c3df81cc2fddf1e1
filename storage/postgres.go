package storage

import (
	"context"
	"errors"
	"fmt"
	"wordrush/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgur *PostgresRepo) Close() {
	pgur.pool.Close()
}

func wrap(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}

// column maps a category to its score column. The result is only ever one
// of three constants so it is safe to splice into a query.
func column(c domain.Category) (string, error) {
	switch c {
	case domain.CategoryTotal:
		return "aggregate", nil
	case domain.CategoryPersonal:
		return "personal", nil
	case domain.CategoryDuo:
		return "duo", nil
	default:
		return "", domain.ErrUnknownCategory
	}
}

func (pgur *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}

	row := pgur.pool.QueryRow(ctx, "SELECT id, display_name, password_hash FROM users WHERE username = $1", username)

	err := row.Scan(&user.Id, &user.DisplayName, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, wrap(err)
	}

	return user, nil
}

func (pgur *PostgresRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	user := domain.User{Id: id}

	row := pgur.pool.QueryRow(ctx, "SELECT username, display_name, password_hash FROM users WHERE id = $1", id)

	err := row.Scan(&user.Username, &user.DisplayName, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, wrap(err)
	}

	return user, nil
}

// CreateUser inserts the account together with its zeroed score row.
func (pgur *PostgresRepo) CreateUser(ctx context.Context, username, displayName, passwordHash string) (string, error) {
	tx, err := pgur.pool.Begin(ctx)
	if err != nil {
		return "", wrap(err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		"INSERT INTO users(username, display_name, password_hash) VALUES($1, $2, $3) RETURNING id",
		username, displayName, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		// "23505" is the PostgreSQL error code for unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", domain.ErrDuplicateUsername
		}
		return "", wrap(err)
	}

	if _, err := tx.Exec(ctx, "INSERT INTO scores(user_id) VALUES($1)", id); err != nil {
		return "", wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", wrap(err)
	}
	return id, nil
}

func (pgur *PostgresRepo) AddScoreDeltas(ctx context.Context, userId string, delta domain.ScoreDelta) error {
	tag, err := pgur.pool.Exec(ctx,
		`UPDATE scores
		 SET aggregate = aggregate + $2, personal = personal + $3, duo = duo + $4, updated_at = now()
		 WHERE user_id = $1`,
		userId, delta.Aggregate, delta.Personal, delta.Duo,
	)
	if err != nil {
		return wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// TopN returns the n best accounts of a category, ties ordered by display name.
func (pgur *PostgresRepo) TopN(ctx context.Context, category domain.Category, n int) ([]domain.LeaderboardEntry, error) {
	col, err := column(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT u.display_name, s.%[1]s FROM scores s JOIN users u ON u.id = s.user_id
		 WHERE s.%[1]s > 0 ORDER BY s.%[1]s DESC, u.display_name ASC LIMIT $1`, col)

	rows, err := pgur.pool.Query(ctx, query, n)
	if err != nil {
		return nil, wrap(err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LeaderboardEntry, error) {
		var e domain.LeaderboardEntry
		err := row.Scan(&e.Name, &e.Score)
		return e, err
	})
	if err != nil {
		return nil, wrap(err)
	}
	return entries, nil
}

// GetProfile returns the scores of one account and its 1-based rank in each
// category. The rank counts the accounts with a strictly higher score.
func (pgur *PostgresRepo) GetProfile(ctx context.Context, userId string) (domain.Profile, error) {
	p := domain.Profile{Id: userId, Ranks: make(map[domain.Category]int, 3)}
	var total, personal, duo int

	err := pgur.pool.QueryRow(ctx,
		`SELECT u.username, u.display_name, s.aggregate, s.personal, s.duo,
		   (SELECT COUNT(*) FROM scores o WHERE o.aggregate > s.aggregate) + 1,
		   (SELECT COUNT(*) FROM scores o WHERE o.personal > s.personal) + 1,
		   (SELECT COUNT(*) FROM scores o WHERE o.duo > s.duo) + 1
		 FROM users u JOIN scores s ON s.user_id = u.id
		 WHERE u.id = $1`, userId,
	).Scan(&p.Username, &p.DisplayName, &p.Aggregate, &p.Personal, &p.Duo, &total, &personal, &duo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrUserNotFound
		}
		return domain.Profile{}, wrap(err)
	}

	p.Ranks[domain.CategoryTotal] = total
	p.Ranks[domain.CategoryPersonal] = personal
	p.Ranks[domain.CategoryDuo] = duo
	return p, nil
}
