package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snake-arena/internal/config"
	"github.com/snake-arena/internal/domain"
)

// Repository provides PostgreSQL-based data access for users and
// leaderboard entries.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash TEXT NOT NULL,
			high_score BIGINT NOT NULL DEFAULT 0 CHECK (high_score >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT users_username_key UNIQUE (username),
			CONSTRAINT users_email_key UNIQUE (email)
		)`,
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			id VARCHAR(64) PRIMARY KEY,
			seq BIGSERIAL,
			username VARCHAR(64) NOT NULL,
			score BIGINT NOT NULL CHECK (score >= 0),
			mode VARCHAR(16) NOT NULL,
			date DATE NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_rank ON leaderboard_entries(score DESC, seq ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_mode_rank ON leaderboard_entries(mode, score DESC, seq ASC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// CreateUser inserts a new user with its password credential. The
// unique constraints on username and email are the second line of
// defense behind the service-level pre-checks; a constraint violation
// is mapped back to the matching conflict error so concurrent signups
// race safely.
func (r *Repository) CreateUser(ctx context.Context, user domain.User, passwordHash string) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, high_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		passwordHash,
		user.HighScore,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return domain.ErrEmailTaken
			case "users_username_key":
				return domain.ErrUsernameTaken
			}
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// UserByID retrieves a user by id
func (r *Repository) UserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, username, email, high_score, created_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HighScore,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return &user, nil
}

// UserByEmail retrieves a user by exact email match, along with the
// stored password credential for login verification.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	query := `
		SELECT id, username, email, password_hash, high_score, created_at
		FROM users
		WHERE email = $1
	`
	var user domain.User
	var passwordHash string
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&passwordHash,
		&user.HighScore,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("getting user by email: %w", err)
	}
	return &user, passwordHash, nil
}

// UserByUsername retrieves a user by exact username match
func (r *Repository) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, email, high_score, created_at
		FROM users
		WHERE username = $1
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HighScore,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return &user, nil
}

// RecordScore appends a leaderboard entry and reconciles the user's
// cached high score in a single transaction: either both records
// commit or neither does. The GREATEST guard makes concurrent
// submissions from the same user commute toward the maximum, so
// read-committed isolation is sufficient.
func (r *Repository) RecordScore(ctx context.Context, userID string, entry domain.LeaderboardEntry) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO leaderboard_entries (id, username, score, mode, date)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, insert,
		entry.ID,
		entry.Username,
		entry.Score,
		string(entry.Mode),
		entry.Date.Time,
	)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}

	update := `UPDATE users SET high_score = GREATEST(high_score, $2) WHERE id = $1`
	result, err := tx.Exec(ctx, update, userID, entry.Score)
	if err != nil {
		return fmt.Errorf("updating high score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing score: %w", err)
	}
	return nil
}

// TopEntries returns entries ranked by score descending, ties broken
// by insertion order (earlier submissions first). A non-nil mode
// restricts results to that mode before the limit is applied.
func (r *Repository) TopEntries(ctx context.Context, mode *domain.GameMode, limit int) ([]domain.LeaderboardEntry, error) {
	var rows pgx.Rows
	var err error
	if mode != nil {
		query := `
			SELECT id, username, score, mode, date
			FROM leaderboard_entries
			WHERE mode = $1
			ORDER BY score DESC, seq ASC
			LIMIT $2
		`
		rows, err = r.pool.Query(ctx, query, string(*mode), limit)
	} else {
		query := `
			SELECT id, username, score, mode, date
			FROM leaderboard_entries
			ORDER BY score DESC, seq ASC
			LIMIT $1
		`
		rows, err = r.pool.Query(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var entry domain.LeaderboardEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Username,
			&entry.Score,
			&entry.Mode,
			&entry.Date.Time,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	return entries, nil
}
