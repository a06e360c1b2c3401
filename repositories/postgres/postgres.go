// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"outmentor/domain"
	"outmentor/errors"
	"outmentor/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"

	maxRetries   = 5
	retryBackoff = 10 * time.Millisecond
)

var (
	_ repositories.IProfileRepository    = (*ProfileRepository)(nil)
	_ repositories.IConnectionRepository = (*ConnectionRepository)(nil)
	_ repositories.IMessageRepository    = (*MessageRepository)(nil)
	_ repositories.IMeetingRepository    = (*MeetingRepository)(nil)
)

// Open connects a pool and checks the server is reachable.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %v", errors.ErrUnavailable, err)
	}
	return pool, nil
}

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const profileColumns = `id, kind, name, state, city, bio, mentor_ftc, mentor_fll, team_program, team_number, areas, created_at, updated_at`

// Save upserts a profile. Mentor knowledge areas and team interest areas share the areas column.
func (r *ProfileRepository) Save(ctx context.Context, p domain.Profile) error {
	const query = `INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, state = EXCLUDED.state, city = EXCLUDED.city, bio = EXCLUDED.bio,
			mentor_ftc = EXCLUDED.mentor_ftc, mentor_fll = EXCLUDED.mentor_fll,
			team_program = EXCLUDED.team_program, team_number = EXCLUDED.team_number,
			areas = EXCLUDED.areas, updated_at = EXCLUDED.updated_at`

	var (
		ftc, fll        bool
		program, number *string
		areas           = []string{}
	)
	switch d := p.Details.(type) {
	case domain.MentorDetails:
		ftc, fll = d.FTC, d.FLL
		areas = append(areas, d.KnowledgeAreas...)
	case domain.TeamDetails:
		programValue := string(d.Program)
		program, number = &programValue, &d.Number
		areas = append(areas, d.InterestAreas...)
	}
	_, err := r.pool.Exec(ctx, query, p.ID, p.Kind, p.Name, p.State, p.City, p.Bio,
		ftc, fll, program, number, areas, p.CreatedAt, p.UpdatedAt)
	return translate(err)
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	return p, translate(err)
}

func (r *ProfileRepository) GetMany(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	res := make(map[string]domain.Profile, len(ids))
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, translate(err)
		}
		res[p.ID] = p
	}
	return res, translate(rows.Err())
}

func (r *ProfileRepository) All(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY id`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var res []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, translate(err)
		}
		res = append(res, p)
	}
	return res, translate(rows.Err())
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var (
		p               domain.Profile
		ftc, fll        bool
		program, number *string
		areas           []string
	)
	if err := row.Scan(&p.ID, &p.Kind, &p.Name, &p.State, &p.City, &p.Bio,
		&ftc, &fll, &program, &number, &areas, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Profile{}, err
	}
	if len(areas) == 0 {
		areas = nil
	}
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	switch p.Kind {
	case domain.KindMentor:
		p.Details = domain.MentorDetails{FTC: ftc, FLL: fll, KnowledgeAreas: areas}
	case domain.KindTeam:
		d := domain.TeamDetails{InterestAreas: areas}
		if program != nil {
			d.Program = domain.ProgramType(*program)
		}
		if number != nil {
			d.Number = *number
		}
		p.Details = d
	}
	return p, nil
}

type ConnectionRepository struct {
	pool *pgxpool.Pool
}

func NewConnectionRepository(pool *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{pool: pool}
}

const connectionColumns = `id, mentor_id, team_id, initiator_id, status, created_at, responded_at, last_message_at`

// Initiate relies on the partial unique index over open pairs.
// When the insert is skipped, the open record is read back; if it vanished in between
// (declined concurrently) the whole operation is retried.
func (r *ConnectionRepository) Initiate(ctx context.Context, c domain.Connection) (domain.Connection, bool, error) {
	const insert = `INSERT INTO connections (id, mentor_id, team_id, initiator_id, status, created_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (mentor_id, team_id) WHERE status IN ('pending', 'accepted') DO NOTHING`
	const existing = `SELECT ` + connectionColumns + ` FROM connections
		WHERE mentor_id = $1 AND team_id = $2 AND status IN ('pending', 'accepted')`

	var (
		res     domain.Connection
		created bool
	)
	err := withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, insert, c.ID, c.MentorID, c.TeamID, c.InitiatorID, c.Status,
			c.CreatedAt, nullTime(c.RespondedAt))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			res, created = c, true
			return nil
		}
		res, err = scanConnection(r.pool.QueryRow(ctx, existing, c.MentorID, c.TeamID))
		if errors.Is(err, pgx.ErrNoRows) {
			return &pgconn.PgError{Code: codeSerializationFailure}
		}
		created = false
		return err
	})
	return res, created, translate(err)
}

func (r *ConnectionRepository) Get(ctx context.Context, id uuid.UUID) (domain.Connection, error) {
	c, err := scanConnection(r.pool.QueryRow(ctx, `SELECT `+connectionColumns+` FROM connections WHERE id = $1`, id))
	return c, translate(err)
}

func (r *ConnectionRepository) Update(ctx context.Context, c domain.Connection, expected domain.ConnectionStatus) error {
	const query = `UPDATE connections SET status = $2, responded_at = $3 WHERE id = $1 AND status = $4`
	tag, err := r.pool.Exec(ctx, query, c.ID, c.Status, nullTime(c.RespondedAt), expected)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var status domain.ConnectionStatus
	if err = r.pool.QueryRow(ctx, `SELECT status FROM connections WHERE id = $1`, c.ID).Scan(&status); err != nil {
		return translate(err)
	}
	return fmt.Errorf("%w: connection is %s", errors.ErrInvalidState, status)
}

func (r *ConnectionRepository) ListByMember(ctx context.Context, profileID string, status domain.ConnectionStatus) ([]domain.Connection, error) {
	const query = `SELECT ` + connectionColumns + ` FROM connections
		WHERE (mentor_id = $1 OR team_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, profileID, string(status))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var res []domain.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, translate(err)
		}
		res = append(res, c)
	}
	return res, translate(rows.Err())
}

func scanConnection(row pgx.Row) (domain.Connection, error) {
	var (
		c                        domain.Connection
		respondedAt, lastMessage *time.Time
	)
	if err := row.Scan(&c.ID, &c.MentorID, &c.TeamID, &c.InitiatorID, &c.Status,
		&c.CreatedAt, &respondedAt, &lastMessage); err != nil {
		return domain.Connection{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if respondedAt != nil {
		c.RespondedAt = respondedAt.UTC()
	}
	if lastMessage != nil {
		c.LastMessageAt = lastMessage.UTC()
	}
	return c, nil
}

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Append bumps the connection's last_seq under its row lock, then inserts the message in the same transaction.
func (r *MessageRepository) Append(ctx context.Context, m domain.Message) (domain.Message, error) {
	const bump = `UPDATE connections
		SET last_seq = last_seq + 1, last_message_at = GREATEST(COALESCE(last_message_at, $2), $2)
		WHERE id = $1
		RETURNING last_seq, last_message_at`
	const insert = `INSERT INTO messages (id, connection_id, seq, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	stored := m
	err := withRetry(ctx, func() error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			var seq int64
			if err := tx.QueryRow(ctx, bump, m.ConnectionID, m.CreatedAt).Scan(&seq, &stored.CreatedAt); err != nil {
				return err
			}
			stored.Seq = uint64(seq)
			stored.CreatedAt = stored.CreatedAt.UTC()
			_, err := tx.Exec(ctx, insert, stored.ID, stored.ConnectionID, seq, stored.SenderID, stored.Content, stored.CreatedAt)
			return err
		})
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", translate(err))
	}
	return stored, nil
}

func (r *MessageRepository) List(ctx context.Context, connectionID uuid.UUID, afterSeq uint64) ([]domain.Message, error) {
	const query = `SELECT id, connection_id, seq, sender_id, content, created_at FROM messages
		WHERE connection_id = $1 AND seq > $2 ORDER BY seq`
	rows, err := r.pool.Query(ctx, query, connectionID, int64(afterSeq))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var res []domain.Message
	for rows.Next() {
		var (
			m   domain.Message
			seq int64
		)
		if err := rows.Scan(&m.ID, &m.ConnectionID, &seq, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, translate(err)
		}
		m.Seq, m.CreatedAt = uint64(seq), m.CreatedAt.UTC()
		res = append(res, m)
	}
	return res, translate(rows.Err())
}

type MeetingRepository struct {
	pool *pgxpool.Pool
}

func NewMeetingRepository(pool *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

func (r *MeetingRepository) Save(ctx context.Context, m domain.Meeting) error {
	const query = `INSERT INTO meetings (id, connection_id, title, scheduled_at, join_url, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, m.ID, m.ConnectionID, m.Title, m.ScheduledAt, m.JoinURL, m.CreatedBy, m.CreatedAt)
	return translate(err)
}

func (r *MeetingRepository) List(ctx context.Context, connectionID uuid.UUID) ([]domain.Meeting, error) {
	const query = `SELECT id, connection_id, title, scheduled_at, join_url, created_by, created_at FROM meetings
		WHERE connection_id = $1 ORDER BY scheduled_at, id`
	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var res []domain.Meeting
	for rows.Next() {
		var m domain.Meeting
		if err := rows.Scan(&m.ID, &m.ConnectionID, &m.Title, &m.ScheduledAt, &m.JoinURL, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, translate(err)
		}
		m.ScheduledAt, m.CreatedAt = m.ScheduledAt.UTC(), m.CreatedAt.UTC()
		res = append(res, m)
	}
	return res, translate(rows.Err())
}

// withRetry reruns fn on serialization failures, deadlocks and unique races.
func withRetry(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if !retryable(err) {
			return err
		}
		if attempt == maxRetries {
			return fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		}
	}
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %v", errors.ErrNotFound, err)
	case pgconn.Timeout(err):
		return fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	default:
		return err
	}
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
