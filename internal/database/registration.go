package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
)

// RegistrationRepo implements domain.RegistrationRepo
type RegistrationRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewRegistrationRepo creates a new registration repository
func NewRegistrationRepo(log zerolog.Logger, db *DB) domain.RegistrationRepo {
	return &RegistrationRepo{
		log: log.With().Str("repo", "registration").Logger(),
		db:  db,
	}
}

// Create inserts a new registration
func (r *RegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}

	queryBuilder := r.db.squirrel.
		Insert("registrations").
		Columns("install_id", "generation", "origin", "state", "created_at").
		Values(reg.InstallID, reg.Generation, reg.Origin, string(reg.State), formatTime(reg.CreatedAt))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Create")

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// UpdateState moves a registration to state. Activation stamps activated_at.
func (r *RegistrationRepo) UpdateState(ctx context.Context, installID string, state domain.WorkerState) error {
	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	queryBuilder := r.db.squirrel.
		Update("registrations").
		Set("state", string(state)).
		Where(sq.Eq{"install_id": installID})

	if state == domain.StateActivated {
		queryBuilder = queryBuilder.Set("activated_at", formatTime(time.Now()))
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("UpdateState")

	res, err := r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "error reading affected rows")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "registration %s", installID)
	}

	return nil
}

// Active returns the latest activated registration
func (r *RegistrationRepo) Active(ctx context.Context) (*domain.Registration, error) {
	regs, err := r.list(ctx, sq.Eq{"state": string(domain.StateActivated)}, "activated_at DESC", 1)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, nil
	}
	return regs[0], nil
}

// List returns every registration, newest first
func (r *RegistrationRepo) List(ctx context.Context) ([]*domain.Registration, error) {
	return r.list(ctx, nil, "created_at DESC", 0)
}

func (r *RegistrationRepo) list(ctx context.Context, where sq.Sqlizer, order string, limit uint64) ([]*domain.Registration, error) {
	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	queryBuilder := r.db.squirrel.
		Select("install_id", "generation", "origin", "state", "created_at", "activated_at").
		From("registrations").
		OrderBy(order, "install_id DESC")

	if where != nil {
		queryBuilder = queryBuilder.Where(where)
	}
	if limit > 0 {
		queryBuilder = queryBuilder.Limit(limit)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("list")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		var (
			reg         = &domain.Registration{}
			state       string
			createdAt   string
			activatedAt sql.NullString
		)
		if err := rows.Scan(&reg.InstallID, &reg.Generation, &reg.Origin, &state, &createdAt, &activatedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		reg.State = domain.WorkerState(state)
		reg.CreatedAt = parseTime(createdAt)
		if activatedAt.Valid {
			t := parseTime(activatedAt.String)
			reg.ActivatedAt = &t
		}
		regs = append(regs, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return regs, nil
}
