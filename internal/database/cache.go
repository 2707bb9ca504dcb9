package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
)

// CacheRepo implements domain.CacheStorage on top of SQLite
type CacheRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewCacheRepo creates a new cache repository
func NewCacheRepo(log zerolog.Logger, db *DB) *CacheRepo {
	return &CacheRepo{
		log: log.With().Str("repo", "cache").Logger(),
		db:  db,
	}
}

var _ domain.CacheStorage = (*CacheRepo)(nil)

// Open creates the partition if it does not exist
func (r *CacheRepo) Open(ctx context.Context, partition string) error {
	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.openTx(ctx, tx, partition); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "error committing transaction")
}

func (r *CacheRepo) openTx(ctx context.Context, tx *Tx, partition string) error {
	queryBuilder := r.db.squirrel.
		Insert("cache_partitions").
		Options("OR IGNORE").
		Columns("name", "created_at").
		Values(partition, formatTime(time.Now()))

	_, err := tx.exec(ctx, queryBuilder)
	return errors.Wrapf(err, "failed to open partition %s", partition)
}

// Put stores a full copy of resp, replacing any previous entry for key
func (r *CacheRepo) Put(ctx context.Context, partition string, key domain.CacheKey, resp *domain.CachedResponse) error {
	return r.PutAll(ctx, partition, []domain.CacheEntry{{Key: key, Response: resp}})
}

// PutAll writes every entry in a single transaction
func (r *CacheRepo) PutAll(ctx context.Context, partition string, entries []domain.CacheEntry) error {
	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.openTx(ctx, tx, partition); err != nil {
		return err
	}

	for _, e := range entries {
		headers, err := json.Marshal(e.Response.Header)
		if err != nil {
			return errors.Wrap(err, "failed to marshal headers")
		}

		cachedAt := e.Response.CachedAt
		if cachedAt.IsZero() {
			cachedAt = time.Now()
		}

		body := e.Response.Body
		if body == nil {
			body = []byte{}
		}

		queryBuilder := r.db.squirrel.
			Replace("cache_entries").
			Columns("partition_name", "method", "url", "status", "headers", "body", "cached_at").
			Values(partition, e.Key.Method, e.Key.URL, e.Response.Status, string(headers), body, formatTime(cachedAt))

		if _, err := tx.exec(ctx, queryBuilder); err != nil {
			return errors.Wrapf(err, "failed to store %s", e.Key.URL)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "error committing transaction")
	}

	r.log.Trace().Str("partition", partition).Int("count", len(entries)).Msg("stored entries")
	return nil
}

// Match returns the entry for key from the first partition, in the given
// order, that holds it
func (r *CacheRepo) Match(ctx context.Context, partitions []string, key domain.CacheKey) (*domain.CachedResponse, error) {
	if len(partitions) == 0 {
		return nil, nil
	}

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	queryBuilder := r.db.squirrel.
		Select("partition_name", "status", "headers", "body", "cached_at").
		From("cache_entries").
		Where(sq.Eq{
			"method":         key.Method,
			"url":            key.URL,
			"partition_name": partitions,
		})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Match")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	found := make(map[string]*domain.CachedResponse, len(partitions))
	for rows.Next() {
		var (
			partition string
			headers   string
			cachedAt  string
			resp      = &domain.CachedResponse{}
		)
		if err := rows.Scan(&partition, &resp.Status, &headers, &resp.Body, &cachedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}

		resp.Header = http.Header{}
		if err := json.Unmarshal([]byte(headers), &resp.Header); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal headers")
		}
		resp.CachedAt = parseTime(cachedAt)
		found[partition] = resp
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	for _, p := range partitions {
		if resp, ok := found[p]; ok {
			return resp, nil
		}
	}

	return nil, nil
}

func (r *CacheRepo) MatchIn(ctx context.Context, partition string, key domain.CacheKey) (*domain.CachedResponse, error) {
	return r.Match(ctx, []string{partition}, key)
}

// Keys lists partition names in creation order
func (r *CacheRepo) Keys(ctx context.Context) ([]string, error) {
	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	queryBuilder := r.db.squirrel.
		Select("name").
		From("cache_partitions").
		OrderBy("created_at", "name")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return names, nil
}

// Delete drops a partition and all of its entries
func (r *CacheRepo) Delete(ctx context.Context, partition string) (bool, error) {
	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.exec(ctx, r.db.squirrel.Delete("cache_entries").Where(sq.Eq{"partition_name": partition})); err != nil {
		return false, errors.Wrapf(err, "failed to delete entries of %s", partition)
	}

	res, err := tx.exec(ctx, r.db.squirrel.Delete("cache_partitions").Where(sq.Eq{"name": partition}))
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete partition %s", partition)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "error reading affected rows")
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "error committing transaction")
	}

	return n > 0, nil
}

// Stats reports entry count and body size per partition
func (r *CacheRepo) Stats(ctx context.Context) ([]domain.PartitionStats, error) {
	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	queryBuilder := r.db.squirrel.
		Select("p.name", "COUNT(e.url)", "COALESCE(SUM(LENGTH(e.body)), 0)").
		From("cache_partitions p").
		LeftJoin("cache_entries e ON e.partition_name = p.name").
		GroupBy("p.name").
		OrderBy("p.created_at", "p.name")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var stats []domain.PartitionStats
	for rows.Next() {
		var s domain.PartitionStats
		var size sql.NullInt64
		if err := rows.Scan(&s.Name, &s.Entries, &size); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		s.Bytes = size.Int64
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return stats, nil
}
