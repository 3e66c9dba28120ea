package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"regionchatbot/internal/core"
	"regionchatbot/pkg/database"
)

type UserRepository struct {
	DB *database.DB

	q   queries
	now func() time.Time
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{
		DB:  db,
		q:   queriesFor(db.Dialect),
		now: time.Now,
	}
}

// Unlink describes a dissolved pairing.
type Unlink struct {
	PartnerID int64
	// Reciprocal is false when the partner row was missing or no longer
	// pointed back at the requester.
	Reciprocal bool
}

type RegionStats struct {
	Region  core.Region
	Users   int64
	Paired  int64
	Premium int64
}

type Stats struct {
	Total   int64
	Paired  int64
	Premium int64
	Regions []RegionStats
}

func (r *UserRepository) timestamp() int64 {
	return r.now().UnixMicro()
}

func scanUser(row interface{ Scan(dest ...any) error }) (*core.User, error) {
	var (
		u                  core.User
		region             string
		partner            sql.NullInt64
		lastActive, create int64
	)
	if err := row.Scan(&u.ID, &region, &u.LanguageCode, &u.Premium, &partner, &lastActive, &create); err != nil {
		return nil, err
	}
	u.Region = core.Region(region)
	if partner.Valid {
		id := partner.Int64
		u.PartnerID = &id
	}
	u.LastActiveAt = time.UnixMicro(lastActive).UTC()
	u.CreatedAt = time.UnixMicro(create).UTC()
	return &u, nil
}

func (r *UserRepository) getByID(ctx context.Context, db DBTX, query string, id int64) (*core.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching user %d: %w", id, err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*core.User, error) {
	return r.getByID(ctx, r.DB.SQL, r.q.selectUser, id)
}

// GetOrCreate returns the stored user or inserts a new idle one whose region
// is resolved from languageHint. A concurrent insert of the same id is
// resolved by reading back the winner's row.
func (r *UserRepository) GetOrCreate(ctx context.Context, id int64, languageHint string) (*core.User, error) {
	u, err := r.GetByID(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	ts := r.timestamp()
	_, err = r.DB.SQL.ExecContext(ctx, insertUserQuery, id, string(core.ResolveRegion(languageHint)), languageHint, ts, ts)
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("error creating user %d: %w", id, err)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) SetRegion(ctx context.Context, id int64, region core.Region) error {
	if !region.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidRegion, region)
	}
	return r.execOne(ctx, setRegionQuery, id, string(region), r.timestamp())
}

func (r *UserRepository) SetPremium(ctx context.Context, id int64, premium bool) error {
	return r.execOne(ctx, setPremiumQuery, id, premium)
}

func (r *UserRepository) TouchActivity(ctx context.Context, id int64) error {
	return r.execOne(ctx, touchQuery, id, r.timestamp())
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.SQL.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating user %v: %w", args[0], err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Pair links id with the longest-idle user of the same region inside one
// transaction and returns the partner's snapshot. A non-zero exclude is never
// chosen. Conflicts with a concurrent pairing are reported as ErrConflict.
func (r *UserRepository) Pair(ctx context.Context, id, exclude int64) (*core.User, error) {
	var partner *core.User

	err := WithTx(ctx, r.DB.SQL, func(ctx context.Context, tx DBTX) error {
		me, err := r.getByID(ctx, tx, r.q.selectUser, id)
		if err != nil {
			return err
		}
		if me.IsPaired() {
			return core.ErrAlreadyPaired
		}

		candidate, err := scanUser(tx.QueryRowContext(ctx, r.q.lockCandidate, id, string(me.Region), exclude))
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNoCandidate
		}
		if err != nil {
			return err
		}

		for _, link := range [][2]int64{{id, candidate.ID}, {candidate.ID, id}} {
			res, err := tx.ExecContext(ctx, linkQuery, link[0], link[1])
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n != 1 {
				return ErrConflict
			}
		}

		partnerID := id
		candidate.PartnerID = &partnerID
		partner = candidate
		return nil
	})

	switch {
	case err == nil:
		return partner, nil
	case errors.Is(err, core.ErrAlreadyPaired), errors.Is(err, core.ErrNoCandidate),
		errors.Is(err, core.ErrNotFound), errors.Is(err, ErrConflict):
		return nil, err
	case isRetryable(err):
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return nil, fmt.Errorf("error pairing user %d: %w", id, err)
	}
}

// Unpair clears the requester's partner link and, when it still points back,
// the partner's. Returns ErrNotPaired for an idle requester.
func (r *UserRepository) Unpair(ctx context.Context, id int64) (*Unlink, error) {
	var unlink *Unlink

	err := WithTx(ctx, r.DB.SQL, func(ctx context.Context, tx DBTX) error {
		me, err := r.getByID(ctx, tx, r.q.lockUser, id)
		if err != nil {
			return err
		}
		if !me.IsPaired() {
			return core.ErrNotPaired
		}

		partnerID := me.Partner()
		ts := r.timestamp()
		if _, err := tx.ExecContext(ctx, unlinkQuery, id, partnerID, ts); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, unlinkQuery, partnerID, id, ts)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		unlink = &Unlink{PartnerID: partnerID, Reciprocal: n == 1}
		return nil
	})

	if err != nil {
		if errors.Is(err, core.ErrNotPaired) || errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error unpairing user %d: %w", id, err)
	}
	return unlink, nil
}

// BreakPair undoes a pairing between a and b. Links that no longer point at
// each other are left untouched.
func (r *UserRepository) BreakPair(ctx context.Context, a, b int64) error {
	if _, err := r.DB.SQL.ExecContext(ctx, breakPairQuery, a, b); err != nil {
		return fmt.Errorf("error breaking pair %d/%d: %w", a, b, err)
	}
	return nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.SQL.QueryRowContext(ctx, countUsersQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) Stats(ctx context.Context) (*Stats, error) {
	rows, err := r.DB.SQL.QueryContext(ctx, regionStatsQuery)
	if err != nil {
		return nil, fmt.Errorf("error fetching stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var (
			rs     RegionStats
			region string
		)
		if err := rows.Scan(&region, &rs.Users, &rs.Paired, &rs.Premium); err != nil {
			return nil, fmt.Errorf("error scanning stats: %w", err)
		}
		rs.Region = core.Region(region)
		stats.Total += rs.Users
		stats.Paired += rs.Paired
		stats.Premium += rs.Premium
		stats.Regions = append(stats.Regions, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error fetching stats: %w", err)
	}
	return stats, nil
}
