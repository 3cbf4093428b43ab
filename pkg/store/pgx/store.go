// Package pgx implements store.Store over a Postgres corpus using
// hand-written SQL on a pgx connection pool. The corpus schema
// (members, bills, bill_subjects, cosponsors, amendments, rollcalls,
// votes) is maintained by the ingestion pipeline; this package only
// reads it.
package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/store"
)

type dbConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads the legislative corpus from Postgres.
type Store struct {
	db dbConn
}

var _ store.Store = (*Store)(nil)

// New returns a Store over pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

const memberColumns = `member_id_bioguide, COALESCE(first, ''), COALESCE(last, ''),
COALESCE(party, ''), COALESCE(state, ''), district, start_date, end_date`

// Member fetches one member, store.ErrMemberNotFound when absent.
func (s *Store) Member(ctx context.Context, id string) (legis.Member, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE member_id_bioguide = $1`, id)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return legis.Member{}, fmt.Errorf("member %q: %w", id, store.ErrMemberNotFound)
		}
		return legis.Member{}, fmt.Errorf("query member: %w", err)
	}
	return m, nil
}

// Members fetches the roster matching the filter. Chamber filtering
// uses the district rule: House members have a district, senators do
// not.
func (s *Store) Members(ctx context.Context, filter store.MemberFilter) ([]legis.Member, error) {
	conditions := make([]string, 0, 6)
	args := make([]any, 0, 6)

	switch filter.Chamber {
	case legis.ChamberHouse:
		conditions = append(conditions, "district IS NOT NULL")
	case legis.ChamberSenate:
		conditions = append(conditions, "district IS NULL")
	}
	if filter.Party != "" {
		args = append(args, filter.Party)
		conditions = append(conditions, fmt.Sprintf("party = $%d", len(args)))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)))
	}
	if w := filter.ActiveDuring; w != nil {
		if w.End != nil {
			args = append(args, *w.End)
			conditions = append(conditions, fmt.Sprintf("(start_date IS NULL OR start_date <= $%d)", len(args)))
		}
		if w.Start != nil {
			args = append(args, *w.Start)
			conditions = append(conditions, fmt.Sprintf("(end_date IS NULL OR end_date >= $%d)", len(args)))
		}
	}

	query := `SELECT ` + memberColumns + ` FROM members`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY member_id_bioguide"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	out := make([]legis.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (legis.Member, error) {
	var m legis.Member
	err := row.Scan(&m.ID, &m.First, &m.Last, &m.Party, &m.State, &m.District, &m.Start, &m.End)
	return m, err
}
