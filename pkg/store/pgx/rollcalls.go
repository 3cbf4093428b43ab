package pgx

import (
	"context"
	"fmt"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/store"
)

const rollcallColumns = `rollcall_id, congress, chamber, session, rc_number, date,
COALESCE(question, ''), COALESCE(bill_id, '')`

// Rollcalls fetches the window's roll calls.
func (s *Store) Rollcalls(ctx context.Context, window legis.Window) ([]legis.Rollcall, error) {
	args := []any{window.Congress, string(window.Chamber)}
	query := `SELECT ` + rollcallColumns + ` FROM rollcalls WHERE congress = $1 AND chamber = $2`
	if window.Start != nil {
		args = append(args, *window.Start)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if window.End != nil {
		args = append(args, *window.End)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date, rollcall_id"

	return s.queryRollcalls(ctx, query, args...)
}

// RollcallsForBills fetches every roll call tied to one of the given
// bills, any congress.
func (s *Store) RollcallsForBills(ctx context.Context, billIDs []string) ([]legis.Rollcall, error) {
	ids := store.DedupeStrings(billIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryRollcalls(ctx,
		`SELECT `+rollcallColumns+` FROM rollcalls WHERE bill_id = ANY($1) ORDER BY date, rollcall_id`,
		ids)
}

// Votes fetches all votes cast on the given roll calls.
func (s *Store) Votes(ctx context.Context, rollcallIDs []string) ([]legis.Vote, error) {
	ids := store.DedupeStrings(rollcallIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
SELECT rollcall_id, member_id_bioguide, vote_code
FROM votes
WHERE rollcall_id = ANY($1)
ORDER BY rollcall_id, member_id_bioguide`, ids)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	out := make([]legis.Vote, 0)
	for rows.Next() {
		var v legis.Vote
		var code string
		if err := rows.Scan(&v.RollcallID, &v.MemberID, &code); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.Code = legis.VoteCode(code)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) queryRollcalls(ctx context.Context, query string, args ...any) ([]legis.Rollcall, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rollcalls: %w", err)
	}
	defer rows.Close()

	out := make([]legis.Rollcall, 0)
	for rows.Next() {
		var rc legis.Rollcall
		var chamber string
		if err := rows.Scan(&rc.ID, &rc.Congress, &chamber, &rc.Session, &rc.Number,
			&rc.Date, &rc.Question, &rc.BillID); err != nil {
			return nil, fmt.Errorf("scan rollcall: %w", err)
		}
		rc.Chamber = legis.Chamber(chamber)
		out = append(out, rc)
	}
	return out, rows.Err()
}
