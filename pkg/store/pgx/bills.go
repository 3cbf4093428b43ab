package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/store"
)

const billColumns = `bill_id, congress, chamber, number, type, COALESCE(title, ''),
introduced_date, COALESCE(sponsor_bioguide, ''), COALESCE(policy_area, '')`

// Bills fetches the window's bills with subjects populated.
func (s *Store) Bills(ctx context.Context, window legis.Window) ([]legis.Bill, error) {
	args := []any{window.Congress, string(window.Chamber)}
	query := `SELECT ` + billColumns + ` FROM bills WHERE congress = $1 AND chamber = $2`
	if window.Start != nil {
		args = append(args, *window.Start)
		query += fmt.Sprintf(" AND introduced_date >= $%d", len(args))
	}
	if window.End != nil {
		args = append(args, *window.End)
		query += fmt.Sprintf(" AND introduced_date <= $%d", len(args))
	}
	query += " ORDER BY introduced_date, bill_id"

	bills, err := s.queryBills(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := s.attachSubjects(ctx, bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// Bill fetches one bill with subjects, store.ErrBillNotFound when
// absent.
func (s *Store) Bill(ctx context.Context, id string) (legis.Bill, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE bill_id = $1`, id)
	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return legis.Bill{}, fmt.Errorf("bill %q: %w", id, store.ErrBillNotFound)
		}
		return legis.Bill{}, fmt.Errorf("query bill: %w", err)
	}
	bills := []legis.Bill{b}
	if err := s.attachSubjects(ctx, bills); err != nil {
		return legis.Bill{}, err
	}
	return bills[0], nil
}

// SimilarBills fetches bills sharing the given bill's policy area or
// any of its subject terms, case-insensitively, excluding the bill
// itself.
func (s *Store) SimilarBills(ctx context.Context, bill legis.Bill) ([]legis.Bill, error) {
	policy := strings.ToLower(strings.TrimSpace(bill.PolicyArea))
	terms := make([]string, 0, len(bill.Subjects))
	for _, term := range bill.Subjects {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			terms = append(terms, t)
		}
	}
	if policy == "" && len(terms) == 0 {
		return nil, nil
	}

	bills, err := s.queryBills(ctx, `
SELECT `+billColumns+` FROM bills
WHERE bill_id <> $1
  AND (($2 <> '' AND LOWER(policy_area) = $2)
    OR bill_id IN (
      SELECT bill_id FROM bill_subjects WHERE LOWER(TRIM(subject_term)) = ANY($3)
    ))
ORDER BY introduced_date, bill_id`, bill.ID, policy, terms)
	if err != nil {
		return nil, err
	}
	if err := s.attachSubjects(ctx, bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// Cosponsors fetches the cosponsorships of the given bills.
func (s *Store) Cosponsors(ctx context.Context, billIDs []string) ([]legis.Cosponsor, error) {
	ids := store.DedupeStrings(billIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
SELECT bill_id, member_id_bioguide, date, COALESCE(is_original, false)
FROM cosponsors
WHERE bill_id = ANY($1)
ORDER BY date, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query cosponsors: %w", err)
	}
	defer rows.Close()

	out := make([]legis.Cosponsor, 0)
	for rows.Next() {
		var c legis.Cosponsor
		if err := rows.Scan(&c.BillID, &c.MemberID, &c.Date, &c.IsOriginal); err != nil {
			return nil, fmt.Errorf("scan cosponsor: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CosponsorshipHistory fetches every cosponsorship by members of the
// chamber, joined with member and bill-sponsor parties. Cosponsorships
// of bills with no resolvable sponsor carry an empty sponsor party.
func (s *Store) CosponsorshipHistory(ctx context.Context, chamber legis.Chamber) ([]store.CosponsorshipRecord, error) {
	districtCond := "m.district IS NULL"
	if chamber == legis.ChamberHouse {
		districtCond = "m.district IS NOT NULL"
	}
	rows, err := s.db.Query(ctx, `
SELECT c.member_id_bioguide, COALESCE(m.party, ''), COALESCE(sp.party, '')
FROM cosponsors c
JOIN members m ON m.member_id_bioguide = c.member_id_bioguide
LEFT JOIN bills b ON b.bill_id = c.bill_id
LEFT JOIN members sp ON sp.member_id_bioguide = b.sponsor_bioguide
WHERE `+districtCond+`
ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("query cosponsorship history: %w", err)
	}
	defer rows.Close()

	out := make([]store.CosponsorshipRecord, 0)
	for rows.Next() {
		var rec store.CosponsorshipRecord
		if err := rows.Scan(&rec.MemberID, &rec.MemberParty, &rec.SponsorParty); err != nil {
			return nil, fmt.Errorf("scan cosponsorship record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Amendments fetches amendments attached to the window's bills whose
// own introduction dates fall inside the window.
func (s *Store) Amendments(ctx context.Context, window legis.Window) ([]legis.Amendment, error) {
	args := []any{window.Congress, string(window.Chamber)}
	query := `
SELECT a.amendment_id, a.bill_id, COALESCE(a.sponsor_bioguide, ''),
       COALESCE(a.type, ''), COALESCE(a.purpose, ''), a.introduced_date
FROM amendments a
JOIN bills b ON b.bill_id = a.bill_id
WHERE b.congress = $1 AND b.chamber = $2`
	if window.Start != nil {
		args = append(args, *window.Start)
		query += fmt.Sprintf(" AND a.introduced_date >= $%d", len(args))
	}
	if window.End != nil {
		args = append(args, *window.End)
		query += fmt.Sprintf(" AND a.introduced_date <= $%d", len(args))
	}
	query += " ORDER BY a.introduced_date, a.amendment_id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query amendments: %w", err)
	}
	defer rows.Close()

	out := make([]legis.Amendment, 0)
	for rows.Next() {
		var a legis.Amendment
		if err := rows.Scan(&a.ID, &a.BillID, &a.SponsorID, &a.Type, &a.Purpose, &a.IntroducedDate); err != nil {
			return nil, fmt.Errorf("scan amendment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) queryBills(ctx context.Context, query string, args ...any) ([]legis.Bill, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	out := make([]legis.Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// attachSubjects loads bill_subjects for bills in place. Rows come back
// in insertion order so subject tie-breaking stays stable.
func (s *Store) attachSubjects(ctx context.Context, bills []legis.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	ids := make([]string, len(bills))
	index := make(map[string]int, len(bills))
	for i := range bills {
		ids[i] = bills[i].ID
		index[bills[i].ID] = i
	}

	rows, err := s.db.Query(ctx, `
SELECT bill_id, subject_term
FROM bill_subjects
WHERE bill_id = ANY($1)
ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("query bill subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var billID, term string
		if err := rows.Scan(&billID, &term); err != nil {
			return fmt.Errorf("scan bill subject: %w", err)
		}
		if i, ok := index[billID]; ok {
			bills[i].Subjects = append(bills[i].Subjects, term)
		}
	}
	return rows.Err()
}

func scanBill(row rowScanner) (legis.Bill, error) {
	var b legis.Bill
	var chamber string
	err := row.Scan(&b.ID, &b.Congress, &chamber, &b.Number, &b.Type,
		&b.Title, &b.IntroducedDate, &b.SponsorID, &b.PolicyArea)
	b.Chamber = legis.Chamber(chamber)
	return b, err
}
