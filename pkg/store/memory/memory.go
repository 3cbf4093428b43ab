// Package memory implements store.Store over slices held in memory. It
// backs the engine tests and the CLI's fixture mode, and mirrors the
// filter semantics of the pgx implementation exactly, including the
// district-based chamber rule and window date bounds.
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/store"
)

// Data is the record set a Store serves. Slices are used as loaded;
// their order is preserved in query results, so fixtures control
// tie-breaking behavior downstream.
type Data struct {
	Members    []legis.Member
	Bills      []legis.Bill
	Rollcalls  []legis.Rollcall
	Votes      []legis.Vote
	Cosponsors []legis.Cosponsor
	Amendments []legis.Amendment
}

// Store serves a fixed Data set. It is read-only after construction and
// safe for concurrent use.
type Store struct {
	data Data

	memberByID map[string]legis.Member
	billByID   map[string]legis.Bill
}

var _ store.Store = (*Store)(nil)

// New returns a Store over data.
func New(data Data) *Store {
	s := &Store{
		data:       data,
		memberByID: make(map[string]legis.Member, len(data.Members)),
		billByID:   make(map[string]legis.Bill, len(data.Bills)),
	}
	for _, m := range data.Members {
		s.memberByID[m.ID] = m
	}
	for _, b := range data.Bills {
		s.billByID[b.ID] = b
	}
	return s
}

// Member fetches one member by ID.
func (s *Store) Member(_ context.Context, id string) (legis.Member, error) {
	m, ok := s.memberByID[id]
	if !ok {
		return legis.Member{}, fmt.Errorf("member %q: %w", id, store.ErrMemberNotFound)
	}
	return m, nil
}

// Members fetches the roster matching the filter, in fixture order.
func (s *Store) Members(_ context.Context, filter store.MemberFilter) ([]legis.Member, error) {
	out := make([]legis.Member, 0, len(s.data.Members))
	for _, m := range s.data.Members {
		if filter.Chamber != "" && m.Chamber() != filter.Chamber {
			continue
		}
		if filter.Party != "" && m.Party != filter.Party {
			continue
		}
		if filter.State != "" && m.State != filter.State {
			continue
		}
		if filter.ActiveDuring != nil && !serviceOverlaps(m, *filter.ActiveDuring) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// serviceOverlaps reports whether a member's service dates overlap the
// window's bounds. Nil dates are open on that side.
func serviceOverlaps(m legis.Member, w legis.Window) bool {
	if w.End != nil && m.Start != nil && m.Start.After(*w.End) {
		return false
	}
	if w.Start != nil && m.End != nil && m.End.Before(*w.Start) {
		return false
	}
	return true
}

// Rollcalls fetches the window's roll calls.
func (s *Store) Rollcalls(_ context.Context, window legis.Window) ([]legis.Rollcall, error) {
	out := make([]legis.Rollcall, 0)
	for _, rc := range s.data.Rollcalls {
		if rc.Congress != window.Congress || rc.Chamber != window.Chamber {
			continue
		}
		if !window.Contains(rc.Date) {
			continue
		}
		out = append(out, rc)
	}
	return out, nil
}

// RollcallsForBills fetches roll calls tied to the given bills.
func (s *Store) RollcallsForBills(_ context.Context, billIDs []string) ([]legis.Rollcall, error) {
	wanted := idSet(billIDs)
	out := make([]legis.Rollcall, 0)
	for _, rc := range s.data.Rollcalls {
		if rc.BillID == "" {
			continue
		}
		if _, ok := wanted[rc.BillID]; ok {
			out = append(out, rc)
		}
	}
	return out, nil
}

// Votes fetches all votes cast on the given roll calls.
func (s *Store) Votes(_ context.Context, rollcallIDs []string) ([]legis.Vote, error) {
	wanted := idSet(rollcallIDs)
	out := make([]legis.Vote, 0)
	for _, v := range s.data.Votes {
		if _, ok := wanted[v.RollcallID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Bills fetches the window's bills.
func (s *Store) Bills(_ context.Context, window legis.Window) ([]legis.Bill, error) {
	out := make([]legis.Bill, 0)
	for _, b := range s.data.Bills {
		if b.Congress != window.Congress || b.Chamber != window.Chamber {
			continue
		}
		if !window.Contains(b.IntroducedDate) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Bill fetches one bill by ID.
func (s *Store) Bill(_ context.Context, id string) (legis.Bill, error) {
	b, ok := s.billByID[id]
	if !ok {
		return legis.Bill{}, fmt.Errorf("bill %q: %w", id, store.ErrBillNotFound)
	}
	return b, nil
}

// SimilarBills fetches bills sharing the given bill's policy area or any
// subject term, case-insensitively, excluding the bill itself.
func (s *Store) SimilarBills(_ context.Context, bill legis.Bill) ([]legis.Bill, error) {
	subjects := make(map[string]struct{}, len(bill.Subjects))
	for _, term := range bill.Subjects {
		subjects[strings.ToLower(strings.TrimSpace(term))] = struct{}{}
	}
	policy := strings.ToLower(strings.TrimSpace(bill.PolicyArea))

	out := make([]legis.Bill, 0)
	for _, b := range s.data.Bills {
		if b.ID == bill.ID {
			continue
		}
		if matchesIssue(b, policy, subjects) {
			out = append(out, b)
		}
	}
	return out, nil
}

func matchesIssue(b legis.Bill, policy string, subjects map[string]struct{}) bool {
	if policy != "" && strings.ToLower(strings.TrimSpace(b.PolicyArea)) == policy {
		return true
	}
	for _, term := range b.Subjects {
		if _, ok := subjects[strings.ToLower(strings.TrimSpace(term))]; ok {
			return true
		}
	}
	return false
}

// Cosponsors fetches the cosponsorships of the given bills.
func (s *Store) Cosponsors(_ context.Context, billIDs []string) ([]legis.Cosponsor, error) {
	wanted := idSet(billIDs)
	out := make([]legis.Cosponsor, 0)
	for _, c := range s.data.Cosponsors {
		if _, ok := wanted[c.BillID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// CosponsorshipHistory fetches every cosponsorship by members of the
// chamber, joined with the member's and the bill sponsor's parties.
// Records whose bill or sponsor is unknown carry an empty sponsor party.
func (s *Store) CosponsorshipHistory(_ context.Context, chamber legis.Chamber) ([]store.CosponsorshipRecord, error) {
	out := make([]store.CosponsorshipRecord, 0)
	for _, c := range s.data.Cosponsors {
		m, ok := s.memberByID[c.MemberID]
		if !ok || m.Chamber() != chamber {
			continue
		}
		rec := store.CosponsorshipRecord{
			MemberID:    c.MemberID,
			MemberParty: m.Party,
		}
		if b, ok := s.billByID[c.BillID]; ok && b.SponsorID != "" {
			if sponsor, ok := s.memberByID[b.SponsorID]; ok {
				rec.SponsorParty = sponsor.Party
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Amendments fetches amendments attached to the window's bills whose own
// introduction dates fall inside the window.
func (s *Store) Amendments(_ context.Context, window legis.Window) ([]legis.Amendment, error) {
	out := make([]legis.Amendment, 0)
	for _, a := range s.data.Amendments {
		b, ok := s.billByID[a.BillID]
		if !ok || b.Congress != window.Congress || b.Chamber != window.Chamber {
			continue
		}
		if !window.Contains(a.IntroducedDate) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}
