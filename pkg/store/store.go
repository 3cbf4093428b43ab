// Package store defines the query capabilities the analysis engine
// consumes. The engine only ever reads; writes to the legislative
// corpus happen in the ingestion pipeline, outside this system.
package store

import (
	"context"
	"errors"

	"github.com/civicsignal/legisnet/pkg/legis"
)

var (
	// ErrBillNotFound is returned by Bill for an unknown identifier.
	// The vote predictor cannot proceed without sponsor and cosponsor
	// context, so this surfaces as a distinct fatal condition instead
	// of an empty result.
	ErrBillNotFound = errors.New("bill not found")

	// ErrMemberNotFound is returned by Member for an unknown
	// identifier.
	ErrMemberNotFound = errors.New("member not found")
)

// MemberFilter narrows a member roster fetch. Zero-valued fields do
// not filter. ActiveDuring keeps members whose service overlaps the
// window's date bounds: service must have started by the window's end,
// and must not have ended before the window's start.
type MemberFilter struct {
	Chamber      legis.Chamber
	Party        string
	State        string
	ActiveDuring *legis.Window
}

// CosponsorshipRecord is one historical cosponsorship joined with the
// parties the cross-party propensity signal needs.
type CosponsorshipRecord struct {
	MemberID     string
	MemberParty  string
	SponsorParty string
}

// Store is the read model over the legislative corpus. All methods are
// safe for concurrent use; every analysis invocation reads a fresh,
// independent snapshot of whatever the underlying store holds.
type Store interface {
	// Member fetches one member, ErrMemberNotFound when absent.
	Member(ctx context.Context, id string) (legis.Member, error)
	// Members fetches the roster matching the filter.
	Members(ctx context.Context, filter MemberFilter) ([]legis.Member, error)

	// Rollcalls fetches the roll calls of the window's congress and
	// chamber, restricted to its date bounds.
	Rollcalls(ctx context.Context, window legis.Window) ([]legis.Rollcall, error)
	// RollcallsForBills fetches every roll call tied to one of the
	// given bills, any congress.
	RollcallsForBills(ctx context.Context, billIDs []string) ([]legis.Rollcall, error)
	// Votes fetches all votes cast on the given roll calls.
	Votes(ctx context.Context, rollcallIDs []string) ([]legis.Vote, error)

	// Bills fetches the window's bills with subjects populated.
	Bills(ctx context.Context, window legis.Window) ([]legis.Bill, error)
	// Bill fetches one bill with subjects, ErrBillNotFound when absent.
	Bill(ctx context.Context, id string) (legis.Bill, error)
	// SimilarBills fetches bills sharing the given bill's policy area
	// or any of its subject terms (case-insensitive), excluding the
	// bill itself.
	SimilarBills(ctx context.Context, bill legis.Bill) ([]legis.Bill, error)

	// Cosponsors fetches the cosponsorships of the given bills.
	Cosponsors(ctx context.Context, billIDs []string) ([]legis.Cosponsor, error)
	// CosponsorshipHistory fetches every cosponsorship by members of
	// the chamber, joined with member and bill-sponsor parties.
	CosponsorshipHistory(ctx context.Context, chamber legis.Chamber) ([]CosponsorshipRecord, error)

	// Amendments fetches amendments attached to the window's bills
	// whose own introduction dates fall inside the window.
	Amendments(ctx context.Context, window legis.Window) ([]legis.Amendment, error)
}
