// Package legis defines the legislative domain records the analysis
// engine operates on. The types mirror the persisted corpus one to one:
// members, bills, roll calls, votes, cosponsorships, and amendments.
// They carry no behavior beyond small derived accessors and are treated
// as immutable for the duration of an analysis run.
package legis

import "time"

// Chamber identifies one house of the legislature. The zero value is
// invalid; use ChamberHouse or ChamberSenate.
type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

// Display returns the human-readable chamber name used in exported
// documents.
func (c Chamber) Display() string {
	switch c {
	case ChamberHouse:
		return "House"
	case ChamberSenate:
		return "Senate"
	default:
		return string(c)
	}
}

// Valid reports whether c is one of the two known chambers.
func (c Chamber) Valid() bool {
	return c == ChamberHouse || c == ChamberSenate
}

// VoteCode is the recorded position of one member on one roll call.
type VoteCode string

const (
	VoteYea       VoteCode = "Yea"
	VoteNay       VoteCode = "Nay"
	VotePresent   VoteCode = "Present"
	VoteNotVoting VoteCode = "Not Voting"
)

// Countable reports whether the code participates in agreement and
// party-position computations. Only Yea and Nay count; Present and
// Not Voting are excluded everywhere.
func (v VoteCode) Countable() bool {
	return v == VoteYea || v == VoteNay
}

// Member is one legislator. ID is the stable bioguide-style key used
// throughout the corpus. Party is "D", "R", "I", or empty when unknown.
// District is set for House members and nil for senators; that rule is
// the chamber-seat indicator for the whole system.
type Member struct {
	ID       string     `json:"member_id"`
	First    string     `json:"first"`
	Last     string     `json:"last"`
	Party    string     `json:"party"`
	State    string     `json:"state"`
	District *int       `json:"district,omitempty"`
	Start    *time.Time `json:"start_date,omitempty"`
	End      *time.Time `json:"end_date,omitempty"`
}

// Chamber derives the member's chamber from the district rule.
func (m Member) Chamber() Chamber {
	if m.District != nil {
		return ChamberHouse
	}
	return ChamberSenate
}

// FullName returns "First Last" with missing parts omitted.
func (m Member) FullName() string {
	switch {
	case m.First == "":
		return m.Last
	case m.Last == "":
		return m.First
	default:
		return m.First + " " + m.Last
	}
}

// Bill is one measure. SponsorID is empty when the sponsor is unknown.
// Subjects holds the legislative subject terms attached to the bill;
// PolicyArea is the single top-level category and may be empty.
type Bill struct {
	ID             string    `json:"bill_id"`
	Congress       int       `json:"congress"`
	Chamber        Chamber   `json:"chamber"`
	Number         int       `json:"number"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	IntroducedDate time.Time `json:"introduced_date"`
	SponsorID      string    `json:"sponsor_id,omitempty"`
	PolicyArea     string    `json:"policy_area,omitempty"`
	Subjects       []string  `json:"subjects,omitempty"`
}

// Rollcall is one recorded vote event. BillID is empty for roll calls
// not tied to a measure (procedural votes, nominations).
type Rollcall struct {
	ID       string    `json:"rollcall_id"`
	Congress int       `json:"congress"`
	Chamber  Chamber   `json:"chamber"`
	Session  int       `json:"session"`
	Number   int       `json:"number"`
	Date     time.Time `json:"date"`
	Question string    `json:"question,omitempty"`
	BillID   string    `json:"bill_id,omitempty"`
}

// Vote is one member's position on one roll call.
type Vote struct {
	RollcallID string   `json:"rollcall_id"`
	MemberID   string   `json:"member_id"`
	Code       VoteCode `json:"vote_code"`
}

// Cosponsor is a member's formal attachment to a bill, distinct from
// primary sponsorship.
type Cosponsor struct {
	BillID     string    `json:"bill_id"`
	MemberID   string    `json:"member_id"`
	Date       time.Time `json:"date"`
	IsOriginal bool      `json:"is_original"`
}

// Amendment is one amendment offered against a bill. SponsorID is empty
// when unknown.
type Amendment struct {
	ID             string    `json:"amendment_id"`
	BillID         string    `json:"bill_id"`
	SponsorID      string    `json:"sponsor_id,omitempty"`
	Type           string    `json:"type,omitempty"`
	Purpose        string    `json:"purpose,omitempty"`
	IntroducedDate time.Time `json:"introduced_date"`
}

// Window bounds one analysis run: a congress, a chamber, and optional
// date limits. A nil bound is open on that side.
type Window struct {
	Congress int        `json:"congress"`
	Chamber  Chamber    `json:"chamber"`
	Start    *time.Time `json:"start_date,omitempty"`
	End      *time.Time `json:"end_date,omitempty"`
}

// Contains reports whether t falls inside the window's date bounds.
// Bounds are inclusive; a nil bound never excludes.
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}
