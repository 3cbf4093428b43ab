package legis

import (
	"testing"
	"time"
)

func TestVoteCodeCountable(t *testing.T) {
	tests := []struct {
		code VoteCode
		want bool
	}{
		{VoteYea, true},
		{VoteNay, true},
		{VotePresent, false},
		{VoteNotVoting, false},
		{VoteCode("Abstain"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Countable(); got != tt.want {
				t.Errorf("Countable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemberChamber(t *testing.T) {
	district := 12

	tests := []struct {
		name   string
		member Member
		want   Chamber
	}{
		{
			name:   "district present means house",
			member: Member{ID: "A000001", District: &district},
			want:   ChamberHouse,
		},
		{
			name:   "no district means senate",
			member: Member{ID: "B000002"},
			want:   ChamberSenate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.member.Chamber(); got != tt.want {
				t.Errorf("Chamber() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChamberDisplay(t *testing.T) {
	if got := ChamberHouse.Display(); got != "House" {
		t.Errorf("Display() = %q, want %q", got, "House")
	}
	if got := ChamberSenate.Display(); got != "Senate" {
		t.Errorf("Display() = %q, want %q", got, "Senate")
	}
}

func TestMemberFullName(t *testing.T) {
	tests := []struct {
		name   string
		member Member
		want   string
	}{
		{"both parts", Member{First: "Ada", Last: "Lovelace"}, "Ada Lovelace"},
		{"last only", Member{Last: "Lovelace"}, "Lovelace"},
		{"first only", Member{First: "Ada"}, "Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.member.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse day %q: %v", s, err)
		}
		return d
	}
	start := day("2025-01-03")
	end := day("2025-06-30")

	tests := []struct {
		name   string
		window Window
		date   time.Time
		want   bool
	}{
		{"open window", Window{Congress: 119, Chamber: ChamberHouse}, day("1999-01-01"), true},
		{"inside bounds", Window{Start: &start, End: &end}, day("2025-03-15"), true},
		{"on start bound", Window{Start: &start, End: &end}, start, true},
		{"on end bound", Window{Start: &start, End: &end}, end, true},
		{"before start", Window{Start: &start}, day("2025-01-02"), false},
		{"after end", Window{End: &end}, day("2025-07-01"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Contains(tt.date); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}
