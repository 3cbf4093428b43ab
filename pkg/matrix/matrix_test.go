package matrix

import (
	"reflect"
	"testing"
)

func TestSymmetricSetGet(t *testing.T) {
	m := NewSymmetric()
	m.Set("B000001", "A000001", 0.75)

	got, ok := m.Get("A000001", "B000001")
	if !ok || got != 0.75 {
		t.Errorf("Get(A, B) = %v, %v, want 0.75, true", got, ok)
	}
	got, ok = m.Get("B000001", "A000001")
	if !ok || got != 0.75 {
		t.Errorf("Get(B, A) = %v, %v, want 0.75, true", got, ok)
	}
}

func TestSymmetricDiagonalUndefined(t *testing.T) {
	m := NewSymmetric()
	m.Set("A000001", "A000001", 1.0)

	if _, ok := m.Get("A000001", "A000001"); ok {
		t.Error("Get on the diagonal reported a stored cell")
	}
	if m.PairCount() != 0 {
		t.Errorf("PairCount() = %d, want 0", m.PairCount())
	}
}

func TestSymmetricDistinguishesStoredZero(t *testing.T) {
	m := NewSymmetric()
	m.Set("A000001", "B000001", 0.0)

	if _, ok := m.Get("A000001", "B000001"); !ok {
		t.Error("stored 0.0 reported as absent")
	}
	if _, ok := m.Get("A000001", "C000001"); ok {
		t.Error("unset pair reported as present")
	}
}

func TestSymmetricMembers(t *testing.T) {
	m := NewSymmetric()
	m.AddMember("C000003")
	m.Set("B000002", "A000001", 0.5)

	want := []string{"A000001", "B000002", "C000003"}
	if got := m.Members(); !reflect.DeepEqual(got, want) {
		t.Errorf("Members() = %v, want %v", got, want)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}
