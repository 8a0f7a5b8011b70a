package store

import (
	"testing"
	"time"

	"mixmeet/pkg/domain"
)

func reservationAt(location, room string, start, end time.Time) domain.Reservation {
	return domain.Reservation{
		Location:    location,
		Room:        room,
		StartTime:   start,
		EndTime:     end,
		Responsible: "tester",
	}
}

func TestMemoryStoreReservationLifecycle(t *testing.T) {
	s := NewMemoryStore()
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	created, err := s.CreateReservation(reservationAt("HQ", "A1", start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, ok, err := s.GetReservation(created.ID)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Location != "HQ" || got.Room != "A1" {
		t.Fatalf("unexpected record: %+v", got)
	}

	got.Responsible = "facilities"
	if ok, err := s.UpdateReservation(got); err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	got, _, _ = s.GetReservation(created.ID)
	if got.Responsible != "facilities" {
		t.Fatalf("update not applied: %+v", got)
	}

	if ok, err := s.DeleteReservation(created.ID); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.DeleteReservation(created.ID); ok {
		t.Fatal("second delete should report missing")
	}
}

func TestMemoryStoreListByRoomUsesNormalizedKeys(t *testing.T) {
	s := NewMemoryStore()
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	if _, err := s.CreateReservation(reservationAt("  HQ ", "Sala 01", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateReservation(reservationAt("hq", "SALA 01", start.Add(2*time.Hour), start.Add(3*time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateReservation(reservationAt("hq", "sala01", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}

	matches, err := s.ListReservationsByRoom("hq", "sala 01")
	if err != nil {
		t.Fatalf("list by room: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for normalized key, got %d", len(matches))
	}
}

func TestMemoryStoreSaveUserKeepsCreatedAt(t *testing.T) {
	s := NewMemoryStore()
	first := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := s.SaveUser(domain.User{PhoneNumber: "+5511999990000", Nickname: "ana", CreatedAt: first}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveUser(domain.User{PhoneNumber: "+5511999990000", Nickname: "ana banana", CreatedAt: first.Add(time.Hour)}); err != nil {
		t.Fatalf("save again: %v", err)
	}

	u, ok, err := s.GetUserByPhone("+5511999990000")
	if err != nil || !ok {
		t.Fatalf("get user: ok=%v err=%v", ok, err)
	}
	if u.Nickname != "ana banana" {
		t.Fatalf("nickname not updated: %q", u.Nickname)
	}
	if !u.CreatedAt.Equal(first) {
		t.Fatalf("createdAt mutated: %v", u.CreatedAt)
	}
}
