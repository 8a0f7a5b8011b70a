package store

import "mixmeet/pkg/domain"

// Store defines persistence operations for reservations and users.
type Store interface {
	// reservations
	CreateReservation(domain.Reservation) (domain.Reservation, error)
	GetReservation(id uint) (domain.Reservation, bool, error)
	ListReservations() ([]domain.Reservation, error)
	// ListReservationsByRoom filters by normalized location and room keys.
	ListReservationsByRoom(locationKey, roomKey string) ([]domain.Reservation, error)
	// UpdateReservation replaces the full record; ok is false when the id is gone.
	UpdateReservation(domain.Reservation) (bool, error)
	// DeleteReservation removes the record; ok is false when the id is absent.
	DeleteReservation(id uint) (bool, error)

	// users
	GetUserByPhone(phoneNumber string) (domain.User, bool, error)
	SaveUser(domain.User) error
}
