package app

import (
	"fmt"
	"strings"
	"time"

	"mixmeet/pkg/domain"
	"mixmeet/pkg/store"
)

const (
	maxNicknameLen          = 50
	maxCoffeeDescriptionLen = 255
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
}

// App owns reservation and user records and enforces the no-double-booking
// invariant.
type App struct {
	store store.Store
	rooms *roomLocks
}

// New constructs the application with database storage.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	return &App{
		store: dataStore,
		rooms: newRoomLocks(),
	}, nil
}

// CreateReservation validates the candidate, checks it against every booking
// that shares its normalized room, and persists it with a fresh id. The
// conflict check and the write run under the room's lock so concurrent
// requests cannot both claim the same slot.
func (a *App) CreateReservation(r domain.Reservation) (domain.Reservation, error) {
	if err := validateReservation(r); err != nil {
		return domain.Reservation{}, err
	}
	release := a.rooms.acquire(domain.NormalizeKey(r.Location), domain.NormalizeKey(r.Room))
	defer release()
	conflict, err := a.hasConflict(r)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("check conflict: %w", err)
	}
	if conflict {
		return domain.Reservation{}, ErrConflict
	}
	created, err := a.store.CreateReservation(r)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("save reservation: %w", err)
	}
	return created, nil
}

// GetReservation returns one reservation by id.
func (a *App) GetReservation(id uint) (domain.Reservation, error) {
	r, ok, err := a.store.GetReservation(id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("fetch reservation: %w", err)
	}
	if !ok {
		return domain.Reservation{}, ErrNotFound
	}
	return r, nil
}

// ListReservations returns all reservations.
func (a *App) ListReservations() ([]domain.Reservation, error) {
	return a.store.ListReservations()
}

// UpdateReservation replaces the full record after re-validating the overlap
// invariant, excluding the record itself. A record that vanished between the
// check and the write is reported as not found.
func (a *App) UpdateReservation(id uint, r domain.Reservation) error {
	if id != r.ID {
		return fmt.Errorf("%w: path id %d does not match body id %d", ErrInvalidInput, id, r.ID)
	}
	if err := validateReservation(r); err != nil {
		return err
	}
	release := a.rooms.acquire(domain.NormalizeKey(r.Location), domain.NormalizeKey(r.Room))
	defer release()
	conflict, err := a.hasConflict(r)
	if err != nil {
		return fmt.Errorf("check conflict: %w", err)
	}
	if conflict {
		return ErrConflict
	}
	ok, err := a.store.UpdateReservation(r)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteReservation removes one reservation by id.
func (a *App) DeleteReservation(id uint) error {
	ok, err := a.store.DeleteReservation(id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// hasConflict reports whether any persisted reservation with the same
// normalized location and room, other than the candidate itself, overlaps the
// candidate interval. Intervals are half-open: [start, end).
func (a *App) hasConflict(candidate domain.Reservation) (bool, error) {
	neighbors, err := a.store.ListReservationsByRoom(
		domain.NormalizeKey(candidate.Location),
		domain.NormalizeKey(candidate.Room),
	)
	if err != nil {
		return false, err
	}
	for _, existing := range neighbors {
		if existing.ID == candidate.ID {
			continue
		}
		if candidate.StartTime.Before(existing.EndTime) && candidate.EndTime.After(existing.StartTime) {
			return true, nil
		}
	}
	return false, nil
}

// GetSelf returns the user record owned by the verified phone number.
func (a *App) GetSelf(phoneNumber string) (domain.User, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return domain.User{}, ErrUnauthorized
	}
	user, ok, err := a.store.GetUserByPhone(phoneNumber)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

// SetNickname creates the user record lazily on first use and updates the
// nickname in place afterwards. CreatedAt is assigned once and kept.
func (a *App) SetNickname(phoneNumber, nickname string) (domain.User, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return domain.User{}, ErrUnauthorized
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return domain.User{}, fmt.Errorf("%w: nickname is required", ErrInvalidInput)
	}
	if len(nickname) > maxNicknameLen {
		return domain.User{}, fmt.Errorf("%w: nickname exceeds %d characters", ErrInvalidInput, maxNicknameLen)
	}
	user, ok, err := a.store.GetUserByPhone(phoneNumber)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		user = domain.User{
			PhoneNumber: phoneNumber,
			Nickname:    nickname,
			CreatedAt:   time.Now().UTC(),
		}
	} else {
		user.Nickname = nickname
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func validateReservation(r domain.Reservation) error {
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Room) == "" {
		return fmt.Errorf("%w: room is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Responsible) == "" {
		return fmt.Errorf("%w: responsible is required", ErrInvalidInput)
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", ErrInvalidInput)
	}
	if !r.StartTime.Before(r.EndTime) {
		return fmt.Errorf("%w: startTime must be before endTime", ErrInvalidInput)
	}
	if len(r.CoffeeDescription) > maxCoffeeDescriptionLen {
		return fmt.Errorf("%w: coffeeDescription exceeds %d characters", ErrInvalidInput, maxCoffeeDescriptionLen)
	}
	return nil
}
