package store

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"mixmeet/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&ReservationModel{}, &UserModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateReservation persists a new reservation and returns it with its assigned id.
func (s *GormStore) CreateReservation(r domain.Reservation) (domain.Reservation, error) {
	model := reservationToModel(r)
	model.ID = 0
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Reservation{}, err
	}
	return reservationFromModel(model), nil
}

// GetReservation retrieves a reservation by id.
func (s *GormStore) GetReservation(id uint) (domain.Reservation, bool, error) {
	var model ReservationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Reservation{}, false, nil
		}
		return domain.Reservation{}, false, err
	}
	return reservationFromModel(model), true, nil
}

// ListReservations returns all reservations ordered by start time.
func (s *GormStore) ListReservations() ([]domain.Reservation, error) {
	return s.listReservations("start_time ASC")
}

// ListReservationsByRoom returns reservations matching the normalized room identity.
func (s *GormStore) ListReservationsByRoom(locationKey, roomKey string) ([]domain.Reservation, error) {
	return s.listReservations("start_time ASC", "location_key = ? AND room_key = ?", locationKey, roomKey)
}

func (s *GormStore) listReservations(order string, conds ...any) ([]domain.Reservation, error) {
	var models []ReservationModel
	tx := s.db.Order(order)
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Reservation, 0, len(models))
	for _, m := range models {
		res = append(res, reservationFromModel(m))
	}
	return res, nil
}

// UpdateReservation replaces the full record. ok is false when the row is gone,
// which the caller reports as not-found (concurrent delete).
func (s *GormStore) UpdateReservation(r domain.Reservation) (bool, error) {
	model := reservationToModel(r)
	tx := s.db.Model(&ReservationModel{}).Where("id = ?", model.ID).Updates(map[string]any{
		"location":           model.Location,
		"room":               model.Room,
		"location_key":       model.LocationKey,
		"room_key":           model.RoomKey,
		"start_time":         model.StartTime,
		"end_time":           model.EndTime,
		"responsible":        model.Responsible,
		"has_coffee":         model.HasCoffee,
		"coffee_description": model.CoffeeDescription,
		"coffee_quantity":    model.CoffeeQuantity,
	})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// DeleteReservation removes the record by id.
func (s *GormStore) DeleteReservation(id uint) (bool, error) {
	tx := s.db.Delete(&ReservationModel{}, "id = ?", id)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// GetUserByPhone looks up a user by phone number.
func (s *GormStore) GetUserByPhone(phoneNumber string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "phone_number = ?", phoneNumber).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SaveUser registers or updates a user. CreatedAt is written once and never
// touched on conflict.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname"}),
	}).Create(&model).Error
}

func reservationToModel(r domain.Reservation) ReservationModel {
	return ReservationModel{
		ID:                r.ID,
		Location:          r.Location,
		Room:              r.Room,
		LocationKey:       domain.NormalizeKey(r.Location),
		RoomKey:           domain.NormalizeKey(r.Room),
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		Responsible:       r.Responsible,
		HasCoffee:         r.HasCoffee,
		CoffeeDescription: r.CoffeeDescription,
		CoffeeQuantity:    r.CoffeeQuantity,
	}
}

func reservationFromModel(m ReservationModel) domain.Reservation {
	return domain.Reservation{
		ID:                m.ID,
		Location:          m.Location,
		Room:              m.Room,
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		Responsible:       m.Responsible,
		HasCoffee:         m.HasCoffee,
		CoffeeDescription: m.CoffeeDescription,
		CoffeeQuantity:    m.CoffeeQuantity,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		PhoneNumber: u.PhoneNumber,
		Nickname:    u.Nickname,
		CreatedAt:   u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		PhoneNumber: m.PhoneNumber,
		Nickname:    m.Nickname,
		CreatedAt:   m.CreatedAt,
	}
}
