package store

import "time"

// GORM models used for persistence.
type ReservationModel struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	Location          string `gorm:"not null"`
	Room              string `gorm:"not null"`
	LocationKey       string `gorm:"not null;index:idx_reservations_room_key"`
	RoomKey           string `gorm:"not null;index:idx_reservations_room_key"`
	StartTime         time.Time `gorm:"not null;index"`
	EndTime           time.Time `gorm:"not null"`
	Responsible       string    `gorm:"not null"`
	HasCoffee         bool      `gorm:"not null"`
	CoffeeDescription string    `gorm:"size:255"`
	CoffeeQuantity    *int
}

func (ReservationModel) TableName() string { return "reservations" }

type UserModel struct {
	PhoneNumber string    `gorm:"primaryKey"`
	Nickname    string    `gorm:"size:50;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }
