package domain

import "time"

// Reservation is a booked time slot for a meeting room. Location and Room are
// stored exactly as submitted; only comparisons fold case and outer whitespace.
type Reservation struct {
	ID                uint      `json:"id"`
	Location          string    `json:"location"`
	Room              string    `json:"room"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	Responsible       string    `json:"responsible"`
	HasCoffee         bool      `json:"hasCoffee"`
	CoffeeDescription string    `json:"coffeeDescription,omitempty"`
	CoffeeQuantity    *int      `json:"coffeeQuantity,omitempty"`
}

// User is a registered account keyed by verified phone number.
type User struct {
	PhoneNumber string    `json:"phoneNumber"`
	Nickname    string    `json:"nickname"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GatewayStatus reports whether the WhatsApp session is usable and, while a
// device is pairing, the QR code to scan.
type GatewayStatus struct {
	Ready bool   `json:"ready"`
	QR    string `json:"qr,omitempty"`
}
