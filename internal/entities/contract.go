package entities

import "time"

type ContractDocument struct {
	ReservationID string
	FileName      string
	HTML          string
	PDF           []byte
	GeneratedAt   time.Time
}
