package entities

type ReservationEmailData struct {
	UserName        string
	ReservationCode string
	VehicleModel    string
	StartFormatted  string
	EndFormatted    string
	AmountFormatted string
	CurrentYear     int
}
