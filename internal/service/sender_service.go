package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"carrental/internal/entities"
	"carrental/internal/templates"
	"carrental/internal/utils"
)

const reservationEmailTemplate = "reservation_email.html"

// ComposedEmail is a rendered confirmation email.
type ComposedEmail struct {
	Subject   string
	PlainText string
	HTML      string
}

// SenderService writes the renter-facing texts used by the email and SMS channels.
type SenderService struct {
	tmpl         *template.Template
	vehicleModel string
	loc          *time.Location
}

func NewSenderService(vehicleModel string) (*SenderService, error) {
	tmpl, err := templates.Parse(reservationEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &SenderService{tmpl: tmpl, vehicleModel: vehicleModel, loc: utils.ParisLocation()}, nil
}

func (s *SenderService) ConfirmationEmail(n Notification) (*ComposedEmail, error) {
	res := n.Reservation
	data := entities.ReservationEmailData{
		UserName:        res.FullName(),
		ReservationCode: n.ReservationID,
		VehicleModel:    s.vehicleModel,
		StartFormatted:  formatWindowEdge(res.StartDate, res.StartTime),
		EndFormatted:    formatWindowEdge(res.EndDate, res.EndTime),
		AmountFormatted: FormatAmount(res.Amount, res.Currency),
		CurrentYear:     n.Timestamp.In(s.loc).Year(),
	}

	subject := fmt.Sprintf("Your car rental reservation is confirmed - Code: %s", data.ReservationCode)
	plainText := fmt.Sprintf(
		"Hello %s,\n\nYour car rental reservation is confirmed.\n\n"+
			"Reservation details:\n"+
			"Reservation code: %s\n"+
			"Vehicle: %s\n"+
			"Pick-up: %s\n"+
			"Return: %s\n"+
			"Amount: %s\n\n"+
			"Your rental contract is attached to this email.\n\n"+
			"%d Car Rental. All rights reserved.",
		data.UserName, data.ReservationCode, data.VehicleModel,
		data.StartFormatted, data.EndFormatted, data.AmountFormatted, data.CurrentYear,
	)

	var html bytes.Buffer
	if err := s.tmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render email for reservation %s: %w", n.ReservationID, err)
	}

	return &ComposedEmail{Subject: subject, PlainText: plainText, HTML: html.String()}, nil
}

func (s *SenderService) ConfirmationSMS(n Notification) string {
	return fmt.Sprintf("Car Rental: reservation %s confirmed!\nPick-up: %s.\nYour contract is in your email.",
		shortCode(n.ReservationID),
		formatWindowEdge(n.Reservation.StartDate, n.Reservation.StartTime),
	)
}

func formatWindowEdge(date, clock string) string {
	d := formatShortDate(date)
	if clock == "" {
		return d
	}
	return d + " " + clock
}

func shortCode(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
