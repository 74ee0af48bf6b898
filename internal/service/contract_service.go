package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"carrental/internal/config"
	"carrental/internal/entities"
	"carrental/internal/templates"
	"carrental/internal/utils"
)

const (
	contractTemplate = "contract.html"
	noPointsLabel    = "Not applicable (foreign license)"
)

var contractTerms = []string{
	"The renter agrees to use the vehicle in accordance with the highway code and the laws in force.",
	"The renter agrees to return the vehicle in the condition in which it was collected at the start of the rental.",
	"The renter is liable for any traffic fine incurred during the rental period and agrees to be designated as the driver on the basis of the information provided.",
	"The renter is liable for any damage, loss or theft occurring during the rental period.",
	"In the event of a traffic offence, the driver will be designated using the information provided at booking (license number, personal details, copies of the driving license).",
	"The vehicle insurance applies under the terms of the insurance contract.",
}

type contractView struct {
	ContractNumber  string
	GeneratedAt     string
	Renter          renterView
	License         licenseView
	Vehicle         config.Vehicle
	Booking         bookingView
	Amount          string
	SpecialRequests string
	Terms           []string
	Accepted        bool
	OwnerName       string
}

type renterView struct {
	FullName    string
	Email       string
	Phone       string
	DateOfBirth string
	Address     string
	Country     string
}

type licenseView struct {
	Number            string
	IssueDate         string
	ExpiryDate        string
	Authority         string
	Points            string
	HasViolations     bool
	ViolationsDetails string
}

type bookingView struct {
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string
	Days        int
	VehicleType string
}

// ContractService renders the rental contract. Rendering makes no external
// calls; only the generation timestamp varies between runs.
type ContractService struct {
	tmpl    *template.Template
	vehicle config.Vehicle
	now     func() time.Time
	loc     *time.Location
}

func NewContractService(vehicle config.Vehicle, now func() time.Time) (*ContractService, error) {
	tmpl, err := templates.Parse(contractTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse contract template: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &ContractService{
		tmpl:    tmpl,
		vehicle: vehicle,
		now:     now,
		loc:     utils.ParisLocation(),
	}, nil
}

func (s *ContractService) Render(res entities.Reservation, id string) (*entities.ContractDocument, error) {
	generatedAt := s.now()
	view := s.buildView(res, id, generatedAt)

	var html bytes.Buffer
	if err := s.tmpl.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render contract %s: %w", id, err)
	}

	pdf, err := s.renderPDF(view, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("render contract %s as PDF: %w", id, err)
	}

	return &entities.ContractDocument{
		ReservationID: id,
		FileName:      ContractFileName(id),
		HTML:          html.String(),
		PDF:           pdf,
		GeneratedAt:   generatedAt,
	}, nil
}

func ContractFileName(id string) string {
	return "rental-contract-" + id + ".pdf"
}

// FormatAmount renders minor units in the major unit, e.g. 11000 eur as "110.00 EUR".
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(amount)/100, strings.ToUpper(currency))
}

func (s *ContractService) buildView(res entities.Reservation, id string, generatedAt time.Time) contractView {
	points := noPointsLabel
	if res.LicensePoints != nil {
		points = strconv.Itoa(*res.LicensePoints)
	}

	days := 0
	if start, err := utils.ParseDate(res.StartDate); err == nil {
		if end, err := utils.ParseDate(res.EndDate); err == nil {
			days = RentalDays(start, end)
		}
	}

	address := strings.TrimSpace(res.Address)
	if res.PostalCode != "" || res.City != "" {
		address = strings.TrimSpace(fmt.Sprintf("%s, %s %s", res.Address, res.PostalCode, res.City))
	}

	return contractView{
		ContractNumber: id,
		GeneratedAt:    generatedAt.In(s.loc).Format("2 January 2006"),
		Renter: renterView{
			FullName:    res.FullName(),
			Email:       res.Email,
			Phone:       res.Phone,
			DateOfBirth: formatContractDate(res.DateOfBirth),
			Address:     strings.Trim(address, ", "),
			Country:     res.Country,
		},
		License: licenseView{
			Number:            res.LicenseNumber,
			IssueDate:         formatContractDate(res.LicenseIssueDate),
			ExpiryDate:        formatContractDate(res.LicenseExpiryDate),
			Authority:         res.LicenseIssuingAuthority,
			Points:            points,
			HasViolations:     res.HasViolations,
			ViolationsDetails: res.ViolationsDetails,
		},
		Vehicle: s.vehicle,
		Booking: bookingView{
			StartDate:   formatShortDate(res.StartDate),
			EndDate:     formatShortDate(res.EndDate),
			StartTime:   res.StartTime,
			EndTime:     res.EndTime,
			Days:        days,
			VehicleType: res.VehicleType,
		},
		Amount:          FormatAmount(res.Amount, res.Currency),
		SpecialRequests: res.SpecialRequests,
		Terms:           contractTerms,
		Accepted:        res.AcceptsResponsibility,
		OwnerName:       s.vehicle.OwnerName,
	}
}

func (s *ContractService) renderPDF(view contractView, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle("Rental contract "+view.ContractNumber, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "VEHICLE RENTAL CONTRACT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Reservation number: "+view.ContractNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr("Contract date: "+view.GeneratedAt), "", 1, "C", false, 0, "")

	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(37, 99, 235)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		pdf.SetTextColor(51, 51, 51)
	}
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(value), "", "L", false)
	}

	section("RENTER")
	row("Full name:", view.Renter.FullName)
	row("Email:", view.Renter.Email)
	row("Phone:", view.Renter.Phone)
	row("Date of birth:", view.Renter.DateOfBirth)
	row("Address:", view.Renter.Address)
	row("Country:", view.Renter.Country)

	section("DRIVING LICENSE")
	row("License number:", view.License.Number)
	row("Issue date:", view.License.IssueDate)
	row("Expiry date:", view.License.ExpiryDate)
	row("Issuing authority:", view.License.Authority)
	row("Remaining points:", view.License.Points)
	if view.License.HasViolations {
		row("Declared violations:", view.License.ViolationsDetails)
	}

	section("VEHICLE")
	row("Make and model:", view.Vehicle.Model)
	if view.Vehicle.Year != "" {
		row("Year:", view.Vehicle.Year)
	}
	if view.Vehicle.Plate != "" {
		row("Registration plate:", view.Vehicle.Plate)
	}
	if view.Vehicle.InsurancePolicy != "" {
		row("Insurance policy:", view.Vehicle.InsurancePolicy)
	}

	section("RENTAL DETAILS")
	row("Period:", fmt.Sprintf("From %s to %s (%d day(s))", view.Booking.StartDate, view.Booking.EndDate, view.Booking.Days))
	row("Hours:", fmt.Sprintf("From %s to %s", view.Booking.StartTime, view.Booking.EndTime))
	if view.Booking.VehicleType != "" {
		row("Requested vehicle type:", view.Booking.VehicleType)
	}

	section("PAYMENT")
	row("Total amount:", view.Amount)

	if view.SpecialRequests != "" {
		section("SPECIAL REQUESTS")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(view.SpecialRequests), "", "L", false)
	}

	section("TERMS AND COMMITMENTS")
	pdf.SetFont("Helvetica", "", 10)
	for i, term := range view.Terms {
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, term)), "", "L", false)
	}

	if view.Accepted {
		pdf.Ln(4)
		pdf.SetFillColor(219, 234, 254)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 6, tr("Terms accepted. The renter accepted and digitally signed these terms when booking on "+view.GeneratedAt+"."), "1", "L", true)
	}

	section("SIGNATURES")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, tr("Renter: "+view.Renter.FullName+"\nDate: "+view.GeneratedAt+"\n\nSignature: ___________________"), "", "L", false)
	pdf.Ln(4)
	owner := "Owner:"
	if view.OwnerName != "" {
		owner += " " + view.OwnerName
	}
	pdf.MultiCell(0, 6, tr(owner+"\n\nSignature: ___________________"), "", "L", false)

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 5, "This document serves as the rental contract. Please keep it for your records.", "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatContractDate(value string) string {
	t, err := utils.ParseDate(value)
	if err != nil {
		return value
	}
	return t.Format("2 January 2006")
}

func formatShortDate(value string) string {
	t, err := utils.ParseDate(value)
	if err != nil {
		return value
	}
	return t.Format("02/01/2006")
}
