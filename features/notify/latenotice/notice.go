package latenotice

import (
	_ "embed" // notice template
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/mail"
)

// Subject is the subject line of every late notice.
const Subject = "Pemberitahuan Keterlambatan Pengembalian Sepeda"

const (
	dateLayout      = "2 January 2006"
	defaultFacility = "IPB Bike Center"
)

//go:embed notice.html.tmpl
var noticeTemplateSource string

var noticeTemplate = template.Must(template.New("notice").Parse(noticeTemplateSource))

// Notice holds everything rendered into a late notice.
type Notice struct {
	BorrowerName string
	Email        string
	Brand        string
	Kind         string
	Serial       string
	LoanDate     string
	DueDate      string
	DaysLate     int
	Facility     string
	ContactEmail string
}

// BuildNotice collects the notice fields. Dates are rendered as calendar dates, days late counts
// whole days since the due date in the facility zone.
func BuildNotice(
	loan core.Loan,
	asset core.Asset,
	borrower core.Borrower,
	schedule core.Schedule,
	now time.Time,
) Notice {
	return Notice{
		BorrowerName: borrower.Name,
		Email:        borrower.Email,
		Brand:        asset.Brand,
		Kind:         asset.Kind,
		Serial:       asset.Serial,
		LoanDate:     loan.LoanDate.Format(dateLayout),
		DueDate:      loan.DueDate.Format(dateLayout),
		DaysLate:     schedule.DaysLate(loan.DueDate, now),
		Facility:     defaultFacility,
	}
}

// Compose renders the notice into a mail message.
func (n Notice) Compose() (mail.Message, error) {
	var html strings.Builder
	if err := noticeTemplate.Execute(&html, n); err != nil {
		return mail.Message{}, fmt.Errorf("rendering late notice: %w", err)
	}

	text := fmt.Sprintf(
		"Halo %s,\n\nSepeda %s %s (nomor seri %s) yang Anda pinjam pada %s seharusnya dikembalikan pada %s.\n"+
			"Keterlambatan: %d hari.\n\nMohon untuk segera mengembalikan sepeda ke lokasi pengembalian terdekat.\n",
		n.BorrowerName, n.Brand, n.Kind, n.Serial, n.LoanDate, n.DueDate, n.DaysLate,
	)

	return mail.Message{
		To:      n.Email,
		Subject: Subject,
		HTML:    html.String(),
		Text:    text,
	}, nil
}
