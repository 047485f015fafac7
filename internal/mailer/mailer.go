// Package mailer sends listing notifications over SMTP.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // defaults to Username
}

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	dialer sender
	from   string
	logger *logger.Logger
}

func NewSMTPMailer(cfg Config, log *logger.Logger) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
		logger: log.Named("SMTPMailer"),
	}
}

// NotifyListingCreated tells the lister that their listing is live.
func (m *SMTPMailer) NotifyListingCreated(ctx context.Context, recipient string, listing *domain.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := newListingCreatedMessage(m.from, recipient, listing)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send listing-created mail to %s: %w", recipient, err)
	}
	m.logger.Info("Listing created mail sent", "recipient", recipient, "listing_id", listing.ID)
	return nil
}

func newListingCreatedMessage(from, to string, listing *domain.Listing) *gomail.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "Your listing %q is now online.\n\n", listing.Name)
	fmt.Fprintf(&body, "Price: %d\n", listing.Price)
	if listing.Size != "" {
		fmt.Fprintf(&body, "Size: %s\n", listing.Size)
	}
	fmt.Fprintf(&body, "Photos: %d\n", len(listing.Images))
	fmt.Fprintf(&body, "Listing ID: %s\n", listing.ID)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "New listing created: "+listing.Name)
	m.SetBody("text/plain", body.String())
	return m
}
