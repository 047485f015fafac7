package mailer

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/joho/godotenv"
	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/stretchr/testify/require"
)

// Sends a real mail when SMTP_HOST and TEST_RECEIVER_EMAIL are set (.env at the repo root is honored).
func TestSMTPMailer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping SMTP integration test in short mode")
	}
	_ = godotenv.Load("../../.env")

	to := os.Getenv("TEST_RECEIVER_EMAIL")
	host := os.Getenv("SMTP_HOST")
	if to == "" || host == "" {
		t.Skip("SMTP_HOST or TEST_RECEIVER_EMAIL not set")
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	m := NewSMTPMailer(Config{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}, logger.NewNop())

	err = m.NotifyListingCreated(context.Background(), to, &domain.Listing{ID: "integration", Name: "Integration test listing", Price: 1})
	require.NoError(t, err)
}
