package config

import (
	"context"

	"github.com/aide-lab/kairos/pkg/service/calendar"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Calendar holds configuration for the Google Calendar client
type Calendar struct {
	credentialsFile string
}

// Flags returns CLI flags for calendar configuration
func (c *Calendar) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "calendar-credentials",
			Usage:       "Path to Google service account credentials JSON (calendar features disabled when empty)",
			Sources:     cli.EnvVars("KAIROS_CALENDAR_CREDENTIALS"),
			Destination: &c.credentialsFile,
		},
	}
}

// Configure creates the calendar service. Returns nil when no credentials
// are configured.
func (c *Calendar) Configure(ctx context.Context) (calendar.Service, error) {
	if c.credentialsFile == "" {
		return nil, nil
	}

	svc, err := calendar.New(ctx, c.credentialsFile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create calendar service")
	}
	return svc, nil
}
