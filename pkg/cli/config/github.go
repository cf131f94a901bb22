package config

import (
	"context"

	"github.com/aide-lab/kairos/pkg/service/tickets"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// GitHub holds configuration for the GitHub issue integration
type GitHub struct {
	token string
}

// Flags returns CLI flags for GitHub configuration
func (g *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token for reading assigned issues (issue enrichment disabled when empty)",
			Sources:     cli.EnvVars("KAIROS_GITHUB_TOKEN"),
			Destination: &g.token,
		},
	}
}

// Configure creates the ticket service. Returns nil when no token is
// configured.
func (g *GitHub) Configure(ctx context.Context) (tickets.Service, error) {
	if g.token == "" {
		return nil, nil
	}

	svc, err := tickets.New(ctx, g.token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ticket service")
	}
	return svc, nil
}
