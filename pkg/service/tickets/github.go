package tickets

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

type client struct {
	gql *githubv4.Client
}

var _ Service = &client{}

// New creates a GitHub-backed ticket service authenticated with a personal
// access token
func New(ctx context.Context, token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("GitHub token is required")
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gql := githubv4.NewClient(oauth2.NewClient(ctx, src))

	return &client{gql: gql}, nil
}

type searchIssueQuery struct {
	Search struct {
		Edges []struct {
			Node struct {
				Issue struct {
					Number     githubv4.Int
					Title      githubv4.String
					State      githubv4.String
					URL        githubv4.String
					Repository struct {
						NameWithOwner githubv4.String
					}
					Labels struct {
						Nodes []struct {
							Name githubv4.String
						}
					} `graphql:"labels(first: 10)"`
				} `graphql:"... on Issue"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: $first)"`
}

// priorityFromLabels extracts a priority-style label (e.g. "priority: high",
// "p1") from the issue's labels; empty when none is present
func priorityFromLabels(labels []string) string {
	for _, label := range labels {
		lower := strings.ToLower(label)
		if strings.HasPrefix(lower, "priority") {
			return strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(lower, "priority"), ":"))
		}
		if len(lower) == 2 && lower[0] == 'p' && lower[1] >= '0' && lower[1] <= '9' {
			return lower
		}
	}
	return ""
}

func (c *client) ListAssignedIssues(ctx context.Context, login string) ([]*Issue, error) {
	query := fmt.Sprintf("assignee:%s is:issue is:open sort:updated-desc", login)

	var q searchIssueQuery
	variables := map[string]interface{}{
		"query": githubv4.String(query),
		"first": githubv4.Int(20),
	}

	if err := c.gql.Query(ctx, &q, variables); err != nil {
		return nil, goerr.Wrap(err, "failed to search assigned issues", goerr.V("login", login))
	}

	issues := make([]*Issue, 0, len(q.Search.Edges))
	for _, edge := range q.Search.Edges {
		node := edge.Node.Issue
		labels := make([]string, 0, len(node.Labels.Nodes))
		for _, l := range node.Labels.Nodes {
			labels = append(labels, string(l.Name))
		}

		issues = append(issues, &Issue{
			Key:      fmt.Sprintf("%s#%d", node.Repository.NameWithOwner, node.Number),
			Title:    string(node.Title),
			Status:   string(node.State),
			Priority: priorityFromLabels(labels),
			URL:      string(node.URL),
		})
	}

	return issues, nil
}
