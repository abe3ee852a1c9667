package gateway

import (
	"context"
	"net/http"

	"github.com/jetdesk/jetadmin/internal/domain"
)

// Dashboard reads the summary endpoints.
type Dashboard struct {
	client *Client
}

var _ domain.DashboardSource = (*Dashboard)(nil)

// NewDashboard returns a dashboard gateway on c.
func NewDashboard(c *Client) *Dashboard {
	return &Dashboard{client: c}
}

// Analysis returns the catalog counters.
func (d *Dashboard) Analysis(ctx context.Context) (domain.Analysis, error) {
	env, err := d.client.do(ctx, http.MethodGet, []string{"api", "analysis", "lists"}, nil, nil)
	if err != nil {
		return domain.Analysis{}, err
	}
	if env.failed() {
		return domain.Analysis{}, domain.NewAppError(domain.CodeInternal, env.message("analysis unavailable"), nil)
	}
	return decodeData[domain.Analysis](env, "analysis")
}

// LatestAircraft returns the most recently added listings.
func (d *Dashboard) LatestAircraft(ctx context.Context) ([]domain.Aircraft, error) {
	env, err := d.client.do(ctx, http.MethodGet, []string{"api", "aircrafts", "latest"}, nil, nil)
	if err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, domain.NewAppError(domain.CodeInternal, env.message("latest aircraft unavailable"), nil)
	}
	return decodeList[domain.Aircraft](ctx, d.client, env.Data, "latest aircraft")
}
