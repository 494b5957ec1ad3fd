// Package attribution assigns last-click revenue credit to channels and
// campaigns.
package attribution

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/logger"
)

// Matcher assigns single-touch, full-credit attribution for each
// non-cancelled order.
type Matcher struct {
	logger *logger.Logger
}

func NewMatcher(log *logger.Logger) *Matcher {
	return &Matcher{logger: log}
}

// Match produces one last-click attribution row per non-cancelled order.
// An order with UTM source and campaign values is matched against active
// campaigns whose UTM source equals the order's and whose UTM campaign
// contains the order's campaign string. Candidates are scanned in
// ascending campaign ID so the approximate join always resolves the same
// way; first match wins. Orders that resolve no campaign still record
// their channel with a nil campaign. Attributed revenue is the order's
// full total and the attributed order fraction is fixed at 1.
func (m *Matcher) Match(orders []contracts.Order, campaigns []contracts.Campaign) []contracts.Attribution {
	candidates := make([]*contracts.Campaign, 0, len(campaigns))
	for i := range campaigns {
		if campaigns[i].IsActive {
			candidates = append(candidates, &campaigns[i])
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	one := decimal.NewFromInt(1)
	out := make([]contracts.Attribution, 0, len(orders))
	matched := 0

	for i := range orders {
		o := &orders[i]
		if o.IsCancelled() {
			continue
		}

		row := contracts.Attribution{
			OrderID:            o.ID,
			ChannelID:          o.ChannelID,
			Model:              contracts.ModelLastClick,
			AttributedRevenue:  o.TotalAmount,
			AttributedOrders:   one,
			TouchpointPosition: "last",
		}

		if c := matchCampaign(o, candidates); c != nil {
			id := c.ID
			row.CampaignID = &id
			matched++
		}

		out = append(out, row)
	}

	m.logger.WithFields(map[string]interface{}{
		"attributed":       len(out),
		"campaign_matched": matched,
	}).Info("last-click attribution computed")

	return out
}

func matchCampaign(o *contracts.Order, candidates []*contracts.Campaign) *contracts.Campaign {
	if o.UTMSource == "" || o.UTMCampaign == "" {
		return nil
	}
	for _, c := range candidates {
		if c.UTMSource != o.UTMSource || c.UTMCampaign == "" {
			continue
		}
		if strings.Contains(c.UTMCampaign, o.UTMCampaign) {
			return c
		}
	}
	return nil
}
