package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// FunnelStage is a campaign's position in the awareness-to-conversion
// continuum.
type FunnelStage string

const (
	FunnelTOFU FunnelStage = "TOFU"
	FunnelMOFU FunnelStage = "MOFU"
	FunnelBOFU FunnelStage = "BOFU"
)

// Campaign is an ad campaign dimension row.
type Campaign struct {
	ID int64 `json:"campaign_id"`

	Platform           string `json:"platform"`
	PlatformCampaignID string `json:"platform_campaign_id"`

	Name      string `json:"campaign_name,omitempty"`
	Objective string `json:"campaign_objective,omitempty"`

	FunnelStage FunnelStage `json:"funnel_stage,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`

	IsActive bool `json:"is_active"`

	FirstSeenDate *time.Time `json:"first_seen_date,omitempty"`
	LastSeenDate  *time.Time `json:"last_seen_date,omitempty"`
}

// AdSpend is one day of delivery and cost metrics for a campaign.
type AdSpend struct {
	ID         int64 `json:"spend_id"`
	DateKey    int   `json:"date_key"`
	CampaignID int64 `json:"campaign_id"`

	Date time.Time `json:"date"`

	Impressions int64 `json:"impressions"`
	Reach       int64 `json:"reach"`
	Clicks      int64 `json:"clicks"`
	LinkClicks  int64 `json:"link_clicks"`

	Spend decimal.Decimal `json:"spend"`

	Conversions      int             `json:"conversions_platform"`
	ConversionsValue decimal.Decimal `json:"conversions_value_platform"`
}

// Channel is a stable taxonomy of traffic sources.
type Channel struct {
	ID     int    `json:"channel_id"`
	Name   string `json:"channel_name"`
	Group  string `json:"channel_group,omitempty"` // paid/organic/direct/owned/earned
	IsPaid bool   `json:"is_paid"`
}
