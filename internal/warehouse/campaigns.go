package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexbi/cortex/internal/contracts"
)

// CampaignRepository implements contracts.CampaignSource on dim_campaigns
// and fct_ad_spend.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// AllCampaigns loads every campaign, active or not; the attribution
// matcher filters on the flag itself.
func (r *CampaignRepository) AllCampaigns(ctx context.Context) ([]contracts.Campaign, error) {
	query := `
		SELECT campaign_id, platform, platform_campaign_id,
			COALESCE(campaign_name, ''), COALESCE(campaign_objective, ''),
			COALESCE(funnel_stage, ''),
			COALESCE(utm_source, ''), COALESCE(utm_medium, ''), COALESCE(utm_campaign, ''),
			is_active, first_seen_date, last_seen_date
		FROM dim_campaigns
		ORDER BY campaign_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []contracts.Campaign
	for rows.Next() {
		var c contracts.Campaign
		err := rows.Scan(
			&c.ID, &c.Platform, &c.PlatformCampaignID,
			&c.Name, &c.Objective,
			&c.FunnelStage,
			&c.UTMSource, &c.UTMMedium, &c.UTMCampaign,
			&c.IsActive, &c.FirstSeenDate, &c.LastSeenDate,
		)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// SpendInRange loads daily spend rows whose calendar date falls within the
// half-open window [from, to).
func (r *CampaignRepository) SpendInRange(ctx context.Context, from, to time.Time) ([]contracts.AdSpend, error) {
	query := `
		SELECT s.spend_id, s.date_key, s.campaign_id, d.full_date,
			s.impressions, s.reach, s.clicks, s.link_clicks,
			s.spend, s.conversions_platform, COALESCE(s.conversions_value_platform, 0)
		FROM fct_ad_spend s
		JOIN dim_dates d ON s.date_key = d.date_key
		WHERE d.full_date >= $1 AND d.full_date < $2
		ORDER BY d.full_date ASC, s.campaign_id ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query ad spend: %w", err)
	}
	defer rows.Close()

	var spend []contracts.AdSpend
	for rows.Next() {
		var s contracts.AdSpend
		err := rows.Scan(
			&s.ID, &s.DateKey, &s.CampaignID, &s.Date,
			&s.Impressions, &s.Reach, &s.Clicks, &s.LinkClicks,
			&s.Spend, &s.Conversions, &s.ConversionsValue,
		)
		if err != nil {
			return nil, err
		}
		spend = append(spend, s)
	}
	return spend, rows.Err()
}

// ChannelRepository implements contracts.ChannelSource on dim_channels.
type ChannelRepository struct {
	pool *pgxpool.Pool
}

func NewChannelRepository(pool *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{pool: pool}
}

func (r *ChannelRepository) AllChannels(ctx context.Context) ([]contracts.Channel, error) {
	query := `
		SELECT channel_id, channel_name, COALESCE(channel_group, ''), is_paid
		FROM dim_channels
		ORDER BY channel_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var channels []contracts.Channel
	for rows.Next() {
		var c contracts.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.Group, &c.IsPaid); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}
