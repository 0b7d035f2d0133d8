package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/joanvup/rifa-app/raffle"
)

// ReportCache stores computed settlement reports so repeated reads of a
// draw do not recompute the full settlement. Settlements are recomputed
// from ticket state and the current settings, so the cache is
// invalidated whenever a ticket in the draw's book changes and, for
// every book, whenever the settings change.
type ReportCache struct {
	client *Client
	ttl    time.Duration
}

// NewReportCache wraps client with the configured report TTL.
func NewReportCache(client *Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func reportKey(drawID int64) string {
	return fmt.Sprintf("rifa:settlement:%d", drawID)
}

// Get returns the cached report for a draw, or ErrCacheMiss.
func (c *ReportCache) Get(ctx context.Context, drawID int64) (raffle.SettlementReport, error) {
	var report raffle.SettlementReport
	if err := c.client.GetJSON(ctx, reportKey(drawID), &report); err != nil {
		return raffle.SettlementReport{}, err
	}
	return report, nil
}

// Put stores a report under its draw's key.
func (c *ReportCache) Put(ctx context.Context, report raffle.SettlementReport) error {
	return c.client.SetJSON(ctx, reportKey(report.DrawID), report, c.ttl)
}

// Invalidate drops the cached reports for the given draws.
func (c *ReportCache) Invalidate(ctx context.Context, drawIDs ...int64) error {
	if len(drawIDs) == 0 {
		return nil
	}
	keys := make([]string, len(drawIDs))
	for i, id := range drawIDs {
		keys[i] = reportKey(id)
	}
	return c.client.Delete(ctx, keys...)
}
