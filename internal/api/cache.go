package api

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"trade-report-lab/internal/reporting"
)

// ReportCache keeps recently generated reports, trades included, by report ID.
// Evicted reports remain available as stored summaries and equity curves.
type ReportCache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

// NewReportCache holds up to maxReports reports for ttl each.
func NewReportCache(maxReports int64, ttl time.Duration) (*ReportCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxReports,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ReportCache{c: c, ttl: ttl}, nil
}

func (c *ReportCache) Get(id string) (*reporting.Report, bool) {
	v, ok := c.c.Get(id)
	if !ok {
		return nil, false
	}
	r, ok := v.(*reporting.Report)
	return r, ok
}

// Set stores r and waits for the write to become visible.
func (c *ReportCache) Set(r *reporting.Report) {
	c.c.SetWithTTL(r.ReportID, r, 1, c.ttl)
	c.c.Wait()
}

func (c *ReportCache) Del(id string) { c.c.Del(id) }

func (c *ReportCache) Close() { c.c.Close() }
