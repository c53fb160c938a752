// Package metrics computes dashboard aggregates over reconciled batches.
// Everything here is a pure function of its inputs.
package metrics

import (
	"fmt"
	"sort"

	"github.com/ignite/outreach-analytics/internal/reconcile"
)

// Summary is the headline KPI block for one batch.
type Summary struct {
	TotalSends               int     `json:"total_sends"`
	Matched                  int     `json:"matched"`
	Failed                   int     `json:"failed"`
	OpenRate                 float64 `json:"open_rate"`
	UniqueProspects          int     `json:"unique_prospects"`
	UniqueOpenedProspects    int     `json:"unique_opened_prospects"`
	UniqueOpenedProspectRate float64 `json:"unique_opened_prospect_rate"`
	UniqueCompanies          int     `json:"unique_companies"`
	ContactMatchRate         float64 `json:"contact_match_rate"`
	TotalViews               int     `json:"total_views"`
	TotalClicks              int     `json:"total_clicks"`
}

// Summarize computes the KPI block. sendOpenSuccessful is the count of
// records that survived send/open matching, before the contacts join; the
// contact-match rate is reconciled over that.
func Summarize(reconciled []reconcile.ReconciledRecord, failed []reconcile.FailedRecord, sendOpenSuccessful int) Summary {
	s := Summary{
		Matched: len(reconciled),
		Failed:  len(failed),
	}
	s.TotalSends = s.Matched + s.Failed

	prospects := make(map[string]bool)
	opened := make(map[string]bool)
	companies := make(map[string]bool)

	for _, r := range reconciled {
		email := reconcile.NormalizeEmail(r.Send.RecipientEmail)
		prospects[email] = true
		opened[email] = true
		companies[r.Contact.CompanyURL] = true
		s.TotalViews += r.Views
		s.TotalClicks += r.Clicks
	}
	for _, f := range failed {
		prospects[reconcile.NormalizeEmail(f.Send.RecipientEmail)] = true
	}

	s.UniqueProspects = len(prospects)
	s.UniqueOpenedProspects = len(opened)
	s.UniqueCompanies = len(companies)

	if s.TotalSends > 0 {
		s.OpenRate = float64(s.Matched) / float64(s.TotalSends)
	}
	if s.UniqueProspects > 0 {
		s.UniqueOpenedProspectRate = float64(s.UniqueOpenedProspects) / float64(s.UniqueProspects)
	}
	if sendOpenSuccessful > 0 {
		s.ContactMatchRate = float64(s.Matched) / float64(sendOpenSuccessful)
	}
	return s
}

// AccountEngagement is the per-company rollup used for account targeting.
type AccountEngagement struct {
	CompanyURL      string `json:"company_url"`
	CompanyURLID    int    `json:"company_url_id"`
	TotalEmailsSent int    `json:"total_emails_sent"`
	TotalViews      int    `json:"total_views"`
	TotalClicks     int    `json:"total_clicks"`
	HighEngagement  bool   `json:"high_engagement"`
}

// EngagementByCompany groups reconciled records by company URL, in
// first-seen order. A company is flagged high engagement when its total
// views exceed twice its email count.
func EngagementByCompany(records []reconcile.ReconciledRecord) []AccountEngagement {
	index := make(map[string]int)
	var accounts []AccountEngagement

	for _, r := range records {
		url := r.Contact.CompanyURL
		i, ok := index[url]
		if !ok {
			i = len(accounts)
			index[url] = i
			accounts = append(accounts, AccountEngagement{
				CompanyURL:   url,
				CompanyURLID: r.CompanyURLID,
			})
		}
		accounts[i].TotalEmailsSent++
		accounts[i].TotalViews += r.Views
		accounts[i].TotalClicks += r.Clicks
	}

	for i := range accounts {
		accounts[i].HighEngagement = accounts[i].TotalViews > 2*accounts[i].TotalEmailsSent
	}
	return accounts
}

// HighEngagementAccounts filters EngagementByCompany down to the flagged
// companies.
func HighEngagementAccounts(records []reconcile.ReconciledRecord) []AccountEngagement {
	var high []AccountEngagement
	for _, a := range EngagementByCompany(records) {
		if a.HighEngagement {
			high = append(high, a)
		}
	}
	return high
}

// Interval selects the trend bucket width.
type Interval string

const (
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
)

// TrendBucket is one time-bucketed aggregate for charting.
type TrendBucket struct {
	Period string `json:"period"`
	Sends  int    `json:"sends"`
	Views  int    `json:"views"`
	Clicks int    `json:"clicks"`
}

// Trends buckets reconciled records by send date into weekly (ISO week) or
// monthly periods, sorted by period label.
func Trends(records []reconcile.ReconciledRecord, interval Interval) []TrendBucket {
	byPeriod := make(map[string]*TrendBucket)

	for _, r := range records {
		var period string
		switch interval {
		case Monthly:
			period = r.Send.SentAt.Format("2006-01")
		default:
			year, week := r.Send.SentAt.ISOWeek()
			period = fmt.Sprintf("%d-W%02d", year, week)
		}
		b, ok := byPeriod[period]
		if !ok {
			b = &TrendBucket{Period: period}
			byPeriod[period] = b
		}
		b.Sends++
		b.Views += r.Views
		b.Clicks += r.Clicks
	}

	buckets := make([]TrendBucket, 0, len(byPeriod))
	for _, b := range byPeriod {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Period < buckets[j].Period })
	return buckets
}
