package workspace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/onboarding"
)

// DateLayout is the upstream date format for periods.
const DateLayout = "2006-01-02"

const labelLayout = "02/01/2006"

// Payment methods of a validation.
const (
	PaymentAll     = "all"
	PaymentMomo    = "momo"
	PaymentEspeces = "especes"
)

// Period is an inclusive range of days.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Today is the one-day period containing now.
func Today(now time.Time) Period {
	d := day(now)
	return Period{From: d, To: d}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParsePeriod reads YYYY-MM-DD bounds. Both empty means today; one empty
// bound takes the value of the other.
func ParsePeriod(from, to string, now time.Time) (Period, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return Today(now), nil
	}
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	f, err := time.ParseInLocation(DateLayout, from, now.Location())
	if err != nil {
		return Period{}, fmt.Errorf("%w: start date %q", ErrInvalidPeriod, from)
	}
	t, err := time.ParseInLocation(DateLayout, to, now.Location())
	if err != nil {
		return Period{}, fmt.Errorf("%w: end date %q", ErrInvalidPeriod, to)
	}
	if t.Before(f) {
		return Period{}, fmt.Errorf("%w: end date before start date", ErrInvalidPeriod)
	}
	return Period{From: f, To: t}, nil
}

// Label renders the period as one date or "from - to".
func (p Period) Label() string {
	start, end := p.From.Format(labelLayout), p.To.Format(labelLayout)
	if start == end {
		return start
	}
	return start + " - " + end
}

// Filter narrows the validations taken into account.
type Filter struct {
	ServerID      int64
	PaymentMethod string
}

func (f Filter) keep(v backend.Validation) bool {
	if f.ServerID != 0 && v.ServeurID != f.ServerID {
		return false
	}
	switch f.PaymentMethod {
	case "", PaymentAll:
		return true
	default:
		return v.ModePaiement == f.PaymentMethod
	}
}

// ServerStats sums the validations of one server.
type ServerStats struct {
	ServerID     int64                `json:"server_id"`
	ServerName   string               `json:"server_name"`
	TotalMomo    float64              `json:"total_momo"`
	TotalEspeces float64              `json:"total_especes"`
	Total        float64              `json:"total"`
	Orders       int                  `json:"orders_count"`
	Validations  []backend.Validation `json:"validations"`
}

// Report is the statistics page for a period.
type Report struct {
	Period       Period        `json:"period"`
	Label        string        `json:"label"`
	Searched     bool          `json:"searched"`
	Servers      []ServerStats `json:"servers"`
	TotalMomo    float64       `json:"total_momo"`
	TotalEspeces float64       `json:"total_especes"`
	GrandTotal   float64       `json:"grand_total"`
	TotalOrders  int           `json:"total_orders"`
}

// Aggregate groups validations per server in order of first appearance.
// The grand total is the sum of mobile money and cash totals.
func Aggregate(vals []backend.Validation, f Filter) []ServerStats {
	servers := []ServerStats{}
	index := map[int64]int{}
	for _, v := range vals {
		if !f.keep(v) {
			continue
		}
		i, ok := index[v.ServeurID]
		if !ok {
			i = len(servers)
			index[v.ServeurID] = i
			servers = append(servers, ServerStats{ServerID: v.ServeurID, ServerName: v.ServeurNom})
		}
		s := &servers[i]
		s.TotalMomo += v.TotalMomo
		s.TotalEspeces += v.TotalEspeces
		s.Total += v.Total
		s.Orders++
		s.Validations = append(s.Validations, v)
	}
	return servers
}

// Stats builds the report of the active company for p. The report is
// marked searched unless p is today.
func (w *Workspace) Stats(ctx context.Context, p Period, f Filter) (*Report, error) {
	var out *Report
	err := w.run(ctx, func(sc onboarding.Scope) error {
		vals, err := w.api.Validations.List(ctx, sc.Token, sc.Company.ID,
			p.From.Format(DateLayout), p.To.Format(DateLayout))
		if err != nil {
			return err
		}
		today := Today(w.now())
		r := &Report{
			Period:   p,
			Label:    p.Label(),
			Searched: !p.From.Equal(today.From) || !p.To.Equal(today.To),
			Servers:  Aggregate(vals, f),
		}
		for _, s := range r.Servers {
			r.TotalMomo += s.TotalMomo
			r.TotalEspeces += s.TotalEspeces
			r.TotalOrders += s.Orders
		}
		r.GrandTotal = r.TotalMomo + r.TotalEspeces
		out = r
		return nil
	})
	return out, err
}
