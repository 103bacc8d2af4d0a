package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/utils"
	"gorm.io/gorm"
)

// IncomeReport totals orders opened in a window
type IncomeReport struct {
	Date        string          `json:"date,omitempty"`
	Month       int             `json:"month,omitempty"`
	Year        int             `json:"year,omitempty"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	TotalOrders int             `json:"total_orders"`
	TotalFinal  decimal.Decimal `json:"total_final"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// EmployeeStats is one employee's completion record
type EmployeeStats struct {
	UserID              uint   `json:"user_id"`
	FullName            string `json:"full_name"`
	Role                string `json:"role"`
	CompletedOrders     int    `json:"completed_orders"`
	AverageCompletionMs int64  `json:"average_completion_ms"`
}

// EmployeeReport lists completion stats for employees who delivered at least one order
type EmployeeReport struct {
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Results []EmployeeStats `json:"results"`
}

// ReportService computes read-only rollups over orders and payments
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReportService creates a report service over db
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

// WithClock replaces the time source (primarily for testing)
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// DailyReport totals the orders created on date's calendar day
func (s *ReportService) DailyReport(ctx context.Context, date time.Time) (*IncomeReport, error) {
	start, end := utils.DayWindow(date)
	report, err := s.income(ctx, start, end)
	if err != nil {
		return nil, err
	}
	report.Date = start.Format(utils.DateLayout)
	return report, nil
}

// MonthlyReport totals the orders created in the given calendar month
func (s *ReportService) MonthlyReport(ctx context.Context, month, year int) (*IncomeReport, error) {
	if month < 1 || month > 12 {
		return nil, Invalid("INVALID_MONTH", "month must be between 1 and 12")
	}
	if year < 1 {
		return nil, Invalid("INVALID_YEAR", "year is required")
	}

	start, end := utils.MonthWindow(month, year)
	report, err := s.income(ctx, start, end)
	if err != nil {
		return nil, err
	}
	report.Month = month
	report.Year = year
	return report, nil
}

// income sums final totals of orders created in [start, end] and every active payment on those orders.
// Payments are not filtered by paid_at.
func (s *ReportService) income(ctx context.Context, start, end time.Time) (*IncomeReport, error) {
	db := s.db.WithContext(ctx)

	var orders []models.Order
	if err := db.Select("id", "final_total").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Find(&orders).Error; err != nil {
		return nil, Internal("Failed to fetch orders", err)
	}

	report := &IncomeReport{
		From:        start,
		To:          end,
		TotalOrders: len(orders),
		TotalFinal:  decimal.Zero,
		TotalPaid:   decimal.Zero,
	}

	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		report.TotalFinal = report.TotalFinal.Add(o.FinalTotal)
	}

	if len(ids) > 0 {
		var payments []models.Payment
		if err := db.Select("id", "amount_paid").Where("order_id IN ?", ids).Find(&payments).Error; err != nil {
			return nil, Internal("Failed to fetch payments", err)
		}
		for _, p := range payments {
			report.TotalPaid = report.TotalPaid.Add(p.AmountPaid)
		}
	}

	report.Remaining = decimal.Max(report.TotalFinal.Sub(report.TotalPaid), decimal.Zero)
	return report, nil
}

// EmployeeReport summarizes delivered orders per assignee. A nil bound defaults to
// Jan 1 of the current year (from) or now (to).
func (s *ReportService) EmployeeReport(ctx context.Context, from, to *time.Time) (*EmployeeReport, error) {
	now := s.now()
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.Local)
	if from != nil {
		start = *from
	}
	end := now
	if to != nil {
		end = *to
	}

	db := s.db.WithContext(ctx)

	var orders []models.Order
	if err := db.Select("id", "assigned_to_id", "created_at", "delivered_at").
		Where("status = ? AND delivered_at >= ? AND delivered_at <= ?", models.StatusDelivered, start, end).
		Find(&orders).Error; err != nil {
		return nil, Internal("Failed to fetch orders", err)
	}

	type tally struct {
		count   int
		totalMs int64
	}
	tallies := map[uint]*tally{}
	for _, o := range orders {
		if o.AssignedToID == nil {
			continue
		}
		t, ok := tallies[*o.AssignedToID]
		if !ok {
			t = &tally{}
			tallies[*o.AssignedToID] = t
		}
		t.count++
		if o.DeliveredAt != nil {
			t.totalMs += o.DeliveredAt.Sub(o.CreatedAt).Milliseconds()
		}
	}

	report := &EmployeeReport{From: start, To: end, Results: []EmployeeStats{}}
	if len(tallies) == 0 {
		return report, nil
	}

	ids := make([]uint, 0, len(tallies))
	for id := range tallies {
		ids = append(ids, id)
	}

	var users []models.User
	if err := db.Unscoped().Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, Internal("Failed to fetch employees", err)
	}

	for _, u := range users {
		t := tallies[u.ID]
		avg := int64(0)
		if t.count > 0 {
			avg = int64(math.Round(float64(t.totalMs) / float64(t.count)))
		}
		report.Results = append(report.Results, EmployeeStats{
			UserID:              u.ID,
			FullName:            u.FullName,
			Role:                u.Role,
			CompletedOrders:     t.count,
			AverageCompletionMs: avg,
		})
	}
	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].UserID < report.Results[j].UserID
	})

	return report, nil
}
