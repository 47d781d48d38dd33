package services

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gatherup/backend/internal/models"
	"gorm.io/gorm"
)

// AnalysisService turns a trip's raw payment ledger into the end-of-trip
// spending report: per-category breakdown, per-member share, and a few
// human-readable insights. Analyzing a trip also marks its group finished.
type AnalysisService struct {
	DB *gorm.DB
}

func NewAnalysisService(db *gorm.DB) *AnalysisService {
	return &AnalysisService{DB: db}
}

var categoryColors = map[string]string{
	"drinks":    "#FF6B6B",
	"cafe":      "#4ECDC4",
	"snacks":    "#FFB323",
	"beverages": "#95A5A6",
	"meals":     "#45B7D1",
	"transport": "#96C93D",
	"lodging":   "#845EC2",
	"shopping":  "#FF9671",
	"culture":   "#FFC75F",
	"other":     "#F9F871",
}

const defaultCategoryColor = "#95A5A6"

const (
	trendUp     = "up"
	trendDown   = "down"
	trendSteady = "steady"
)

type CategoryAnalysis struct {
	Category   string  `json:"category"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
	Trend      string  `json:"trend"`
	Color      string  `json:"color"`
}

type MemberExpense struct {
	MemberID   uint    `json:"memberId"`
	Nickname   string  `json:"nickname"`
	PaidAmount int64   `json:"paidAmount"`
	Percentage float64 `json:"percentage"`
}

type ExpenseAnalysis struct {
	TotalExpense      int64              `json:"totalExpense"`
	CategoryBreakdown []CategoryAnalysis `json:"categoryBreakdown"`
	Insights          []string           `json:"insights"`
	MemberExpenses    []MemberExpense    `json:"memberExpenses"`
}

// AnalyzeExpenses builds the spending report for a trip. Split payments count
// each member's even slice; personal payments count fully against the payer.
// The group is marked finished as a side effect, matching the client flow
// where the report is the last screen of a trip.
func (s *AnalysisService) AnalyzeExpenses(tripID uint) (*ExpenseAnalysis, error) {
	var payments []models.Payment
	err := s.DB.
		Preload("PaidBy").
		Preload("Shares").
		Preload("Shares.User").
		Where("trip_id = ?", tripID).
		Order("date DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	type memberTotal struct {
		nickname string
		amount   float64
	}

	categoryTotals := map[string]*CategoryAnalysis{}
	memberTotals := map[uint]*memberTotal{}
	var totalExpense float64

	for _, payment := range payments {
		fullAmount := float64(payment.TotalPrice)
		shareCount := len(payment.Shares)

		actualAmount := fullAmount
		if shareCount > 0 {
			actualAmount = fullAmount / float64(shareCount)
		}

		category := payment.Category
		if category == "" {
			category = "other"
		}
		entry, ok := categoryTotals[category]
		if !ok {
			color, ok := categoryColors[category]
			if !ok {
				color = defaultCategoryColor
			}
			entry = &CategoryAnalysis{
				Category: category,
				Trend:    categoryTrend(payments, category),
				Color:    color,
			}
			categoryTotals[category] = entry
		}
		entry.Amount += int64(math.Round(actualAmount))
		entry.Count++

		if shareCount > 0 {
			for _, share := range payment.Shares {
				data, ok := memberTotals[share.UserID]
				if !ok {
					data = &memberTotal{nickname: share.User.Nickname}
					memberTotals[share.UserID] = data
				}
				data.amount += actualAmount
			}
		} else {
			data, ok := memberTotals[payment.PaidByID]
			if !ok {
				data = &memberTotal{nickname: payment.PaidBy.Nickname}
				memberTotals[payment.PaidByID] = data
			}
			data.amount += actualAmount
		}

		totalExpense += actualAmount
	}

	analysis := ExpenseAnalysis{
		TotalExpense: int64(math.Round(totalExpense)),
	}

	for _, entry := range categoryTotals {
		if totalExpense > 0 {
			entry.Percentage = roundPct(float64(entry.Amount) / totalExpense * 100)
		}
		analysis.CategoryBreakdown = append(analysis.CategoryBreakdown, *entry)
	}
	sort.Slice(analysis.CategoryBreakdown, func(i, j int) bool {
		return analysis.CategoryBreakdown[i].Amount > analysis.CategoryBreakdown[j].Amount
	})

	for memberID, data := range memberTotals {
		expense := MemberExpense{
			MemberID:   memberID,
			Nickname:   data.nickname,
			PaidAmount: int64(math.Round(data.amount)),
		}
		if totalExpense > 0 {
			expense.Percentage = roundPct(data.amount / totalExpense * 100)
		}
		analysis.MemberExpenses = append(analysis.MemberExpenses, expense)
	}
	sort.Slice(analysis.MemberExpenses, func(i, j int) bool {
		return analysis.MemberExpenses[i].PaidAmount > analysis.MemberExpenses[j].PaidAmount
	})

	analysis.Insights = buildInsights(analysis.CategoryBreakdown, analysis.MemberExpenses, payments, totalExpense)

	if err := s.MarkGroupFinished(tripID); err != nil {
		return nil, err
	}

	return &analysis, nil
}

// MarkGroupFinished flips the finished flag on the group owning the trip.
func (s *AnalysisService) MarkGroupFinished(tripID uint) error {
	var trip models.Trip
	if err := s.DB.First(&trip, "id = ?", tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTripNotFound
		}
		return err
	}

	return s.DB.Model(&models.Group{}).
		Where("id = ?", trip.GroupID).
		Update("finished", true).Error
}

// categoryTrend compares the newest payment in a category against the oldest
// of its three most recent ones. Payments arrive date-descending.
func categoryTrend(payments []models.Payment, category string) string {
	var amounts []float64
	for _, p := range payments {
		if p.Category != category {
			continue
		}
		amounts = append(amounts, float64(p.TotalPrice))
		if len(amounts) == 3 {
			break
		}
	}
	if len(amounts) < 2 {
		return trendSteady
	}

	recent := amounts[0]
	previous := amounts[len(amounts)-1]
	switch {
	case recent > previous*1.1:
		return trendUp
	case recent < previous*0.9:
		return trendDown
	default:
		return trendSteady
	}
}

func buildInsights(categories []CategoryAnalysis, memberExpenses []MemberExpense, payments []models.Payment, totalExpense float64) []string {
	var insights []string

	if len(categories) > 0 && categories[0].Percentage > 30 {
		insights = append(insights, fmt.Sprintf(
			"%s accounts for %.1f%% of total spending",
			categories[0].Category, categories[0].Percentage))
	}

	var highest *models.Payment
	var highestAmount float64
	for i := range payments {
		amount := float64(payments[i].TotalPrice)
		if n := len(payments[i].Shares); n > 0 {
			amount /= float64(n)
		}
		if highest == nil || amount > highestAmount {
			highest = &payments[i]
			highestAmount = amount
		}
	}
	if highest != nil && highestAmount > totalExpense*0.2 {
		insights = append(insights, fmt.Sprintf(
			"A single %s payment stands out from the rest", highest.Category))
	}

	for _, c := range categories {
		if c.Count > 2 && c.Amount/int64(c.Count) < 10000 {
			insights = append(insights, fmt.Sprintf(
				"%s shows many small purchases", c.Category))
			break
		}
	}

	if len(memberExpenses) > 0 && memberExpenses[0].Percentage > 40 {
		insights = append(insights, fmt.Sprintf(
			"%s carried the largest share of spending (%.1f%%)",
			memberExpenses[0].Nickname, memberExpenses[0].Percentage))
	}

	return insights
}

func roundPct(v float64) float64 {
	return math.Round(v*10) / 10
}
