package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"lendbook/internal/core"
	"lendbook/internal/report"
)

// Upload size cap for plan workbooks; a monthly plan sheet is tiny.
const maxUploadBytes = 10 << 20 // 10MB

const dateLayout = "2006-01-02"

func (s *Server) handlePlansInsert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "failed to read uploaded file"})
		return
	}

	message, err := s.importer.ImportWorkbook(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (s *Server) handleYearPerformance(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "year must be an integer"})
		return
	}

	items, err := s.performance.YearPerformance(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]yearPerformanceItem, len(items))
	for i, item := range items {
		out[i] = newYearPerformanceItem(item)
	}
	writeJSON(w, http.StatusOK, itemsBody[yearPerformanceItem]{Items: out})
}

func (s *Server) handlePlansPerformance(w http.ResponseWriter, r *http.Request) {
	asOf, err := core.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "query parameter 'date' must be a date (YYYY-MM-DD)"})
		return
	}

	items, err := s.performance.PlansPerformance(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]planPerformanceItem, len(items))
	for i, item := range items {
		out[i] = newPlanPerformanceItem(item)
	}
	writeJSON(w, http.StatusOK, itemsBody[planPerformanceItem]{Items: out})
}

func (s *Server) handleUserCredits(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "user_id must be an integer"})
		return
	}

	items, err := s.credits.UserCredits(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]creditItem, len(items))
	for i, item := range items {
		out[i] = newCreditItem(item)
	}
	writeJSON(w, http.StatusOK, itemsBody[creditItem]{Items: out})
}

// Wire DTOs. Domain types carry time.Time values; the API renders plain
// dates, so every date crosses the boundary as a YYYY-MM-DD string.
type (
	itemsBody[T any] struct {
		Items []T `json:"items"`
	}

	yearPerformanceItem struct {
		Year                       int             `json:"year"`
		Month                      int             `json:"month"`
		IssuancesCount             int64           `json:"issuances_count"`
		IssuancesSum               decimal.Decimal `json:"issuances_sum"`
		IssuancesPlanSum           decimal.Decimal `json:"issuances_plan_sum"`
		IssuancesPlanPercent       float64         `json:"issuances_plan_percent"`
		PaymentsCount              int64           `json:"payments_count"`
		PaymentsSum                decimal.Decimal `json:"payments_sum"`
		CollectionsPlanSum         decimal.Decimal `json:"collections_plan_sum"`
		CollectionsPlanPercent     float64         `json:"collections_plan_percent"`
		IssuancesShareOfYearPct    float64         `json:"issuances_share_of_year_percent"`
		PaymentsShareOfYearPercent float64         `json:"payments_share_of_year_percent"`
	}

	planPerformanceItem struct {
		Period      string          `json:"period"`
		Category    string          `json:"category"`
		PlanSum     decimal.Decimal `json:"plan_sum"`
		ActualSum   decimal.Decimal `json:"actual_sum"`
		PlanPercent float64         `json:"plan_percent"`
	}

	closedCreditInfo struct {
		ReturnDate       string          `json:"return_date"`
		Body             decimal.Decimal `json:"body"`
		Percent          decimal.Decimal `json:"percent"`
		TotalPaymentsSum decimal.Decimal `json:"total_payments_sum"`
	}

	openCreditInfo struct {
		DueDate              string          `json:"due_date"`
		OverdueDays          int             `json:"overdue_days"`
		Body                 decimal.Decimal `json:"body"`
		Percent              decimal.Decimal `json:"percent"`
		PrincipalPaymentsSum decimal.Decimal `json:"principal_payments_sum"`
		InterestPaymentsSum  decimal.Decimal `json:"interest_payments_sum"`
	}

	creditItem struct {
		IssuanceDate string            `json:"issuance_date"`
		IsClosed     bool              `json:"is_closed"`
		Closed       *closedCreditInfo `json:"closed,omitempty"`
		Open         *openCreditInfo   `json:"open,omitempty"`
	}
)

func newYearPerformanceItem(m report.MonthPerformance) yearPerformanceItem {
	return yearPerformanceItem{
		Year:                       m.Year,
		Month:                      m.Month,
		IssuancesCount:             m.IssuanceCount,
		IssuancesSum:               m.IssuanceSum,
		IssuancesPlanSum:           m.IssuancePlanSum,
		IssuancesPlanPercent:       m.IssuancePlanPercent,
		PaymentsCount:              m.PaymentCount,
		PaymentsSum:                m.PaymentSum,
		CollectionsPlanSum:         m.CollectionPlanSum,
		CollectionsPlanPercent:     m.CollectionPlanPercent,
		IssuancesShareOfYearPct:    m.IssuanceShareOfYearPercent,
		PaymentsShareOfYearPercent: m.PaymentsShareOfYearPercent,
	}
}

func newPlanPerformanceItem(p report.PlanPerformance) planPerformanceItem {
	return planPerformanceItem{
		Period:      p.Period.Format(dateLayout),
		Category:    p.Category,
		PlanSum:     p.PlanSum,
		ActualSum:   p.ActualSum,
		PlanPercent: p.PlanPercent,
	}
}

func newCreditItem(c report.CreditItem) creditItem {
	item := creditItem{
		IssuanceDate: c.IssuanceDate.Format(dateLayout),
		IsClosed:     c.IsClosed,
	}
	if c.Closed != nil {
		item.Closed = &closedCreditInfo{
			ReturnDate:       c.Closed.ReturnDate.Format(dateLayout),
			Body:             c.Closed.Principal,
			Percent:          c.Closed.Rate,
			TotalPaymentsSum: c.Closed.TotalPaymentsSum,
		}
	}
	if c.Open != nil {
		item.Open = &openCreditInfo{
			DueDate:              c.Open.DueDate.Format(dateLayout),
			OverdueDays:          c.Open.OverdueDays,
			Body:                 c.Open.Principal,
			Percent:              c.Open.Rate,
			PrincipalPaymentsSum: c.Open.PrincipalPaymentsSum,
			InterestPaymentsSum:  c.Open.InterestPaymentsSum,
		}
	}
	return item
}
