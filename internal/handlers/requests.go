package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"retail-dashboard/internal/analytics"
	"retail-dashboard/internal/config"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/services"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type AllocationRequest struct {
	Countries     []string `json:"countries" validate:"required_without=SelectCount,dive,required"`
	Selection     string   `json:"selection" validate:"omitempty,oneof=top_revenue most_orders top_avg_revenue"`
	SelectCount   int      `json:"select_count" validate:"gte=0,lte=50"`
	Months        int      `json:"months" validate:"omitempty,min=1,max=24"`
	TotalBudget   float64  `json:"total_budget" validate:"gt=0"`
	MinPerCountry float64  `json:"min_per_country" validate:"gte=0"`
	MaxPerCountry float64  `json:"max_per_country" validate:"omitempty,gtefield=MinPerCountry"`
	ExpectedROI   *float64 `json:"expected_roi" validate:"omitempty,gte=0,lte=100"`
}

// params fills the defaults: the configured window and ROI, and a per-country
// cap equal to the whole budget when max_per_country is left out.
func (r AllocationRequest) params(defaults config.AnalysisConfig) services.AllocationRequest {
	months := r.Months
	if months == 0 {
		months = defaults.TimeFrameMonths
	}
	roi := defaults.ExpectedROI
	if r.ExpectedROI != nil {
		roi = *r.ExpectedROI
	}
	maxPerCountry := r.MaxPerCountry
	if maxPerCountry == 0 {
		maxPerCountry = r.TotalBudget
	}
	return services.AllocationRequest{
		Countries:   r.Countries,
		Selection:   analytics.SelectionCriteria(r.Selection),
		SelectCount: r.SelectCount,
		Months:      months,
		AllocationParams: analytics.AllocationParams{
			TotalBudget:   r.TotalBudget,
			MinPerCountry: r.MinPerCountry,
			MaxPerCountry: maxPerCountry,
			ExpectedROI:   roi,
		},
	}
}

type DolRequest struct {
	ProductCode  string  `json:"product_code" validate:"required"`
	VariableCost float64 `json:"variable_cost" validate:"gte=0"`
	FixedCost    float64 `json:"fixed_cost" validate:"gte=0"`
	TimePeriod   string  `json:"time_period" validate:"required,oneof='1 month' '2 months' '3 months'"`
	SelectedYear int     `json:"selected_year" validate:"omitempty,min=1900,max=2100"`
}

func (r DolRequest) params() analytics.DolParams {
	return analytics.DolParams{
		ProductCode:  r.ProductCode,
		VariableCost: r.VariableCost,
		FixedCost:    r.FixedCost,
		TimePeriod:   r.TimePeriod,
		SelectedYear: r.SelectedYear,
	}
}

type SeasonalityRequest struct {
	Description string  `json:"description" validate:"required_without=StockCode"`
	StockCode   string  `json:"stock_code"`
	StartDate   string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Year        int     `json:"year" validate:"omitempty,min=1900,max=2100"`
	Budget      float64 `json:"budget" validate:"gte=0"`
}

func (r SeasonalityRequest) params() analytics.SeasonalityParams {
	return analytics.SeasonalityParams{
		Description: r.Description,
		StockCode:   r.StockCode,
		Start:       parseDay(r.StartDate),
		End:         parseDay(r.EndDate),
		Year:        r.Year,
		Budget:      r.Budget,
	}
}

// parseDay reads a date the validator has already checked. Empty is the
// zero time.
func parseDay(value string) time.Time {
	day, _ := time.Parse(time.DateOnly, value)
	return day
}

type RevenueRequest struct {
	StartMonth string   `json:"start_month" validate:"omitempty,datetime=2006-01"`
	EndMonth   string   `json:"end_month" validate:"omitempty,datetime=2006-01"`
	Countries  []string `json:"countries" validate:"omitempty,dive,required"`
	Threshold  float64  `json:"threshold" validate:"gte=0"`
}

func (r RevenueRequest) params() analytics.RevenueFilter {
	return analytics.RevenueFilter{
		StartMonth: r.StartMonth,
		EndMonth:   r.EndMonth,
		Countries:  r.Countries,
		Threshold:  r.Threshold,
	}
}

// validationError turns validator field errors into a 400 with one message
// per JSON field.
func validationError(err error) *errors.AppError {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if stderrors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = formatValidationError(fe)
		}
	}
	return errors.ValidationWrap(err, "One or more fields failed validation").WithFields(fields)
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "gtefield":
		return "Must not be less than min_per_country"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("Must match the layout %s", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %s rule", fe.Tag())
	}
}

// appError maps service and engine errors onto API error codes.
func appError(err error) error {
	var appErr *errors.AppError
	var degenerate *analytics.DegenerateInputError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, services.ErrNoData):
		return errors.ServiceUnavailableWrap(err, "Dataset is not loaded yet")
	case stderrors.Is(err, analytics.ErrSchema):
		return errors.SchemaWrap(err, "Dataset is missing required columns").WithDetails(err.Error())
	case stderrors.Is(err, analytics.ErrNotFound):
		return errors.NotFoundWrap(err, err.Error())
	case stderrors.As(err, &degenerate):
		return errors.ValidationWrap(err, "Invalid analysis parameters").
			WithFields(map[string]string{degenerate.Field: degenerate.Reason})
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.ServiceUnavailableWrap(err, "Analysis was cancelled")
	}
	return err
}
