package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.

// PredictRequest asks for a stateless posterior from explicit prices.
// Null entries in Prices stand for half-days nobody checked.
type PredictRequest struct {
	BasePrice int    `json:"base_price" validate:"required,gte=1,lte=1000"`
	Prices    []*int `json:"prices" validate:"max=12,dive,omitempty,gte=0,lte=1000"`
	LastWeek  string `json:"last_week" validate:"omitempty,oneof=decreasing random smallspike largespike"`
}

// ReportRequest submits one observation for an island: a half-day sell
// price, or the week's base price when HalfDay is empty.
type ReportRequest struct {
	WeekStart string `json:"week_start" validate:"omitempty,datetime=2006-01-02"`
	HalfDay   string `json:"half_day" validate:"omitempty,oneof=mon-am mon-pm tue-am tue-pm wed-am wed-pm thu-am thu-pm fri-am fri-pm sat-am sat-pm"`
	Price     int    `json:"price" validate:"omitempty,gte=1,lte=1000"`
	BasePrice int    `json:"base_price" validate:"omitempty,gte=90,lte=110"`
	LastWeek  string `json:"last_week" validate:"omitempty,oneof=decreasing random smallspike largespike"`
}

// WeekQuery selects a stored week; the current week when empty.
type WeekQuery struct {
	WeekStart string `query:"week_start" validate:"omitempty,datetime=2006-01-02"`
}

// WeeksQuery pages through an island's stored weeks.
type WeeksQuery struct {
	Limit int `query:"limit" default:"8" validate:"gte=1,lte=52"`
}
