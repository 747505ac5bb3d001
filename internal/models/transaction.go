package models

import (
	"fmt"
	"time"
)

type Transaction struct {
	InvoiceID   string    `json:"invoice_no"`
	InvoiceDate time.Time `json:"invoice_date"`
	Country     string    `json:"country"`
	StockCode   string    `json:"stock_code"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Revenue     float64   `json:"revenue"`
	CustomerID  string    `json:"customer_id,omitempty"`
}

// YearMonth is the sortable calendar month bucket, e.g. "2011-03".
func (t Transaction) YearMonth() string {
	return t.InvoiceDate.Format("2006-01")
}

func (t Transaction) Year() int {
	return t.InvoiceDate.Year()
}

func (t Transaction) Month() int {
	return int(t.InvoiceDate.Month())
}

func (t Transaction) Quarter() int {
	return (t.Month()-1)/3 + 1
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s x%d @%.2f", t.InvoiceDate.Format(time.DateOnly), t.Country, t.StockCode, t.Quantity, t.UnitPrice)
}

type CountryStats struct {
	Country          string  `json:"country"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgRevenue       float64 `json:"avg_revenue"`
	TransactionCount int     `json:"transaction_count"`
	OrderCount       int     `json:"order_count"`
}

type ProductPerformance struct {
	StockCode     string  `json:"stock_code"`
	Description   string  `json:"description"`
	TotalQuantity int     `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalOrders   int     `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

type CustomerSegment struct {
	CustomerID    string    `json:"customer_id"`
	TotalRevenue  float64   `json:"total_revenue"`
	TotalItems    int       `json:"total_items"`
	TotalOrders   int       `json:"total_orders"`
	FirstPurchase time.Time `json:"first_purchase"`
	LastPurchase  time.Time `json:"last_purchase"`
	AvgOrderValue float64   `json:"avg_order_value"`
}

type TimeSeriesPoint struct {
	Period   time.Time `json:"period"`
	Revenue  float64   `json:"revenue"`
	Quantity int       `json:"quantity"`
	Orders   int       `json:"orders"`
}

type DescriptiveReport struct {
	TopProducts   []ProductPerformance `json:"top_products"`
	CustomerCount int                  `json:"customer_count"`
	TopCustomers  []CustomerSegment    `json:"top_customers"`
	TimeSeries    []TimeSeriesPoint    `json:"time_series"`
	OutlierCount  int                  `json:"outlier_count"`
	Outliers      []Transaction        `json:"outliers"`
}
