package model

// CustomerFeatures is one customer's behavioral profile as of a reference
// date. Recency and FirstPurchase are whole-day offsets from the reference
// date; a smaller recency means more recently active. Rows are derived once
// per aggregation and never mutated.
type CustomerFeatures struct {
	CustomerID    string
	Recency       int
	FirstPurchase int
	Frequency     int
	AvgPurchase   float64
	MaxPurchase   float64
}
