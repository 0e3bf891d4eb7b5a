package model

// SpendModel is an ordinary-least-squares fit of next-period customer
// spend on purchase-amount features.
type SpendModel struct {
	Intercept        float64
	AvgPurchaseCoef  float64
	MaxPurchaseCoef  float64
	R2               float64
	ResidualStdErr   float64
	N                int
	RepurchasersOnly bool
}

// Predict returns the modeled next-period spend for one customer.
func (m *SpendModel) Predict(f CustomerFeatures) float64 {
	return m.Intercept + m.AvgPurchaseCoef*f.AvgPurchase + m.MaxPurchaseCoef*f.MaxPurchase
}
