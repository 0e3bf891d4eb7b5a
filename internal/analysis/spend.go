package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// spendModelParams counts the fitted parameters: intercept plus the two
// purchase-amount coefficients.
const spendModelParams = 3

// SpendObservation pairs a customer's origin-snapshot features with the
// spend actually observed in the following period.
type SpendObservation struct {
	CustomerID string
	Features   model.CustomerFeatures
	NextSpend  float64
}

// CalibrationSet joins origin-snapshot customers with their total spend
// inside window, zero when they did not purchase. With repurchasersOnly
// set, zero-spend customers are excluded so the model is fit on repeat
// buyers only.
func CalibrationSet(origin *model.Snapshot, transactions []model.Transaction, window Window, repurchasersOnly bool) []SpendObservation {
	spend := make(map[string]float64)
	for _, tx := range transactions {
		if window.Contains(tx.OrderDate) {
			spend[tx.CustomerID] += tx.Price
		}
	}

	observations := make([]SpendObservation, 0, len(origin.Customers))
	for _, c := range origin.Customers {
		next, purchased := spend[c.Features.CustomerID]
		if repurchasersOnly && !purchased {
			continue
		}
		observations = append(observations, SpendObservation{
			CustomerID: c.Features.CustomerID,
			Features:   c.Features,
			NextSpend:  next,
		})
	}
	return observations
}

// FitSpendModel fits next-period spend on AvgPurchase and MaxPurchase by
// ordinary least squares. The repurchasersOnly flag is recorded on the
// model so reports can state what population it was calibrated on.
func FitSpendModel(observations []SpendObservation, repurchasersOnly bool) (*model.SpendModel, error) {
	n := len(observations)
	if n <= spendModelParams {
		return nil, fmt.Errorf("%w: spend model needs more than %d observations, got %d",
			common.ErrInsufficientData, spendModelParams, n)
	}

	xs := mat.NewDense(n, spendModelParams, nil)
	ys := make([]float64, n)
	for i, obs := range observations {
		xs.Set(i, 0, 1)
		xs.Set(i, 1, obs.Features.AvgPurchase)
		xs.Set(i, 2, obs.Features.MaxPurchase)
		ys[i] = obs.NextSpend
	}

	var qr mat.QR
	qr.Factorize(xs)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewDense(n, 1, ys)); err != nil {
		// An ill-conditioned design (collinear features, common when
		// every calibration customer bought exactly once) still yields a
		// usable least-squares solution; anything else is fatal.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("failed to fit spend model: %w", err)
		}
	}

	fitted := model.SpendModel{
		Intercept:        beta.At(0, 0),
		AvgPurchaseCoef:  beta.At(1, 0),
		MaxPurchaseCoef:  beta.At(2, 0),
		N:                n,
		RepurchasersOnly: repurchasersOnly,
	}
	for _, coef := range []float64{fitted.Intercept, fitted.AvgPurchaseCoef, fitted.MaxPurchaseCoef} {
		if math.IsNaN(coef) || math.IsInf(coef, 0) {
			return nil, fmt.Errorf("%w: spend model design is degenerate and the coefficients are not identifiable",
				common.ErrInsufficientData)
		}
	}

	mean := stat.Mean(ys, nil)
	sse, sst := 0.0, 0.0
	for i, obs := range observations {
		residual := ys[i] - fitted.Predict(obs.Features)
		sse += residual * residual
		dev := ys[i] - mean
		sst += dev * dev
	}
	if sst > 0 {
		fitted.R2 = 1 - sse/sst
	}
	fitted.ResidualStdErr = math.Sqrt(sse / float64(n-spendModelParams))

	return &fitted, nil
}
