package common

import (
	"math"

	"github.com/shopspring/decimal"
)

// https://stackoverflow.com/questions/18390266/how-can-we-truncate-float64-type-to-a-particular-precision
func Round(num float64) int {
	return int(num + math.Copysign(0.5, num))
}

func DecimalToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return float64(Round(num*output)) / output
}

// RoundPlaces rounds through the decimal package, which half-rounds away
// from zero at the stated precision regardless of float representation.
// Reported kilometers and hours use one place.
func RoundPlaces(num float64, places int32) float64 {
	return decimal.NewFromFloat(num).Round(places).InexactFloat64()
}
