package domain

import (
	"math"
	"strconv"
)

// Score returns the points value for a food from its calories, saturated fat,
// sugar and protein (grams), rounded to one decimal place.
// Inputs are not validated; negative values flow through the formula.
func Score(calories, satFat, sugar, protein float64) float64 {
	raw := calories/33 + satFat/9 + sugar/9 - protein/10
	return RoundTenth(raw)
}

// ScoreNutrients is Score applied to a Nutrients value.
func ScoreNutrients(n Nutrients) float64 {
	return Score(n.Calories, n.SaturatedFat, n.Sugar, n.Protein)
}

// RoundTenth rounds v to one decimal place. Rounding works on the exact
// binary value, so only true ties round half to even.
func RoundTenth(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}

// SumPoints adds points values in whole tenths so that totals stay exact when
// rows are added or removed.
func SumPoints(values ...float64) float64 {
	var tenths int64
	for _, v := range values {
		tenths += int64(math.Round(v * 10))
	}
	return float64(tenths) / 10
}
