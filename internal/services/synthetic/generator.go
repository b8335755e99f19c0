package synthetic

import (
	"math"
	"math/rand"
	"time"

	"GridCast/internal/domain/models"
)

// Price floors for the generated series. Values never drop below these.
const (
	historicalFloor = 0.1
	energyFloor     = 0.01
	hashFloor       = 0.1
	tokenFloor      = 0.01
)

// Default last values used when a quantity has no history at all.
var defaultLast = map[models.Quantity]float64{
	models.QuantityEnergy: 0.1,
	models.QuantityHash:   4.0,
	models.QuantityToken:  0.5,
}

// shockFractions marks where market shock events land, as fractions of the
// generated window. Shocks hit all quantities with quantity-specific
// multipliers and decay exponentially over shockWindow samples.
var shockFractions = []float64{0.15, 0.35, 0.55, 0.75, 0.9}

const shockWindow = 20

// Generator produces synthetic price series with seasonal, trend, noise and
// shock structure. With a fixed seed the output is bit-reproducible.
type Generator struct {
	rng *rand.Rand
}

// New creates a generator. A zero seed gives a time-seeded generator;
// any other seed makes the output deterministic.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// DefaultLast returns the fallback last value for a quantity.
func DefaultLast(q models.Quantity) float64 {
	return defaultLast[q]
}

// EstimateTrend returns the recent per-step trend of a series, computed over
// the last 12 steps. Series shorter than 13 points have zero trend.
func EstimateTrend(points []models.TimePoint) float64 {
	n := len(points)
	if n < 13 {
		return 0
	}
	return (points[n-1].Value - points[n-13].Value) / 12
}

// Historical generates a uniform multi-quantity price history ending at end
// and reaching back the given number of days. Energy and hash move together
// under shared shocks while token reacts inversely.
func (g *Generator) Historical(days, intervalMinutes int, end time.Time) models.MultiSeries {
	intervalsPerDay := (24 * 60) / intervalMinutes
	total := days * intervalsPerDay
	if total <= 0 {
		return models.MultiSeries{}
	}

	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	step := time.Duration(intervalMinutes) * time.Minute

	timestamps := make([]time.Time, total)
	energy := make([]float64, total)
	hash := make([]float64, total)
	token := make([]float64, total)

	for i := 0; i < total; i++ {
		ts := start.Add(time.Duration(i) * step)
		timestamps[i] = ts

		hour := float64(ts.Hour()) + float64(ts.Minute())/60
		daysElapsed := float64(i) / float64(intervalsPerDay)
		fi := float64(i)
		ipd := float64(intervalsPerDay)

		base := 2.5 + 0.5*math.Sin(2*math.Pi*daysElapsed/3)

		// energy: strong daily swing, fast cycles, upward trend
		e := base +
			0.8*math.Sin(2*math.Pi*(hour-6)/24) +
			0.3*math.Sin(2*math.Pi*hour/6) +
			0.2*math.Sin(2*math.Pi*fi/(ipd*0.25)) +
			0.1*daysElapsed +
			g.rng.NormFloat64()*0.15

		// hash: phase-shifted cycles, large swings
		h := 3.0 + 0.7*math.Sin(2*math.Pi*daysElapsed/2.5+math.Pi/3) +
			1.0*math.Sin(2*math.Pi*fi/(ipd*0.4)) +
			0.6*math.Sin(2*math.Pi*(hour-10)/24) +
			0.4*math.Sin(2*math.Pi*fi/(ipd*0.15)+math.Pi/4) +
			g.rng.NormFloat64()*0.2

		// token: chaotic beat pattern, inverse daily cycle, drifting trend
		k := 2.0 + 1.2*math.Sin(2*math.Pi*daysElapsed/1.5+math.Pi/2) +
			0.5*math.Sin(2*math.Pi*fi/(ipd*0.3))*math.Sin(2*math.Pi*fi/(ipd*0.7)) -
			0.7*math.Sin(2*math.Pi*(hour-6)/24) +
			(-0.05*daysElapsed + 0.3*math.Sin(2*math.Pi*daysElapsed)) +
			g.rng.NormFloat64()*0.25

		// sparse spikes: energy and hash share the mask, token jumps alone
		if g.rng.Float64() < 0.02 {
			e += 0.5 + g.rng.Float64()*1.5
			h += -1.0 + g.rng.Float64()*4.0
		}
		if g.rng.Float64() < 0.03 {
			k += -2.0 + g.rng.Float64()*6.0
		}

		energy[i] = e
		hash[i] = h
		token[i] = k
	}

	// shared market shocks with quantity-specific multipliers
	for _, frac := range shockFractions {
		idx := int(frac * float64(total))
		if idx >= total-shockWindow {
			continue
		}
		magnitude := -1.5 + g.rng.Float64()*3.0
		for j := 0; j < shockWindow && idx+j < total; j++ {
			decay := math.Exp(-float64(j) / 5)
			energy[idx+j] += magnitude * decay * (1 + 0.3*g.rng.NormFloat64())
			hash[idx+j] += magnitude * decay * 1.5 * (1 + 0.3*g.rng.NormFloat64())
			token[idx+j] += -magnitude * decay * 0.8 * (1 + 0.3*g.rng.NormFloat64())
		}
	}

	series := models.MultiSeries{
		models.QuantityEnergy: make([]models.TimePoint, total),
		models.QuantityHash:   make([]models.TimePoint, total),
		models.QuantityToken:  make([]models.TimePoint, total),
	}
	for i := 0; i < total; i++ {
		series[models.QuantityEnergy][i] = models.TimePoint{Timestamp: timestamps[i], Value: math.Max(energy[i], historicalFloor)}
		series[models.QuantityHash][i] = models.TimePoint{Timestamp: timestamps[i], Value: math.Max(hash[i], historicalFloor)}
		series[models.QuantityToken][i] = models.TimePoint{Timestamp: timestamps[i], Value: math.Max(token[i], historicalFloor)}
	}
	return series
}

// Continue extends series beyond lastDate by horizon steps. Each step applies
// a daily sinusoidal multiplier to the last known value, a damped trend term
// and bounded jitter, then computes confidence bounds per requested level.
func (g *Generator) Continue(
	last map[models.Quantity]float64,
	trend map[models.Quantity]float64,
	lastDate time.Time,
	horizon, intervalMinutes int,
	levels []int,
) []models.ForecastPoint {
	step := time.Duration(intervalMinutes) * time.Minute
	out := make([]models.ForecastPoint, 0, horizon)

	lastEnergy := lastOrDefault(last, models.QuantityEnergy)
	lastHash := lastOrDefault(last, models.QuantityHash)
	lastToken := lastOrDefault(last, models.QuantityToken)

	for i := 0; i < horizon; i++ {
		ts := lastDate.Add(time.Duration(i+1) * step)
		hour := float64(ts.Hour()) + float64(ts.Minute())/60
		mult := 1 + 0.15*math.Sin(2*math.Pi*(hour-6)/24)

		energyNoise := (g.rng.Float64() - 0.5) * 0.01
		hashNoise := (g.rng.Float64() - 0.5) * 0.1
		tokenNoise := (g.rng.Float64() - 0.5) * 0.05

		e := math.Max(energyFloor, lastEnergy*mult+trend[models.QuantityEnergy]*float64(i)*0.1+energyNoise)
		h := math.Max(hashFloor, lastHash*mult+trend[models.QuantityHash]*float64(i)*0.1+hashNoise)
		k := math.Max(tokenFloor, lastToken*mult+trend[models.QuantityToken]*float64(i)*0.1+tokenNoise)

		point := models.ForecastPoint{
			Timestamp:    ts,
			IsHistorical: false,
			Values: map[models.Quantity]float64{
				models.QuantityEnergy: e,
				models.QuantityHash:   h,
				models.QuantityToken:  k,
			},
			Bounds: make(map[models.Quantity]map[int]models.Band, 3),
			Levels: levels,
		}
		for q, v := range point.Values {
			point.Bounds[q] = make(map[int]models.Band, len(levels))
			for _, level := range levels {
				u := Uncertainty(level)
				point.Bounds[q][level] = models.Band{Lo: v * (1 - u), Hi: v * (1 + u)}
			}
		}
		out = append(out, point)
	}
	return out
}

// Uncertainty returns the relative band half-width for a confidence level.
// The width shrinks linearly as the level approaches 100. This is a
// placeholder uncertainty model, not a statistically derived interval.
func Uncertainty(level int) float64 {
	return (100 - float64(level)) / 100 * 0.5
}

func lastOrDefault(last map[models.Quantity]float64, q models.Quantity) float64 {
	if v, ok := last[q]; ok {
		return v
	}
	return defaultLast[q]
}
