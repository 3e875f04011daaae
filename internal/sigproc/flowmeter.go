package sigproc

// Calibration map for the Honeywell AWM3303V mass airflow sensor, measured
// with a 9.58 V supply. Output voltage rises as flow goes from +300 to
// -300 ml/min, so the interpolated value is negated to report flow in the
// conventional direction.
var (
	flowmeterCalibratedSupply = 9.58
	flowmeterVoltsMap         = []float64{1.5944, 1.6923, 1.7822, 1.9068, 2.0688, 2.2803, 2.5628, 2.8907, 3.0907, 3.2433, 3.3619, 3.448, 3.5321}
	flowmeterFlowMap          = []float64{300, 250, 200, 150, 100, 50, 0, -50, -100, -150, -200, -250, -300}
)

// CalibrateFlowmeter converts a raw flowmeter trace in volts to flow in
// ml/min. vin is the actual supply voltage; the calibration map is rescaled
// from the reference supply it was measured at. Values outside the map are
// linearly extrapolated from the end segments.
func CalibrateFlowmeter(x []float64, vin float64) []float64 {
	scale := vin / flowmeterCalibratedSupply
	volts := make([]float64, len(flowmeterVoltsMap))
	for i, v := range flowmeterVoltsMap {
		volts[i] = v * scale
	}

	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -interpExtrap(volts, flowmeterFlowMap, v)
	}
	return out
}

// interpExtrap linearly interpolates y(x) over the sorted knots xs/ys,
// extrapolating beyond the ends using the terminal segments.
func interpExtrap(xs, ys []float64, x float64) float64 {
	n := len(xs)
	// Find the segment: largest i with xs[i] <= x, clamped to a valid
	// segment so end values extrapolate.
	i := 0
	for i < n-2 && x > xs[i+1] {
		i++
	}
	t := (x - xs[i]) / (xs[i+1] - xs[i])
	return ys[i] + t*(ys[i+1]-ys[i])
}
