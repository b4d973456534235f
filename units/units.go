// Package units holds the handful of unit conversions shared by the
// soundfont loader, the envelope generator and the voice renderer:
// timecents/cents to real time and frequency, and linear gain to/from
// decibels. Keeping them in one place means the loader and the
// real-time renderer agree on exactly the same curve.
package units

import "math"

// TimecentsToSecs converts SF2 timecents (1200*log2(seconds)) to seconds.
func TimecentsToSecs(timecents float32) float32 {
	return float32(math.Pow(2, float64(timecents)/1200))
}

// CentsToHertz converts SF2 absolute cents to a frequency in Hz, anchored
// at 8.176 Hz (the SF2 reference pitch for cents value 0).
func CentsToHertz(cents float32) float32 {
	return 8.176 * float32(math.Pow(2, float64(cents)/1200))
}

// DecibelsToGain converts a decibel attenuation/gain value to a linear
// multiplier. Values at or below -100dB are treated as silence.
func DecibelsToGain(db float32) float32 {
	if db > -100 {
		return float32(math.Pow(10, float64(db)*0.05))
	}
	return 0
}

// GainToDecibels is the inverse of DecibelsToGain, floored at -100dB.
func GainToDecibels(gain float32) float32 {
	if gain <= 0.00001 {
		return -100
	}
	return float32(20 * math.Log10(float64(gain)))
}
