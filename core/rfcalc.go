package core

import "math"

// FreeSpacePathLoss returns the free-space path loss in dB for a distance in
// kilometres and a frequency in MHz:
//
//	L = 20·log10(d_km) + 20·log10(f_MHz) + 32.45
func FreeSpacePathLoss(distanceKm, frequencyMHz float64) float64 {
	return 20*math.Log10(distanceKm) + 20*math.Log10(frequencyMHz) + 32.45
}

// Wavelength returns λ = c/f in metres.
func Wavelength(frequencyHz float64) float64 {
	return LightSpeed / frequencyHz
}

// EffectiveAperture returns the effective aperture (m²) of an antenna with
// the given linear gain at frequencyHz: Ae = G·λ²/(4π).
func EffectiveAperture(gainLinear, frequencyHz float64) float64 {
	lambda := Wavelength(frequencyHz)
	return gainLinear * lambda * lambda / (4 * math.Pi)
}

// FriisReceivedPower evaluates the Friis transmission equation in the log
// domain and returns the received power in dBm.
func FriisReceivedPower(txPowerDBm, txGainDBi, rxGainDBi, distanceKm, frequencyMHz float64) float64 {
	return txPowerDBm + txGainDBi + rxGainDBi - FreeSpacePathLoss(distanceKm, frequencyMHz)
}

// NoisePower returns the thermal noise power k·T·B in watts.
func NoisePower(temperatureK, bandwidthHz float64) float64 {
	return BoltzmannConstant * temperatureK * bandwidthHz
}

// SNR returns the signal-to-noise ratio in dB for powers in watts.
func SNR(signalPowerW, noisePowerW float64) float64 {
	return LinearToDB(signalPowerW / noisePowerW)
}
