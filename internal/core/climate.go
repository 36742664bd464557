package core

import "context"

// HVACMode is the operating mode a climate entity reports and accepts.
type HVACMode string

const (
	HVACModeHeat HVACMode = "heat"
	HVACModeOff  HVACMode = "off"
)

// TemperatureUnit is the unit a climate entity reports temperatures in.
type TemperatureUnit string

const UnitCelsius TemperatureUnit = "°C"

// Feature is a bit flag describing what a climate entity can be asked to do.
type Feature uint32

const (
	SupportTargetTemperature Feature = 1 << iota
)

// Has reports whether f includes flag.
func (f Feature) Has(flag Feature) bool {
	return f&flag != 0
}

// TemperatureArgs carries the optional arguments of a set-temperature call.
// A nil Temperature means the caller supplied no value.
type TemperatureArgs struct {
	Temperature *float64
}

// ClimateEntity is the host contract for thermostat-like devices.
//
// Accessors return the values observed by the last Update and never block
// on the network. Setters forward to the device and do not refresh state;
// the next poll observes their effect.
type ClimateEntity interface {
	Name() string
	TemperatureUnit() TemperatureUnit
	SupportedFeatures() Feature

	HVACMode() HVACMode
	HVACModes() []HVACMode
	SetHVACMode(ctx context.Context, mode HVACMode)

	CurrentTemperature() *float64
	TargetTemperature() *float64
	MinTemp() float64
	MaxTemp() float64
	TargetTemperatureStep() float64
	SetTemperature(ctx context.Context, args TemperatureArgs)

	ShouldPoll() bool
	Update(ctx context.Context) error
}
