package floureon

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/joshp123/gohome-floureon/internal/core"
)

const (
	minTemp  = 15.0
	maxTemp  = 30.0
	tempStep = 0.5
)

// State is a snapshot of what the last refresh observed.
type State struct {
	Name               string
	CurrentTemperature *float64
	TargetTemperature  *float64
	IsOn               bool
	HVACMode           core.HVACMode
	UpdatedAt          time.Time
}

// Thermostat adapts a Device to the host climate contract.
type Thermostat struct {
	name   string
	device *Device

	mu                 sync.RWMutex
	currentTemperature *float64
	targetTemperature  *float64
	isOn               bool
	updatedAt          time.Time
}

var _ core.ClimateEntity = (*Thermostat)(nil)

func NewThermostat(name string, device *Device) *Thermostat {
	return &Thermostat{name: name, device: device}
}

func (t *Thermostat) Name() string                          { return t.name }
func (t *Thermostat) TemperatureUnit() core.TemperatureUnit { return core.UnitCelsius }
func (t *Thermostat) SupportedFeatures() core.Feature       { return core.SupportTargetTemperature }
func (t *Thermostat) ShouldPoll() bool                      { return true }
func (t *Thermostat) MinTemp() float64                      { return minTemp }
func (t *Thermostat) MaxTemp() float64                      { return maxTemp }
func (t *Thermostat) TargetTemperatureStep() float64        { return tempStep }

func (t *Thermostat) HVACModes() []core.HVACMode {
	return []core.HVACMode{core.HVACModeHeat, core.HVACModeOff}
}

func (t *Thermostat) HVACMode() core.HVACMode {
	if t.IsOn() {
		return core.HVACModeHeat
	}
	return core.HVACModeOff
}

func (t *Thermostat) IsOn() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isOn
}

func (t *Thermostat) CurrentTemperature() *float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyFloat(t.currentTemperature)
}

func (t *Thermostat) TargetTemperature() *float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyFloat(t.targetTemperature)
}

func (t *Thermostat) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	mode := core.HVACModeOff
	if t.isOn {
		mode = core.HVACModeHeat
	}
	return State{
		Name:               t.name,
		CurrentTemperature: copyFloat(t.currentTemperature),
		TargetTemperature:  copyFloat(t.targetTemperature),
		IsOn:               t.isOn,
		HVACMode:           mode,
		UpdatedAt:          t.updatedAt,
	}
}

func (t *Thermostat) SetHVACMode(ctx context.Context, mode core.HVACMode) {
	t.ApplyHVACMode(ctx, mode)
}

// ApplyHVACMode switches to manual mode and then powers the device on for
// heat or off for anything else. It reports whether the power command was
// accepted.
func (t *Thermostat) ApplyHVACMode(ctx context.Context, mode core.HVACMode) bool {
	if mode == core.HVACModeHeat {
		return t.TurnOn(ctx)
	}
	return t.TurnOff(ctx)
}

func (t *Thermostat) TurnOn(ctx context.Context) bool {
	t.device.Manual(ctx)
	return t.device.TurnOn(ctx)
}

func (t *Thermostat) TurnOff(ctx context.Context) bool {
	t.device.Manual(ctx)
	return t.device.TurnOff(ctx)
}

func (t *Thermostat) SetTemperature(ctx context.Context, args core.TemperatureArgs) {
	if args.Temperature == nil {
		return
	}
	t.device.SetTemperature(ctx, *args.Temperature)
}

// ApplyTemperature forwards a target temperature and reports acceptance.
func (t *Thermostat) ApplyTemperature(ctx context.Context, celsius float64) bool {
	return t.device.SetTemperature(ctx, celsius)
}

// Update refreshes all cached values from a single shadow fetch. On error
// the previous values are kept.
func (t *Thermostat) Update(ctx context.Context) error {
	shadow, err := t.device.Shadow(ctx)
	if err != nil {
		return err
	}
	reported := shadow.State.Reported
	current := reported.CurrentTemperature()
	target := reported.TargetTemperature()
	isOn := reported.IsOn()

	t.mu.Lock()
	t.currentTemperature = &current
	t.targetTemperature = &target
	t.isOn = isOn
	t.updatedAt = time.Now()
	t.mu.Unlock()

	log.Info().Str("device", t.device.Name()).Float64("current_temp", current).Msg("read current temp")
	log.Info().Str("device", t.device.Name()).Float64("target_temp", target).Msg("read target temp")
	log.Info().Str("device", t.device.Name()).Bool("is_on", isOn).Msg("read is on")
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
