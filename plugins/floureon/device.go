package floureon

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
)

// ShadowClient is the vendor cloud surface the device needs.
type ShadowClient interface {
	GetThingShadow(ctx context.Context, thingName string) ([]byte, error)
	Publish(ctx context.Context, topic string, qos int32, payload []byte) (int, error)
}

const (
	fieldWorkingStatus = "working_status"
	fieldWorkmode      = "workmode"
	fieldSetTem        = "set_tem"
)

// Device proxies one thermostat's thing shadow. All remote calls are
// serialized by a single mutex.
type Device struct {
	client ShadowClient
	name   string
	topic  string

	mu sync.Mutex
}

func NewDevice(client ShadowClient, deviceName string) *Device {
	return &Device{
		client: client,
		name:   deviceName,
		topic:  fmt.Sprintf("$aws/things/%s/shadow/update", deviceName),
	}
}

func (d *Device) Name() string  { return d.name }
func (d *Device) Topic() string { return d.topic }

// Shadow fetches and validates the current shadow document.
func (d *Device) Shadow(ctx context.Context) (Shadow, error) {
	payload, err := d.fetch(ctx)
	if err != nil {
		shadowFetches.WithLabelValues("error").Inc()
		return Shadow{}, fmt.Errorf("get shadow %s: %w", d.name, err)
	}
	shadow, err := ParseShadow(payload)
	if err != nil {
		shadowFetches.WithLabelValues("invalid").Inc()
		return Shadow{}, err
	}
	shadowFetches.WithLabelValues("ok").Inc()
	return shadow, nil
}

func (d *Device) fetch(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client.GetThingShadow(ctx, d.name)
}

func (d *Device) CurrentTemperature(ctx context.Context) (float64, error) {
	shadow, err := d.Shadow(ctx)
	if err != nil {
		return 0, err
	}
	return shadow.State.Reported.CurrentTemperature(), nil
}

func (d *Device) TargetTemperature(ctx context.Context) (float64, error) {
	shadow, err := d.Shadow(ctx)
	if err != nil {
		return 0, err
	}
	return shadow.State.Reported.TargetTemperature(), nil
}

func (d *Device) IsOn(ctx context.Context) (bool, error) {
	shadow, err := d.Shadow(ctx)
	if err != nil {
		return false, err
	}
	return shadow.State.Reported.IsOn(), nil
}

func (d *Device) TurnOn(ctx context.Context) bool {
	return d.command(ctx, fieldWorkingStatus, "on")
}

func (d *Device) TurnOff(ctx context.Context) bool {
	return d.command(ctx, fieldWorkingStatus, "off")
}

func (d *Device) Auto(ctx context.Context) bool {
	return d.command(ctx, fieldWorkmode, "auto")
}

func (d *Device) Manual(ctx context.Context) bool {
	return d.command(ctx, fieldWorkmode, "hand")
}

// SetTemperature sets the target in half-degree steps.
func (d *Device) SetTemperature(ctx context.Context, celsius float64) bool {
	return d.command(ctx, fieldSetTem, int64(math.Round(celsius*2)))
}

func (d *Device) command(ctx context.Context, field string, value any) bool {
	payload, err := json.Marshal(map[string]any{
		"state": map[string]any{
			"desired": map[string]any{field: value},
		},
	})
	if err != nil {
		log.Error().Err(err).Str("device", d.name).Str("field", field).Msg("encode command")
		commandPublishes.WithLabelValues(field, "error").Inc()
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	status, err := d.client.Publish(ctx, d.topic, 0, payload)
	if err != nil {
		log.Error().Err(err).Str("device", d.name).Str("field", field).Int("status", status).Msg("publish command")
		commandPublishes.WithLabelValues(field, "error").Inc()
		return false
	}
	if status != http.StatusOK {
		log.Warn().Str("device", d.name).Str("field", field).Int("status", status).Msg("command not accepted")
		commandPublishes.WithLabelValues(field, "rejected").Inc()
		return false
	}
	commandPublishes.WithLabelValues(field, "ok").Inc()
	return true
}
