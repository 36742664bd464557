package floureon

import (
	"context"
	"errors"
	"testing"

	"github.com/joshp123/gohome-floureon/internal/core"
)

func newTestThermostat() (*Thermostat, *fakeShadowClient) {
	client := newFakeShadowClient()
	return NewThermostat("Hall", NewDevice(client, "by-t03-00-11-22")), client
}

func TestThermostatStaticProperties(t *testing.T) {
	thermo, _ := newTestThermostat()
	if thermo.Name() != "Hall" {
		t.Fatalf("unexpected name: %s", thermo.Name())
	}
	if thermo.TemperatureUnit() != core.UnitCelsius {
		t.Fatalf("unexpected unit: %s", thermo.TemperatureUnit())
	}
	if !thermo.SupportedFeatures().Has(core.SupportTargetTemperature) {
		t.Fatalf("expected target temperature support")
	}
	if thermo.MinTemp() != 15 || thermo.MaxTemp() != 30 || thermo.TargetTemperatureStep() != 0.5 {
		t.Fatalf("unexpected range: %v-%v step %v", thermo.MinTemp(), thermo.MaxTemp(), thermo.TargetTemperatureStep())
	}
	if !thermo.ShouldPoll() {
		t.Fatalf("expected polling")
	}
	modes := thermo.HVACModes()
	if len(modes) != 2 || modes[0] != core.HVACModeHeat || modes[1] != core.HVACModeOff {
		t.Fatalf("unexpected modes: %v", modes)
	}
	if thermo.CurrentTemperature() != nil || thermo.TargetTemperature() != nil {
		t.Fatalf("expected nil temperatures before first update")
	}
	if thermo.HVACMode() != core.HVACModeOff || thermo.IsOn() {
		t.Fatalf("expected off before first update")
	}
}

func TestThermostatSetHVACModeOrder(t *testing.T) {
	cases := []struct {
		mode core.HVACMode
		want string
	}{
		{core.HVACModeHeat, "on"},
		{core.HVACModeOff, "off"},
		{core.HVACMode("cool"), "off"},
	}
	for _, tc := range cases {
		thermo, client := newTestThermostat()
		thermo.SetHVACMode(context.Background(), tc.mode)

		cmds := client.commands()
		if len(cmds) != 2 {
			t.Fatalf("%s: expected two commands, got %d", tc.mode, len(cmds))
		}
		if cmds[0].field != "workmode" || cmds[0].value != "hand" {
			t.Fatalf("%s: expected manual first, got %s=%v", tc.mode, cmds[0].field, cmds[0].value)
		}
		if cmds[1].field != "working_status" || cmds[1].value != tc.want {
			t.Fatalf("%s: expected working_status=%s, got %s=%v", tc.mode, tc.want, cmds[1].field, cmds[1].value)
		}
	}
}

func TestThermostatSetTemperature(t *testing.T) {
	thermo, client := newTestThermostat()
	ctx := context.Background()

	thermo.SetTemperature(ctx, core.TemperatureArgs{})
	if len(client.commands()) != 0 {
		t.Fatalf("expected no publish without a temperature")
	}

	temp := 22.5
	thermo.SetTemperature(ctx, core.TemperatureArgs{Temperature: &temp})
	cmds := client.commands()
	if len(cmds) != 1 || cmds[0].field != "set_tem" || cmds[0].value != float64(45) {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
}

func TestThermostatUpdateFetchesOnce(t *testing.T) {
	thermo, client := newTestThermostat()
	if err := thermo.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if client.fetches() != 1 {
		t.Fatalf("expected a single shadow fetch, got %d", client.fetches())
	}

	current := thermo.CurrentTemperature()
	target := thermo.TargetTemperature()
	if current == nil || *current != 21.5 || target == nil || *target != 21 {
		t.Fatalf("unexpected temperatures: %v %v", current, target)
	}
	if !thermo.IsOn() || thermo.HVACMode() != core.HVACModeHeat {
		t.Fatalf("expected heat after update")
	}
	if thermo.State().UpdatedAt.IsZero() {
		t.Fatalf("expected update timestamp")
	}
}

func TestThermostatUpdateErrorKeepsPreviousValues(t *testing.T) {
	thermo, client := newTestThermostat()
	ctx := context.Background()
	if err := thermo.Update(ctx); err != nil {
		t.Fatalf("Update: %v", err)
	}

	client.getErr = errors.New("throttled")
	if err := thermo.Update(ctx); err == nil {
		t.Fatalf("expected update error")
	}
	if current := thermo.CurrentTemperature(); current == nil || *current != 21.5 {
		t.Fatalf("expected previous value kept, got %v", current)
	}
	if !thermo.IsOn() {
		t.Fatalf("expected previous power state kept")
	}
}

func TestThermostatPolledByHost(t *testing.T) {
	thermo, client := newTestThermostat()
	poller := core.NewPoller([]core.ClimateEntity{thermo}, 0)
	poller.PollOnce(context.Background())
	if client.fetches() != 1 || thermo.TargetTemperature() == nil {
		t.Fatalf("expected poller to refresh thermostat")
	}
}
