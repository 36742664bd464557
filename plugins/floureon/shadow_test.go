package floureon

import "testing"

func TestParseShadow(t *testing.T) {
	shadow, err := ParseShadow([]byte(testShadow))
	if err != nil {
		t.Fatalf("ParseShadow: %v", err)
	}
	reported := shadow.State.Reported
	if reported.CurrentTemperature() != 21.5 || reported.TargetTemperature() != 21 || !reported.IsOn() {
		t.Fatalf("unexpected reported state: %+v", reported)
	}
	if reported.Workmode != "hand" {
		t.Fatalf("unexpected workmode: %q", reported.Workmode)
	}
}

func TestParseShadowRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"no state":       `{"version":1}`,
		"no reported":    `{"state":{"desired":{"set_tem":40}}}`,
		"string air_tem": `{"state":{"reported":{"air_tem":"21","set_tem":42,"working_status":"on"}}}`,
		"no status":      `{"state":{"reported":{"air_tem":210,"set_tem":42}}}`,
		"not json":       `{"state":`,
	}
	for name, payload := range cases {
		if _, err := ParseShadow([]byte(payload)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
