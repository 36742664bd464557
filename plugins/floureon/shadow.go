package floureon

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed shadow.schema.json
var shadowSchemaJSON []byte

// Shadow is the part of the device shadow the thermostat reads.
type Shadow struct {
	State struct {
		Reported Reported `json:"reported"`
	} `json:"state"`
}

type Reported struct {
	AirTem        float64 `json:"air_tem"`
	SetTem        float64 `json:"set_tem"`
	WorkingStatus string  `json:"working_status"`
	Workmode      string  `json:"workmode,omitempty"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func shadowSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(shadowSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("decode shadow schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("shadow.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("add shadow schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("shadow.schema.json")
	})
	return schema, schemaErr
}

// ParseShadow validates and decodes a GetThingShadow payload.
func ParseShadow(payload []byte) (Shadow, error) {
	compiled, err := shadowSchema()
	if err != nil {
		return Shadow{}, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return Shadow{}, fmt.Errorf("decode shadow: %w", err)
	}
	if err := compiled.Validate(inst); err != nil {
		return Shadow{}, fmt.Errorf("invalid shadow: %w", err)
	}

	var shadow Shadow
	if err := json.Unmarshal(payload, &shadow); err != nil {
		return Shadow{}, fmt.Errorf("decode shadow: %w", err)
	}
	return shadow, nil
}

func (r Reported) CurrentTemperature() float64 { return r.AirTem / 10 }
func (r Reported) TargetTemperature() float64  { return r.SetTem / 2 }
func (r Reported) IsOn() bool                  { return r.WorkingStatus == "on" }
