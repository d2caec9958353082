package vehicle

import (
	"encoding/json"
	"fmt"

	"github.com/cxd309/mobility-engine/internal/kinematics"
)

// DefaultLength is the vehicle length used when a profile omits it.
const DefaultLength = 4.0

// Vehicle holds the static parameters of a vehicle type.
// The car-following physics are encapsulated by the Kinem field;
// adding a new model only requires implementing kinematics.MotionModel and registering
// it in UnmarshalJSON below.
type Vehicle struct {
	Name   string                 `json:"name"`
	Length float64                `json:"length"` // vehicle length, metres
	Kinem  kinematics.MotionModel `json:"-"`      // set by UnmarshalJSON
}

// DefaultVehicle returns a passenger car driven by the Intelligent Driver Model.
func DefaultVehicle() Vehicle {
	return Vehicle{Name: "car", Length: DefaultLength, Kinem: kinematics.DefaultIntelligentDriver()}
}

// kinematicsDisc is the minimum JSON structure needed to read the model discriminator.
type kinematicsDisc struct {
	Model string `json:"model"`
}

// vehicleJSON is the raw JSON shape of a Vehicle, before the kinematics model is resolved.
type vehicleJSON struct {
	Name   string          `json:"name"`
	Length float64         `json:"length"`
	Kinem  json.RawMessage `json:"kinematics"`
}

// UnmarshalJSON implements json.Unmarshaler for Vehicle.
// The optional "kinematics" field must contain a "model" discriminator key that
// selects the concrete implementation; the rest of the kinematics object is
// forwarded to that implementation's own unmarshaler. Fields left out keep
// their default values.
//
// Supported models:
//   - "idm": Intelligent Driver Model (default).
//   - "constant": fixed a_acc / a_dcc rates.
func (v *Vehicle) UnmarshalJSON(data []byte) error {
	var aux vehicleJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*v = DefaultVehicle()
	if aux.Name != "" {
		v.Name = aux.Name
	}
	if aux.Length < 0 {
		return fmt.Errorf("vehicle %q: negative length %v", v.Name, aux.Length)
	}
	if aux.Length > 0 {
		v.Length = aux.Length
	}

	if len(aux.Kinem) == 0 {
		return nil
	}

	var disc kinematicsDisc
	if err := json.Unmarshal(aux.Kinem, &disc); err != nil {
		return fmt.Errorf("vehicle %q: reading kinematics model discriminator: %w", v.Name, err)
	}

	switch disc.Model {
	case kinematics.IntelligentDriverModelName, "":
		k := kinematics.DefaultIntelligentDriver()
		if err := json.Unmarshal(aux.Kinem, &k); err != nil {
			return fmt.Errorf("vehicle %q: parsing idm kinematics: %w", v.Name, err)
		}
		if k.A <= 0 || k.B <= 0 {
			return fmt.Errorf("vehicle %q: idm needs positive a and b", v.Name)
		}
		v.Kinem = k
	case kinematics.ConstantModelName:
		var k kinematics.ConstantAcceleration
		if err := json.Unmarshal(aux.Kinem, &k); err != nil {
			return fmt.Errorf("vehicle %q: parsing constant kinematics: %w", v.Name, err)
		}
		if k.AAcc <= 0 || k.ADcc <= 0 {
			return fmt.Errorf("vehicle %q: constant model needs positive a_acc and a_dcc", v.Name)
		}
		v.Kinem = k
	default:
		return fmt.Errorf("vehicle %q: unknown kinematics model %q", v.Name, disc.Model)
	}
	return nil
}
