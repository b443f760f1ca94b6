package scaler

import (
	"fmt"
	"strings"
)

// FromString builds a scaler from its textual specification. Accepted
// forms:
//
//	delta V
//	[independent] linear <direction>
//	[independent] log <direction>
//	[independent] delta triclinic
//
// where <direction> follows ParseDirection.
func FromString(spec string) (Scaler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "delta V" {
		return DeltaVolume{}, nil
	}

	rest, independent := strings.CutPrefix(spec, "independent ")

	if rest == "delta triclinic" {
		return NewTriclinicDelta(!independent), nil
	}

	name, dirStr, ok := strings.Cut(rest, " ")
	if !ok {
		return nil, fmt.Errorf("scaler: malformed scaling type %q", spec)
	}

	var sampler FactorSampler
	switch name {
	case "linear":
		sampler = Linear{}
	case "log":
		sampler = Log{}
	default:
		return nil, fmt.Errorf("scaler: unknown scaling type %q", spec)
	}

	dir, err := ParseDirection(dirStr)
	if err != nil {
		return nil, err
	}
	return NewAnisotropic(sampler, dir, independent), nil
}
