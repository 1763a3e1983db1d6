package sampler

import (
	"fmt"
	"strings"

	"golang.org/x/image/draw"
)

// Method selects the downscale interpolator used to fill the sample buffer
type Method uint8

const (
	MethodApproxBiLinear Method = iota // Default, close to a browser canvas drawImage
	MethodNearest
	MethodBiLinear
	MethodCatmullRom
)

var methodNames = [...]string{
	MethodApproxBiLinear: "approx",
	MethodNearest:        "nearest",
	MethodBiLinear:       "bilinear",
	MethodCatmullRom:     "catmullrom",
}

// String returns the config name of the method
func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("method(%d)", m)
}

// ParseMethod resolves a config name; empty selects the default
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "approx", "approx-bilinear", "approxbilinear":
		return MethodApproxBiLinear, nil
	case "nearest", "nn":
		return MethodNearest, nil
	case "bilinear", "linear":
		return MethodBiLinear, nil
	case "catmullrom", "catmull-rom", "cubic":
		return MethodCatmullRom, nil
	default:
		return MethodApproxBiLinear, fmt.Errorf("sampler: unknown method %q", s)
	}
}

func (m Method) scaler() draw.Scaler {
	switch m {
	case MethodNearest:
		return draw.NearestNeighbor
	case MethodBiLinear:
		return draw.BiLinear
	case MethodCatmullRom:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}
