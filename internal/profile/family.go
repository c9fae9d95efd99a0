package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tekbench/tmcore/internal/visa"
)

// Output signal path names used by the AWG families.
const (
	PathDCAmplified   = "DCA"  // amplified path, offset allowed
	PathDirect        = "DIR"  // direct path, offset forced to zero
	PathDCHighBW      = "DCHB" // high bandwidth path
	PathDCHighVoltage = "DCHV" // high voltage path
)

// New builds a Profile from instrument identification.
//
// The vendor must be Tektronix and the model must map to a known
// family; anything else is rejected so the caller fails at connect
// time rather than at the first constraint lookup.
//
// Parameters:
//   - ident: Parsed *IDN?/*OPT? response
//
// Returns:
//   - *Profile: Immutable device profile
//   - error: ErrUnsupportedVendor or ErrUnsupportedModel
func New(ident visa.Identification) (*Profile, error) {
	if !strings.EqualFold(ident.Vendor, "TEKTRONIX") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVendor, ident.Vendor)
	}

	model := strings.ToUpper(strings.TrimSpace(ident.Model))

	family, err := detectFamily(model)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Vendor:       ident.Vendor,
		Model:        model,
		Serial:       ident.Serial,
		Firmware:     ident.Firmware,
		Options:      ident.Options,
		Family:       family,
		Channels:     channelCount(model, family),
		Capabilities: familyCapabilities(family),
	}, nil
}

// detectFamily maps a model string to its family. The AFG families
// cannot be told apart by prefix: AFG3102 and AFG31021 both start
// with "AFG31". The digit count decides, four digits for the AFG3000
// series and five for the AFG31000 series.
func detectFamily(model string) (Family, error) {
	switch {
	case strings.HasPrefix(model, "AFG3"):
		digits := strings.TrimRight(model[3:], "ABC")
		if len(digits) == 5 {
			return FamilyAFG31K, nil
		}
		return FamilyAFG3K, nil
	case strings.HasPrefix(model, "AWG52"):
		return FamilyAWG5200, nil
	case strings.HasPrefix(model, "AWG5"):
		return FamilyAWG5K, nil
	case strings.HasPrefix(model, "AWG7"):
		return FamilyAWG7K, nil
	case strings.HasPrefix(model, "MSO"):
		return FamilyTekScope, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}
}

// channelCount derives the channel count from the model number. The
// signal-source families encode it in the last digit (AFG3102 has two
// channels, AWG5204 has four). The scope internal AFG is always a
// single source regardless of how many scope inputs the model has.
func channelCount(model string, family Family) int {
	if family == FamilyTekScope {
		return 1
	}

	digits := strings.TrimRight(model[3:], "ABC")
	if digits == "" {
		return 1
	}

	last, err := strconv.Atoi(digits[len(digits)-1:])
	if err != nil || last < 1 {
		return 1
	}
	return last
}

// familyCapabilities composes the capability set for a family.
func familyCapabilities(family Family) Capabilities {
	switch family {
	case FamilyAFG3K, FamilyAFG31K:
		return Capabilities{
			Burst:              true,
			BurstFireAndForget: true,
			DutyCycle:          true,
			Symmetry:           true,
			PhaseSync:          true,
		}
	case FamilyTekScope:
		return Capabilities{
			Burst:              true,
			BurstFireAndForget: true,
			DutyCycle:          true,
			Symmetry:           true,
		}
	case FamilyAWG5K, FamilyAWG7K:
		return Capabilities{
			OutputPaths: []string{PathDCAmplified, PathDirect},
		}
	case FamilyAWG5200:
		return Capabilities{
			OutputPaths: []string{PathDCHighBW, PathDCHighVoltage},
		}
	default:
		return Capabilities{}
	}
}
