package profile

import (
	"errors"
	"testing"

	"github.com/tekbench/tmcore/internal/visa"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		model        string
		options      []string
		wantFamily   Family
		wantChannels int
	}{
		{
			name:         "AFG3011 single channel",
			model:        "AFG3011",
			wantFamily:   FamilyAFG3K,
			wantChannels: 1,
		},
		{
			name:         "AFG3102 dual channel",
			model:        "AFG3102",
			wantFamily:   FamilyAFG3K,
			wantChannels: 2,
		},
		{
			name:         "AFG3021B revision suffix",
			model:        "AFG3021B",
			wantFamily:   FamilyAFG3K,
			wantChannels: 1,
		},
		{
			name:         "AFG3151C four digits with revision",
			model:        "AFG3151C",
			wantFamily:   FamilyAFG3K,
			wantChannels: 1,
		},
		{
			name:         "AFG31052 maps to AFG31K not AFG3K",
			model:        "AFG31052",
			wantFamily:   FamilyAFG31K,
			wantChannels: 2,
		},
		{
			name:         "AFG31151 maps to AFG31K",
			model:        "AFG31151",
			wantFamily:   FamilyAFG31K,
			wantChannels: 1,
		},
		{
			name:         "AWG5012C",
			model:        "AWG5012C",
			wantFamily:   FamilyAWG5K,
			wantChannels: 2,
		},
		{
			name:         "AWG7102",
			model:        "AWG7102",
			wantFamily:   FamilyAWG7K,
			wantChannels: 2,
		},
		{
			name:         "AWG5204 maps to AWG5200 not AWG5K",
			model:        "AWG5204",
			options:      []string{"DC"},
			wantFamily:   FamilyAWG5200,
			wantChannels: 4,
		},
		{
			name:         "MSO58 internal source is single channel",
			model:        "MSO58",
			wantFamily:   FamilyTekScope,
			wantChannels: 1,
		},
		{
			name:         "MSO58B",
			model:        "MSO58B",
			wantFamily:   FamilyTekScope,
			wantChannels: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(visa.Identification{
				Vendor:  "TEKTRONIX",
				Model:   tt.model,
				Options: tt.options,
			})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			if p.Family != tt.wantFamily {
				t.Errorf("Family = %v, want %v", p.Family, tt.wantFamily)
			}
			if p.Channels != tt.wantChannels {
				t.Errorf("Channels = %d, want %d", p.Channels, tt.wantChannels)
			}
		})
	}
}

func TestNew_UnsupportedVendor(t *testing.T) {
	_, err := New(visa.Identification{Vendor: "KEYSIGHT", Model: "33220A"})
	if !errors.Is(err, ErrUnsupportedVendor) {
		t.Errorf("New() error = %v, want ErrUnsupportedVendor", err)
	}
}

func TestNew_UnsupportedModel(t *testing.T) {
	_, err := New(visa.Identification{Vendor: "TEKTRONIX", Model: "TDS2024B"})
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Errorf("New() error = %v, want ErrUnsupportedModel", err)
	}
}

func TestFamilyCapabilities(t *testing.T) {
	afg, err := New(visa.Identification{Vendor: "TEKTRONIX", Model: "AFG3252"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !afg.Capabilities.Burst || !afg.Capabilities.DutyCycle || !afg.Capabilities.PhaseSync {
		t.Errorf("AFG capabilities = %+v, want burst, duty cycle and phase sync", afg.Capabilities)
	}
	if len(afg.Capabilities.OutputPaths) != 0 {
		t.Errorf("AFG should have no selectable output paths, got %v", afg.Capabilities.OutputPaths)
	}

	awg, err := New(visa.Identification{Vendor: "TEKTRONIX", Model: "AWG7102"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if awg.Capabilities.Burst {
		t.Error("AWG should not report burst capability")
	}
	if !awg.HasOutputPath(PathDirect) || !awg.HasOutputPath(PathDCAmplified) {
		t.Errorf("AWG7K output paths = %v, want DCA and DIR", awg.Capabilities.OutputPaths)
	}

	scope, err := New(visa.Identification{Vendor: "TEKTRONIX", Model: "MSO44"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !scope.Capabilities.Burst || scope.Capabilities.PhaseSync {
		t.Errorf("TekScope capabilities = %+v, want burst without phase sync", scope.Capabilities)
	}
}

func TestHasOption(t *testing.T) {
	p, err := New(visa.Identification{
		Vendor:  "TEKTRONIX",
		Model:   "AWG5204",
		Options: []string{"DC", "SEQ"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !p.HasOption("DC") {
		t.Error("HasOption(DC) = false, want true")
	}
	if p.HasOption("03") {
		t.Error("HasOption(03) = true, want false")
	}
}
