package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	s := Settings{AdapterIndex: -1}
	require.NoError(t, s.Validate())
}

func TestValidateSelectorExclusivity(t *testing.T) {
	s := Settings{Serial: "ABC123", AdapterIndex: 1}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidateSimulatorFieldsRequireSim(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{"sim-bin", Settings{AdapterIndex: -1, SimBin: "riscv-sim"}},
		{"sim-image", Settings{AdapterIndex: -1, SimImage: "fw.elf"}},
		{"sim-harts", Settings{AdapterIndex: -1, SimHarts: 2}},
		{"sim-port", Settings{AdapterIndex: -1, SimPort: 9824}},
		{"sim-arg", Settings{AdapterIndex: -1, SimArgs: []string{"--trace"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "requires --sim")
		})
	}
}

func TestValidateSimulatorHarts(t *testing.T) {
	s := Settings{AdapterIndex: -1, Sim: true}
	require.Error(t, s.Validate())

	s.SimHarts = 2
	require.NoError(t, s.Validate())
}

func TestValidateRanges(t *testing.T) {
	s := Settings{AdapterIndex: -1, Speed: -1}
	require.Error(t, s.Validate())

	s = Settings{AdapterIndex: -1, Verbosity: 3}
	require.Error(t, s.Validate())

	s = Settings{AdapterIndex: -1, Sim: true, SimHarts: 1, SimPort: -5}
	require.Error(t, s.Validate())
}
