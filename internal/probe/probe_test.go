package probe

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zon07/ocdrun/internal/adapter"
	"github.com/zon07/ocdrun/internal/config"
)

func stub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openocd.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func testProber(driver string) *Prober {
	return &Prober{
		Cfg: &config.Config{
			OpenOCD:      driver,
			DefaultSpeed: 500,
			WaitTimeout:  1,
		},
		Out: &bytes.Buffer{},
	}
}

var probeAdapter = adapter.Record{Serial: "OLXA15D4", Description: "Olimex Ltd. ARM-USB-OCD-H JTAG+RS232"}

func TestTapCountSimulatorModeSkipsSpawn(t *testing.T) {
	// The driver path does not even exist; simulator mode must not spawn it
	p := testProber("/no/such/openocd")

	count, err := p.TapCount("", adapter.Record{}, config.Settings{Sim: true})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTapCount(t *testing.T) {
	driver := stub(t, `echo "Open On-Chip Debugger"
echo "detected number of taps: 2"`)

	p := testProber(driver)
	count, err := p.TapCount("iface.cfg", probeAdapter, config.Settings{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTapCountZeroFatal(t *testing.T) {
	driver := stub(t, `echo "detected number of taps: 0"`)

	p := testProber(driver)
	_, err := p.TapCount("iface.cfg", probeAdapter, config.Settings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "power-cycle")
}

func TestTapCountTimeout(t *testing.T) {
	driver := stub(t, `exec sleep 60`)

	p := testProber(driver)
	start := time.Now()
	_, err := p.TapCount("iface.cfg", probeAdapter, config.Settings{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestTapCountEarlyExit(t *testing.T) {
	driver := stub(t, `echo "Error: no device found"
exit 1`)

	p := testProber(driver)
	_, err := p.TapCount("iface.cfg", probeAdapter, config.Settings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before reporting a tap count")
}

func TestTapCountSpeedCap(t *testing.T) {
	// The stub records its own arguments so the test can inspect the
	// assembled scan script
	argsFile := filepath.Join(t.TempDir(), "args")
	driver := stub(t, `echo "$@" > `+argsFile+`
echo "detected number of taps: 1"`)

	p := testProber(driver)

	// Requested speed below the cap wins
	_, err := p.TapCount("iface.cfg", probeAdapter, config.Settings{Speed: 100})
	require.NoError(t, err)
	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "adapter speed 100")
	assert.Contains(t, string(data), "adapter serial OLXA15D4")

	// Requested speed above the cap is clamped to the default
	_, err = p.TapCount("iface.cfg", probeAdapter, config.Settings{Speed: 8000})
	require.NoError(t, err)
	data, err = os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "adapter speed 500")
}
