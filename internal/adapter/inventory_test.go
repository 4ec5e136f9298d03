package adapter

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `Bus 001 Device 004: ID 15ba:002b Olimex Ltd. ARM-USB-OCD-H JTAG+RS232
Bus 001 Device 005: ID 15ba:002a Olimex Ltd. ARM-USB-TINY-H JTAG
Bus 002 Device 001: ID 1d6b:0003 Linux Foundation 3.0 root hub
`

const verboseWithSerial = `Bus 001 Device 004: ID 15ba:002b Olimex Ltd. ARM-USB-OCD-H JTAG+RS232
Device Descriptor:
  idVendor           0x15ba Olimex Ltd.
  iSerial                 3 OLXA15D4
`

const verboseNoSerial = `Bus 001 Device 005: ID 15ba:002a Olimex Ltd. ARM-USB-TINY-H JTAG
Device Descriptor:
  idVendor           0x15ba Olimex Ltd.
`

func TestEnumerate(t *testing.T) {
	inv := NewInventoryWithRunner(func(name string, args ...string) ([]byte, error) {
		if len(args) == 0 {
			return []byte(listing), nil
		}
		// verbose per-device query: lsusb -v -s bus:dev
		require.Equal(t, "-v", args[0])
		switch args[2] {
		case "001:004":
			return []byte(verboseWithSerial), nil
		default:
			return []byte(verboseNoSerial), nil
		}
	})

	records, err := inv.Enumerate()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "OLXA15D4", records[0].Serial)
	assert.Equal(t, "Olimex Ltd. ARM-USB-OCD-H JTAG+RS232", records[0].Description)
	assert.Equal(t, "001", records[0].BusID)
	assert.Equal(t, "004", records[0].DeviceID)
	assert.True(t, records[0].HasSerial())
	assert.Equal(t, "OLXA15D4", records[0].Key())

	// No readable serial: kept with the sentinel, addressed by description
	assert.Equal(t, SerialUnavailable, records[1].Serial)
	assert.False(t, records[1].HasSerial())
	assert.Equal(t, "Olimex Ltd. ARM-USB-TINY-H JTAG", records[1].Key())
}

func TestEnumerateSerialQueryFailure(t *testing.T) {
	inv := NewInventoryWithRunner(func(name string, args ...string) ([]byte, error) {
		if len(args) == 0 {
			return []byte(listing), nil
		}
		return nil, errors.New("permission denied")
	})

	records, err := inv.Enumerate()
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, SerialUnavailable, rec.Serial)
	}
}

func TestEnumerateListerMissing(t *testing.T) {
	inv := NewInventoryWithRunner(func(name string, args ...string) ([]byte, error) {
		return nil, &exec.Error{Name: "lsusb", Err: exec.ErrNotFound}
	})

	_, err := inv.Enumerate()
	require.ErrorIs(t, err, ErrListerMissing)
}

func TestEnumerateEmpty(t *testing.T) {
	inv := NewInventoryWithRunner(func(name string, args ...string) ([]byte, error) {
		return []byte("\n"), nil
	})

	records, err := inv.Enumerate()
	require.NoError(t, err)
	assert.Empty(t, records)
}
