package adapter

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// ErrListerMissing is returned when the USB listing utility is not installed.
var ErrListerMissing = errors.New("lsusb not found - install usbutils")

// deviceLine matches one physical device in plain `lsusb` output, e.g.
// "Bus 001 Device 004: ID 15ba:002b Olimex Ltd. ARM-USB-OCD-H JTAG+RS232".
var deviceLine = regexp.MustCompile(`^Bus (\d+) Device (\d+): ID [0-9a-fA-F]{4}:[0-9a-fA-F]{4} (.+)$`)

// serialLine matches the iSerial descriptor field in verbose lsusb output.
var serialLine = regexp.MustCompile(`^\s*iSerial\s+\d+\s+(\S+)`)

// Runner executes an external command and returns its combined output.
// Tests substitute a canned implementation.
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// Inventory enumerates attached debug adapters through lsusb.
type Inventory struct {
	run Runner
}

// NewInventory creates an Inventory backed by the real lsusb binary.
func NewInventory() *Inventory {
	return &Inventory{run: execRunner}
}

// NewInventoryWithRunner creates an Inventory with a custom command runner.
func NewInventoryWithRunner(run Runner) *Inventory {
	return &Inventory{run: run}
}

// Enumerate performs a single enumeration pass and returns one Record per
// attached device. A device whose serial cannot be read is kept with the
// SerialUnavailable sentinel; only a missing lsusb binary is fatal. The pass
// is authoritative for the whole session, there is no retry.
func (inv *Inventory) Enumerate() ([]Record, error) {
	out, err := inv.run("lsusb")
	if err != nil {
		if isNotFound(err) {
			return nil, ErrListerMissing
		}
		return nil, fmt.Errorf("lsusb failed: %w", err)
	}

	var records []Record
	for _, line := range strings.Split(string(out), "\n") {
		m := deviceLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		rec := Record{
			BusID:       m[1],
			DeviceID:    m[2],
			Description: strings.TrimSpace(m[3]),
			Serial:      SerialUnavailable,
		}
		if serial := inv.querySerial(rec.BusID, rec.DeviceID); serial != "" {
			rec.Serial = serial
		}
		records = append(records, rec)
	}
	return records, nil
}

// querySerial asks lsusb for the verbose descriptor of one device and pulls
// the iSerial field out of it. Any failure (permissions, detached device)
// yields an empty string rather than an error.
func (inv *Inventory) querySerial(bus, dev string) string {
	out, err := inv.run("lsusb", "-v", "-s", bus+":"+dev)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		if m := serialLine.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

func isNotFound(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return errors.Is(execErr.Err, exec.ErrNotFound)
	}
	return errors.Is(err, exec.ErrNotFound)
}
