package adapter

// SerialUnavailable is recorded when a device's serial number cannot be read
// (permissions, or an adapter that simply has none). Such an adapter is
// still usable, it just cannot be addressed through the stand database.
const SerialUnavailable = "unavailable"

// Record identifies one attached debug adapter. Records are created once per
// enumeration pass and never mutated.
type Record struct {
	Serial      string // device serial, or SerialUnavailable
	Description string // vendor/model text from the USB listing
	BusID       string // USB bus number, zero-padded as listed
	DeviceID    string // USB device number on that bus
}

// Key returns the stable identity of the adapter: the serial when one could
// be read, otherwise the full description string.
func (r Record) Key() string {
	if r.Serial != SerialUnavailable && r.Serial != "" {
		return r.Serial
	}
	return r.Description
}

// HasSerial reports whether a real serial number was read for this adapter.
func (r Record) HasSerial() bool {
	return r.Serial != "" && r.Serial != SerialUnavailable
}
