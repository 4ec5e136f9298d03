package session

import "time"

// Record is the persisted summary of one debug session: which adapter it
// ran on, which configuration drove it, the negotiated ports, and how it
// ended. Written best-effort when a session finishes; `ocdrun sessions`
// lists them.
type Record struct {
	ID             string     `json:"id"`
	AdapterSerial  string     `json:"adapter_serial,omitempty"`
	AdapterDesc    string     `json:"adapter_desc,omitempty"`
	ConfigPath     string     `json:"config_path,omitempty"`
	TapCount       int        `json:"tap_count,omitempty"`
	Simulator      bool       `json:"simulator"`
	RendezvousPort int        `json:"rendezvous_port,omitempty"`
	TelnetPort     int        `json:"telnet_port,omitempty"`
	Args           []string   `json:"args,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	StoppedAt      *time.Time `json:"stopped_at,omitempty"`
	ExitReason     string     `json:"exit_reason,omitempty"` // "ok" | "failed"
}
