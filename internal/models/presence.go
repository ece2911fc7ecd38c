package models

import "time"

// HeartbeatMeta is what the hardware peer reports about itself with each
// heartbeat. Every field is optional; zero values are simply not echoed.
type HeartbeatMeta struct {
	Address        string `json:"address,omitempty"`        // peer network address
	SignalStrength int    `json:"signalStrength,omitempty"` // RSSI in dBm
	UptimeSeconds  int64  `json:"uptimeSeconds,omitempty"`
	FreeBytes      int64  `json:"freeBytes,omitempty"` // free heap on the peer
}

// Presence is the derived liveness view of the hardware peer. It is a pure
// heuristic: it never gates correctness of the state document.
type Presence struct {
	Online   bool          `json:"online"`
	LastSeen time.Time     `json:"last_seen"`
	Meta     HeartbeatMeta `json:"meta"`
}
