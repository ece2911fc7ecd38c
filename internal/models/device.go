package models

// DeviceID identifies a single switchable output on the hardware peer.
type DeviceID string

// The closed device set. Validation, wire payloads and the persisted document
// all draw from this list; there is no way to address a device outside it.
const (
	DeviceLed1 DeviceID = "led1"
	DeviceLed2 DeviceID = "led2"
	DeviceLed3 DeviceID = "led3"
	DeviceFan  DeviceID = "fan"
)

// DeviceKind tags what a registry entry physically drives.
type DeviceKind string

const (
	KindLight     DeviceKind = "light"
	KindAppliance DeviceKind = "appliance"
)

// Device is one entry of the fixed registry.
type Device struct {
	ID    DeviceID   `json:"id"`
	Label string     `json:"label"`
	Kind  DeviceKind `json:"kind"`
}

// registry is the authoritative device list: three switchable LED outputs plus
// one relay-driven appliance.
var registry = []Device{
	{ID: DeviceLed1, Label: "LED 1", Kind: KindLight},
	{ID: DeviceLed2, Label: "LED 2", Kind: KindLight},
	{ID: DeviceLed3, Label: "LED 3", Kind: KindLight},
	{ID: DeviceFan, Label: "Fan", Kind: KindAppliance},
}

// Devices returns a copy of the registry.
func Devices() []Device {
	out := make([]Device, len(registry))
	copy(out, registry)
	return out
}

// DeviceIDs returns the ids of every registered device, in registry order.
func DeviceIDs() []DeviceID {
	ids := make([]DeviceID, 0, len(registry))
	for _, d := range registry {
		ids = append(ids, d.ID)
	}
	return ids
}

// KnownDevice reports whether id belongs to the registry.
func KnownDevice(id DeviceID) bool {
	for _, d := range registry {
		if d.ID == id {
			return true
		}
	}
	return false
}
