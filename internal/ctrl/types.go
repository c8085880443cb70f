package ctrl

import "github.com/zinc-io/zinc/internal/uapi"

// Attrs mirrors the read-only device-level attributes a caller
// declares before attach: whether the device is read-only, backed by
// rotational media, carries a volatile write cache, or supports FUA.
// Encode reduces them to the attribute bitmask spec.md's device
// attributes carry.
type Attrs struct {
	ReadOnly      bool
	Rotational    bool
	VolatileCache bool
	FUA           bool
}

// Encode packs the attribute set into the wire-level bitmask.
func (a Attrs) Encode() uint32 {
	var flags uint32
	if a.ReadOnly {
		flags |= uapi.AttrReadOnly
	}
	if a.Rotational {
		flags |= uapi.AttrRotational
	}
	if a.VolatileCache {
		flags |= uapi.AttrVolatileCache
	}
	if a.FUA {
		flags |= uapi.AttrFUA
	}
	return flags
}

// DeviceParams describes the zoned device a Registry administers:
// geometry and queue shape plus the read-only Attrs above. Unlike the
// teacher's DeviceParams (which also carried ublk wire-protocol
// feature-negotiation flags for a real character device), there is no
// device to negotiate features with here, so only the attributes that
// matter to the scheduler's own semantics survive.
type DeviceParams struct {
	DeviceName  string
	NumZones    int
	ZoneSize    int64
	QueueDepth  int
	NumQueues   int
	CPUAffinity []int
	Attrs       Attrs
}

// DefaultDeviceParams returns reasonable defaults for a demo or test
// zoned device: 64 zones of 256MB each, queue depth 128, a single
// queue, no special attributes.
func DefaultDeviceParams() DeviceParams {
	return DeviceParams{
		DeviceName: "zinc0",
		NumZones:   64,
		ZoneSize:   256 << 20,
		QueueDepth: 128,
		NumQueues:  1,
	}
}
