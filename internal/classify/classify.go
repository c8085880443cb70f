// Package classify maps a request's wire-level operation code to one of
// the scheduler's five routing classes.
package classify

import "github.com/zinc-io/zinc/internal/uapi"

// Class is a request's routing class at insert time.
type Class int

const (
	Read Class = iota
	Write
	Reset
	Finish
	Other
)

func (c Class) String() string {
	switch c {
	case Read:
		return "READ"
	case Write:
		return "WRITE"
	case Reset:
		return "RESET"
	case Finish:
		return "FINISH"
	default:
		return "OTHER"
	}
}

// Op classifies a wire-level operation code. Any code not recognized
// as one of the first four is OTHER, including zone-append (which is
// explicitly unsupported) and zone-report/open/close.
func Op(opcode uint8) Class {
	switch opcode {
	case uapi.OpRead:
		return Read
	case uapi.OpWrite, uapi.OpWriteSame, uapi.OpWriteZeroes:
		return Write
	case uapi.OpZoneReset, uapi.OpZoneResetAll:
		return Reset
	case uapi.OpZoneFinish:
		return Finish
	default:
		return Other
	}
}
