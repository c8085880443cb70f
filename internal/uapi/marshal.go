package uapi

import (
	"encoding/binary"
	"reflect"
	"unsafe"
)

// Marshal converts a Descriptor (or any fixed-layout struct) to bytes
// using the system's native byte order, following the teacher's
// dispatch-table-plus-fallback shape: known types get a dedicated fast
// path, everything else falls back to a direct memory copy.
func Marshal(v interface{}) []byte {
	switch val := v.(type) {
	case *Descriptor:
		return marshalDescriptor(val)
	default:
		return directMarshal(v)
	}
}

// Unmarshal converts bytes back into v.
func Unmarshal(data []byte, v interface{}) error {
	switch val := v.(type) {
	case *Descriptor:
		return unmarshalDescriptor(data, val)
	default:
		return directUnmarshal(data, v)
	}
}

func marshalDescriptor(d *Descriptor) []byte {
	buf := make([]byte, unsafe.Sizeof(Descriptor{}))
	binary.LittleEndian.PutUint32(buf[0:4], d.OpFlags)
	binary.LittleEndian.PutUint32(buf[4:8], d.NrSectors)
	binary.LittleEndian.PutUint64(buf[8:16], d.StartSector)
	binary.LittleEndian.PutUint64(buf[16:24], d.Addr)
	return buf
}

func unmarshalDescriptor(data []byte, d *Descriptor) error {
	if len(data) < int(unsafe.Sizeof(Descriptor{})) {
		return errShortBuffer
	}
	d.OpFlags = binary.LittleEndian.Uint32(data[0:4])
	d.NrSectors = binary.LittleEndian.Uint32(data[4:8])
	d.StartSector = binary.LittleEndian.Uint64(data[8:16])
	d.Addr = binary.LittleEndian.Uint64(data[16:24])
	return nil
}

// directMarshal copies a struct's raw bytes using reflection, for types
// with no dedicated fast path (fixed-size structs without pointers).
func directMarshal(v interface{}) []byte {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil
	}
	elem := rv.Elem()
	size := elem.Type().Size()
	buf := make([]byte, size)
	src := unsafe.Slice((*byte)(unsafe.Pointer(elem.UnsafeAddr())), size)
	copy(buf, src)
	return buf
}

func directUnmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errInvalidTarget
	}
	elem := rv.Elem()
	size := elem.Type().Size()
	if uintptr(len(data)) < size {
		return errShortBuffer
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(elem.UnsafeAddr())), size)
	copy(dst, data)
	return nil
}

type marshalError string

func (e marshalError) Error() string { return string(e) }

const (
	errShortBuffer   marshalError = "uapi: buffer too short"
	errInvalidTarget marshalError = "uapi: invalid unmarshal target"
)
