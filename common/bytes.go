package common

import "unsafe"

// SliceToBytes returns a byte view of a slice of plain values for GPU uploads.
// The returned slice aliases data; it must not outlive or be written through.
//
// Parameters:
//   - data: source slice of fixed-size values
//
// Returns:
//   - []byte: byte view of data, or nil if data is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(unsafe.Sizeof(zero))*len(data))
}
