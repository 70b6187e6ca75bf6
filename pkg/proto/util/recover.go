package util

import "fmt"

// RecoverFunc runs fn and converts a panic inside it into an error.
// Packet decoders index into attacker controlled data and a malformed
// packet must never take the whole read loop down.
func RecoverFunc(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	return fn()
}
