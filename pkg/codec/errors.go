package codec

import "fmt"

// CodecError is returned for any failure converting a value to or from its
// wire representation: an unknown envelope byte, or a value shape neither
// JSON nor msgpack can represent.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}
