package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

// inputEvent is struct input_event on 64-bit Linux:
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// inputEventSize is the wire size of one inputEvent (24 bytes).
var inputEventSize = binary.Size(inputEvent{})

// readBatch is how many events one read() may return. A touch frame is
// usually well under this.
const readBatch = 64

// time returns the kernel timestamp of the event.
func (ev inputEvent) time() time.Time {
	return time.Unix(ev.Sec, ev.Usec*int64(time.Microsecond))
}

// deviceEvent tags an input event with the device it came from, so each
// touchscreen keeps its own slot state.
type deviceEvent struct {
	Device string
	Event  inputEvent
}

var errShortRead = errors.New("short read from input device")

// decodeInputEvents decodes the whole events in buf and forwards them.
// evdev reads always return whole events, so a partial tail is an error.
func decodeInputEvents(buf []byte, device string, events chan<- deviceEvent) error {
	if len(buf)%inputEventSize != 0 {
		return fmt.Errorf("%w: %s: %d bytes", errShortRead, device, len(buf))
	}
	for off := 0; off < len(buf); off += inputEventSize {
		b := buf[off : off+inputEventSize]
		events <- deviceEvent{Device: device, Event: inputEvent{
			Sec:   int64(binary.LittleEndian.Uint64(b[0:8])),
			Usec:  int64(binary.LittleEndian.Uint64(b[8:16])),
			Type:  binary.LittleEndian.Uint16(b[16:18]),
			Code:  binary.LittleEndian.Uint16(b[18:20]),
			Value: int32(binary.LittleEndian.Uint32(b[20:24])),
		}}
	}
	return nil
}

// readInputEvents reads one device until it fails. It blocks in read and is
// meant to run in its own goroutine.
func readInputEvents(f *os.File, events chan<- deviceEvent, readErr chan<- error) {
	buf := make([]byte, readBatch*inputEventSize)
	for {
		n, err := f.Read(buf)
		if err != nil {
			readErr <- fmt.Errorf("read from %s: %w", f.Name(), err)
			return
		}
		if err := decodeInputEvents(buf[:n], f.Name(), events); err != nil {
			readErr <- err
			return
		}
	}
}
