package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

func encodeInputEvents(t *testing.T, evs ...inputEvent) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, ev := range evs {
		if err := binary.Write(&buf, binary.LittleEndian, ev); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return buf.Bytes()
}

func TestInputEventSize(t *testing.T) {
	if inputEventSize != 24 {
		t.Fatalf("inputEventSize = %d, want 24", inputEventSize)
	}
}

func TestDecodeInputEvents(t *testing.T) {
	want := []inputEvent{
		{Sec: 10, Usec: 500, Type: EV_ABS, Code: ABS_MT_POSITION_X, Value: 321},
		{Sec: 10, Usec: 501, Type: EV_ABS, Code: ABS_MT_TRACKING_ID, Value: -1},
		{Sec: 10, Usec: 502, Type: EV_SYN, Code: SYN_REPORT},
	}
	events := make(chan deviceEvent, len(want))
	if err := decodeInputEvents(encodeInputEvents(t, want...), "/dev/input/event3", events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	close(events)

	i := 0
	for got := range events {
		if got.Device != "/dev/input/event3" || got.Event != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, got, want[i])
		}
		i++
	}
	if i != len(want) {
		t.Fatalf("decoded %d events, want %d", i, len(want))
	}
}

func TestDecodeInputEventsRejectsPartialEvent(t *testing.T) {
	b := encodeInputEvents(t, inputEvent{Type: EV_SYN})
	err := decodeInputEvents(b[:20], "dev", make(chan deviceEvent, 1))
	if !errors.Is(err, errShortRead) {
		t.Fatalf("err = %v, want errShortRead", err)
	}
}

func TestReadInputEventsUntilEOF(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	events := make(chan deviceEvent, 4)
	readErr := make(chan error, 1)
	go readInputEvents(r, events, readErr)

	if _, err := w.Write(encodeInputEvents(t,
		inputEvent{Type: EV_KEY, Code: BTN_TOUCH, Value: 1},
		inputEvent{Type: EV_SYN, Code: SYN_REPORT},
	)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-events:
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for event %d", i)
		}
	}

	w.Close()
	select {
	case err := <-readErr:
		if !errors.Is(err, io.EOF) {
			t.Fatalf("err = %v, want EOF", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop at EOF")
	}
}
