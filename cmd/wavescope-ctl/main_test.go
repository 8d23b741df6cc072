package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"wavescope/internal/ipcclient"
)

// fakeDaemon records every envelope and replies ok, or error for types in reject.
type fakeDaemon struct {
	mu     sync.Mutex
	got    []ipcclient.Envelope
	reject map[string]bool
}

func startFakeDaemon(t *testing.T, reject ...string) (string, *fakeDaemon) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "d.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	fd := &fakeDaemon{reject: map[string]bool{}}
	for _, r := range reject {
		fd.reject[r] = true
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go fd.serve(conn)
		}
	}()
	return path, fd
}

func (fd *fakeDaemon) serve(conn net.Conn) {
	defer conn.Close()
	sc := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)
	for sc.Scan() {
		var env ipcclient.Envelope
		if err := json.Unmarshal(sc.Bytes(), &env); err != nil {
			_ = enc.Encode(ipcclient.Response{Status: "error", Error: err.Error()})
			continue
		}
		fd.mu.Lock()
		fd.got = append(fd.got, env)
		rejected := fd.reject[env.Type]
		fd.mu.Unlock()

		if rejected {
			_ = enc.Encode(ipcclient.Response{Status: "error", Error: "nope"})
			continue
		}
		_ = enc.Encode(ipcclient.Response{Status: "ok"})
	}
}

func (fd *fakeDaemon) envelopes() []ipcclient.Envelope {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return append([]ipcclient.Envelope(nil), fd.got...)
}

func runCtl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decodeInto(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
}

func TestDragSendsDelta(t *testing.T) {
	sock, fd := startFakeDaemon(t)

	out, err := runCtl(t, "--socket", sock, "drag", "--", "-120")
	if err != nil {
		t.Fatalf("drag: %v", err)
	}
	if strings.TrimSpace(out) != "ok" {
		t.Fatalf("output = %q, want ok", out)
	}

	got := fd.envelopes()
	if len(got) != 1 || got[0].Type != "drag" {
		t.Fatalf("envelopes = %+v, want one drag", got)
	}
	var d dragData
	decodeInto(t, got[0].Data, &d)
	if d.DX != -120 || d.DY != 0 {
		t.Fatalf("drag data = %+v", d)
	}
}

func TestPinchSendsFullGesture(t *testing.T) {
	sock, fd := startFakeDaemon(t)

	if _, err := runCtl(t, "--socket", sock, "pinch", "1.5", "400"); err != nil {
		t.Fatalf("pinch: %v", err)
	}

	got := fd.envelopes()
	want := []string{"pinch_begin", "pinch_update", "pinch_end"}
	if len(got) != len(want) {
		t.Fatalf("got %d envelopes, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Type != w {
			t.Fatalf("envelope %d = %q, want %q", i, got[i].Type, w)
		}
	}
	var p pinchUpdateData
	decodeInto(t, got[1].Data, &p)
	if p.Factor != 1.5 || p.FocusX != 400 {
		t.Fatalf("pinch_update data = %+v", p)
	}
	if len(got[0].Data) != 0 || len(got[2].Data) != 0 {
		t.Fatal("begin/end must not carry data")
	}
}

func TestPinchUpdateOnly(t *testing.T) {
	sock, fd := startFakeDaemon(t)

	if _, err := runCtl(t, "--socket", sock, "pinch", "--update-only", "0.8", "10"); err != nil {
		t.Fatalf("pinch: %v", err)
	}
	got := fd.envelopes()
	if len(got) != 1 || got[0].Type != "pinch_update" {
		t.Fatalf("envelopes = %+v, want one pinch_update", got)
	}
}

func TestPinchRejectsNonPositiveFactor(t *testing.T) {
	sock, fd := startFakeDaemon(t)

	if _, err := runCtl(t, "--socket", sock, "pinch", "0", "10"); err == nil {
		t.Fatal("expected error for factor 0")
	}
	if n := len(fd.envelopes()); n != 0 {
		t.Fatalf("sent %d envelopes, want 0", n)
	}
}

func TestViewCommands(t *testing.T) {
	sock, fd := startFakeDaemon(t)

	cases := [][]string{
		{"seek", "42.5"},
		{"scale", "2"},
		{"zoom", "3", "--focus-x", "250", "--animate"},
		{"fling", "250", "1500"},
		{"double-tap", "100"},
		{"layout", "--detail-width", "1024", "--thumb-height", "64"},
		{"touch-down"},
		{"touch-up"},
	}
	for _, c := range cases {
		if _, err := runCtl(t, append([]string{"--socket", sock}, c...)...); err != nil {
			t.Fatalf("%v: %v", c, err)
		}
	}

	got := fd.envelopes()
	wantTypes := []string{"set_start_time", "set_scale", "zoom", "fling", "double_tap", "layout", "touch_down", "touch_up"}
	if len(got) != len(wantTypes) {
		t.Fatalf("got %d envelopes, want %d", len(got), len(wantTypes))
	}
	for i, w := range wantTypes {
		if got[i].Type != w {
			t.Fatalf("envelope %d = %q, want %q", i, got[i].Type, w)
		}
	}

	var seek setStartTimeData
	decodeInto(t, got[0].Data, &seek)
	if seek.Seconds != 42.5 {
		t.Fatalf("seek = %+v", seek)
	}

	var z zoomData
	decodeInto(t, got[2].Data, &z)
	if z.Scale != 3 || z.FocusX != 250 || !z.Animate {
		t.Fatalf("zoom = %+v", z)
	}

	var f flingData
	decodeInto(t, got[3].Data, &f)
	if f.X != 250 || f.VelocityX != 1500 {
		t.Fatalf("fling = %+v", f)
	}

	var l layoutData
	decodeInto(t, got[5].Data, &l)
	if l != (layoutData{DetailWidth: 1024, ThumbHeight: 64}) {
		t.Fatalf("layout = %+v", l)
	}
}

func TestLayoutRequiresASize(t *testing.T) {
	sock, _ := startFakeDaemon(t)
	if _, err := runCtl(t, "--socket", sock, "layout"); err == nil {
		t.Fatal("expected error without size flags")
	}
}

func TestThumbDragSequence(t *testing.T) {
	sock, fd := startFakeDaemon(t)

	if _, err := runCtl(t, "--socket", sock, "thumb-drag", "30", "10", "25"); err != nil {
		t.Fatalf("thumb-drag: %v", err)
	}
	got := fd.envelopes()
	if len(got) != 3 || got[0].Type != "thumb_drag_begin" || got[1].Type != "thumb_drag" || got[2].Type != "thumb_drag_end" {
		t.Fatalf("envelopes = %+v", got)
	}
	var d thumbDragData
	decodeInto(t, got[1].Data, &d)
	if d.DX != 25 {
		t.Fatalf("thumb_drag = %+v", d)
	}
}

func TestLoadSendsAbsolutePath(t *testing.T) {
	sock, fd := startFakeDaemon(t)

	if _, err := runCtl(t, "--socket", sock, "load", "track.json"); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := fd.envelopes()
	if len(got) != 1 || got[0].Type != "load_waveform" {
		t.Fatalf("envelopes = %+v", got)
	}
	var l loadWaveformData
	decodeInto(t, got[0].Data, &l)
	if !filepath.IsAbs(l.Path) || filepath.Base(l.Path) != "track.json" {
		t.Fatalf("path = %q, want absolute track.json", l.Path)
	}
}

func TestRejectionStopsSequence(t *testing.T) {
	sock, fd := startFakeDaemon(t, "thumb_drag_begin")

	_, err := runCtl(t, "--socket", sock, "thumb-drag", "0", "0", "5")
	if err == nil || !strings.Contains(err.Error(), "thumb_drag_begin") {
		t.Fatalf("err = %v, want thumb_drag_begin rejection", err)
	}
	if n := len(fd.envelopes()); n != 1 {
		t.Fatalf("sent %d envelopes after rejection, want 1", n)
	}
}

func TestInvalidNumber(t *testing.T) {
	sock, _ := startFakeDaemon(t)
	if _, err := runCtl(t, "--socket", sock, "seek", "soon"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNoDaemon(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "missing.sock")
	if _, err := runCtl(t, "--socket", sock, "touch-down"); err == nil {
		t.Fatal("expected connect error")
	}
}

func TestStatePrintsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/state" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"state_init","data":{"loaded":true}}`))
	}))
	defer srv.Close()

	out, err := runCtl(t, "--addr", strings.TrimPrefix(srv.URL, "http://"), "state")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !strings.Contains(out, "\"state_init\"") || !strings.Contains(out, "\n  \"data\"") {
		t.Fatalf("output not indented snapshot: %q", out)
	}
}

func TestStateReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "daemon not responding", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := runCtl(t, "--addr", strings.TrimPrefix(srv.URL, "http://"), "state")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("err = %v, want 503", err)
	}
}

func TestWatchFiltersTypes(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/state" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range []string{
			`{"type":"state_init","data":{}}`,
			`{"type":"frame","data":{}}`,
			`{"type":"viewport_changed","data":{"start_second":1}}`,
			`{"type":"viewport_changed","data":{"start_second":2}}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection until the client leaves.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	out, err := runCtl(t,
		"--addr", strings.TrimPrefix(srv.URL, "http://"),
		"watch", "--types", "viewport_changed", "--count", "2")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out)
	}
	for _, l := range lines {
		if !strings.Contains(l, "viewport_changed") {
			t.Fatalf("unexpected line %q", l)
		}
	}
}
