package main

// Wire payloads (duplicated from the daemon for the standalone binary)

type dragData struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy,omitempty"`
}

type pinchUpdateData struct {
	Factor float64 `json:"factor"`
	FocusX float64 `json:"focus_x"`
	FocusY float64 `json:"focus_y,omitempty"`
}

type flingData struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y,omitempty"`
	VelocityX float64 `json:"velocity_x"`
	VelocityY float64 `json:"velocity_y,omitempty"`
}

type doubleTapData struct {
	X float64 `json:"x"`
}

type setStartTimeData struct {
	Seconds float64 `json:"seconds"`
}

type setScaleData struct {
	Scale float64 `json:"scale"`
}

type zoomData struct {
	Scale   float64 `json:"scale"`
	FocusX  float64 `json:"focus_x"`
	Animate bool    `json:"animate,omitempty"`
}

type layoutData struct {
	DetailWidth  int `json:"detail_width,omitempty"`
	DetailHeight int `json:"detail_height,omitempty"`
	ThumbWidth   int `json:"thumb_width,omitempty"`
	ThumbHeight  int `json:"thumb_height,omitempty"`
}

type thumbDragBeginData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type thumbDragData struct {
	DX float64 `json:"dx"`
}

type loadWaveformData struct {
	Path string `json:"path"`
}
