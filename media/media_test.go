package media

import "testing"

func TestProbeSize(t *testing.T) {
	data := encodeTestPNG(t, 123, 45, 255)

	dim, format, err := ProbeSize(data)
	if err != nil {
		t.Fatalf("ProbeSize failed: %v", err)
	}
	if dim.Width != 123 || dim.Height != 45 {
		t.Errorf("dimensions = %dx%d, want 123x45", dim.Width, dim.Height)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}

	if _, _, err := ProbeSize([]byte("garbage")); err == nil {
		t.Error("expected error for undecodable data")
	}
}

func TestDim_ExceedsViewport(t *testing.T) {
	d := Dim{Width: 1200, Height: 800}

	if !d.ExceedsViewport(1080) {
		t.Error("1200 wide image should exceed 1080 viewport")
	}
	if d.ExceedsViewport(1400) {
		t.Error("1200 wide image should fit 1400 viewport")
	}
	if d.ExceedsViewport(0) {
		t.Error("unknown viewport should never report overflow")
	}
}

func TestIsSVG(t *testing.T) {
	if !IsSVG("image/svg+xml", nil) {
		t.Error("declared svg media type should be recognized")
	}
	if !IsSVG("", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`)) {
		t.Error("svg payload should be recognized without declared type")
	}
	if IsSVG("image/png", encodeTestPNG(t, 4, 4, 255)) {
		t.Error("png payload should not be recognized as svg")
	}
}

func TestSniffMediaType(t *testing.T) {
	pngData := encodeTestPNG(t, 4, 4, 255)

	if got := SniffMediaType(pngData, "image/png"); got != "image/png" {
		t.Errorf("declared type should win, got %q", got)
	}
	if got := SniffMediaType(pngData, ""); got != "image/png" {
		t.Errorf("sniffed type = %q, want image/png", got)
	}
	if got := SniffMediaType([]byte("garbage"), ""); got != "" {
		t.Errorf("unknown payload should keep declared value, got %q", got)
	}
}
