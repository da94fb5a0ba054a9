package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 128})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessEmblemJPEG(t *testing.T) {
	data := createTestJPEG(100, 100)
	emblem, err := ProcessEmblem(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessEmblem JPEG: %v", err)
	}
	if emblem.MIME != "image/png" {
		t.Errorf("expected image/png, got %s", emblem.MIME)
	}
	if len(emblem.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessEmblemPNG(t *testing.T) {
	data := createTestPNG(100, 100)
	emblem, err := ProcessEmblem(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessEmblem PNG: %v", err)
	}
	if emblem.MIME != "image/png" {
		t.Errorf("expected image/png (always outputs PNG), got %s", emblem.MIME)
	}
}

func TestProcessEmblemDownscale(t *testing.T) {
	data := createTestJPEG(2048, 1024)
	emblem, err := ProcessEmblem(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessEmblem large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(emblem.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		t.Errorf("expected max %dx%d, got %dx%d", MaxDimension, MaxDimension, bounds.Dx(), bounds.Dy())
	}
	// Aspect ratio should survive the downscale.
	if bounds.Dx() != MaxDimension || bounds.Dy() != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, bounds.Dx(), bounds.Dy())
	}
}

func TestProcessEmblemSmallNotUpscaled(t *testing.T) {
	data := createTestPNG(50, 50)
	emblem, err := ProcessEmblem(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessEmblem small image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(emblem.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessEmblemInvalidFormat(t *testing.T) {
	_, err := ProcessEmblem(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestProcessEmblemGIFRejected(t *testing.T) {
	// GIF magic bytes.
	_, err := ProcessEmblem(bytes.NewReader([]byte("GIF89a...")))
	if err == nil {
		t.Error("expected error for GIF")
	}
}

func TestProcessEmblemTooLarge(t *testing.T) {
	data := make([]byte, MaxUploadSize+100)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	_, err := ProcessEmblem(bytes.NewReader(data))
	if err == nil {
		t.Error("expected error for oversized upload")
	}
}
