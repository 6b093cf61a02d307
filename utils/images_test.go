package utils

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestConvertToJPEG_ScalesLargeImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1344, 672))
	for x := 0; x < 1344; x++ {
		src.Set(x, 10, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	encoded, err := ConvertToJPEG(&buf)
	if err != nil {
		t.Fatalf("ConvertToJPEG failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("Result is not base64: %v", err)
	}
	out, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Result is not a JPEG: %v", err)
	}
	if out.Bounds().Dx() != MaxImageDim || out.Bounds().Dy() != MaxImageDim/2 {
		t.Errorf("Unexpected size %v", out.Bounds())
	}
}

func TestConvertToJPEG_InvalidInput(t *testing.T) {
	if _, err := ConvertToJPEG(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("Expected decode error")
	}
}
