// tensor_test.go - Tests der Bild/Tensor-Konvertierung
package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/pyrflow/pyrflow/ml/backend/cpu"
)

func TestImageToTensorLayout(t *testing.T) {
	ctx := &cpu.Context{}

	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})

	in := &ImageInput{Image: img, Width: 2, Height: 1, Format: FormatPNG}
	tensor := ImageToTensor(ctx, in)

	want := []int{1, 3, 1, 2}
	got := tensor.Shape()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Shape = %v, erwartet %v", got, want)
		}
	}

	// CHW: Rot-Kanal [1 0], Gruen-Kanal [0 1], Blau-Kanal [0 0]
	data := tensor.Floats()
	wantData := []float32{1, 0, 0, 1, 0, 0}
	for i := range wantData {
		if math.Abs(float64(data[i]-wantData[i])) > 1e-5 {
			t.Errorf("Element %d = %f, erwartet %f", i, data[i], wantData[i])
		}
	}
}

func TestDepthToTensorReplication(t *testing.T) {
	ctx := &cpu.Context{}

	// 16-Bit-Graustufenbild als PNG kodieren
	gray := image.NewGray16(image.Rect(0, 0, 2, 2))
	gray.SetGray16(0, 0, color.Gray16{Y: 65535})
	gray.SetGray16(1, 1, color.Gray16{Y: 32768})

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		t.Fatalf("PNG kodieren fehlgeschlagen: %v", err)
	}

	tensor, err := DepthToTensor(ctx, buf.Bytes())
	if err != nil {
		t.Fatalf("DepthToTensor fehlgeschlagen: %v", err)
	}

	data := tensor.Floats()
	if len(data) != 3*4 {
		t.Fatalf("Laenge = %d, erwartet 12", len(data))
	}

	// alle drei Kanaele identisch
	for c := 1; c < 3; c++ {
		for i := 0; i < 4; i++ {
			if data[c*4+i] != data[i] {
				t.Fatalf("Kanal %d Element %d = %f, erwartet %f", c, i, data[c*4+i], data[i])
			}
		}
	}

	if data[0] != 1 {
		t.Errorf("Element (0,0) = %f, erwartet 1", data[0])
	}
	if math.Abs(float64(data[3]-0.5)) > 1e-3 {
		t.Errorf("Element (1,1) = %f, erwartet ~0.5", data[3])
	}
}

func TestTensorToImageRoundtrip(t *testing.T) {
	ctx := &cpu.Context{}

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}

	in := &ImageInput{Image: img, Width: 4, Height: 4, Format: FormatPNG}
	out, err := TensorToImage(ImageToTensor(ctx, in))
	if err != nil {
		t.Fatalf("TensorToImage fehlgeschlagen: %v", err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := img.RGBAAt(x, y)
			got := out.RGBAAt(x, y)
			if want != got {
				t.Fatalf("Pixel (%d,%d) = %v, erwartet %v", x, y, got, want)
			}
		}
	}
}

func TestAlignToPyramid(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 70, 45))
	in := &ImageInput{Image: img, Width: 70, Height: 45, Format: FormatPNG}

	aligned, err := AlignToPyramid(in, 32)
	if err != nil {
		t.Fatalf("AlignToPyramid fehlgeschlagen: %v", err)
	}

	if aligned.Width != 64 || aligned.Height != 32 {
		t.Errorf("Groesse = %dx%d, erwartet 64x32", aligned.Width, aligned.Height)
	}

	if _, err := AlignToPyramid(in, 128); err == nil {
		t.Error("erwarteter Fehler fuer zu kleines Bild blieb aus")
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		data []byte
		want ImageFormat
	}{
		{[]byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatJPEG},
		{[]byte{0x89, 0x50, 0x4E, 0x47}, FormatPNG},
		{[]byte{0x42, 0x4D, 0x00, 0x00}, FormatBMP},
		{[]byte{0x49, 0x49, 0x2A, 0x00}, FormatTIFF},
		{[]byte{0x00, 0x01, 0x02, 0x03}, FormatUnknown},
	}

	for _, tc := range cases {
		if got := DetectFormat(tc.data); got != tc.want {
			t.Errorf("DetectFormat(%v) = %v, erwartet %v", tc.data[:4], got, tc.want)
		}
	}
}
