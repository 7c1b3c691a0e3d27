// MODUL: tensor
// ZWECK: Konvertierung zwischen Bildern und NCHW-Tensoren
// INPUT: ImageInput bzw. ml.Tensor
// OUTPUT: float32-Tensoren (1, 3, h, w) in [0,1] bzw. image.RGBA
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: ml (Tensor-Konstruktion)
// HINWEISE: Tiefenbilder werden auf einen Kanal reduziert und auf drei
//           Kanaele repliziert, damit beide Modalitaeten den geteilten
//           Feature-Extraktor durchlaufen koennen

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/pyrflow/pyrflow/ml"
)

// ImageToTensor konvertiert ein Bild zu einem Tensor (1, 3, h, w) in [0,1]
func ImageToTensor(ctx ml.Context, img *ImageInput) ml.Tensor {
	h, w := img.Height, img.Width
	plane := h * w
	data := make([]float32, 3*plane)

	idx := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.Image.PixOffset(x+img.Image.Rect.Min.X, y+img.Image.Rect.Min.Y)
			data[idx] = float32(img.Image.Pix[o]) / 255
			data[plane+idx] = float32(img.Image.Pix[o+1]) / 255
			data[2*plane+idx] = float32(img.Image.Pix[o+2]) / 255
			idx++
		}
	}

	return ctx.FromFloats(data, 1, 3, h, w)
}

// DepthToTensor konvertiert ein Tiefenbild zu einem Tensor (1, 3, h, w).
// 16-Bit-Graustufen behalten ihre volle Aufloesung (Teiler 65535), alle
// anderen Formate werden ueber die Luminanz der RGBA-Darstellung gelesen.
// Der eine Tiefenkanal wird auf drei Kanaele repliziert.
func DepthToTensor(ctx ml.Context, data []byte) (ml.Tensor, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tiefenbild dekodieren fehlgeschlagen: %w", err)
	}

	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	plane := h * w
	out := make([]float32, 3*plane)

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var v float32
			if g16, ok := img.(*image.Gray16); ok {
				v = float32(g16.Gray16At(x, y).Y) / 65535
			} else {
				v = float32(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y) / 65535
			}
			out[idx] = v
			out[plane+idx] = v
			out[2*plane+idx] = v
			idx++
		}
	}

	return ctx.FromFloats(out, 1, 3, h, w), nil
}

// DepthFromLuminance leitet einen Ersatz-Tiefentensor aus der Luminanz
// eines RGB-Bildes ab; wird verwendet wenn kein Tiefenbild vorliegt
func DepthFromLuminance(ctx ml.Context, img *ImageInput) ml.Tensor {
	h, w := img.Height, img.Width
	plane := h * w
	data := make([]float32, 3*plane)

	idx := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.Image.PixOffset(x+img.Image.Rect.Min.X, y+img.Image.Rect.Min.Y)
			r := float32(img.Image.Pix[o])
			g := float32(img.Image.Pix[o+1])
			b := float32(img.Image.Pix[o+2])
			v := (0.299*r + 0.587*g + 0.114*b) / 255
			data[idx] = v
			data[plane+idx] = v
			data[2*plane+idx] = v
			idx++
		}
	}

	return ctx.FromFloats(data, 1, 3, h, w)
}

// TensorToImage konvertiert den ersten Batch-Eintrag eines Tensors
// (n, 3, h, w) mit Werten in [0,1] zu einem RGBA-Bild
func TensorToImage(t ml.Tensor) (*image.RGBA, error) {
	shape := t.Shape()
	if len(shape) != 4 || shape[1] != 3 {
		return nil, fmt.Errorf("tensor-form %v ist kein RGB-Bild", shape)
	}

	h, w := shape[2], shape[3]
	plane := h * w
	data := t.Floats()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			o := img.PixOffset(x, y)
			img.Pix[o] = clampByte(data[idx])
			img.Pix[o+1] = clampByte(data[plane+idx])
			img.Pix[o+2] = clampByte(data[2*plane+idx])
			img.Pix[o+3] = 255
		}
	}

	return img, nil
}

// clampByte skaliert [0,1] auf [0,255] mit Saettigung
func clampByte(v float32) uint8 {
	s := v * 255
	if s <= 0 {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s + 0.5)
}
