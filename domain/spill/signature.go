package spill

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// signatureMask writes 255 into dst wherever the blurred pixel has
// saturation and value inside the HSV window and a red/blue index inside
// the neutral band, 0 elsewhere. The HSV conversion and the window test run
// in OpenCV; src must start at the origin with a packed stride.
func signatureMask(dst *image.Gray, src *image.RGBA, th Thresholds) error {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	rgba, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, src.Pix[:h*src.Stride])
	if err != nil {
		return err
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	window := gocv.NewMat()
	defer window.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(0, float64(th.SatMin), float64(th.ValMin), 0),
		gocv.NewScalar(255, float64(th.SatMax), float64(th.ValMax), 0),
		&window)
	sv := window.ToBytes()

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		in := sv[y*w : y*w+w]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			var m uint8
			if in[x] != 0 {
				rb := redBlueIndex(row[x*4], row[x*4+2])
				if rb >= th.RBMin && rb <= th.RBMax {
					m = 255
				}
			}
			out[x] = m
		}
	}
	return nil
}

// redBlueIndex is (R-B)/(R+B+1); the +1 keeps black pixels finite.
func redBlueIndex(r, b uint8) float32 {
	return (float32(r) - float32(b)) / (float32(r) + float32(b) + 1)
}

// gaussianKernel returns a normalised size x size Gaussian kernel with the
// sigma OpenCV derives when sigma is left at zero.
func gaussianKernel(size int) []float32 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2
	row := make([]float64, size)
	sum := 0.0
	for i := range row {
		d := float64(i - half)
		row[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}
	k := make([]float32, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			k[y*size+x] = float32(row[y] * row[x])
		}
	}
	return k
}
