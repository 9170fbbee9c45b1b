// Package quality computes photo-quality hints for uploaded report images.
// Hints are advisory: they never stop OCR from running.
package quality

import (
	"image"
	"image/draw"
	"runtime"
	"sync"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// measureDimension bounds the work done per upload; phone photos are
// downscaled before the pixel statistics run.
const measureDimension = 1024

// Metrics are the raw statistics the inspector judges.
type Metrics struct {
	Width          int
	Height         int
	LaplacianVar   float64
	Brightness     float64
	AvgLuminance   float64
	AvgSaturation  float64
	ChannelBalance [3]float64
}

// Measure computes Metrics for img. Width and Height are the original
// dimensions; the pixel statistics run on a downscaled copy.
func Measure(img image.Image) Metrics {
	bounds := img.Bounds()
	m := Metrics{Width: bounds.Dx(), Height: bounds.Dy()}
	if m.Width == 0 || m.Height == 0 {
		return m
	}

	sample := img
	if m.Width > measureDimension || m.Height > measureDimension {
		sample = imaging.Fit(img, measureDimension, measureDimension, imaging.Box)
	}

	colorStats(sample, &m)
	gray := toGray(effect.Grayscale(sample))
	m.Brightness = brightness(gray)
	m.LaplacianVar = laplacianVariance(gray)
	return m
}

type stripResult struct {
	lum, sat, r, g, b float64
	pixels           int
}

// colorStats averages HSV value, saturation and the RGB channels, one strip
// of rows per worker.
func colorStats(img image.Image, m *Metrics) {
	bounds := img.Bounds()
	height := bounds.Dy()

	workers := runtime.NumCPU()
	if height < workers {
		workers = height
	}
	if workers <= 0 {
		workers = 1
	}
	rowsPerWorker := (height + workers - 1) / workers

	results := make(chan stripResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		startY := bounds.Min.Y + i*rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			var res stripResult
			for y := startY; y < endY; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					c := colorful.Color{R: float64(r) / 65535.0, G: float64(g) / 65535.0, B: float64(b) / 65535.0}
					_, s, v := c.Hsv()
					res.sat += s
					res.lum += v
					res.r += c.R
					res.g += c.G
					res.b += c.B
					res.pixels++
				}
			}
			results <- res
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total stripResult
	for res := range results {
		total.lum += res.lum
		total.sat += res.sat
		total.r += res.r
		total.g += res.g
		total.b += res.b
		total.pixels += res.pixels
	}
	if total.pixels == 0 {
		return
	}

	n := float64(total.pixels)
	m.AvgLuminance = total.lum / n
	m.AvgSaturation = total.sat / n
	m.ChannelBalance = [3]float64{total.r / n, total.g / n, total.b / n}
}

// toGray copies bild's RGBA grayscale output into a single-channel image.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

func brightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	values := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			values = append(values, float64(gray.GrayAt(x, y).Y))
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// laplacianVariance applies the 4-neighbour kernel [0 1 0; 1 -4 1; 0 1 0].
// Low variance means few sharp edges.
func laplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := make([]float64, 0, (width-2)*(height-2))
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, -4*center+top+bottom+left+right)
		}
	}
	return stat.Variance(data, nil)
}
