package covsim

import (
	"image"
	"image/draw"
	"math"

	"github.com/gonum/floats"
	"golang.org/x/image/vector"
)

const (
	// DefaultRasterWidth and DefaultRasterHeight size the equirectangular coverage grid.
	DefaultRasterWidth  = 800
	DefaultRasterHeight = 400
)

// Raster is a persistent equirectangular coverage grid. A cell is covered once any footprint
// polygon touched it; cells are only cleared by Reset.
// A Raster belongs to a single simulation context and must never be shared.
type Raster struct {
	img  *image.Alpha
	rast *vector.Rasterizer
	// WrapSeam also fills the copy of a footprint shifted by a full turn when it crosses the
	// antimeridian, instead of dropping the part that falls off the map.
	WrapSeam bool
}

// NewRaster returns an uncovered raster of the given size in cells.
func NewRaster(width, height int) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{
		img:  image.NewAlpha(image.Rect(0, 0, width, height)),
		rast: vector.NewRasterizer(width, height),
	}
}

// Width returns the number of columns.
func (r *Raster) Width() int { return r.img.Rect.Dx() }

// Height returns the number of rows.
func (r *Raster) Height() int { return r.img.Rect.Dy() }

// Empty returns whether the raster has no cells at all.
func (r *Raster) Empty() bool { return r.Width() == 0 || r.Height() == 0 }

// project maps a geographic point to raster coordinates.
func (r *Raster) project(lat, lon float64) (float32, float32) {
	w, h := float64(r.Width()), float64(r.Height())
	return float32((lon + 180) / 360 * w), float32(h/2 - lat/180*h)
}

// Accumulate fills the footprint polygon into the raster. Vertex longitudes are first unwrapped
// relative to centerLon so that a footprint straddling the antimeridian is not smeared across
// the whole map.
func (r *Raster) Accumulate(fp Footprint, centerLon float64) {
	if r.Empty() {
		return
	}
	var lons [FootprintPoints]float64
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for i, p := range fp.Points {
		lons[i] = unwrapLongitude(p.Lon, centerLon)
		minLon = math.Min(minLon, lons[i])
		maxLon = math.Max(maxLon, lons[i])
	}
	r.fill(fp, lons, 0)
	if r.WrapSeam {
		if maxLon > 180 {
			r.fill(fp, lons, -360)
		}
		if minLon < -180 {
			r.fill(fp, lons, 360)
		}
	}
}

func (r *Raster) fill(fp Footprint, lons [FootprintPoints]float64, shift float64) {
	r.rast.Reset(r.Width(), r.Height())
	for i, p := range fp.Points {
		x, y := r.project(p.Lat, lons[i]+shift)
		if i == 0 {
			r.rast.MoveTo(x, y)
		} else {
			r.rast.LineTo(x, y)
		}
	}
	r.rast.ClosePath()
	r.rast.DrawOp = draw.Over
	r.rast.Draw(r.img, r.img.Bounds(), image.Opaque, image.Point{})
}

// RowLatitude returns the latitude in degrees of raster row y.
func (r *Raster) RowLatitude(y int) float64 {
	h := float64(r.Height())
	return (h/2 - float64(y)) * (180 / h)
}

// Covered returns whether cell (x, y) has been covered.
func (r *Raster) Covered(x, y int) bool {
	return r.img.AlphaAt(x, y).A > 0
}

// Percentage returns the latitude weighted share (0 to 100) of covered cells among the rows
// within maxLatitude degrees of the equator. Each row is weighted by the cosine of its latitude.
func (r *Raster) Percentage(maxLatitude float64) float64 {
	if r.Empty() {
		return 0
	}
	w := r.Width()
	weights := make([]float64, 0, r.Height())
	covered := make([]float64, 0, r.Height())
	for y := 0; y < r.Height(); y++ {
		lat := r.RowLatitude(y)
		if math.Abs(lat) > maxLatitude {
			continue
		}
		row := r.img.Pix[y*r.img.Stride : y*r.img.Stride+w]
		count := 0
		for _, a := range row {
			if a > 0 {
				count++
			}
		}
		weights = append(weights, math.Cos(lat*deg2rad))
		covered = append(covered, float64(count))
	}
	total := floats.Sum(weights) * float64(w)
	if total <= 0 {
		return 0
	}
	return floats.Dot(weights, covered) / total * 100
}

// Reset marks every cell as uncovered.
func (r *Raster) Reset() {
	for i := range r.img.Pix {
		r.img.Pix[i] = 0
	}
}

// Image returns a copy of the coverage mask for display.
func (r *Raster) Image() *image.Alpha {
	cpy := image.NewAlpha(r.img.Rect)
	copy(cpy.Pix, r.img.Pix)
	return cpy
}
