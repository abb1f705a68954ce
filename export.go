package covsim

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/peterstace/simplefeatures/geom"
)

var (
	// ErrScenario is returned when a persisted scenario is rejected. Nothing is applied then.
	ErrScenario = errors.New("invalid scenario")
	// ErrDegenerateGeometry is returned when a footprint or track collapses to a point.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// scenarioFile is the persisted form. Pointers tell missing fields apart from zero values.
type scenarioFile struct {
	NumSatellites   *int            `json:"numSatellites"`
	Altitude        *float64        `json:"altitude"`
	Inclination     *float64        `json:"inclination"`
	MinElevation    *float64        `json:"minElevation"`
	TargetCoverage  *float64        `json:"targetCoverage"`
	MaxLatitude     *float64        `json:"maxLatitude"`
	Speed           *float64        `json:"speed"`
	AllowRetrograde *bool           `json:"allowRetrogradeOrbits"`
	Satellites      []satelliteFile `json:"satellites"`
}

type satelliteFile struct {
	RAAN         *float64 `json:"raan"`
	InitialPhase *float64 `json:"initialPhase"`
}

// Scenario is a validated persisted scenario, angles in radians.
type Scenario struct {
	Settings Settings
	Design   Design
}

func inRange(name string, v *float64, lo, hi float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing `%s`", ErrScenario, name)
	}
	if math.IsNaN(*v) || *v < lo || *v > hi {
		return 0, fmt.Errorf("%w: `%s` must be within [%g, %g], got %g", ErrScenario, name, lo, hi, *v)
	}
	return *v, nil
}

// LoadScenario reads and validates a scenario. Any missing, mistyped or out of range field,
// or a satellite list whose length differs from numSatellites, rejects the whole file.
func LoadScenario(r io.Reader) (Scenario, error) {
	var f scenarioFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Scenario{}, fmt.Errorf("%w: %s", ErrScenario, err)
	}
	if f.NumSatellites == nil {
		return Scenario{}, fmt.Errorf("%w: missing `numSatellites`", ErrScenario)
	}
	n := *f.NumSatellites
	if n < MinSatellites || n > MaxSatellites {
		return Scenario{}, fmt.Errorf("%w: `numSatellites` must be within [%d, %d], got %d", ErrScenario, MinSatellites, MaxSatellites, n)
	}
	if f.AllowRetrograde == nil {
		return Scenario{}, fmt.Errorf("%w: missing `allowRetrogradeOrbits`", ErrScenario)
	}
	set := DefaultSettings()
	set.AllowRetrograde = *f.AllowRetrograde
	var inc float64
	var err error
	for _, field := range []struct {
		name   string
		v      *float64
		lo, hi float64
		dst    *float64
	}{
		{"altitude", f.Altitude, MinAltitude, MaxAltitude, &set.Altitude},
		{"inclination", f.Inclination, 0, 180, &inc},
		{"minElevation", f.MinElevation, 0, MaxElevation, &set.MinElevation},
		{"targetCoverage", f.TargetCoverage, 0, MaxTarget, &set.TargetCoverage},
		{"maxLatitude", f.MaxLatitude, 0, MaxLatitudeBand, &set.MaxLatitude},
		{"speed", f.Speed, MinSpeed, MaxSpeed, &set.Speed},
	} {
		if *field.dst, err = inRange(field.name, field.v, field.lo, field.hi); err != nil {
			return Scenario{}, err
		}
	}
	if f.Satellites == nil {
		return Scenario{}, fmt.Errorf("%w: missing `satellites`", ErrScenario)
	}
	if len(f.Satellites) != n {
		return Scenario{}, fmt.Errorf("%w: %d satellites listed but `numSatellites` is %d", ErrScenario, len(f.Satellites), n)
	}
	d := Design{Inclination: inc * deg2rad, RAAN: make([]float64, n), Phase: make([]float64, n)}
	for i, sat := range f.Satellites {
		raan, err := inRange(fmt.Sprintf("satellites[%d].raan", i), sat.RAAN, 0, 360)
		if err != nil {
			return Scenario{}, err
		}
		phase, err := inRange(fmt.Sprintf("satellites[%d].initialPhase", i), sat.InitialPhase, 0, 360)
		if err != nil {
			return Scenario{}, err
		}
		d.RAAN[i] = raan * deg2rad
		d.Phase[i] = phase * deg2rad
	}
	return Scenario{set, d}, nil
}

// SaveScenario writes a scenario in its persisted form.
func SaveScenario(w io.Writer, set Settings, d Design) error {
	if err := d.Validate(); err != nil {
		return err
	}
	n := d.Len()
	inc := d.Inclination * rad2deg
	f := scenarioFile{
		NumSatellites:   &n,
		Altitude:        &set.Altitude,
		Inclination:     &inc,
		MinElevation:    &set.MinElevation,
		TargetCoverage:  &set.TargetCoverage,
		MaxLatitude:     &set.MaxLatitude,
		Speed:           &set.Speed,
		AllowRetrograde: &set.AllowRetrograde,
		Satellites:      make([]satelliteFile, n),
	}
	for i := range f.Satellites {
		raan, phase := WrapAngle(d.RAAN[i])*rad2deg, WrapAngle(d.Phase[i])*rad2deg
		f.Satellites[i] = satelliteFile{&raan, &phase}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// Load applies a persisted scenario and returns the settings the interface must now show.
// The simulator is left untouched on error.
func (s *Simulator) Load(r io.Reader) (Settings, error) {
	sc, err := LoadScenario(r)
	if err != nil {
		s.logger.Log("level", "error", "status", "load rejected", "err", err)
		return s.settings, err
	}
	set := s.settings
	set.Altitude = sc.Settings.Altitude
	set.Speed = sc.Settings.Speed
	set.MinElevation = sc.Settings.MinElevation
	set.TargetCoverage = sc.Settings.TargetCoverage
	set.MaxLatitude = sc.Settings.MaxLatitude
	set.AllowRetrograde = sc.Settings.AllowRetrograde
	s.settings = set
	s.lastAlt = set.Altitude
	s.Commit(sc.Design)
	return set, nil
}

// Save writes the live settings and design.
func (s *Simulator) Save(w io.Writer) error {
	return SaveScenario(w, s.settings, s.Design())
}

// WriteHistory writes an annealing history as CSV, one iteration per record.
func WriteHistory(w io.Writer, history []Sample) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"iteration", "temperature", "cost", "current", "best", "accepted"})
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, h := range history {
		cw.Write([]string{strconv.Itoa(h.Iteration), ff(h.Temperature), ff(h.Cost), ff(h.Current), ff(h.Best), strconv.FormatBool(h.Accepted)})
	}
	cw.Flush()
	return cw.Error()
}

// geomε is the smallest extent in degrees of an exported geometry.
const geomε = 1e-9

// spread returns the largest coordinate offset of a flat XY slice from its first point.
func spread(flat []float64) float64 {
	var max float64
	for i := 2; i+1 < len(flat); i += 2 {
		max = math.Max(max, math.Max(math.Abs(flat[i]-flat[0]), math.Abs(flat[i+1]-flat[1])))
	}
	return max
}

// FootprintPolygon returns a footprint as a closed polygon in lon/lat degrees. Longitudes are
// unwrapped around the center so that the ring never jumps across the antimeridian.
// A footprint of (nearly) zero radius has no area and yields ErrDegenerateGeometry.
func FootprintPolygon(fp Footprint) (geom.Polygon, error) {
	flat := make([]float64, 0, 2*(FootprintPoints+1))
	for _, p := range fp.Points {
		flat = append(flat, unwrapLongitude(p.Lon, fp.Center.Lon), p.Lat)
	}
	if spread(flat) < geomε {
		return geom.Polygon{}, fmt.Errorf("%w: %s has no area", ErrDegenerateGeometry, fp)
	}
	flat = append(flat, flat[0], flat[1])
	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("%s ring: %w", fp, err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("%s polygon: %w", fp, err)
	}
	return poly, nil
}

// TrackLineString returns the recent ground track of a satellite in lon/lat degrees. A tail
// without two distinct positions yields ErrDegenerateGeometry.
func TrackLineString(tail []Position) (geom.LineString, error) {
	flat := make([]float64, 0, 2*len(tail))
	prev := 0.0
	for i, p := range tail {
		if i == 0 {
			prev = p.Lon
		}
		prev = unwrapLongitude(p.Lon, prev)
		flat = append(flat, prev, p.Lat)
	}
	if spread(flat) < geomε {
		return geom.LineString{}, fmt.Errorf("%w: track of %d positions", ErrDegenerateGeometry, len(tail))
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("track: %w", err)
	}
	return ls, nil
}

// Features returns the current footprint and the ground track of every satellite. Degenerate
// footprints and tracks are left out.
func (s *Simulator) Features() (geom.GeoJSONFeatureCollection, error) {
	radius := s.Origin.CoverageRadius(s.settings.Altitude, s.settings.MinElevation)
	var fc geom.GeoJSONFeatureCollection
	for i, sat := range s.Sats {
		fp := s.Origin.Footprint(sat.Position.Lat, sat.Position.Lon, radius)
		poly, err := FootprintPolygon(fp)
		switch {
		case err == nil:
			fc = append(fc, geom.GeoJSONFeature{
				Geometry: poly.AsGeometry(),
				ID:       fmt.Sprintf("footprint-%d", i+1),
				Properties: map[string]interface{}{
					"satellite": i + 1,
					"radius_km": radius,
					"oversized": fp.Oversized,
					"coverage":  FormatCoverage(s.coverage),
				},
			})
		case errors.Is(err, ErrDegenerateGeometry):
			s.logger.Log("level", "debug", "sat", i+1, "message", "footprint skipped", "err", err)
		default:
			return nil, fmt.Errorf("satellite %d: %w", i+1, err)
		}
		track, err := TrackLineString(sat.Tail)
		switch {
		case err == nil:
			fc = append(fc, geom.GeoJSONFeature{
				Geometry:   track.AsGeometry(),
				ID:         fmt.Sprintf("track-%d", i+1),
				Properties: map[string]interface{}{"satellite": i + 1},
			})
		case errors.Is(err, ErrDegenerateGeometry):
		default:
			return nil, fmt.Errorf("satellite %d: %w", i+1, err)
		}
	}
	return fc, nil
}

// WriteGeoJSON writes the features of the simulator as a GeoJSON feature collection.
func (s *Simulator) WriteGeoJSON(w io.Writer) error {
	fc, err := s.Features()
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(fc)
}
