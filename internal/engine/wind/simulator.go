package wind

import (
	"math"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Config holds wind simulation settings.
type Config struct {
	TickInterval  time.Duration // minimum time between field updates
	Radius        int           // texels around the camera updated per tick
	TableSize     int           // sine table resolution
	SpeedRate     float32       // table steps advanced per second
	MinSpeedDelta int           // quantised speed change needed to recompute
	Amplitude     float32       // peak wind value
	Phase         int           // table steps of phase offset per texel
	Workers       int           // parallel row workers, 0 = GOMAXPROCS
}

// DefaultConfig returns the standard wind settings.
func DefaultConfig() Config {
	return Config{
		TickInterval:  50 * time.Millisecond,
		Radius:        32,
		TableSize:     DefaultTableSize,
		SpeedRate:     180,
		MinSpeedDelta: 1,
		Amplitude:     10,
		Phase:         13,
	}
}

// Simulator writes wind values into a terrain's wind field.
type Simulator struct {
	cfg   Config
	data  *terrain.Data
	table *Table
	log   *zap.Logger

	lastTick  time.Duration
	ticked    bool
	lastSpeed int
	hasSpeed  bool
	ticks     int
}

// NewSimulator creates a wind simulator over data.
func NewSimulator(data *terrain.Data, cfg Config, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Radius < 0 {
		cfg.Radius = 0
	}
	return &Simulator{
		cfg:   cfg,
		data:  data,
		table: NewTable(cfg.TableSize),
		log:   log.Named("wind"),
	}
}

// Table returns the simulator's sine table.
func (s *Simulator) Table() *Table {
	return s.table
}

// Ticks returns how many field updates ran.
func (s *Simulator) Ticks() int {
	return s.ticks
}

// Speed returns the quantised speed of the last update.
func (s *Simulator) Speed() int {
	return s.lastSpeed
}

// Value returns the wind value at texel (x, y), wrapped. Texels outside the
// last updated window keep their previous value.
func (s *Simulator) Value(x, y int) float32 {
	return s.data.WindAt(s.data.WrapIndex(x, y))
}

// Update recomputes the window around cameraPos when the tick interval has
// elapsed and the quantised speed moved enough. now is the time since the
// simulation started. Returns true when the field was written.
func (s *Simulator) Update(now time.Duration, cameraPos mgl32.Vec3) bool {
	if s.ticked && now-s.lastTick < s.cfg.TickInterval {
		return false
	}
	s.lastTick = now
	s.ticked = true

	speed := int(float32(now.Seconds()) * s.cfg.SpeedRate)
	if s.hasSpeed {
		delta := speed - s.lastSpeed
		if delta < 0 {
			delta = -delta
		}
		if delta < s.cfg.MinSpeedDelta {
			return false
		}
	}
	s.lastSpeed = speed
	s.hasSpeed = true

	d := s.data
	if len(d.Wind) != d.Len() || d.Scale <= 0 {
		return false
	}
	cx, okX := texel(cameraPos[0], d.Scale)
	cy, okY := texel(cameraPos[1], d.Scale)
	if !okX || !okY {
		return false
	}

	r := s.cfg.Radius
	x0, x1 := max(cx-r, 0), min(cx+r, d.Size-1)
	y0, y1 := max(cy-r, 0), min(cy+r, d.Size-1)
	if x0 > x1 || y0 > y1 {
		return false
	}

	s.fill(speed, x0, x1, y0, y1)
	s.ticks++
	return true
}

// fill splits the window rows across workers. Each worker owns a disjoint
// row range of the wind slice.
func (s *Simulator) fill(speed, x0, x1, y0, y1 int) {
	rows := y1 - y0 + 1
	workers := min(s.cfg.Workers, rows)
	chunk := (rows + workers - 1) / workers

	var g errgroup.Group
	for start := y0; start <= y1; start += chunk {
		end := min(start+chunk-1, y1)
		g.Go(func() error {
			s.fillRows(speed, x0, x1, start, end)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Simulator) fillRows(speed, x0, x1, y0, y1 int) {
	d := s.data
	amp := s.cfg.Amplitude
	phase := s.cfg.Phase
	for y := y0; y <= y1; y++ {
		row := y * d.Size
		for x := x0; x <= x1; x++ {
			d.Wind[row+x] = amp * s.table.At(speed+(x+y)*phase)
		}
	}
}

func texel(v, scale float32) (int, bool) {
	f := float64(v / scale)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Floor(f)), true
}
