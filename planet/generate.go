package planet

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds crust generation parameters.
type GenConfig struct {
	Segments   int
	CoreRadius float64

	// Mountain pass. Widths are in degrees of longitude; slope is altitude
	// gained per degree.
	Mountains         int
	MountainHeightMin float64
	MountainHeightMax float64
	MountainSlopeMin  float64
	MountainSlopeMax  float64
	MountainMaxWidth  float64

	// Surface roughness from ring-sampled simplex noise (0 disables).
	Roughness      float64
	RoughnessScale float64

	// Deposit pass.
	Deposits       int
	FailureBudget  int // consecutive occupied picks before giving up
	DepositPoints  int // GeoPoints per deposit segment
	DepositReserve int64
	OreDepth       float64
	OilDepth       float64
	OilThickness   float64
}

// GenReport summarizes what generation produced.
type GenReport struct {
	Mountains int
	Deposits  int
	Failures  int
}

// Generate builds a new crust: mountains, roughness, then deposits with
// their strata, then the outline.
func Generate(rng *rand.Rand, cfg GenConfig) (*Crust, GenReport) {
	c := NewCrust(cfg.Segments, cfg.CoreRadius)
	var rep GenReport

	for i := 0; i < cfg.Mountains; i++ {
		c.raiseMountain(rng, cfg)
		rep.Mountains++
	}

	if cfg.Roughness > 0 {
		c.roughen(rng.Int63(), cfg.Roughness, cfg.RoughnessScale)
	}

	rep.Deposits, rep.Failures = c.placeDeposits(rng, cfg)

	c.RebuildOutline()
	return c, rep
}

// raiseMountain adds one triangular mountain. Mountains stack additively and
// are not clamped.
func (c *Crust) raiseMountain(rng *rand.Rand, cfg GenConfig) {
	peak := rng.Float64() * 360
	height := cfg.MountainHeightMin + rng.Float64()*(cfg.MountainHeightMax-cfg.MountainHeightMin)
	slope := cfg.MountainSlopeMin + rng.Float64()*(cfg.MountainSlopeMax-cfg.MountainSlopeMin)
	if slope <= 0 {
		return
	}
	width := math.Min(cfg.MountainMaxWidth, height/slope)
	if width <= 0 {
		return
	}

	w := int(width)
	for off := -w; off <= w; off++ {
		weight := 1 - math.Abs(float64(off))/width
		if weight <= 0 {
			continue
		}
		s := c.segs.At(c.segs.Locate(degToRad(peak + float64(off))))
		for k := range s.Points {
			s.Points[k].Altitude += weight * height
		}
	}
}

// roughen adds non-negative simplex noise sampled around a circle so the
// ring stays seamless.
func (c *Crust) roughen(seed int64, amplitude, scale float64) {
	noise := opensimplex.NewNormalized(seed)
	for i := 0; i < c.segs.Len(); i++ {
		s := c.segs.At(i)
		for k := range s.Points {
			a := s.Points[k].Angle
			n := noise.Eval2(math.Cos(a)*scale, math.Sin(a)*scale)
			s.Points[k].Altitude += amplitude * n
		}
	}
}

// placeDeposits places up to cfg.Deposits deposits on free segments. It gives
// up after cfg.FailureBudget consecutive picks land on occupied segments.
func (c *Crust) placeDeposits(rng *rand.Rand, cfg GenConfig) (placed, failures int) {
	consecutive := 0
	for placed < cfg.Deposits && consecutive < cfg.FailureBudget {
		i := c.segs.Locate(rng.Float64() * TwoPi)
		s := c.segs.At(i)
		if s.Deposit >= 0 {
			consecutive++
			failures++
			continue
		}
		consecutive = 0

		c.Split(i, cfg.DepositPoints)
		res := Ore
		if placed%2 == 1 {
			res = Oil
		}
		s.Deposit = c.addDeposit(res, cfg.DepositReserve)
		c.layStrata(i, res, cfg)
		placed++
	}
	return placed, failures
}

// layStrata writes one stratum per GeoPoint of segment i using a half-sine
// profile over the segment's angular span: zero at its edges, full depth
// halfway across.
func (c *Crust) layStrata(i int, res Resource, cfg GenConfig) {
	s := c.segs.At(i)
	id := c.newStratumID()
	alt1, alt2 := c.Boundary(i)
	oilCenter := math.Min(alt1, alt2) - cfg.OilDepth

	color1 := ResourceColor(res)
	color2 := Color{color1.R * 0.6, color1.G * 0.6, color1.B * 0.6, color1.A}

	span := s.A2 - s.A1
	for k := range s.Points {
		p := &s.Points[k]
		f := 0.5
		if span > 0 {
			f = (p.Angle - s.A1) / span
		}
		prof := math.Sin(math.Pi * f)

		st := Stratum{ID: id, Color1: color1, Color2: color2, Deposit: s.Deposit}
		switch res {
		case Ore:
			st.Alt2 = p.Altitude
			st.Alt1 = p.Altitude - cfg.OreDepth*prof
		case Oil:
			half := cfg.OilThickness / 2 * prof
			st.Alt1 = oilCenter - half
			st.Alt2 = oilCenter + half
		}
		p.Strata = append(p.Strata, st)
	}
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

func radToDeg(r float64) float64 {
	return r * 180 / math.Pi
}
