package planet

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Resource identifies what a deposit yields.
type Resource uint8

const (
	Ore Resource = iota
	Oil
)

func (r Resource) String() string {
	switch r {
	case Ore:
		return "ore"
	case Oil:
		return "oil"
	}
	return "unknown"
}

// Color is a linear RGBA color used by strata.
type Color struct {
	R, G, B, A float32
}

// ResourceColor returns the base color for a resource layer.
func ResourceColor(r Resource) Color {
	if r == Oil {
		return Color{0, 0, 0, 1}
	}
	return Color{0.9, 0.7, 0.3, 1}
}

// Deposit is an extractable resource pocket.
type Deposit struct {
	Resource  Resource
	Remaining int64
}

// Stratum is one mineral layer under a GeoPoint. Points that bound the same
// layer polygon share an ID.
type Stratum struct {
	ID      int
	Alt1    float64 // lower bound, Alt1 <= Alt2
	Alt2    float64
	Color1  Color
	Color2  Color
	Deposit int // index into Crust deposits
}

// GeoPoint is a sampled crust vertex.
type GeoPoint struct {
	Angle    float64 // absolute, radians
	Altitude float64 // above core radius
	Strata   []Stratum
}

// Segment is one fixed angular sector of the crust ring.
type Segment struct {
	A1, A2  float64
	Points  []GeoPoint
	Next    int
	Prev    int
	Deposit int // -1 when the segment holds no deposit
	split   bool
}

// Split reports whether the segment has been subdivided.
func (s *Segment) Split() bool {
	return s.split
}

// Platform is a foundation quad in planet-local coordinates ordered
// base-left, top-left, top-right, base-right (left = smaller angle).
type Platform struct {
	Quad [4]r2.Vec
}

// StratumQuad is a drawable piece of a stratum between two adjacent GeoPoints.
type StratumQuad struct {
	ID      int
	Deposit int
	Corners [4]r2.Vec // p.alt1, p.alt2, q.alt2, q.alt1
	Color1  Color
	Color2  Color
}

// Crust is the closed ring of terrain segments around a planet core.
type Crust struct {
	segs        *AngularGrid[Segment]
	coreRadius  float64
	deposits    []Deposit
	platforms   []Platform
	surface     []r2.Vec
	outline     []r2.Vec
	nextStratum int
}

// NewCrust creates a flat crust of n segments, one GeoPoint each at zero altitude.
func NewCrust(n int, coreRadius float64) *Crust {
	c := &Crust{
		segs:       NewAngularGrid[Segment](n),
		coreRadius: coreRadius,
	}
	for i := 0; i < n; i++ {
		s := c.segs.At(i)
		s.A1 = c.segs.Angle(i)
		s.A2 = s.A1 + c.segs.Step()
		s.Points = []GeoPoint{{Angle: s.A1}}
		s.Next = c.segs.Next(i)
		s.Prev = c.segs.Prev(i)
		s.Deposit = -1
	}
	c.RebuildOutline()
	return c
}

// CoreRadius returns the radius the altitudes are measured from.
func (c *Crust) CoreRadius() float64 {
	return c.coreRadius
}

// Len returns the number of segments.
func (c *Crust) Len() int {
	return c.segs.Len()
}

// Locate returns the index of the segment containing angle a.
func (c *Crust) Locate(a float64) int {
	return c.segs.Locate(a)
}

// Segment returns segment i.
func (c *Crust) Segment(i int) *Segment {
	return c.segs.At(i)
}

// Split replaces the single GeoPoint of segment i with n points evenly spaced
// between A1 and the successor's start, altitudes interpolated linearly.
// A segment may be split only once.
func (c *Crust) Split(i, n int) {
	s := c.segs.At(i)
	if s.split {
		panic("planet: segment already split")
	}
	if n < 1 {
		panic("planet: split needs at least one point")
	}
	first := s.Points[0]
	nextAlt := c.segs.At(s.Next).Points[0].Altitude

	pts := make([]GeoPoint, n)
	for k := range pts {
		f := float64(k) / float64(n)
		pts[k] = GeoPoint{
			Angle:    s.A1 + f*(s.A2-s.A1),
			Altitude: first.Altitude + f*(nextAlt-first.Altitude),
		}
	}
	pts[0].Strata = first.Strata
	s.Points = pts
	s.split = true
}

// Boundary returns the altitudes at the two edges of segment i: its own first
// point and its successor's first point.
func (c *Crust) Boundary(i int) (alt1, alt2 float64) {
	s := c.segs.At(i)
	return s.Points[0].Altitude, c.segs.At(s.Next).Points[0].Altitude
}

// AltitudeAt returns the crust altitude at angle a, interpolated linearly
// between the bracketing GeoPoints.
func (c *Crust) AltitudeAt(a float64) float64 {
	i := c.segs.Locate(a)
	s := c.segs.At(i)
	a = MainAngle(a)
	if a < s.A1 {
		a = s.A1
	}

	k := 0
	for j := 1; j < len(s.Points); j++ {
		if s.Points[j].Angle > a {
			break
		}
		k = j
	}
	p := s.Points[k]

	// Past the last point the bracket closes on the successor, whose angle may
	// have wrapped to zero; use the segment's upper bound instead.
	var qAngle, qAlt float64
	if k+1 < len(s.Points) {
		qAngle, qAlt = s.Points[k+1].Angle, s.Points[k+1].Altitude
	} else {
		qAngle, qAlt = s.A2, c.segs.At(s.Next).Points[0].Altitude
	}

	span := qAngle - p.Angle
	if span <= 0 {
		return p.Altitude
	}
	f := (a - p.Angle) / span
	f = math.Max(0, math.Min(1, f))
	return p.Altitude + f*(qAlt-p.Altitude)
}

// Deposits returns the deposit list.
func (c *Crust) Deposits() []Deposit {
	return c.deposits
}

// Deposit returns deposit d.
func (c *Crust) Deposit(d int) *Deposit {
	return &c.deposits[d]
}

// Extract removes up to amount from deposit d and returns what was taken.
func (c *Crust) Extract(d int, amount int64) int64 {
	dep := &c.deposits[d]
	if amount > dep.Remaining {
		amount = dep.Remaining
	}
	if amount < 0 {
		amount = 0
	}
	dep.Remaining -= amount
	return amount
}

// addDeposit appends a deposit and returns its index.
func (c *Crust) addDeposit(r Resource, amount int64) int {
	c.deposits = append(c.deposits, Deposit{Resource: r, Remaining: amount})
	return len(c.deposits) - 1
}

// newStratumID allocates a stratum id. Ids increase monotonically so strata
// appended in generation order stay id-sorted.
func (c *Crust) newStratumID() int {
	c.nextStratum++
	return c.nextStratum
}

// Surface returns the raw crust polygon in planet-local coordinates, one
// vertex per GeoPoint in angular order. The last vertex connects to the first.
func (c *Crust) Surface() []r2.Vec {
	return c.surface
}

// Outline returns the render-facing crust polygon: Surface lifted onto any
// platform top that covers a vertex.
func (c *Crust) Outline() []r2.Vec {
	return c.outline
}

// Platforms returns the foundation platforms added so far.
func (c *Crust) Platforms() []Platform {
	return c.platforms
}

// AddPlatform appends a foundation quad and re-derives the outline.
// Returns the platform index.
func (c *Crust) AddPlatform(quad [4]r2.Vec) int {
	c.platforms = append(c.platforms, Platform{Quad: quad})
	c.RebuildOutline()
	return len(c.platforms) - 1
}

// FoundationQuad builds a platform quad over segment i standing on its two
// boundary points and rising height above the higher of them.
func (c *Crust) FoundationQuad(i int, height float64) [4]r2.Vec {
	s := c.segs.At(i)
	alt1, alt2 := c.Boundary(i)
	top := math.Max(alt1, alt2) + height
	return [4]r2.Vec{
		polar(c.coreRadius+alt1, s.A1),
		polar(c.coreRadius+top, s.A1),
		polar(c.coreRadius+top, s.A2),
		polar(c.coreRadius+alt2, s.A2),
	}
}

// RebuildOutline recomputes Surface and Outline from the GeoPoints and platforms.
func (c *Crust) RebuildOutline() {
	c.surface = c.surface[:0]
	c.outline = c.outline[:0]
	for i := 0; i < c.segs.Len(); i++ {
		for _, p := range c.segs.At(i).Points {
			r := c.coreRadius + p.Altitude
			c.surface = append(c.surface, polar(r, p.Angle))
			for _, pl := range c.platforms {
				if lr, ok := pl.topRadius(p.Angle); ok && lr > r {
					r = lr
				}
			}
			c.outline = append(c.outline, polar(r, p.Angle))
		}
	}
}

// topRadius intersects the ray at angle a with the platform's top edge.
func (pl Platform) topRadius(a float64) (float64, bool) {
	q1, q2 := pl.Quad[1], pl.Quad[2]
	t1 := math.Atan2(q1.Y, q1.X)
	t2 := math.Atan2(q2.Y, q2.X)
	if AngleDelta(t1, a) < 0 || AngleDelta(a, t2) < 0 {
		return 0, false
	}
	e := r2.Sub(q2, q1)
	dir := r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
	den := r2.Cross(dir, e)
	if den == 0 {
		return 0, false
	}
	return r2.Cross(q1, e) / den, true
}

// StratumQuads pairs strata with equal ids across every adjacent pair of
// GeoPoints around the ring and returns one quad per pair.
func (c *Crust) StratumQuads() []StratumQuad {
	var quads []StratumQuad
	var pIdx, qIdx []int
	for i := 0; i < c.segs.Len(); i++ {
		s := c.segs.At(i)
		for k := range s.Points {
			p := &s.Points[k]
			var q *GeoPoint
			if k+1 < len(s.Points) {
				q = &s.Points[k+1]
			} else {
				q = &c.segs.At(s.Next).Points[0]
			}
			if len(p.Strata) == 0 || len(q.Strata) == 0 {
				continue
			}
			pIdx = sortedByID(pIdx[:0], p.Strata)
			qIdx = sortedByID(qIdx[:0], q.Strata)

			// Merge-join over the two id-sorted sequences.
			for x, y := 0, 0; x < len(pIdx) && y < len(qIdx); {
				ps, qs := &p.Strata[pIdx[x]], &q.Strata[qIdx[y]]
				switch {
				case ps.ID < qs.ID:
					x++
				case ps.ID > qs.ID:
					y++
				default:
					quads = append(quads, StratumQuad{
						ID:      ps.ID,
						Deposit: ps.Deposit,
						Corners: [4]r2.Vec{
							polar(c.coreRadius+ps.Alt1, p.Angle),
							polar(c.coreRadius+ps.Alt2, p.Angle),
							polar(c.coreRadius+qs.Alt2, q.Angle),
							polar(c.coreRadius+qs.Alt1, q.Angle),
						},
						Color1: ps.Color1,
						Color2: ps.Color2,
					})
					x++
					y++
				}
			}
		}
	}
	return quads
}

// sortedByID fills dst with strata indices ordered by stratum id.
func sortedByID(dst []int, strata []Stratum) []int {
	for i := range strata {
		dst = append(dst, i)
	}
	slices.SortStableFunc(dst, func(a, b int) int {
		return strata[a].ID - strata[b].ID
	})
	return dst
}

// polar returns the cartesian point at radius r and angle a.
func polar(r, a float64) r2.Vec {
	return r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
}
