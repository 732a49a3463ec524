package board

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"

	errs "github.com/JaniM/variant-go-server/internal/errors"
)

// Color of a board point. Zero means empty.
type Color uint8

const (
	Empty Color = iota
	Black
	White
)

func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return "empty"
}

// Colors travel as their names on the wire and in replay blobs.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "black":
		*c = Black
	case "white":
		*c = White
	case "empty":
		*c = Empty
	default:
		return fmt.Errorf("unknown color %q", s)
	}
	return nil
}

// Point is a board coordinate. (0,0) is the top-left corner.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Group is a maximal set of same-colored, adjacency-connected stones.
type Group struct {
	Color     Color
	Stones    []Point
	Liberties int
}

// Capture is the outcome of a placement: the coordinates removed from the
// board. Self is set when a permitted suicide removed the placing group.
type Capture struct {
	Points []Point
	Self   bool
}

// Board is a rectangular grid of points. It is owned by a single game and
// must not be shared across goroutines without external synchronization.
type Board struct {
	Width    int
	Height   int
	Toroidal bool
	points   []Color
}

func New(width, height int, toroidal bool) *Board {
	return &Board{
		Width:    width,
		Height:   height,
		Toroidal: toroidal,
		points:   make([]Color, width*height),
	}
}

func (b *Board) Contains(p Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

func (b *Board) At(p Point) Color {
	return b.points[p.Y*b.Width+p.X]
}

func (b *Board) set(p Point, c Color) {
	b.points[p.Y*b.Width+p.X] = c
}

// Neighbors returns the 4-adjacent points of p. On a toroidal board the
// edges wrap around.
func (b *Board) Neighbors(p Point) []Point {
	out := make([]Point, 0, 4)
	for _, d := range [4]Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := Point{X: p.X + d.X, Y: p.Y + d.Y}
		if b.Toroidal {
			n.X = (n.X + b.Width) % b.Width
			n.Y = (n.Y + b.Height) % b.Height
		} else if !b.Contains(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// GroupAt flood-fills the same-colored group containing p. The cost is
// proportional to the group and its surrounding liberties, not the board.
func (b *Board) GroupAt(p Point) Group {
	color := b.At(p)
	g := Group{Color: color}
	if color == Empty {
		return g
	}

	seen := map[Point]bool{p: true}
	stack := []Point{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.Stones = append(g.Stones, cur)
		for _, n := range b.Neighbors(cur) {
			if seen[n] {
				continue
			}
			seen[n] = true
			switch b.At(n) {
			case color:
				stack = append(stack, n)
			case Empty:
				g.Liberties++
			}
		}
	}
	return g
}

// Liberties is a pure query: the liberty count of the group containing p,
// or 0 for an empty point.
func (b *Board) Liberties(p Point) int {
	return b.GroupAt(p).Liberties
}

// Place puts a stone of the given color at p, removing any opposing groups
// left without liberties. A move that leaves the placing group itself
// without liberties fails with ErrSuicide unless allowSuicide is set, in
// which case the group is removed and reported as a self capture.
// On any error the board is unchanged.
func (b *Board) Place(p Point, c Color, allowSuicide bool) (Capture, error) {
	if !b.Contains(p) {
		return Capture{}, errs.ErrOutOfBounds
	}
	if b.At(p) != Empty {
		return Capture{}, errs.ErrOccupied
	}

	b.set(p, c)

	// Only groups adjacent to the placed stone can have lost their last
	// liberty, so the scan stays local to the move.
	var captured []Point
	inspected := map[Point]bool{}
	for _, n := range b.Neighbors(p) {
		if b.At(n) != c.Opponent() || inspected[n] {
			continue
		}
		g := b.GroupAt(n)
		for _, s := range g.Stones {
			inspected[s] = true
		}
		if g.Liberties == 0 {
			b.remove(g.Stones)
			captured = append(captured, g.Stones...)
		}
	}

	if len(captured) > 0 {
		sortPoints(captured)
		return Capture{Points: captured}, nil
	}

	own := b.GroupAt(p)
	if own.Liberties == 0 {
		if !allowSuicide {
			b.set(p, Empty)
			return Capture{}, errs.ErrSuicide
		}
		b.remove(own.Stones)
		sortPoints(own.Stones)
		return Capture{Points: own.Stones, Self: true}, nil
	}

	return Capture{}, nil
}

func (b *Board) remove(points []Point) {
	for _, p := range points {
		b.set(p, Empty)
	}
}

// Clear empties the point at p. Used when dead stones are lifted off the
// board before scoring.
func (b *Board) Clear(p Point) {
	b.set(p, Empty)
}

// Stones counts the stones of the given color on the board.
func (b *Board) Stones(c Color) int {
	n := 0
	for _, pc := range b.points {
		if pc == c {
			n++
		}
	}
	return n
}

// Snapshot is a canonical encoding of the position: dimensions followed by
// the cell contents in row-major order. Two boards reached through
// different move sequences encode identically, which is what ko
// comparison needs.
func (b *Board) Snapshot() []byte {
	buf := make([]byte, 8+len(b.points))
	binary.BigEndian.PutUint32(buf[0:4], uint32(b.Width))
	binary.BigEndian.PutUint32(buf[4:8], uint32(b.Height))
	for i, c := range b.points {
		buf[8+i] = byte(c)
	}
	return buf
}

// Hash is a 64-bit digest of Snapshot, used to cheaply pre-filter ko
// comparisons before the exact check.
func (b *Board) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b.Snapshot())
	return h.Sum64()
}

func (b *Board) Clone() *Board {
	points := make([]Color, len(b.points))
	copy(points, b.points)
	return &Board{Width: b.Width, Height: b.Height, Toroidal: b.Toroidal, points: points}
}

func (b *Board) Equal(other *Board) bool {
	if b.Width != other.Width || b.Height != other.Height {
		return false
	}
	for i := range b.points {
		if b.points[i] != other.points[i] {
			return false
		}
	}
	return true
}

// Restore overwrites the position with a previously cloned board. Both
// boards must share dimensions.
func (b *Board) Restore(from *Board) {
	copy(b.points, from.points)
}

func sortPoints(points []Point) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Y != points[j].Y {
			return points[i].Y < points[j].Y
		}
		return points[i].X < points[j].X
	})
}
