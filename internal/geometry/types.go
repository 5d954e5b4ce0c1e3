package geometry

import "fmt"

// Direction is one of the four tile sides, in counter-clockwise order.
type Direction uint8

const (
	East Direction = iota
	North
	West
	South
)

// Directions lists the four sides in index order.
var Directions = [4]Direction{East, North, West, South}

func (d Direction) Opposite() Direction { return (d + 2) & 3 }

// Rotate turns d counter-clockwise by r quarter turns.
func (d Direction) Rotate(r Rotation) Direction { return (d + Direction(r)) & 3 }

func (d Direction) Mask() uint8 { return 1 << d }

func (d Direction) String() string {
	switch d & 3 {
	case East:
		return "E"
	case North:
		return "N"
	case West:
		return "W"
	default:
		return "S"
	}
}

// ParseDirection accepts the single-letter form produced by String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "E", "e":
		return East, nil
	case "N", "n":
		return North, nil
	case "W", "w":
		return West, nil
	case "S", "s":
		return South, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Rotation counts counter-clockwise quarter turns applied to a template.
type Rotation uint8

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

var Rotations = [4]Rotation{Rotate0, Rotate90, Rotate180, Rotate270}

func (r Rotation) Normalize() Rotation { return r & 3 }

func (r Rotation) String() string { return fmt.Sprintf("%d", int(r&3)*90) }

// ToWorld maps a template-local side to the board side it faces.
func ToWorld(local Direction, r Rotation) Direction { return local.Rotate(r) }

// ToLocal is the inverse of ToWorld.
func ToLocal(world Direction, r Rotation) Direction { return (world - Direction(r&3)) & 3 }

// Coord addresses one cell of the unbounded grid. North is -Y.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

func (c Coord) Add(dx, dy int) Coord { return Coord{X: c.X + dx, Y: c.Y + dy} }

// Less orders coordinates row-major, used wherever output must be deterministic.
func (c Coord) Less(o Coord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// Turn classifies how a river changes heading across one tile.
type Turn uint8

const (
	NoTurn Turn = iota
	Straight
	TurnLeft
	TurnRight
	Reverse
)

func (t Turn) String() string {
	switch t {
	case Straight:
		return "straight"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	case Reverse:
		return "reverse"
	default:
		return "none"
	}
}
