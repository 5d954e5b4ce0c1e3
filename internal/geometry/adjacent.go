package geometry

// Neighbor returns the cell across side d.
func (c Coord) Neighbor(d Direction) Coord {
	switch d & 3 {
	case East:
		return Coord{X: c.X + 1, Y: c.Y}
	case North:
		return Coord{X: c.X, Y: c.Y - 1}
	case West:
		return Coord{X: c.X - 1, Y: c.Y}
	default:
		return Coord{X: c.X, Y: c.Y + 1}
	}
}

// Neighbors4 returns the edge-adjacent cells indexed by Direction.
func (c Coord) Neighbors4() [4]Coord {
	return [4]Coord{c.Neighbor(East), c.Neighbor(North), c.Neighbor(West), c.Neighbor(South)}
}

// Ring returns every cell within Chebyshev distance radius of c, excluding c.
func (c Coord) Ring(radius int) []Coord {
	if radius <= 0 {
		return nil
	}
	side := 2*radius + 1
	out := make([]Coord, 0, side*side-1)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			out = append(out, Coord{X: c.X + dx, Y: c.Y + dy})
		}
	}
	return out
}

// Neighbors8 is Ring(1).
func (c Coord) Neighbors8() []Coord { return c.Ring(1) }

// Within reports whether o lies in the square of the given radius around c.
func (c Coord) Within(o Coord, radius int) bool {
	dx, dy := o.X-c.X, o.Y-c.Y
	return dx >= -radius && dx <= radius && dy >= -radius && dy <= radius
}

// RiverTurn classifies a river entering through side in and leaving through side out.
func RiverTurn(in, out Direction) Turn {
	heading := in.Opposite()
	switch out & 3 {
	case heading:
		return Straight
	case heading.Rotate(Rotate90):
		return TurnLeft
	case heading.Rotate(Rotate270):
		return TurnRight
	default:
		return Reverse
	}
}
