package components

// Position is a shape's cell in the space. It is bounded to the space at
// spawn time and not re-validated afterward.
type Position struct {
	X, Y int
}
