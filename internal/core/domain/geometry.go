package domain

// Page describes one page of a document in its native coordinate space.
// Dimensions are immutable and supplied by the extraction backend.
type Page struct {
	PageNumber int     `json:"page_number"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Unit       string  `json:"unit"`
}

// BoundingBox is an axis-aligned, non-rotated rectangle in document-space
// units with a top-left origin. A box belongs to exactly one page.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) IsZero() bool {
	return b.X == 0 && b.Y == 0 && b.Width == 0 && b.Height == 0
}

// Centroid returns the geometric center of the box.
func (b BoundingBox) Centroid() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// MergeBoxes returns the union rectangle spanning all boxes: the minimum
// x/y corner and the maximum x+width / y+height extents. The second return
// is false when the input is empty.
func MergeBoxes(boxes []BoundingBox) (BoundingBox, bool) {
	if len(boxes) == 0 {
		return BoundingBox{}, false
	}

	minX := boxes[0].X
	minY := boxes[0].Y
	maxX := boxes[0].X + boxes[0].Width
	maxY := boxes[0].Y + boxes[0].Height

	for _, b := range boxes[1:] {
		if b.X < minX {
			minX = b.X
		}
		if b.Y < minY {
			minY = b.Y
		}
		if b.X+b.Width > maxX {
			maxX = b.X + b.Width
		}
		if b.Y+b.Height > maxY {
			maxY = b.Y + b.Height
		}
	}

	return BoundingBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}, true
}

// FindPage returns the page with the given 1-based number, or false when
// the dimension list does not contain it.
func FindPage(pages []Page, pageNumber int) (Page, bool) {
	for _, p := range pages {
		if p.PageNumber == pageNumber {
			return p, true
		}
	}
	return Page{}, false
}
