package processing

import (
	"github.com/pdok/xyz/xyz"
)

// Item is a named Points or Polygons travelling through the pipeline
type Item struct {
	Name string
	Data xyz.XYZ
}

// Source sends its items and closes the channel when done
type Source interface {
	ReadItems(chan<- Item)
}

type Target interface {
	WriteItems(<-chan Item)
}
