// Package pagination splits ordered listings into fixed-size numbered pages.
package pagination

import "strconv"

// DefaultPageSize is the number of posts shown per listing page.
const DefaultPageSize = 10

// Page describes one page of a listing of Count items.
type Page struct {
	Number   int
	Size     int
	NumPages int
	Count    int64
}

// Resolve turns the raw ?page= value into a valid page. A value that is not an
// integer yields the first page; a number outside 1..NumPages yields the last page.
// An empty listing still has one (empty) page.
func Resolve(raw string, count int64, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if count < 0 {
		count = 0
	}

	numPages := int((count + int64(size) - 1) / int64(size))
	if numPages == 0 {
		numPages = 1
	}

	number, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	return Page{Number: number, Size: size, NumPages: numPages, Count: count}
}

// Offset is the number of items preceding this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasPrevious() bool { return p.Number > 1 }

// HasOtherPages reports whether pagination controls are needed at all.
func (p Page) HasOtherPages() bool { return p.NumPages > 1 }

func (p Page) NextNumber() int     { return p.Number + 1 }
func (p Page) PreviousNumber() int { return p.Number - 1 }

// Numbers lists 1..NumPages for rendering page links.
func (p Page) Numbers() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
