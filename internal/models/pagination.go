package models

import "math"

// Page describes a resolved pagination window.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// NewPage normalises raw page parameters. Non-positive values fall back to
// page 1 and defaultPerPage; perPage is capped at maxPerPage.
func NewPage(number, perPage, defaultPerPage, maxPerPage int) Page {
	if number < 1 {
		number = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	// Keep Offset within int range; such a page is simply past the end.
	if maxNumber := math.MaxInt/perPage + 1; number > maxNumber {
		number = maxNumber
	}
	return Page{Number: number, PerPage: perPage}
}

// PageCount returns ceil(total/perPage).
func PageCount(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
