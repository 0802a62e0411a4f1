package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Citation is a structured locator into a source document.
// Exactly one of Page, Section or Sheet+Cell is set for located citations;
// a bare file path is also valid.
type Citation struct {
	// FilePath is the source document path.
	FilePath string

	// Page is the 1-based page number for PDF citations (0 = unset).
	Page int

	// Section is the section identifier for DOCX citations.
	Section string

	// Sheet is the worksheet name for XLSX citations.
	Sheet string

	// Cell is the cell or range reference for XLSX citations.
	Cell string
}

// String formats the citation in the canonical wire form:
// path#page=N, path#section=S, path#Sheet!Cell, or a bare path.
func (c Citation) String() string {
	switch {
	case c.Page > 0:
		return fmt.Sprintf("%s#page=%d", c.FilePath, c.Page)
	case c.Section != "":
		return fmt.Sprintf("%s#section=%s", c.FilePath, c.Section)
	case c.Sheet != "" && c.Cell != "":
		return fmt.Sprintf("%s#%s!%s", c.FilePath, c.Sheet, c.Cell)
	default:
		return c.FilePath
	}
}

// ParseCitation parses the canonical wire form back into a structured
// citation. Round-trip: ParseCitation(c.String()) == c.
func ParseCitation(s string) Citation {
	path, loc, found := strings.Cut(s, "#")
	if !found {
		return Citation{FilePath: s}
	}

	switch {
	case strings.HasPrefix(loc, "page="):
		page, err := strconv.Atoi(strings.TrimPrefix(loc, "page="))
		if err != nil {
			return Citation{FilePath: path}
		}
		return Citation{FilePath: path, Page: page}
	case strings.HasPrefix(loc, "section="):
		return Citation{FilePath: path, Section: strings.TrimPrefix(loc, "section=")}
	case strings.Contains(loc, "!"):
		sheet, cell, _ := strings.Cut(loc, "!")
		return Citation{FilePath: path, Sheet: sheet, Cell: cell}
	default:
		return Citation{FilePath: path}
	}
}
