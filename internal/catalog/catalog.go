// Package catalog provides lookup over a parsed element-set dataset by
// catalog number or satellite name.
package catalog

import (
	"strings"

	"github.com/groundtrack/groundtrack/internal/tle"
)

// Catalog indexes the satellites of one dataset. Build once per dataset;
// lookups are read-only and safe for concurrent use.
type Catalog struct {
	ordered  []tle.ElementSet
	byNumber map[string]int
	byName   map[string]int
}

// New builds a Catalog over the dataset's satellites. When the same
// catalog number appears more than once, the first occurrence wins,
// matching file order.
func New(ds *tle.Dataset) *Catalog {
	c := &Catalog{
		byNumber: make(map[string]int),
		byName:   make(map[string]int),
	}
	if ds == nil {
		return c
	}
	c.ordered = ds.Satellites
	for i, e := range ds.Satellites {
		num := normalizeNumber(e.CatalogNumber)
		if _, dup := c.byNumber[num]; !dup {
			c.byNumber[num] = i
		}
		name := normalizeName(e.Name)
		if name != "" {
			if _, dup := c.byName[name]; !dup {
				c.byName[name] = i
			}
		}
	}
	return c
}

// ByNumber looks up an element set by catalog number. Leading zeros and
// surrounding whitespace in the query are ignored, so "25544", " 25544"
// and "025544" all address the same satellite.
func (c *Catalog) ByNumber(num string) (tle.ElementSet, bool) {
	i, ok := c.byNumber[normalizeNumber(num)]
	if !ok {
		return tle.ElementSet{}, false
	}
	return c.ordered[i], true
}

// ByName looks up an element set by satellite name, case-insensitively.
func (c *Catalog) ByName(name string) (tle.ElementSet, bool) {
	i, ok := c.byName[normalizeName(name)]
	if !ok {
		return tle.ElementSet{}, false
	}
	return c.ordered[i], true
}

// All returns the satellites in dataset order. Callers must not modify
// the returned slice.
func (c *Catalog) All() []tle.ElementSet {
	return c.ordered
}

// Len returns the number of satellites in the catalog.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

func normalizeNumber(num string) string {
	num = strings.TrimSpace(num)
	trimmed := strings.TrimLeft(num, "0")
	if trimmed == "" && num != "" {
		return "0"
	}
	return trimmed
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
