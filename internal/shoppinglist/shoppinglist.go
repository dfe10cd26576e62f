// Package shoppinglist turns the ingredients of a user's shopping cart into
// the text file they download.
//
// Rows are grouped by (ingredient name, measurement unit), not by ingredient
// id, so two catalogue entries that spell the same name and unit collapse
// into one line.
//
// WHY NOT SUM IN SQL?
// The database could GROUP BY name and unit, but then the rule "what counts
// as the same line" would be split between a query and this package. Keeping
// the grouping here makes it a pure function over a slice: the store returns
// raw (name, unit, amount) rows, and everything the user sees in the file is
// decided and tested in one place without a database.
package shoppinglist

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sakif/foodgram/internal/model"
)

// DefaultFileName is the attachment name offered to the browser.
const DefaultFileName = "Список Покупок.txt"

// Line is one entry of the shopping list.
type Line struct {
	Name  string
	Unit  string
	Total int
}

// String formats the line as "<name> (<unit>) — <total>".
func (l Line) String() string {
	return fmt.Sprintf("%s (%s) — %d", l.Name, l.Unit, l.Total)
}

type key struct {
	name string
	unit string
}

// ErrOverflow is returned when a total no longer fits in an int. Amounts
// are capped on write, so this only happens with rows that bypassed the cap.
var ErrOverflow = errors.New("shoppinglist: total overflows")

// Aggregate sums Amount per (name, unit) pair. The result is sorted by name
// (case-insensitive), then by exact name, then by unit, so it does not depend
// on the order the rows were read in. An empty cart yields an empty slice.
//
// A sum that would leave the int range returns ErrOverflow rather than a
// wrapped, negative total.
func Aggregate(items []model.CartIngredient) ([]Line, error) {
	totals := make(map[key]int, len(items))
	for _, it := range items {
		k := key{name: it.Name, unit: it.MeasurementUnit}
		sum, ok := add(totals[k], it.Amount)
		if !ok {
			return nil, fmt.Errorf("%w: %s (%s)", ErrOverflow, it.Name, it.MeasurementUnit)
		}
		totals[k] = sum
	}

	lines := make([]Line, 0, len(totals))
	for k, total := range totals {
		lines = append(lines, Line{Name: k.name, Unit: k.unit, Total: total})
	}

	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name); la != lb {
			return la < lb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Unit < b.Unit
	})
	return lines, nil
}

// add returns a+b and false if the result would overflow.
func add(a, b int) (int, bool) {
	if (b > 0 && a > math.MaxInt-b) || (b < 0 && a < math.MinInt-b) {
		return 0, false
	}
	return a + b, true
}

// Render joins the lines with newlines. No trailing newline is written, and
// an empty list renders as the empty string.
func Render(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}
