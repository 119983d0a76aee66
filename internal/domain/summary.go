package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const summarySeparator = ", "

var quantityPattern = regexp.MustCompile(`x(\d+)\)`)

// FormatItemsSummary renders lines as "name (xN)" joined by ", ".
func FormatItemsSummary(lines []OrderLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%s (x%d)", l.Name, l.Quantity)
	}
	return strings.Join(parts, summarySeparator)
}

// SummaryQuantity counts the units in an items summary. Each segment
// contributes the N of its "xN)" marker, or 1 when it has none. Blank
// segments are skipped.
func SummaryQuantity(items string) int {
	var total int
	for _, segment := range strings.Split(items, summarySeparator) {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		m := quantityPattern.FindStringSubmatch(segment)
		if m == nil {
			total++
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			total++
			continue
		}
		total += n
	}
	return total
}
