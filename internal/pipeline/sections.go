package pipeline

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// DiagnosticSections lists the report headings in their required order.
var DiagnosticSections = []string{
	"Overall Impression",
	"Potential Pneumonia Indicators",
	"Potential COVID-19 Indicators",
	"Image Quality & Technical Analysis",
}

// maxHeadingDistance tolerates small wording drift such as "and" for "&".
const maxHeadingDistance = 3

// SectionReport describes how a diagnosis matches the expected layout
type SectionReport struct {
	// Found holds the canonical section names in order of appearance
	Found      []string
	Missing    []string
	OutOfOrder bool
}

// Complete reports whether every section is present and in order
func (r SectionReport) Complete() bool {
	return len(r.Missing) == 0 && !r.OutOfOrder
}

// CheckSections matches markdown headings in text against
// DiagnosticSections. It only reads text.
func CheckSections(text string) SectionReport {
	var report SectionReport
	seen := make(map[int]bool, len(DiagnosticSections))
	last := -1

	for _, line := range strings.Split(text, "\n") {
		heading, ok := headingText(line)
		if !ok {
			continue
		}
		idx := matchSection(heading)
		if idx < 0 || seen[idx] {
			continue
		}
		seen[idx] = true
		report.Found = append(report.Found, DiagnosticSections[idx])
		if idx < last {
			report.OutOfOrder = true
		}
		last = idx
	}

	for i, name := range DiagnosticSections {
		if !seen[i] {
			report.Missing = append(report.Missing, name)
		}
	}
	return report
}

// headingText extracts the title of a "#" heading or a line that is
// bold-only, e.g. "**Overall Impression**".
func headingText(line string) (string, bool) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "#"):
		line = strings.TrimLeft(line, "#")
	case len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
	default:
		return "", false
	}
	line = strings.Trim(strings.TrimSpace(line), "*: ")
	return line, line != ""
}

func matchSection(heading string) int {
	h := normalizeHeading(heading)
	best, bestDist := -1, maxHeadingDistance+1
	for i, name := range DiagnosticSections {
		if d := levenshtein.Distance(h, normalizeHeading(name)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func normalizeHeading(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
