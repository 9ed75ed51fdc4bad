package summarize

import "strings"

// ParseResult splits a model answer on the two markers. Without both markers
// the whole text is the summary and there are no key points.
func ParseResult(raw string) Result {
	if !strings.Contains(raw, SummaryMarker) || !strings.Contains(raw, KeyPointsMarker) {
		return Result{Summary: raw, KeyPoints: []string{}}
	}

	_, afterSummary, _ := strings.Cut(raw, SummaryMarker)
	summary, _, _ := strings.Cut(afterSummary, KeyPointsMarker)

	_, afterPoints, _ := strings.Cut(raw, KeyPointsMarker)
	afterPoints, _, _ = strings.Cut(afterPoints, KeyPointsMarker)

	points := []string{}
	for _, line := range strings.Split(strings.TrimSpace(afterPoints), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		points = append(points, strings.TrimLeft(line, "- "))
	}
	return Result{Summary: strings.TrimSpace(summary), KeyPoints: points}
}
