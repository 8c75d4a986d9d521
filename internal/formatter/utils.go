package formatter

import (
	"fmt"
	"strings"
)

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// formatBalls renders lottery numbers as zero-padded two digit values
func formatBalls(numbers []int) string {
	if len(numbers) == 0 {
		return "-"
	}
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}

func formatSpecial(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%02d", *n)
}

// capSets keeps at most lottery.MaxRecommendationSets sets
func capSets(sets [][]int, limit int) [][]int {
	if len(sets) > limit {
		return sets[:limit]
	}
	return sets
}
