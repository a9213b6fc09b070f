// Package fuzzy provides Levenshtein edit distance and a ratio-based
// similarity check used for typo-tolerant token matching.
package fuzzy

import "strings"

// DefaultThreshold is the similarity cutoff: two strings are similar
// when the edit distance divided by the longer length does not exceed it.
const DefaultThreshold = 0.3

// Distance calculates the edit distance between two strings.
// Insertion, deletion, and substitution each cost 1.
func Distance(a, b string) int {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 0; i <= m; i++ {
		for j := 0; j <= n; j++ {
			if i == 0 {
				dp[i][j] = j
			} else if j == 0 {
				dp[i][j] = i
			} else if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1]
			} else {
				dp[i][j] = 1 + min3(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
			}
		}
	}
	return dp[m][n]
}

// Similar reports whether a and b are within threshold of each other,
// comparing case-insensitively. Two empty strings are similar.
func Similar(a, b string, threshold float64) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := max(len(a), len(b))
	if longest == 0 {
		return true
	}
	dist := Distance(a, b)
	return float64(dist)/float64(longest) <= threshold
}

func min3(a, b, c int) int {
	if a < b && a < c {
		return a
	} else if b < c {
		return b
	}
	return c
}
