package graph

// diffLists computes a longest-common-subsequence edit between two ordered
// lists under a caller-supplied equality, returning the elements present
// only in a (removed) and only in b (added). Elements the subsequence
// keeps appear in neither output.
func diffLists[T any](a, b []T, eq func(T, T) bool) (removed, added []T) {
	m, n := len(a), len(b)
	// dp[i][j] = LCS length of a[i:] and b[j:].
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if eq(a[i], b[j]) {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	i, j := 0, 0
	for i < m && j < n {
		switch {
		case eq(a[i], b[j]):
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			removed = append(removed, a[i])
			i++
		default:
			added = append(added, b[j])
			j++
		}
	}
	removed = append(removed, a[i:]...)
	added = append(added, b[j:]...)
	return removed, added
}
