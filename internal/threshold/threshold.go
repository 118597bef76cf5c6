// Package threshold implements the threshold adaptor: the distance cutoff
// tau separating matched from unmatched nuggets, recomputed as confirmed
// positives and negatives accumulate during a feedback round.
package threshold

import "sort"

// Config carries the adaptor's fallback threshold.
type Config struct {
	DefaultTau float64
}

// DefaultConfig returns the adaptor's default configuration: tau=0.35,
// matching the fallback used whenever either the confirmed-positive or
// confirmed-negative distance set is empty.
func DefaultConfig() Config {
	return Config{DefaultTau: 0.35}
}

// Adapt computes tau from the confirmed-positive distances (dP) and
// confirmed-negative distances (dN) collected so far. If either set is
// empty, it returns cfg.DefaultTau. If the two sets do not overlap
// (max(dP) < min(dN)), it returns their midpoint. Otherwise it performs a
// max-margin search over the sorted union of dP and dN, breaking ties
// toward the smaller tau (preferring precision over recall).
func Adapt(dP, dN []float64, cfg Config) float64 {
	if len(dP) == 0 || len(dN) == 0 {
		return cfg.DefaultTau
	}

	maxP := max(dP)
	minN := min(dN)
	if maxP < minN {
		return (maxP + minN) / 2
	}

	return maxMarginSearch(dP, dN)
}

// maxMarginSearch scans every candidate cutoff between consecutive values
// of the sorted union of dP and dN, scoring each by how cleanly it
// separates positives below it from negatives above it, and returns the
// smallest cutoff achieving the best score.
func maxMarginSearch(dP, dN []float64) float64 {
	labeled := make([]struct {
		dist     float64
		positive bool
	}, 0, len(dP)+len(dN))
	for _, d := range dP {
		labeled = append(labeled, struct {
			dist     float64
			positive bool
		}{d, true})
	}
	for _, d := range dN {
		labeled = append(labeled, struct {
			dist     float64
			positive bool
		}{d, false})
	}
	sort.Slice(labeled, func(i, j int) bool { return labeled[i].dist < labeled[j].dist })

	bestScore := -1
	bestTau := labeled[0].dist

	for i := 0; i <= len(labeled); i++ {
		var candidate float64
		switch {
		case i == 0:
			candidate = labeled[0].dist
		case i == len(labeled):
			candidate = labeled[len(labeled)-1].dist
		default:
			candidate = (labeled[i-1].dist + labeled[i].dist) / 2
		}

		score := 0
		for _, l := range labeled {
			if l.positive && l.dist <= candidate {
				score++
			}
			if !l.positive && l.dist > candidate {
				score++
			}
		}
		if score > bestScore || (score == bestScore && candidate < bestTau) {
			bestScore = score
			bestTau = candidate
		}
	}
	return bestTau
}

func max(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func min(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
