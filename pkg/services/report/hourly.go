package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/de-tools/line-report/pkg/models/domain"
)

// BucketFailuresByHour groups per-timestamp failure counts by the hour of their
// "HH:MM" label, keeping first-seen hour order. Labels shorter than two
// characters, with a non-numeric hour, or without a matching count are skipped.
// A nil filter keeps every hour; otherwise the filter is inclusive.
func BucketFailuresByHour(labels []string, counts []int, filter *domain.HourRange) []domain.HourBucket {
	var buckets []domain.HourBucket
	index := make(map[int]int)

	for i, label := range labels {
		if len(label) < 2 || i >= len(counts) {
			continue
		}
		hour, err := strconv.Atoi(label[:2])
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		if !filter.Contains(hour) {
			continue
		}

		pos, ok := index[hour]
		if !ok {
			pos = len(buckets)
			index[hour] = pos
			buckets = append(buckets, domain.HourBucket{Label: HourLabel(hour)})
		}
		buckets[pos].Count += counts[i]
	}

	return buckets
}

// HourLabel renders the dashboard's hour bucket key, e.g. "09시대".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d시대", hour)
}

// AvailabilityPercent averages 0..1 uptime samples into a rounded percentage.
func AvailabilityPercent(samples []float64) int {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return int(math.Round(sum / float64(len(samples)) * 100))
}
