package orders

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

var batchRe = regexp.MustCompile(`^BATCH-(\d{4})(\d{2})-(\d{2})$`)

// FormatBatchName имя партии по соглашению BATCH-YYYYMM-NN.
func FormatBatchName(year, month, n int) string {
	return fmt.Sprintf("BATCH-%04d%02d-%02d", year, month, n)
}

func ParseBatchName(name string) (year, month, n int, ok bool) {
	m := batchRe.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	n, _ = strconv.Atoi(m[3])
	return year, month, n, true
}

// DefaultBatchName партия по умолчанию для новой записи: самая "старшая" из существующих,
// иначе первая партия текущего месяца.
func DefaultBatchName(existing []string, now time.Time) string {
	if latest := LatestBatch(existing); latest != "" {
		return latest
	}
	return FormatBatchName(now.Year(), int(now.Month()), 1)
}

func LatestBatch(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sorted := append([]string(nil), names...)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))
	return sorted[0]
}
