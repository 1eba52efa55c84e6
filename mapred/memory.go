package mapred

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/canopy/errors"
)

const gib = 1024 * 1024 * 1024

// memoryStats returns total and available memory in bytes
var memoryStats = func() (total uint64, available uint64, err error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get memory stats")
	}
	return v.Total, v.Available, nil
}

// CheckMemoryPressure compares an estimated working set with available
// memory. Returns a warning message, or an empty string if it fits or memory
// cannot be inspected.
func CheckMemoryPressure(estimatedBytes uint64) string {
	total, available, err := memoryStats()
	if err != nil || total == 0 {
		return ""
	}

	// keep a fifth of available memory for the rest of the system
	budget := available - available/5
	if estimatedBytes > budget {
		return fmt.Sprintf(
			"Estimated working set (%.2fGB) exceeds 80%% of available memory (%.2f/%.2fGB). "+
				"Consider splitting the input.",
			float64(estimatedBytes)/gib, float64(available)/gib, float64(total)/gib)
	}
	return ""
}
