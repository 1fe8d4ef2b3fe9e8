package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/23skdu/eigencmc/internal/core"
)

// Task is one dimension of a sweep. Index is the position in the requested
// dimension list.
type Task struct {
	Name      string
	Dimension int
	Index     int
}

// Plan turns dims into one task per entry, keeping order and duplicates.
func Plan(name string, dims []int) []Task {
	tasks := make([]Task, len(dims))
	for i, d := range dims {
		tasks[i] = Task{Name: name, Dimension: d, Index: i}
	}
	return tasks
}

// MaxSweepLength bounds the number of dimensions a range may expand to.
const MaxSweepLength = 1 << 16

// DimensionRange returns start, start+step, ... up to and including stop.
// Ranges expanding to more than MaxSweepLength dimensions are rejected.
func DimensionRange(start, stop, step int) ([]int, error) {
	if start < 1 || step < 1 || stop < start {
		return nil, core.NewInvalidDimensionError(start, stop)
	}
	n := (stop-start)/step + 1
	if n > MaxSweepLength {
		return nil, fmt.Errorf("sweep: range %d:%d:%d has %d dimensions, max %d: %w",
			start, stop, step, n, MaxSweepLength, core.ErrInvalidDimension)
	}
	dims := make([]int, n)
	for i := range dims {
		dims[i] = start + i*step
	}
	return dims, nil
}

// ParseDimensions parses "10,20,30" or a range "10:100:10" (start:stop:step).
func ParseDimensions(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("sweep: empty dimension list")
	}
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("sweep: range %q must be start:stop:step", s)
		}
		var nums [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("sweep: range %q: %w", s, err)
			}
			nums[i] = n
		}
		return DimensionRange(nums[0], nums[1], nums[2])
	}

	var dims []int
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("sweep: dimension %q: %w", p, err)
		}
		if n < 1 {
			return nil, core.NewInvalidDimensionError(n, 0)
		}
		dims = append(dims, n)
	}
	return dims, nil
}
