package cli

import (
	"fmt"
	"strconv"
)

// parseTaskID parses a positional task id argument.
func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}
