package utils

import "strconv"

// ToInt64 parses a decimal id string, as found in route parameters.
func ToInt64(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
