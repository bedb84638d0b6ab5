package google

import (
	"fmt"
	"strconv"
	"strings"
)

// toRows converts the Sheets value matrix into plain strings. Numbers come
// back as float64 when the range is read unformatted; they are rendered
// without exponent so the amount parser sees plain digits.
func toRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case nil:
			out[i] = ""
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}
