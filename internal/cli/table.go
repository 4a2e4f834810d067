package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// writeTable aligns rows under headers. A nil headers slice prints rows only.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.StripEscape)
	if headers != nil {
		rows = append([][]string{headers}, rows...)
	}
	for _, cells := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}
