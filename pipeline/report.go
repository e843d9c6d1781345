package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/ezoic/tsgo/forecast"
	"github.com/ezoic/tsgo/stats"
)

// writeCities lists the selected neighbour cities in correlation order.
func writeCities(w io.Writer, target string, cities []string) {
	fmt.Fprintf(w, "Cities most correlated with %s:\n", target)
	fmt.Fprintf(w, "%s\n\n", strings.Join(cities, ", "))
}

// writeTrend prints the trend regression and, when the slope is
// significant at the 5% level, the per-decade warming figure.
func writeTrend(w io.Writer, tr *stats.TrendResult) {
	if s, err := tr.Model.Summary(); err == nil {
		fmt.Fprintln(w, s)
	}
	if tr.Significant {
		fmt.Fprintf(w, "Per decade the temperature rises with %.2f degrees\n", tr.PerDecade)
	}
	fmt.Fprintln(w)
}

// writeModel prints a section header and the winning model's summary.
func writeModel(w io.Writer, title string, res *forecast.SearchResult) {
	fmt.Fprintf(w, "%s\n", title)
	if s, err := res.Model.Summary(); err == nil {
		fmt.Fprintln(w, s)
	}
}

// writeMAE prints the benchmark score line.
func writeMAE(w io.Writer, mae float64) {
	fmt.Fprintf(w, "The MAE equals %.2f\n\n", mae)
}
