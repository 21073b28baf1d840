package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes sweep results as one CSV row per combination, with a
// header row. Failed combinations keep their row, carrying the error text.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	header := []string{
		"grid_points", "solver", "end_velocity",
		"duration", "peak_velocity", "solve_millis", "warnings", "error",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("sweep: write csv header: %w", err)
	}
	for _, res := range results {
		row := []string{
			strconv.Itoa(res.GridPoints),
			res.Solver,
			strconv.FormatFloat(res.EndVelocity, 'g', -1, 64),
			strconv.FormatFloat(res.Duration, 'g', -1, 64),
			strconv.FormatFloat(res.PeakVelocity, 'g', -1, 64),
			strconv.FormatInt(res.SolveMillis, 10),
			strconv.Itoa(res.Warnings),
			res.Err,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("sweep: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
