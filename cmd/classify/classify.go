// Package classify implements the offline spectral classification command.
package classify

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/drivesense/internal/conf"
	"github.com/tphakala/drivesense/internal/spectral"
	"github.com/tphakala/drivesense/internal/trace"
)

// Command creates the classify command.
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "classify [trace.jsonl]",
		Short: "Classify the acceleration samples of a trace",
		Long:  "Run every full window of recorded acceleration magnitudes through the spectral classifier and print one row per window.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening trace: %w", err)
			}
			defer f.Close()

			tr, err := trace.Read(f)
			if err != nil {
				return err
			}
			return Run(cmd.OutOrStdout(), tr, settings.SpectralConfig(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv")
	return cmd
}

// Run classifies the samples of tr window by window and writes the results.
// Trailing samples that do not fill a window are reported in a footer.
func Run(w io.Writer, tr *trace.Trace, cfg spectral.Config, format string) error {
	classifier, err := spectral.NewClassifier(cfg)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, s := range tr.Samples() {
		result, ok, err := classifier.Add(s)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		rows = append(rows, []string{
			result.WindowEnd.Format(time.RFC3339Nano),
			result.Label.String(),
			strconv.FormatFloat(result.Energy, 'f', 4, 64),
			strconv.FormatFloat(result.DominantFrequency, 'f', 2, 64),
			strconv.FormatFloat(result.Entropy, 'f', 3, 64),
		})
	}
	header := []string{"window_end", "label", "energy", "dominant_hz", "entropy"}

	switch format {
	case "csv":
		writer := csv.NewWriter(w)
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		if err := writer.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write CSV rows: %w", err)
		}
		return nil
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		writeRow(tw, header)
		for _, row := range rows {
			writeRow(tw, row)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\n%d windows of %d samples, %d samples left over\n",
			len(rows), cfg.WindowSize, classifier.Buffered())
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeRow(w io.Writer, cols []string) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
