package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/nightscout-go/internal/nightscout"
)

var (
	inspectCount int
	inspectRaw   bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the raw feed and how it normalizes",
	Long: `Fetches the entries feed and the site unit, then prints every record as
decoded, the skip counts of normalization and the resulting readings.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectCount, "count", nightscout.DefaultCount, "Number of entries to request")
	inspectCmd.Flags().BoolVar(&inspectRaw, "raw", false, "Also print the raw JSON payload")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(out, "Site: %s\n", s.client.BaseURL)

	unit, err := s.client.FetchUnit(ctx)
	if err != nil {
		fmt.Fprintf(out, "Unit: %s (settings fetch failed: %v)\n", s.display.Unit, err)
		unit = s.display.Unit
	} else {
		fmt.Fprintf(out, "Unit: %s\n", unit)
	}

	data, err := s.client.FetchEntries(ctx, inspectCount)
	if err != nil {
		return fmt.Errorf("fetching entries: %w", err)
	}

	if inspectRaw {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, data, "", "  "); err != nil {
			fmt.Fprintf(out, "\nRaw payload (not valid JSON):\n%s\n", data)
		} else {
			fmt.Fprintf(out, "\nRaw payload:\n%s\n", pretty.String())
		}
	}

	records, err := nightscout.DecodeEntries(data)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-25s  %5s  %5s  %-8s  %-14s  %s\n", "Date", "SGV", "Prev", "Inactive", "Direction", "Device")
	fmt.Fprintln(out, "--------------------------------------------------------------------------------")
	for _, r := range records {
		fmt.Fprintf(out, "%-25s  %5s  %5s  %-8t  %-14s  %s\n",
			recordDate(r), recordSGV(r), optInt(r.PreviousSGV), r.PreviousSGVNotActive, r.Direction, r.Device)
	}

	readings, stats, err := nightscout.NormalizeWithStats(records, unit)
	if err != nil {
		return fmt.Errorf("normalizing: %w", err)
	}

	fmt.Fprintf(out, "\n%d records, %d readings, %d skipped (inactive %d, sensor error %d, duplicate %d)\n",
		len(records), len(readings), stats.Skipped(), stats.Inactive, stats.SensorError, stats.Duplicate)
	fmt.Fprintln(out, "The oldest accepted record is context for the delta and is not shown.")
	fmt.Fprintln(out)
	for _, r := range readings {
		fmt.Fprintf(out, "  %s  %-8s  %s\n", r.Timestamp.Format("15:04:05"), r.Range(), s.formatter.Format(r, true, true))
	}

	return nil
}

func recordDate(r nightscout.Record) string {
	if r.Date == nil {
		return "(missing)"
	}
	return time.UnixMilli(int64(*r.Date)).Format(time.RFC3339)
}

func recordSGV(r nightscout.Record) string {
	if !r.HasSGV {
		return "-"
	}
	return strconv.Itoa(r.SGV)
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
