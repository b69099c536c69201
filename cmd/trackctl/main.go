// Command trackctl computes satellite ground tracks and pass predictions
// from a local element-set file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundtrack/groundtrack/internal/catalog"
	"github.com/groundtrack/groundtrack/internal/passes"
	"github.com/groundtrack/groundtrack/internal/tle"
	"github.com/groundtrack/groundtrack/internal/track"
	"github.com/groundtrack/groundtrack/internal/transform"
)

var (
	flagSat     string
	flagName    string
	flagStart   string
	flagStep    int
	flagSamples int
	flagWorkers int

	flagLat     float64
	flagLon     float64
	flagAlt     float64
	flagHours   float64
	flagMinElev float64
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if err := newRootCmd(logger).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "trackctl",
		Short:         "Satellite ground tracks and pass predictions from element-set files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd := &cobra.Command{
		Use:   "list <file>",
		Short: "List the satellites in an element-set file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(args[0], logger)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATALOG\tNAME\tEPOCH\tMEAN MOTION")
			for _, e := range cat.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.8f\n",
					e.CatalogNumber, e.Name, e.Epoch.Format(time.RFC3339), e.MeanMotion)
			}
			return tw.Flush()
		},
	}

	trackCmd := &cobra.Command{
		Use:   "track <file>",
		Short: "Compute a ground track for one satellite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(args[0], logger)
			if err != nil {
				return err
			}
			els, err := selectSatellite(cat)
			if err != nil {
				return err
			}

			start := time.Now().UTC()
			if flagStart != "" {
				start, err = time.Parse(time.RFC3339, flagStart)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				start = start.UTC()
			}

			instants := make([]time.Time, flagSamples)
			for i := range instants {
				instants[i] = start.Add(time.Duration(i*flagStep) * time.Second)
			}

			tracker := track.New(track.Config{Workers: flagWorkers}, logger)
			trk, err := tracker.Track(cmd.Context(), els, instants)
			if err != nil {
				return err
			}

			if trk.Stale != nil {
				fmt.Fprintf(os.Stderr, "warning: %s\n", trk.Stale)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tLAT\tLON\tALT KM")
			for _, p := range trk.Points {
				fmt.Fprintf(tw, "%s\t%9.4f\t%9.4f\t%9.2f\n",
					p.Time.Format(time.RFC3339), p.Latitude, p.Longitude, p.AltKm)
			}
			return tw.Flush()
		},
	}
	trackCmd.Flags().StringVar(&flagStart, "start", "", "first instant, RFC3339 (default now)")
	trackCmd.Flags().IntVar(&flagStep, "step", 60, "seconds between instants")
	trackCmd.Flags().IntVar(&flagSamples, "samples", 10, "number of instants")
	trackCmd.Flags().IntVar(&flagWorkers, "workers", 1, "parallel propagation workers")

	passesCmd := &cobra.Command{
		Use:   "passes <file>",
		Short: "Predict passes over an observer location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(args[0], logger)
			if err != nil {
				return err
			}
			els, err := selectSatellite(cat)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			results := passes.Predict(ctx, passes.Request{
				Observer:     transform.NewObserverPosition(flagLat, flagLon, flagAlt),
				Satellites:   []tle.ElementSet{els},
				Start:        time.Now().UTC(),
				HorizonHours: flagHours,
				MinElevation: flagMinElev,
				MaxPasses:    20,
			})
			res := results[0]
			if res.Error != "" {
				return fmt.Errorf("pass prediction: %s", res.Error)
			}

			if len(res.Passes) == 0 {
				fmt.Println("no passes in the requested window")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RISE\tSET\tDURATION\tMAX EL\tAZ AT MAX")
			for _, p := range res.Passes {
				fmt.Fprintf(tw, "%s\t%s\t%4.0fs\t%5.1f\t%5.1f\n",
					p.StartTime.Format(time.RFC3339), p.EndTime.Format(time.RFC3339),
					p.DurationSeconds, p.MaxElevation, p.AzimuthAtMax)
			}
			return tw.Flush()
		},
	}
	passesCmd.Flags().Float64Var(&flagLat, "lat", 0, "observer latitude, degrees")
	passesCmd.Flags().Float64Var(&flagLon, "lon", 0, "observer longitude, degrees")
	passesCmd.Flags().Float64Var(&flagAlt, "alt", 0, "observer altitude, meters")
	passesCmd.Flags().Float64Var(&flagHours, "hours", 24, "prediction horizon, hours")
	passesCmd.Flags().Float64Var(&flagMinElev, "min-elevation", 10, "minimum elevation, degrees")
	cobra.CheckErr(passesCmd.MarkFlagRequired("lat"))
	cobra.CheckErr(passesCmd.MarkFlagRequired("lon"))

	for _, c := range []*cobra.Command{trackCmd, passesCmd} {
		c.Flags().StringVar(&flagSat, "sat", "", "catalog number of the satellite")
		c.Flags().StringVar(&flagName, "name", "", "satellite name (case-insensitive)")
	}

	root.AddCommand(listCmd, trackCmd, passesCmd)
	return root
}

func loadCatalog(path string, logger *slog.Logger) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := tle.Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s contains no element sets", path)
	}
	return catalog.New(tle.NewDataset(path, time.Now().UTC(), entries)), nil
}

func selectSatellite(cat *catalog.Catalog) (tle.ElementSet, error) {
	switch {
	case flagSat != "":
		els, ok := cat.ByNumber(flagSat)
		if !ok {
			return tle.ElementSet{}, fmt.Errorf("no satellite with catalog number %q", flagSat)
		}
		return els, nil
	case flagName != "":
		els, ok := cat.ByName(flagName)
		if !ok {
			return tle.ElementSet{}, fmt.Errorf("no satellite named %q", flagName)
		}
		return els, nil
	case cat.Len() == 1:
		return cat.All()[0], nil
	default:
		return tle.ElementSet{}, fmt.Errorf("file holds %d satellites, pick one with --sat or --name", cat.Len())
	}
}
