package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "availctl",
		Short:         "Inspect professional availability across timezones",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSlotsCmd())
	root.AddCommand(newDaysCmd())
	return root
}

// scheduleFile matches the working-hours API payload.
type scheduleFile struct {
	Timezone     string                             `json:"timezone"`
	WorkingHours availability.PersistedWorkingHours `json:"working_hours"`
}

func loadSchedule(path, timezoneOverride string) (availability.ParsedWorkingHours, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return availability.ParsedWorkingHours{}, err
		}
		defer f.Close()
		r = f
	}

	var sf scheduleFile
	if err := json.NewDecoder(r).Decode(&sf); err != nil {
		return availability.ParsedWorkingHours{}, fmt.Errorf("decode %s: %w", path, err)
	}
	tz := sf.Timezone
	if timezoneOverride != "" {
		tz = timezoneOverride
	}
	return availability.ParseWorkingHours(sf.WorkingHours, tz)
}

// parseBooked reads "start/end" RFC3339 pairs.
func parseBooked(values []string) ([]availability.Interval, error) {
	out := make([]availability.Interval, 0, len(values))
	for _, v := range values {
		rawStart, rawEnd, ok := strings.Cut(v, "/")
		if !ok {
			return nil, fmt.Errorf("invalid --booked %q (want START/END)", v)
		}
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(rawStart))
		if err != nil {
			return nil, fmt.Errorf("invalid --booked start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(rawEnd))
		if err != nil {
			return nil, fmt.Errorf("invalid --booked end: %w", err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("invalid --booked %q: end must be after start", v)
		}
		out = append(out, availability.Interval{Start: start.UTC(), End: end.UTC()})
	}
	return out, nil
}

func printList(w io.Writer, items []string, asJSON bool) error {
	if asJSON {
		if items == nil {
			items = []string{}
		}
		return json.NewEncoder(w).Encode(items)
	}
	for _, it := range items {
		if _, err := fmt.Fprintln(w, it); err != nil {
			return err
		}
	}
	return nil
}
