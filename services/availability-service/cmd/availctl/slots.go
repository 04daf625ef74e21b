package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
)

func newSlotsCmd() *cobra.Command {
	var (
		hoursFile      string
		professionalTZ string
		clientTZ       string
		date           string
		duration       int
		granularity    int
		booked         []string
		detail         bool
		asJSON         bool
	)

	c := &cobra.Command{
		Use:   "slots",
		Short: "List bookable start times on a client's date",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := loadSchedule(hoursFile, professionalTZ)
			if err != nil {
				return err
			}
			clientLoc, err := availability.LoadLocation(clientTZ)
			if err != nil {
				return err
			}
			clientDate, err := availability.ParseDate(date)
			if err != nil {
				return err
			}
			appts, err := parseBooked(booked)
			if err != nil {
				return err
			}

			slots, err := availability.ComputeSlots(availability.SlotQuery{
				Schedule:           schedule,
				ClientDate:         clientDate,
				ClientLocation:     clientLoc,
				DurationMinutes:    duration,
				GranularityMinutes: granularity,
				Appointments:       appts,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !detail {
				return printList(out, availability.FormatTimes(slots), asJSON)
			}
			for _, s := range slots {
				fmt.Fprintf(out, "%s  client=%s %s  professional=%s  utc=%s..%s\n",
					s.ClientLocalTime, s.ClientLocalDate, clientLoc, s.ProfessionalLocalTime,
					s.StartUTC.Format(time.RFC3339), s.EndUTC.Format(time.RFC3339))
			}
			return nil
		},
	}

	c.Flags().StringVar(&hoursFile, "hours", "", "working hours JSON file ({\"timezone\":..,\"working_hours\":{..}}), - for stdin")
	c.Flags().StringVar(&professionalTZ, "professional-tz", "", "override the file's timezone")
	c.Flags().StringVar(&clientTZ, "client-tz", "", "client IANA timezone")
	c.Flags().StringVar(&date, "date", "", "client date YYYY-MM-DD")
	c.Flags().IntVar(&duration, "duration", 60, "service duration in minutes")
	c.Flags().IntVar(&granularity, "granularity", availability.DefaultGranularityMinutes, "slot step in minutes")
	c.Flags().StringArrayVar(&booked, "booked", nil, "existing appointment START/END in RFC3339 (repeatable)")
	c.Flags().BoolVar(&detail, "detail", false, "print UTC and professional-local times")
	c.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	_ = c.MarkFlagRequired("hours")
	_ = c.MarkFlagRequired("client-tz")
	_ = c.MarkFlagRequired("date")
	return c
}
