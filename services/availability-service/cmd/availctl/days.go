package main

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
)

func newDaysCmd() *cobra.Command {
	var (
		hoursFile      string
		professionalTZ string
		clientTZ       string
		weekOf         string
		asJSON         bool
	)

	c := &cobra.Command{
		Use:   "days",
		Short: "List weekdays a client can book",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := loadSchedule(hoursFile, professionalTZ)
			if err != nil {
				return err
			}
			clientLoc := schedule.Location
			if clientTZ != "" {
				if clientLoc, err = availability.LoadLocation(clientTZ); err != nil {
					return err
				}
			}
			ref := civil.DateOf(time.Now().In(clientLoc))
			if weekOf != "" {
				if ref, err = availability.ParseDate(weekOf); err != nil {
					return err
				}
			}

			days := availability.AvailableWeekdays(schedule, clientLoc, ref)
			out := make([]string, 0, len(days))
			for _, d := range days {
				out = append(out, string(d))
			}
			return printList(cmd.OutOrStdout(), out, asJSON)
		},
	}

	c.Flags().StringVar(&hoursFile, "hours", "", "working hours JSON file, - for stdin")
	c.Flags().StringVar(&professionalTZ, "professional-tz", "", "override the file's timezone")
	c.Flags().StringVar(&clientTZ, "client-tz", "", "client IANA timezone (defaults to the professional's)")
	c.Flags().StringVar(&weekOf, "week-of", "", "first date of the week to project, YYYY-MM-DD (defaults to today)")
	c.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	_ = c.MarkFlagRequired("hours")
	return c
}
