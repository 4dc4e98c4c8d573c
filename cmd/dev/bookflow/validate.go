package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"travelbooking/internal/booking"
)

func validateCmd() *cobra.Command {
	var (
		file  string
		step  string
		today string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a draft against the step rules without calling the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDraft(file)
			if err != nil {
				return err
			}
			now := time.Now()
			if today != "" {
				if now, err = time.Parse("2006-01-02", today); err != nil {
					return fmt.Errorf("invalid --today: %w", err)
				}
			}

			steps := []booking.Step{booking.StepDates, booking.StepTravelers, booking.StepContact}
			if step != "" {
				s, err := booking.ParseStep(step)
				if err != nil {
					return err
				}
				steps = []booking.Step{s}
			}

			report := map[string]any{}
			failed := false
			for _, s := range steps {
				res := booking.Validate(s, d, now)
				if res.Valid {
					report[string(s)] = "ok"
					continue
				}
				failed = true
				report[string(s)] = res.ErrorMap()
			}
			report["total"] = d.Total().StringFixed(2)

			if err := printYAML(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if failed {
				return fmt.Errorf("draft %s is not valid", file)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Draft YAML file")
	cmd.Flags().StringVar(&step, "step", "", "Only check this step (dates, travelers, contact)")
	cmd.Flags().StringVar(&today, "today", "", "Validate as of this date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
