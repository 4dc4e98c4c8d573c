package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"travelbooking/internal/booking"
	"travelbooking/internal/session"
	"travelbooking/pkg/config"
	"travelbooking/pkg/travelapi"
)

func runCmd(cfg *config.Config) *cobra.Command {
	var (
		file     string
		email    string
		password string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in and book a YAML draft through the full flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if email == "" {
				email = os.Getenv("TRAVEL_API_EMAIL")
			}
			if password == "" {
				password = os.Getenv("TRAVEL_API_PASSWORD")
			}

			d, err := loadDraft(file)
			if err != nil {
				return err
			}

			client := travelapi.New(cfg.TravelAPI.BaseURL, cfg.TravelAPI.Timeout, nil)
			login, err := client.Login(ctx, travelapi.Credentials{Email: email, Password: password})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			store := session.FromLogin(login)
			client = client.WithTokens(store)

			dest, err := client.GetDestination(ctx, d.Destination.ID)
			if err != nil {
				return fmt.Errorf("load destination %d: %w", d.Destination.ID, err)
			}
			d.Destination.Name = dest.Name
			if dest.PricePerPerson.Valid {
				d.Destination.PricePerPerson = dest.PricePerPerson.Decimal
			}

			log := slog.Default()
			f := booking.NewFlow(d.Destination, store.Profile(), booking.NewCoordinator(client, log),
				booking.WithDraft(d), booking.WithLogger(log))

			out := cmd.OutOrStdout()
			for {
				before := f.State().Step
				st, err := f.Next(ctx)
				if err != nil {
					return err
				}
				if st.LastError != "" {
					_ = printYAML(out, map[string]any{"step": st.Step, "errors": st.FieldErrors})
					return errors.New(st.LastError)
				}
				fmt.Fprintf(out, "%s -> %s\n", before, st.Step)
				if st.Step == booking.StepConfirmation {
					return printYAML(out, map[string]any{
						"booking_id":  st.Confirmation.BookingID,
						"status":      st.Confirmation.Status,
						"placeholder": st.Confirmation.Placeholder,
						"total":       st.Total.StringFixed(2),
					})
				}
			}
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Draft YAML file")
	cmd.Flags().StringVar(&email, "email", "", "Account email (default $TRAVEL_API_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (default $TRAVEL_API_PASSWORD)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
