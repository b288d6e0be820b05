package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLocationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Report and query live player locations",
	}

	cmd.AddCommand(newLocationUpdateCmd())
	cmd.AddCommand(newLocationListCmd())
	cmd.AddCommand(newLocationLastKnownCmd())

	return cmd
}

func newLocationUpdateCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Report your device's position",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DeviceUUID == "" {
				return fmt.Errorf("--device is required to report a location")
			}

			body := map[string]any{
				"device_uuid": cfg.DeviceUUID,
				"latitude":    lat,
				"longitude":   lon,
			}
			if err := client.Post("/api/v1/locations", body, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("Location updated to %.6f, %.6f", lat, lon))
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func newLocationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recently active player locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LocationList
			if err := client.Get("/api/v1/locations", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newLocationLastKnownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last-known",
		Short: "List persisted last-known player locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LocationList
			if err := client.Get("/api/v1/locations/last-known", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
