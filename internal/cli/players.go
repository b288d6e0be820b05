package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Manage player registrations",
	}

	cmd.AddCommand(newPlayerRegisterCmd())
	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerGetCmd())
	cmd.AddCommand(newPlayerDeleteCmd())
	cmd.AddCommand(newPlayerKickCmd())
	cmd.AddCommand(newPlayerConnectedCmd())

	return cmd
}

func newPlayerRegisterCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register or rename your device's player",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DeviceUUID == "" {
				return fmt.Errorf("--device is required to register")
			}

			body := map[string]any{
				"device_uuid": cfg.DeviceUUID,
				"player_name": name,
			}

			var result Player
			if err := client.Post("/api/v1/players", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayerList
			if err := client.Get("/api/v1/players", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <device-uuid>",
		Short: "Show one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player
			if err := client.Get("/api/v1/players/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPlayerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <device-uuid>",
		Short: "Delete a player registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/players/" + url.PathEscape(args[0])); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Deleted " + args[0])
			return nil
		},
	}
}

func newPlayerKickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kick <device-uuid>",
		Short: "Disconnect all of a device's live sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/players/" + url.PathEscape(args[0]) + "/kick"

			var result KickResult
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPlayerConnectedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connected",
		Short: "List devices with live sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Clients []struct {
					DeviceUUID   string `json:"device_uuid"`
					SessionCount int    `json:"session_count"`
				} `json:"clients"`
			}
			if err := client.Get("/api/v1/players/connected", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if cfg.Output == "json" {
				out.Print(result)
				return nil
			}
			fmt.Printf("Connected devices (%d):\n", len(result.Clients))
			for _, c := range result.Clients {
				fmt.Printf("  - %s (%d session(s))\n", c.DeviceUUID, c.SessionCount)
			}
			return nil
		},
	}
}
