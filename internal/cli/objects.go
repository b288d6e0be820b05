package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Manage world objects",
	}

	cmd.AddCommand(newObjectPlaceCmd())
	cmd.AddCommand(newObjectListCmd())
	cmd.AddCommand(newObjectGetCmd())
	cmd.AddCommand(newObjectMoveCmd())
	cmd.AddCommand(newObjectDeleteCmd())
	cmd.AddCommand(newObjectFoundCmd())
	cmd.AddCommand(newObjectUnfoundCmd())
	cmd.AddCommand(newObjectFindsCmd())

	return cmd
}

func newObjectPlaceCmd() *cobra.Command {
	var (
		name          string
		objectType    string
		lat           float64
		lon           float64
		multifindable bool
	)

	cmd := &cobra.Command{
		Use:   "place <id>",
		Short: "Place a new object in the world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"id":            args[0],
				"name":          name,
				"type":          objectType,
				"latitude":      lat,
				"longitude":     lon,
				"multifindable": multifindable,
				"created_by":    cfg.DeviceUUID,
			}

			var result Object
			if err := client.Post("/api/v1/objects", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Object display name")
	cmd.Flags().StringVar(&objectType, "type", "", "Object type")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	cmd.Flags().BoolVar(&multifindable, "multifindable", false, "Each player can find it independently")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func newObjectListCmd() *cobra.Command {
	var (
		lat          float64
		lon          float64
		radius       float64
		includeFound bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List world objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if cfg.DeviceUUID != "" {
				query.Set("device_uuid", cfg.DeviceUUID)
			}
			if includeFound {
				query.Set("include_found", "true")
			}
			if cmd.Flags().Changed("radius") {
				query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
				query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
				query.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
			}

			path := "/api/v1/objects"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var result ObjectList
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Region center latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Region center longitude")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Region radius in meters")
	cmd.Flags().BoolVar(&includeFound, "include-found", false, "Include collected objects")

	return cmd
}

func newObjectGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/objects/" + url.PathEscape(args[0])
			if cfg.DeviceUUID != "" {
				path += "?device_uuid=" + url.QueryEscape(cfg.DeviceUUID)
			}

			var result Object
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newObjectMoveCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an object to a new position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"latitude": lat, "longitude": lon}
			path := "/api/v1/objects/" + url.PathEscape(args[0]) + "/location"
			if err := client.Patch(path, body, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("Moved %s to %.6f, %.6f", args[0], lat, lon))
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "New latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "New longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func newObjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an object and its finds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/objects/" + url.PathEscape(args[0])); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Deleted " + args[0])
			return nil
		},
	}
}

func newObjectFoundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "found <id>",
		Short: "Mark an object as found by your device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DeviceUUID == "" {
				return fmt.Errorf("--device is required to mark an object found")
			}

			body := map[string]any{"found_by": cfg.DeviceUUID}
			path := "/api/v1/objects/" + url.PathEscape(args[0]) + "/found"

			var result Find
			if err := client.Post(path, body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newObjectUnfoundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfound <id>",
		Short: "Clear all finds for an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/objects/" + url.PathEscape(args[0]) + "/unfound"

			var result FindsDeleted
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newObjectFindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finds <id>",
		Short: "List an object's find history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/objects/" + url.PathEscape(args[0]) + "/finds"

			var result FindList
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
