package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Object:
		o.printObject(v)
	case ObjectList:
		o.printObjectList(v)
	case Find:
		o.printFind(v)
	case FindList:
		o.printFindList(v)
	case FindsDeleted:
		fmt.Printf("Finds deleted: %d\n", v.FindsDeleted)
	case Player:
		o.printPlayer(v)
	case PlayerList:
		o.printPlayerList(v)
	case KickResult:
		o.printKickResult(v)
	case LocationList:
		o.printLocationList(v)
	case Stats:
		o.printStats(v)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Object response type (matches API)
type Object struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	CreatedBy     string  `json:"created_by"`
	Multifindable bool    `json:"multifindable"`
	Collected     bool    `json:"collected"`
	FoundBy       string  `json:"found_by,omitempty"`
}

// ObjectList response type
type ObjectList struct {
	Objects []Object `json:"objects"`
	Count   int      `json:"count"`
}

// Find response type
type Find struct {
	ID       int64     `json:"id"`
	ObjectID string    `json:"object_id"`
	FoundBy  string    `json:"found_by"`
	FoundAt  time.Time `json:"found_at"`
}

// FindList response type
type FindList struct {
	Finds []Find `json:"finds"`
	Count int    `json:"count"`
}

// FindsDeleted response type
type FindsDeleted struct {
	FindsDeleted int64 `json:"finds_deleted"`
}

// Player response type
type Player struct {
	DeviceUUID string `json:"device_uuid"`
	PlayerName string `json:"player_name"`
}

// PlayerList response type
type PlayerList struct {
	Players []Player `json:"players"`
	Count   int      `json:"count"`
}

// KickResult response type
type KickResult struct {
	Kicked         bool `json:"kicked"`
	SessionsClosed int  `json:"sessions_closed"`
}

// Location response type
type Location struct {
	DeviceUUID string    `json:"device_uuid"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LocationList response type
type LocationList struct {
	Locations []Location `json:"locations"`
	Count     int        `json:"count"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	DeviceUUID  string `json:"device_uuid"`
	DisplayName string `json:"display_name"`
	FindCount   int    `json:"find_count"`
}

// Stats response type
type Stats struct {
	ObjectCount int                `json:"object_count"`
	FindCount   int                `json:"find_count"`
	PlayerCount int                `json:"player_count"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printObject(obj Object) {
	fmt.Printf("Object: %s (%s)\n", obj.Name, obj.ID)
	if obj.Type != "" {
		fmt.Printf("Type: %s\n", obj.Type)
	}
	fmt.Printf("Position: %.6f, %.6f\n", obj.Latitude, obj.Longitude)
	fmt.Printf("Placed by: %s\n", obj.CreatedBy)
	if obj.Multifindable {
		fmt.Println("Multifindable: yes")
	}
	if obj.Collected {
		fmt.Printf("Collected by: %s\n", obj.FoundBy)
	} else {
		fmt.Println("Collected: no")
	}
}

func (o *Output) printObjectList(list ObjectList) {
	fmt.Printf("Objects (%d):\n", list.Count)
	for _, obj := range list.Objects {
		state := ""
		if obj.Collected {
			state = " [collected]"
		}
		fmt.Printf("  - %s (%s) at %.6f, %.6f%s\n", obj.Name, obj.ID, obj.Latitude, obj.Longitude, state)
	}
}

func (o *Output) printFind(f Find) {
	fmt.Printf("Find #%d: %s found by %s at %s\n",
		f.ID, f.ObjectID, f.FoundBy, f.FoundAt.Format(time.RFC3339))
}

func (o *Output) printFindList(list FindList) {
	fmt.Printf("Finds (%d):\n", list.Count)
	for _, f := range list.Finds {
		fmt.Printf("  - #%d %s by %s at %s\n",
			f.ID, f.ObjectID, f.FoundBy, f.FoundAt.Format(time.RFC3339))
	}
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (%s)\n", p.PlayerName, p.DeviceUUID)
}

func (o *Output) printPlayerList(list PlayerList) {
	fmt.Printf("Players (%d):\n", list.Count)
	for _, p := range list.Players {
		fmt.Printf("  - %s (%s)\n", p.PlayerName, p.DeviceUUID)
	}
}

func (o *Output) printKickResult(k KickResult) {
	if k.Kicked {
		fmt.Printf("Kicked: %d session(s) closed\n", k.SessionsClosed)
	} else {
		fmt.Println("Device not connected")
	}
}

func (o *Output) printLocationList(list LocationList) {
	fmt.Printf("Locations (%d):\n", list.Count)
	for _, l := range list.Locations {
		fmt.Printf("  - %s at %.6f, %.6f (%s)\n",
			l.DeviceUUID, l.Latitude, l.Longitude, l.UpdatedAt.Format(time.RFC3339))
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Printf("Objects: %d\n", s.ObjectCount)
	fmt.Printf("Finds: %d\n", s.FindCount)
	fmt.Printf("Players: %d\n", s.PlayerCount)
	if len(s.Leaderboard) > 0 {
		fmt.Println("Leaderboard:")
		for i, entry := range s.Leaderboard {
			fmt.Printf("  %d. %s - %d find(s)\n", i+1, entry.DisplayName, entry.FindCount)
		}
	}
}
