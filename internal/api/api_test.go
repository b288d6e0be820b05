package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Shaydu/cache-raiders-sub000/internal/api/apierr"
	"github.com/Shaydu/cache-raiders-sub000/internal/api/response"
	"github.com/Shaydu/cache-raiders-sub000/internal/factory"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/testutil"
	"github.com/Shaydu/cache-raiders-sub000/internal/ws"
)

type APISuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(s.app.Router(testutil.NopLogger()))
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
	_ = s.app.Close()
}

// do issues a request with an optional JSON body and returns the response
// with its body fully read
func (s *APISuite) do(method, path string, body any) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, raw
}

func (s *APISuite) decode(raw []byte, target any) {
	s.Require().NoError(json.Unmarshal(raw, target))
}

func (s *APISuite) errorCode(raw []byte) string {
	var errResp apierr.ErrorResponse
	s.decode(raw, &errResp)
	return errResp.Error.Code
}

func (s *APISuite) createObject(id string, extra map[string]any) {
	body := map[string]any{
		"id":        id,
		"name":      "Test " + id,
		"latitude":  -27.47,
		"longitude": 153.02,
	}
	for k, v := range extra {
		body[k] = v
	}
	resp, raw := s.do(http.MethodPost, "/api/v1/objects", body)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
}

func (s *APISuite) TestHealth() {
	resp, raw := s.do(http.MethodGet, "/api/v1/health", nil)

	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"status":"ok"}`, string(raw))
}

func (s *APISuite) TestCreateObject() {
	resp, raw := s.do(http.MethodPost, "/api/v1/objects", map[string]any{
		"id":        "obj-1",
		"name":      "Gold Coin",
		"latitude":  -27.47,
		"longitude": 153.02,
	})

	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))

	var view model.ObjectView
	s.decode(raw, &view)
	s.Equal(model.ObjectID("obj-1"), view.ID)
	s.True(view.CreatedAt.Equal(s.app.MockClock.Now()))
	s.False(view.Collected)
}

func (s *APISuite) TestCreateObjectValidation() {
	resp, raw := s.do(http.MethodPost, "/api/v1/objects", map[string]any{
		"name": "Nameless",
	})

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeValidationError, s.errorCode(raw))
}

func (s *APISuite) TestCreateObjectInvalidBody() {
	resp, raw := s.do(http.MethodPost, "/api/v1/objects", nil)

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeInvalidRequest, s.errorCode(raw))
}

func (s *APISuite) TestCreateObjectDuplicate() {
	s.createObject("obj-1", nil)

	resp, raw := s.do(http.MethodPost, "/api/v1/objects", map[string]any{
		"id": "obj-1", "name": "Again", "latitude": 0.0, "longitude": 0.0,
	})

	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal(apierr.CodeObjectExists, s.errorCode(raw))
}

func (s *APISuite) TestGetObjectNotFound() {
	resp, raw := s.do(http.MethodGet, "/api/v1/objects/nonexistent", nil)

	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(apierr.CodeObjectNotFound, s.errorCode(raw))
}

func (s *APISuite) TestFoundUnfoundFlow() {
	s.createObject("obj-1", nil)

	resp, raw := s.do(http.MethodPost, "/api/v1/objects/obj-1/found", map[string]any{
		"found_by": "device-1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var find model.Find
	s.decode(raw, &find)
	s.Equal(model.DeviceUUID("device-1"), find.FoundBy)

	resp, raw = s.do(http.MethodGet, "/api/v1/objects/obj-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var view model.ObjectView
	s.decode(raw, &view)
	s.True(view.Collected)
	s.Equal(model.DeviceUUID("device-1"), view.FoundBy)

	// Collected objects drop out of the default listing
	resp, raw = s.do(http.MethodGet, "/api/v1/objects", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var listing response.ObjectsResponse
	s.decode(raw, &listing)
	s.Equal(0, listing.Count)

	resp, raw = s.do(http.MethodGet, "/api/v1/objects?include_found=true", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(raw, &listing)
	s.Equal(1, listing.Count)

	resp, raw = s.do(http.MethodPost, "/api/v1/objects/obj-1/unfound", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var deleted response.FindsDeletedResponse
	s.decode(raw, &deleted)
	s.Equal(int64(1), deleted.FindsDeleted)

	resp, raw = s.do(http.MethodGet, "/api/v1/objects", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(raw, &listing)
	s.Equal(1, listing.Count)
}

func (s *APISuite) TestMarkFoundRequiresFinder() {
	s.createObject("obj-1", nil)

	resp, raw := s.do(http.MethodPost, "/api/v1/objects/obj-1/found", map[string]any{})

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeValidationError, s.errorCode(raw))
}

func (s *APISuite) TestMultifindableVisibility() {
	s.createObject("obj-1", map[string]any{"multifindable": true})
	resp, _ := s.do(http.MethodPost, "/api/v1/objects/obj-1/found", map[string]any{
		"found_by": "device-1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	// The finder sees it collected
	resp, raw := s.do(http.MethodGet, "/api/v1/objects/obj-1?device_uuid=device-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var view model.ObjectView
	s.decode(raw, &view)
	s.True(view.Collected)

	// Everyone else still sees it available
	resp, raw = s.do(http.MethodGet, "/api/v1/objects/obj-1?device_uuid=device-2", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(raw, &view)
	s.False(view.Collected)
}

func (s *APISuite) TestListObjectsRegionValidation() {
	resp, raw := s.do(http.MethodGet, "/api/v1/objects?lat=1.0&lon=2.0", nil)

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeInvalidRequest, s.errorCode(raw))
}

func (s *APISuite) TestUpdateObjectLocation() {
	s.createObject("obj-1", nil)

	resp, _ := s.do(http.MethodPatch, "/api/v1/objects/obj-1/location", map[string]any{
		"latitude": 10.5, "longitude": 20.5,
	})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp, raw := s.do(http.MethodGet, "/api/v1/objects/obj-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var moved model.ObjectView
	s.decode(raw, &moved)
	s.Equal(10.5, moved.Latitude)

	// An empty or partial body must not move the object to (0, 0)
	resp, raw = s.do(http.MethodPatch, "/api/v1/objects/obj-1/location", map[string]any{})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeValidationError, s.errorCode(raw))

	resp, raw = s.do(http.MethodPatch, "/api/v1/objects/obj-1/location", map[string]any{
		"latitude": 11.0,
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeValidationError, s.errorCode(raw))

	resp, raw = s.do(http.MethodGet, "/api/v1/objects/obj-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var view model.ObjectView
	s.decode(raw, &view)
	s.Equal(10.5, view.Latitude)
}

func (s *APISuite) TestUpdateObjectGrounding() {
	s.createObject("obj-1", nil)

	resp, _ := s.do(http.MethodPatch, "/api/v1/objects/obj-1/grounding", map[string]any{
		"grounding_height": 1.2,
	})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp, raw := s.do(http.MethodPatch, "/api/v1/objects/obj-1/grounding", map[string]any{})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeValidationError, s.errorCode(raw))

	resp, raw = s.do(http.MethodGet, "/api/v1/objects/obj-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var view model.ObjectView
	s.decode(raw, &view)
	s.Require().NotNil(view.GroundingHeight)
	s.Equal(1.2, *view.GroundingHeight)
}

func (s *APISuite) TestUpdateAROffset() {
	s.createObject("obj-1", nil)

	resp, _ := s.do(http.MethodPatch, "/api/v1/objects/obj-1/ar-offset", map[string]any{
		"offset_x": 1.5,
	})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp, raw := s.do(http.MethodPatch, "/api/v1/objects/obj-1/ar-offset", map[string]any{})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeValidationError, s.errorCode(raw))
}

func (s *APISuite) TestDeleteObject() {
	s.createObject("obj-1", nil)

	resp, _ := s.do(http.MethodDelete, "/api/v1/objects/obj-1", nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp, raw := s.do(http.MethodDelete, "/api/v1/objects/obj-1", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(apierr.CodeObjectNotFound, s.errorCode(raw))
}

func (s *APISuite) TestFindsLedger() {
	s.createObject("obj-1", map[string]any{"multifindable": true})
	for i, device := range []string{"device-1", "device-2"} {
		resp, _ := s.do(http.MethodPost, "/api/v1/objects/obj-1/found", map[string]any{
			"found_by": device,
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode, fmt.Sprintf("find %d", i))
	}

	resp, raw := s.do(http.MethodGet, "/api/v1/objects/obj-1/finds", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var finds response.FindsResponse
	s.decode(raw, &finds)
	s.Equal(2, finds.Count)

	resp, raw = s.do(http.MethodGet, "/api/v1/finds", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(raw, &finds)
	s.Equal(2, finds.Count)

	resp, raw = s.do(http.MethodPost, "/api/v1/finds/reset", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var deleted response.FindsDeletedResponse
	s.decode(raw, &deleted)
	s.Equal(int64(2), deleted.FindsDeleted)
}

func (s *APISuite) TestPlayerLifecycle() {
	resp, raw := s.do(http.MethodPost, "/api/v1/players", map[string]any{
		"device_uuid": "device-1",
		"player_name": "Alice",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var player model.Player
	s.decode(raw, &player)
	s.Equal("Alice", player.PlayerName)

	resp, raw = s.do(http.MethodGet, "/api/v1/players", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var listing response.PlayersResponse
	s.decode(raw, &listing)
	s.Equal(1, listing.Count)

	resp, raw = s.do(http.MethodGet, "/api/v1/players/device-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(raw, &player)
	s.Equal(model.DeviceUUID("device-1"), player.DeviceUUID)

	resp, _ = s.do(http.MethodDelete, "/api/v1/players/device-1", nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp, raw = s.do(http.MethodGet, "/api/v1/players/device-1", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(apierr.CodePlayerNotFound, s.errorCode(raw))
}

func (s *APISuite) TestPlayerRegisterValidation() {
	resp, raw := s.do(http.MethodPost, "/api/v1/players", map[string]any{
		"device_uuid": "device-1",
	})

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeValidationError, s.errorCode(raw))
}

func (s *APISuite) TestKickOfflineDevice() {
	resp, raw := s.do(http.MethodPost, "/api/v1/players/device-1/kick", nil)

	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var kick response.KickResponse
	s.decode(raw, &kick)
	s.False(kick.Kicked)
	s.Equal(0, kick.SessionsClosed)
}

func (s *APISuite) TestListConnectedEmpty() {
	resp, raw := s.do(http.MethodGet, "/api/v1/players/connected", nil)

	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var payload model.ConnectedClientsPayload
	s.decode(raw, &payload)
	s.Empty(payload.Clients)
}

func (s *APISuite) TestLocations() {
	resp, _ := s.do(http.MethodPost, "/api/v1/locations", map[string]any{
		"device_uuid": "device-1",
		"latitude":    -27.47,
		"longitude":   153.02,
	})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp, raw := s.do(http.MethodGet, "/api/v1/locations", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var live response.LocationsResponse
	s.decode(raw, &live)
	s.Require().Equal(1, live.Count)
	s.Equal(model.DeviceUUID("device-1"), live.Locations[0].DeviceUUID)

	resp, raw = s.do(http.MethodGet, "/api/v1/locations/last-known", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var last response.LastLocationsResponse
	s.decode(raw, &last)
	s.Equal(1, last.Count)
}

func (s *APISuite) TestLocationValidation() {
	resp, raw := s.do(http.MethodPost, "/api/v1/locations", map[string]any{
		"device_uuid": "device-1",
		"latitude":    91.0,
		"longitude":   0.0,
	})

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(apierr.CodeValidationError, s.errorCode(raw))
}

func (s *APISuite) TestStats() {
	s.createObject("obj-1", nil)
	resp, _ := s.do(http.MethodPost, "/api/v1/players", map[string]any{
		"device_uuid": "device-1", "player_name": "Alice",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp, _ = s.do(http.MethodPost, "/api/v1/objects/obj-1/found", map[string]any{
		"found_by": "device-1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, raw := s.do(http.MethodGet, "/api/v1/stats", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var stats struct {
		ObjectCount int `json:"object_count"`
		FindCount   int `json:"find_count"`
		PlayerCount int `json:"player_count"`
		Leaderboard []struct {
			DeviceUUID  string `json:"device_uuid"`
			DisplayName string `json:"display_name"`
			FindCount   int    `json:"find_count"`
		} `json:"leaderboard"`
	}
	s.decode(raw, &stats)
	s.Equal(1, stats.ObjectCount)
	s.Equal(1, stats.FindCount)
	s.Equal(1, stats.PlayerCount)
	s.Require().Len(stats.Leaderboard, 1)
	s.Equal("Alice", stats.Leaderboard[0].DisplayName)
}

// The websocket endpoint is wired on the same router as the REST surface
func (s *APISuite) TestWSRouteMounted() {
	s.IsType(&ws.Handler{}, s.app.WSHandler)

	resp, _ := s.do(http.MethodGet, "/ws", nil)
	// A plain GET without upgrade headers is rejected by the upgrader
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}
