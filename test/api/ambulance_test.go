package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmbulanceFlow(t *testing.T) {
	driverID, driverToken := createStaff(t, "AMBULANCE_DRIVER")
	_, nurseToken := createStaff(t, "NURSE")
	vehicle := fmt.Sprintf("AMB-%d", seq.Add(1))

	t.Run("driver without ambulance", func(t *testing.T) {
		resp := makeRequest("GET", "/ambulances/my-ambulance", nil, driverToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	createResp := makeRequest("POST", "/ambulances", map[string]interface{}{
		"vehicle_number": vehicle,
		"driver_id":      driverID,
		"hospital_id":    hospitalID,
	}, adminToken)
	require.Equal(t, http.StatusCreated, createResp.StatusCode, createResp.Message)
	assert.Equal(t, "AVAILABLE", createResp.GetString("status"))
	ambulanceID := createResp.GetString("id")

	t.Run("vehicle numbers are unique", func(t *testing.T) {
		resp := makeRequest("POST", "/ambulances", map[string]interface{}{
			"vehicle_number": vehicle,
			"hospital_id":    hospitalID,
		}, adminToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("nurses cannot report locations", func(t *testing.T) {
		resp := makeRequest("PUT", "/ambulances/update-location", map[string]interface{}{
			"latitude":  1.0,
			"longitude": 1.0,
		}, nurseToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("coordinates are range checked", func(t *testing.T) {
		resp := makeRequest("PUT", "/ambulances/update-location", map[string]interface{}{
			"latitude":  91.0,
			"longitude": 0.0,
		}, driverToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("coordinates are required", func(t *testing.T) {
		resp := makeRequest("PUT", "/ambulances/update-location", map[string]interface{}{
			"status": "DISPATCHED",
		}, driverToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		mine := makeRequest("GET", "/ambulances/my-ambulance", nil, driverToken)
		require.True(t, mine.IsSuccess(), mine.Message)
		assert.Equal(t, "AVAILABLE", mine.GetString("status"))
		assert.Nil(t, mine.Data["current_latitude"])
	})

	mine := makeRequest("GET", "/ambulances/my-ambulance", nil, driverToken)
	require.True(t, mine.IsSuccess(), mine.Message)
	assert.Equal(t, ambulanceID, mine.GetString("id"))

	locResp := makeRequest("PUT", "/ambulances/update-location", map[string]interface{}{
		"latitude":        40.7128,
		"longitude":       -74.006,
		"status":          "EN_ROUTE_PICKUP",
		"pickup_address":  "5th Avenue",
		"emergency_level": "HIGH",
	}, driverToken)
	require.True(t, locResp.IsSuccess(), locResp.Message)
	assert.Equal(t, "EN_ROUTE_PICKUP", locResp.GetString("status"))
	assert.Equal(t, 40.7128, locResp.Data["current_latitude"])
	assert.Equal(t, "HIGH", locResp.GetString("emergency_level"))

	listResp := makeRequest("GET", "/ambulances/hospital/"+hospitalID, nil, adminToken)
	require.True(t, listResp.IsSuccess())
	assert.NotEmpty(t, listResp.List(t))

	updateResp := makeRequest("PUT", "/ambulances/"+ambulanceID, map[string]interface{}{
		"vehicle_number": vehicle,
		"status":         "MAINTENANCE",
	}, adminToken)
	require.True(t, updateResp.IsSuccess(), updateResp.Message)
	assert.Equal(t, "MAINTENANCE", updateResp.GetString("status"))
	assert.Equal(t, driverID, updateResp.GetString("driver_id"))

	deleteResp := makeRequest("DELETE", "/ambulances/"+ambulanceID, nil, adminToken)
	require.True(t, deleteResp.IsSuccess(), deleteResp.Message)

	resp := makeRequest("GET", "/ambulances/my-ambulance", nil, driverToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAmbulanceStream(t *testing.T) {
	driverID, driverToken := createStaff(t, "AMBULANCE_DRIVER")
	createResp := makeRequest("POST", "/ambulances", map[string]interface{}{
		"vehicle_number": fmt.Sprintf("AMB-%d", seq.Add(1)),
		"driver_id":      driverID,
		"hospital_id":    hospitalID,
	}, adminToken)
	require.Equal(t, http.StatusCreated, createResp.StatusCode, createResp.Message)
	ambulanceID := createResp.GetString("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/ambulances/hospital/"+hospitalID+"/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	events := make(chan map[string]interface{}, 16)
	go func() {
		defer close(events)
		resp, err := server.Client().Do(req)
		if err != nil {
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		event := ""
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:") && event == "ambulance_update":
				var payload map[string]interface{}
				if json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &payload) == nil {
					events <- payload
				}
			}
		}
	}()

	// The subscription is registered asynchronously, so keep reporting until
	// the first update comes through.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	lat := 10.0
	for {
		select {
		case payload, ok := <-events:
			require.True(t, ok, "stream closed before any update")
			assert.Equal(t, ambulanceID, payload["id"])
			assert.Equal(t, hospitalID, payload["hospital_id"])
			return
		case <-ticker.C:
			lat += 0.01
			resp := makeRequest("PUT", "/ambulances/update-location", map[string]interface{}{
				"latitude":  lat,
				"longitude": 20.0,
			}, driverToken)
			require.True(t, resp.IsSuccess(), resp.Message)
		case <-ctx.Done():
			t.Fatal("no ambulance update received on the stream")
		}
	}
}
