package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-ops/internal/model"
)

func TestUserManagement(t *testing.T) {
	id, token := createStaff(t, "NURSE")

	t.Run("staff directory", func(t *testing.T) {
		resp := makeRequest("GET", "/users/hospital/"+hospitalID, nil, adminToken)
		require.True(t, resp.IsSuccess(), resp.Message)
		found := false
		for _, u := range resp.List(t) {
			assert.NotEqual(t, "HOSPITAL_ADMIN", u["role"])
			if u["id"] == id {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("non-admin cannot list staff", func(t *testing.T) {
		resp := makeRequest("GET", "/users/hospital/"+hospitalID, nil, token)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	updateResp := makeRequest("PUT", "/users/"+id, map[string]interface{}{
		"name":        "Renamed Nurse",
		"role":        "DOCTOR",
		"hospital_id": hospitalID,
	}, adminToken)
	require.True(t, updateResp.IsSuccess(), updateResp.Message)
	assert.Equal(t, "Renamed Nurse", updateResp.GetString("name"))
	assert.Equal(t, "DOCTOR", updateResp.GetString("role"))

	deleteResp := makeRequest("DELETE", "/users/"+id, nil, adminToken)
	require.True(t, deleteResp.IsSuccess(), deleteResp.Message)

	again := makeRequest("DELETE", "/users/"+id, nil, adminToken)
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
}

func TestWorkHours(t *testing.T) {
	doctorID, doctorToken := createStaff(t, "DOCTOR")
	_, nurseToken := createStaff(t, "NURSE")
	_, driverToken := createStaff(t, "AMBULANCE_DRIVER")

	today := model.Today()
	yesterday := today.AddDays(-1)

	logResp := makeRequest("POST", "/users/work-hours", map[string]interface{}{
		"work_date":       yesterday.String(),
		"start_time":      "08:00",
		"end_time":        "18:30",
		"scheduled_hours": 8,
		"actual_hours":    10.5,
		"department":      "Cardiology",
	}, doctorToken)
	require.Equal(t, http.StatusCreated, logResp.StatusCode, logResp.Message)
	assert.Equal(t, 2.5, logResp.Data["overtime_hours"])

	logResp = makeRequest("POST", "/users/work-hours", map[string]interface{}{
		"work_date":       today.String(),
		"scheduled_hours": 8,
		"actual_hours":    6,
	}, doctorToken)
	require.Equal(t, http.StatusCreated, logResp.StatusCode, logResp.Message)
	assert.Equal(t, 0.0, logResp.Data["overtime_hours"])

	t.Run("one entry per day", func(t *testing.T) {
		resp := makeRequest("POST", "/users/work-hours", map[string]interface{}{
			"work_date":    today.String(),
			"actual_hours": 4,
		}, doctorToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "work hours already logged for this date", resp.Message)
	})

	t.Run("invalid time format", func(t *testing.T) {
		resp := makeRequest("POST", "/users/work-hours", map[string]interface{}{
			"work_date":  today.AddDays(-5).String(),
			"start_time": "8am",
		}, doctorToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("drivers cannot log hours", func(t *testing.T) {
		resp := makeRequest("POST", "/users/work-hours", map[string]interface{}{
			"work_date": today.String(),
		}, driverToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	listResp := makeRequest("GET", "/users/"+doctorID+"/work-hours", nil, doctorToken)
	require.True(t, listResp.IsSuccess(), listResp.Message)
	assert.Len(t, listResp.List(t), 2)

	rangeResp := makeRequest("GET", "/users/"+doctorID+"/work-hours?startDate="+today.String()+"&endDate="+today.String(), nil, adminToken)
	require.True(t, rangeResp.IsSuccess(), rangeResp.Message)
	assert.Len(t, rangeResp.List(t), 1)

	reversed := makeRequest("GET", "/users/"+doctorID+"/work-hours?startDate="+today.String()+"&endDate="+yesterday.String(), nil, doctorToken)
	require.True(t, reversed.IsSuccess(), reversed.Message)
	assert.Empty(t, reversed.List(t))

	summary := makeRequest("GET", "/users/"+doctorID+"/work-hours/summary", nil, doctorToken)
	require.True(t, summary.IsSuccess(), summary.Message)
	assert.Equal(t, 2.0, summary.Data["entries"])
	assert.Equal(t, 16.0, summary.Data["scheduled_hours"])
	assert.Equal(t, 16.5, summary.Data["actual_hours"])
	assert.Equal(t, 2.5, summary.Data["overtime_hours"])

	t.Run("other users' hours are private", func(t *testing.T) {
		resp := makeRequest("GET", "/users/"+doctorID+"/work-hours", nil, nurseToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("bad date", func(t *testing.T) {
		resp := makeRequest("GET", "/users/"+doctorID+"/work-hours?startDate=yesterday", nil, doctorToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
