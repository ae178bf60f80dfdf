package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/kendall-kelly/shg-marketplace-api/models"
	"github.com/kendall-kelly/shg-marketplace-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "Meena", models.RoleCustomer)
	other := testutil.CreateUser(t, env.db, "Ravi", models.RoleCustomer)
	ctx := context.Background()

	first := &models.Notification{UserID: owner.ID, Message: "New bid received"}
	require.NoError(t, env.notifications.Notify(ctx, first))
	require.NoError(t, env.notifications.Notify(ctx, &models.Notification{UserID: owner.ID, Message: "Another bid"}))

	status, response := env.do(t, http.MethodGet, "/api/v1/notifications", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, dataList(t, response), 2)

	status, response = env.do(t, http.MethodGet, "/api/v1/notifications", other, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, dataList(t, response))

	status, response = env.do(t, http.MethodPut, "/api/v1/notifications/"+first.ID+"/read", other, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOTIFICATION_NOT_FOUND", errorCode(response))

	status, response = env.do(t, http.MethodPut, "/api/v1/notifications/"+first.ID+"/read", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, dataMap(t, response)["isRead"])

	status, response = env.do(t, http.MethodPut, "/api/v1/notifications/read-all", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), dataMap(t, response)["updated"])
}
