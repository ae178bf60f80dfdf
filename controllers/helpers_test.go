package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/middleware"
	"github.com/kendall-kelly/shg-marketplace-api/models"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"github.com/kendall-kelly/shg-marketplace-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db            *gorm.DB
	router        *gin.Engine
	openOrders    *services.OpenOrderService
	shgs          *services.SHGService
	notifications *services.NotificationStore
}

// newTestEnv wires every controller over a fresh database. Callers pick the
// principal per request with the X-Test-Subject header, resolved by LoadPrincipal.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	RegisterValidators()

	db := testutil.NewTestDB(t)
	logger := zap.NewNop()
	store := services.NewNotificationStore(db)
	shgs := services.NewSHGService(db, store, logger)
	openOrders := services.NewOpenOrderService(db, shgs, store, nil, logger)

	openOrderCtl := NewOpenOrderController(openOrders, logger)
	shgCtl := NewSHGController(shgs, logger)
	notificationCtl := NewNotificationController(store, logger)

	router := gin.New()
	api := router.Group("/api/v1", testutil.MockAuth(), middleware.LoadPrincipal(db))

	customer := middleware.RequireRole(models.RoleCustomer)
	shg := middleware.RequireRole(models.RoleSHG)
	admin := middleware.RequireRole(models.RoleAdmin)

	api.POST("/open-orders", customer, openOrderCtl.Create)
	api.GET("/open-orders", shg, openOrderCtl.ListOpen)
	api.GET("/open-orders/my", customer, openOrderCtl.ListMine)
	api.POST("/open-orders/:id/bid", shg, openOrderCtl.PlaceBid)
	api.PUT("/open-orders/:id/accept-bid", customer, openOrderCtl.AcceptBid)
	api.PUT("/open-orders/:id/cancel", customer, openOrderCtl.Cancel)

	api.POST("/shg/register", shg, shgCtl.Register)
	api.GET("/shg/profile", shg, shgCtl.Profile)
	api.GET("/shg/orders", shg, shgCtl.Orders)
	api.GET("/admin/shgs/pending", admin, shgCtl.ListPending)
	api.PUT("/admin/shgs/:id/approve", admin, shgCtl.Approve)
	api.PUT("/admin/shgs/:id/reject", admin, shgCtl.Reject)

	api.GET("/notifications", notificationCtl.List)
	api.PUT("/notifications/read-all", notificationCtl.MarkAllRead)
	api.PUT("/notifications/:id/read", notificationCtl.MarkRead)

	return &testEnv{
		db:            db,
		router:        router,
		openOrders:    openOrders,
		shgs:          shgs,
		notifications: store,
	}
}

// do sends a JSON request as user (zero value for anonymous) and decodes the envelope
func (e *testEnv) do(t *testing.T, method, path string, user models.User, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user.Auth0ID != "" {
		req.Header.Set("X-Test-Subject", user.Auth0ID)
		req.Header.Set("X-Test-Role", string(user.Role))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w.Code, response
}

func errorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

func dataMap(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", response)
	return data
}

func dataList(t *testing.T, response map[string]interface{}) []interface{} {
	t.Helper()

	data, ok := response["data"].([]interface{})
	require.True(t, ok, "data is not a list: %v", response)
	return data
}
