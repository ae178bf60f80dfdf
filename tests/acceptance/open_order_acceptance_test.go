package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/config"
	"github.com/kendall-kelly/shg-marketplace-api/models"
	"github.com/kendall-kelly/shg-marketplace-api/routes"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"github.com/kendall-kelly/shg-marketplace-api/tests/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenOrderAcceptanceTestSuite exercises the bidding workflow against a running HTTP server
type OpenOrderAcceptanceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	db       *gorm.DB
	producer *mocks.SyncProducer

	customer models.User
	stranger models.User
	shg1     models.User
	shg2     models.User
	shg3     models.User
}

// SetupTest starts a server over a fresh database before each test
func (suite *OpenOrderAcceptanceTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.db = testutil.NewTestDB(suite.T())
	suite.producer = mocks.NewSyncProducer(suite.T(), nil)

	router := routes.Setup(routes.Deps{
		Config: &config.Config{GoEnv: "test"},
		DB:     suite.db,
		Logger: zap.NewNop(),
		Auth:   testutil.MockAuth(),
		Sinks: []services.Sink{{
			Name:     "kafka",
			Notifier: services.NewKafkaNotifier(suite.producer, "notifications", zap.NewNop()),
		}},
	})
	suite.server = httptest.NewServer(router)

	suite.customer = testutil.CreateUser(suite.T(), suite.db, "Customer One", models.RoleCustomer)
	suite.stranger = testutil.CreateUser(suite.T(), suite.db, "Customer Two", models.RoleCustomer)
	suite.shg1, _ = testutil.CreateSHG(suite.T(), suite.db, "SHG One", models.SHGApproved)
	suite.shg2, _ = testutil.CreateSHG(suite.T(), suite.db, "SHG Two", models.SHGApproved)
	suite.shg3, _ = testutil.CreateSHG(suite.T(), suite.db, "SHG Three", models.SHGApproved)
}

// TearDownTest stops the server and checks every expected event was published
func (suite *OpenOrderAcceptanceTestSuite) TearDownTest() {
	suite.server.Close()
	suite.NoError(suite.producer.Close())
}

// makeRequest sends a JSON request to the test server as user
func (suite *OpenOrderAcceptanceTestSuite) makeRequest(method, path string, user models.User, body interface{}) (*http.Response, map[string]interface{}) {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyJSON, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyJSON)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req, err := http.NewRequest(method, suite.server.URL+path, bodyReader)
	suite.Require().NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-Subject", user.Auth0ID)
	req.Header.Set("X-Test-Role", string(user.Role))

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)

	var responseData map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&responseData)
	suite.Require().NoError(err)
	resp.Body.Close()

	return resp, responseData
}

func bidsOf(response map[string]interface{}) []map[string]interface{} {
	order := response["data"].(map[string]interface{})
	var bids []map[string]interface{}
	for _, b := range order["bids"].([]interface{}) {
		bids = append(bids, b.(map[string]interface{}))
	}
	return bids
}

func errorCodeOf(response map[string]interface{}) string {
	if e, ok := response["error"].(map[string]interface{}); ok {
		code, _ := e["code"].(string)
		return code
	}
	return ""
}

// TestBiddingScenarios runs the turmeric request from creation to acceptance
func (suite *OpenOrderAcceptanceTestSuite) TestBiddingScenarios() {
	// two bid notifications for the customer, one acceptance for the winner
	suite.producer.ExpectSendMessageAndSucceed()
	suite.producer.ExpectSendMessageAndSucceed()
	suite.producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event map[string]interface{}
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event["type"] != string(models.NotificationSuccess) {
			return sarama.ErrInvalidMessage
		}
		return nil
	})

	// a fresh request is open with no bids
	resp, body := suite.makeRequest(http.MethodPost, "/api/v1/open-orders", suite.customer, map[string]interface{}{
		"title":         "50kg Turmeric",
		"description":   "Dried and ground turmeric for a restaurant",
		"expectedPrice": 5000,
		"quantity":      "50kg",
		"category":      "Food Products",
	})
	suite.Require().Equal(http.StatusCreated, resp.StatusCode, body)
	order := body["data"].(map[string]interface{})
	orderID := order["id"].(string)
	suite.Equal("open", order["status"])
	suite.Empty(order["bids"])

	// first bid, then a duplicate from the same group
	resp, body = suite.makeRequest(http.MethodPost, "/api/v1/open-orders/"+orderID+"/bid", suite.shg1, map[string]interface{}{
		"price":   4800,
		"message": "can deliver in 3 days",
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	suite.Len(bidsOf(body), 1)
	suite.Equal("open", body["data"].(map[string]interface{})["status"])

	resp, body = suite.makeRequest(http.MethodPost, "/api/v1/open-orders/"+orderID+"/bid", suite.shg1, map[string]interface{}{
		"price":   4600,
		"message": "can do it cheaper",
	})
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal("BID_EXISTS", errorCodeOf(body))

	// a second group bids lower and wins
	resp, body = suite.makeRequest(http.MethodPost, "/api/v1/open-orders/"+orderID+"/bid", suite.shg2, map[string]interface{}{
		"price":   4700,
		"message": "organic certified",
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	bids := bidsOf(body)
	suite.Require().Len(bids, 2)

	var winningBid string
	for _, b := range bids {
		if b["price"] == 4700.0 {
			winningBid = b["id"].(string)
		}
	}
	suite.Require().NotEmpty(winningBid)

	resp, body = suite.makeRequest(http.MethodPut, "/api/v1/open-orders/"+orderID+"/accept-bid", suite.customer, map[string]interface{}{
		"bidId": winningBid,
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	suite.Equal("assigned", body["data"].(map[string]interface{})["status"])
	for _, b := range bidsOf(body) {
		if b["id"] == winningBid {
			suite.Equal("accepted", b["status"])
		} else {
			suite.Equal("rejected", b["status"])
		}
	}

	var fulfillments []models.FulfillmentOrder
	suite.Require().NoError(suite.db.Where("open_order_id = ?", orderID).Find(&fulfillments).Error)
	suite.Require().Len(fulfillments, 1)
	suite.Equal(4700.0, fulfillments[0].TotalAmount)
	suite.Equal(models.FulfillmentAccepted, fulfillments[0].OrderStatus)
	suite.Equal(winningBid, fulfillments[0].BidID)

	// a late bid on the assigned request
	resp, body = suite.makeRequest(http.MethodPost, "/api/v1/open-orders/"+orderID+"/bid", suite.shg3, map[string]interface{}{
		"price":   4500,
		"message": "still interested",
	})
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal("ORDER_NOT_OPEN", errorCodeOf(body))
	suite.Contains(body["error"].(map[string]interface{})["message"], "no longer open")
}

// TestNonOwnerCannotAccept ensures only the requester can award a bid
func (suite *OpenOrderAcceptanceTestSuite) TestNonOwnerCannotAccept() {
	suite.producer.ExpectSendMessageAndSucceed()

	resp, body := suite.makeRequest(http.MethodPost, "/api/v1/open-orders", suite.customer, map[string]interface{}{
		"title":         "Handmade soap",
		"description":   "Neem and turmeric soap bars",
		"expectedPrice": 1200,
		"quantity":      "100 bars",
		"category":      "Personal Care",
	})
	suite.Require().Equal(http.StatusCreated, resp.StatusCode, body)
	orderID := body["data"].(map[string]interface{})["id"].(string)

	resp, body = suite.makeRequest(http.MethodPost, "/api/v1/open-orders/"+orderID+"/bid", suite.shg1, map[string]interface{}{
		"price":   1100,
		"message": "ready stock",
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	bidID := bidsOf(body)[0]["id"].(string)

	resp, body = suite.makeRequest(http.MethodPut, "/api/v1/open-orders/"+orderID+"/accept-bid", suite.stranger, map[string]interface{}{
		"bidId": bidID,
	})
	suite.Equal(http.StatusForbidden, resp.StatusCode)
	suite.Equal("FORBIDDEN", errorCodeOf(body))

	resp, body = suite.makeRequest(http.MethodGet, "/api/v1/open-orders/my", suite.customer, nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	mine := body["data"].([]interface{})
	suite.Require().Len(mine, 1)
	order := mine[0].(map[string]interface{})
	suite.Equal("open", order["status"])
	suite.Equal("pending", order["bids"].([]interface{})[0].(map[string]interface{})["status"])

	var count int64
	suite.db.Model(&models.FulfillmentOrder{}).Count(&count)
	suite.Zero(count)
}

// TestCreateValidation covers the required-field rules of request creation
func (suite *OpenOrderAcceptanceTestSuite) TestCreateValidation() {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"description": "d", "category": "c", "expectedPrice": 10, "quantity": "1"}},
		{"blank category", map[string]interface{}{"title": "t", "description": "d", "category": "   ", "expectedPrice": 10, "quantity": "1"}},
		{"zero price", map[string]interface{}{"title": "t", "description": "d", "category": "c", "expectedPrice": 0, "quantity": "1"}},
		{"negative price", map[string]interface{}{"title": "t", "description": "d", "category": "c", "expectedPrice": -5, "quantity": "1"}},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			resp, body := suite.makeRequest(http.MethodPost, "/api/v1/open-orders", suite.customer, tt.body)
			suite.Equal(http.StatusBadRequest, resp.StatusCode)
			suite.Equal("VALIDATION_ERROR", errorCodeOf(body))
		})
	}

	var count int64
	suite.db.Model(&models.OpenOrder{}).Count(&count)
	suite.Zero(count)
}

// TestOpenOrderAcceptanceSuite runs the acceptance test suite
func TestOpenOrderAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(OpenOrderAcceptanceTestSuite))
}
