package tests

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v74"

	"github.com/truckzone/truckzone-backend/internal/models"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

func (suite *APITestSuite) TestRootAndHealth() {
	w := suite.do(http.MethodGet, "/", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "TruckZone")

	w = suite.do(http.MethodGet, "/health", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var health map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(suite.T(), "healthy", health["status"])
}

func (suite *APITestSuite) TestPurchaseFlow() {
	seller := suite.createUser("seller-1", "seller@x.com", "seller")
	assert.Equal(suite.T(), models.UserTypeSeller, seller.UserType)

	// A second registration with the same email is acknowledged as rejected.
	var soft utils.SoftRejection
	w := suite.do(http.MethodPost, "/user", "", map[string]interface{}{
		"uid":   "seller-2",
		"email": "seller@x.com",
	})
	suite.decode(w, http.StatusOK, &soft)
	assert.False(suite.T(), soft.Acknowledged)
	assert.NotEmpty(suite.T(), soft.Message)

	suite.createUser("buyer-1", "buyer@x.com", "")
	product := suite.createProduct("seller-1", "Tata Ace", "Pickup", "Tata", 100)
	assert.True(suite.T(), product.SellStatus)
	assert.Equal(suite.T(), models.AdsStatusNo, product.AdsStatus)
	assert.Equal(suite.T(), "seller-1", product.SellerID)

	var booking models.Booking
	w = suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), map[string]interface{}{
		"productId":       product.ID,
		"userName":        "Buyer",
		"email":           "buyer@x.com",
		"meetingLocation": "Gulshan",
	})
	suite.decode(w, http.StatusCreated, &booking)
	assert.Equal(suite.T(), "buyer-1", booking.UserID)
	assert.Equal(suite.T(), 100.0, booking.PriceAmount)
	assert.Equal(suite.T(), "Tata Ace", booking.ProductName)
	assert.False(suite.T(), booking.PaymentStatus)

	var intent struct {
		ClientSecret    string `json:"clientSecret"`
		PaymentIntentID string `json:"paymentIntentId"`
	}
	w = suite.do(http.MethodPost, "/create-payment-intent", "", map[string]interface{}{
		"priceAmount": booking.PriceAmount,
		"bookingId":   booking.ID.String(),
	})
	suite.decode(w, http.StatusOK, &intent)
	assert.NotEmpty(suite.T(), intent.ClientSecret)
	suite.Require().Len(suite.gateway.created, 1)
	assert.Equal(suite.T(), int64(10000), suite.gateway.created[0].AmountCents)

	confirm := map[string]interface{}{
		"bookingId":     booking.ID,
		"productId":     product.ID,
		"transactionId": "tx1",
		"price":         100,
		"email":         "buyer@x.com",
	}
	var result struct {
		Payment  models.Payment `json:"payment"`
		Replayed bool           `json:"replayed"`
	}
	suite.decode(suite.do(http.MethodPost, "/payments", "", confirm), http.StatusCreated, &result)
	assert.False(suite.T(), result.Replayed)
	assert.Equal(suite.T(), "tx1", result.Payment.TransactionID)

	var paid models.Booking
	suite.decode(suite.do(http.MethodGet, "/booking/"+booking.ID.String(), "", nil), http.StatusOK, &paid)
	assert.True(suite.T(), paid.PaymentStatus)
	assert.Equal(suite.T(), "tx1", paid.TransactionID)

	var sold models.Product
	suite.decode(suite.do(http.MethodGet, "/product/"+product.ID.String(), "", nil), http.StatusOK, &sold)
	assert.False(suite.T(), sold.SellStatus)

	var available []models.Product
	suite.decode(suite.do(http.MethodGet, "/products", "", nil), http.StatusOK, &available)
	assert.Empty(suite.T(), available)

	// Replaying the same confirmation changes nothing.
	suite.decode(suite.do(http.MethodPost, "/payments", "", confirm), http.StatusOK, &result)
	assert.True(suite.T(), result.Replayed)

	var payments int64
	suite.Require().NoError(suite.db.Model(&models.Payment{}).Count(&payments).Error)
	assert.Equal(suite.T(), int64(1), payments)

	// A different transaction for the same booking is a conflict.
	confirm["transactionId"] = "tx2"
	suite.decode(suite.do(http.MethodPost, "/payments", "", confirm), http.StatusConflict, nil)

	var bookings []models.Booking
	suite.decode(suite.do(http.MethodGet, "/booking?uid=buyer-1", suite.token("buyer-1"), nil), http.StatusOK, &bookings)
	suite.Require().Len(bookings, 1)
	assert.True(suite.T(), bookings[0].PaymentStatus)

	assert.Equal(suite.T(), []string{"user.registered", "user.registered", "booking.created", "payment.confirmed"}, suite.publisher.keys)
}

func (suite *APITestSuite) TestPaymentMismatch() {
	product := suite.createProduct("seller-1", "Isuzu D-Max", "Pickup", "Isuzu", 250)
	other := suite.createProduct("seller-1", "Isuzu NPR", "Dump Truck", "Isuzu", 400)

	var booking models.Booking
	w := suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), map[string]interface{}{"productId": product.ID})
	suite.decode(w, http.StatusCreated, &booking)

	w = suite.do(http.MethodPost, "/payments", "", map[string]interface{}{
		"bookingId":     booking.ID,
		"productId":     other.ID,
		"transactionId": "tx1",
	})
	suite.decode(w, http.StatusBadRequest, nil)

	w = suite.do(http.MethodPost, "/payments", "", map[string]interface{}{
		"bookingId":     booking.ID,
		"productId":     product.ID,
		"transactionId": "tx1",
		"price":         1,
	})
	suite.decode(w, http.StatusBadRequest, nil)

	var unpaid models.Booking
	suite.decode(suite.do(http.MethodGet, "/booking/"+booking.ID.String(), "", nil), http.StatusOK, &unpaid)
	assert.False(suite.T(), unpaid.PaymentStatus)
}

func (suite *APITestSuite) TestSoldProductRejectsSecondBuyer() {
	product := suite.createProduct("seller-1", "Hino 500", "Dump Truck", "Tata", 50000)

	// The listing price cannot be undercut by the buyer.
	w := suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), map[string]interface{}{
		"productId":   product.ID,
		"priceAmount": 0.01,
	})
	suite.decode(w, http.StatusBadRequest, nil)

	var first, second models.Booking
	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), map[string]interface{}{"productId": product.ID}),
		http.StatusCreated, &first)
	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-2"), map[string]interface{}{"productId": product.ID}),
		http.StatusCreated, &second)
	assert.Equal(suite.T(), 50000.0, first.PriceAmount)

	suite.decode(suite.do(http.MethodPost, "/payments", "", map[string]interface{}{
		"bookingId":     first.ID,
		"productId":     product.ID,
		"transactionId": "tx1",
	}), http.StatusCreated, nil)

	suite.decode(suite.do(http.MethodPost, "/payments", "", map[string]interface{}{
		"bookingId":     second.ID,
		"productId":     product.ID,
		"transactionId": "tx2",
	}), http.StatusConflict, nil)

	var unpaid models.Booking
	suite.decode(suite.do(http.MethodGet, "/booking/"+second.ID.String(), "", nil), http.StatusOK, &unpaid)
	assert.False(suite.T(), unpaid.PaymentStatus)

	var payments int64
	suite.Require().NoError(suite.db.Model(&models.Payment{}).Where("product_id = ?", product.ID).Count(&payments).Error)
	assert.Equal(suite.T(), int64(1), payments)
}

func (suite *APITestSuite) TestVerifiedPayment() {
	suite.cfg.Payment.VerifyIntents = true
	suite.router = suite.newRouter()

	product := suite.createProduct("seller-1", "Tata Prima", "Dump Truck", "Tata", 80)
	var booking models.Booking
	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), map[string]interface{}{"productId": product.ID}),
		http.StatusCreated, &booking)

	var intent struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	suite.decode(suite.do(http.MethodPost, "/create-payment-intent", "", map[string]interface{}{
		"priceAmount": 80,
		"bookingId":   booking.ID.String(),
	}), http.StatusOK, &intent)

	confirm := map[string]interface{}{
		"bookingId":     booking.ID,
		"productId":     product.ID,
		"transactionId": intent.PaymentIntentID,
	}
	suite.decode(suite.do(http.MethodPost, "/payments", "", confirm), http.StatusPaymentRequired, nil)

	suite.gateway.succeed(intent.PaymentIntentID)
	suite.decode(suite.do(http.MethodPost, "/payments", "", confirm), http.StatusCreated, nil)

	confirm["transactionId"] = "pi_unknown"
	suite.decode(suite.do(http.MethodPost, "/payments", "", confirm), http.StatusConflict, nil)
}

func (suite *APITestSuite) TestStripeWebhook() {
	product := suite.createProduct("seller-1", "Tata Ultra", "Pickup", "Tata", 100)
	var booking models.Booking
	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), map[string]interface{}{"productId": product.ID}),
		http.StatusCreated, &booking)

	payload := []byte(fmt.Sprintf(`{
  "id": "evt_1",
  "object": "event",
  "api_version": %q,
  "type": "payment_intent.succeeded",
  "data": {"object": {"id": "pi_hook", "object": "payment_intent", "amount": 10000, "currency": "usd", "status": "succeeded",
    "metadata": {"bookingId": %q, "productId": %q}}}
}`, stripe.APIVersion, booking.ID, product.ID))

	post := func(signature string) *http.Request {
		req, _ := http.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", signature)
		return req
	}

	w := suite.serve(post(signPayload(payload, "whsec_other")))
	suite.decode(w, http.StatusBadRequest, nil)

	var ack struct {
		Received bool `json:"received"`
		Applied  bool `json:"applied"`
	}
	suite.decode(suite.serve(post(signPayload(payload, testWebhookSecret))), http.StatusOK, &ack)
	assert.True(suite.T(), ack.Received)
	assert.True(suite.T(), ack.Applied)

	var paid models.Booking
	suite.decode(suite.do(http.MethodGet, "/booking/"+booking.ID.String(), "", nil), http.StatusOK, &paid)
	assert.True(suite.T(), paid.PaymentStatus)
	assert.Equal(suite.T(), "pi_hook", paid.TransactionID)

	// Stripe redelivers events; the second delivery replays.
	suite.decode(suite.serve(post(signPayload(payload, testWebhookSecret))), http.StatusOK, &ack)
	assert.True(suite.T(), ack.Applied)

	suite.cfg.Payment.StripeWebhookSecret = ""
	suite.router = suite.newRouter()
	suite.decode(suite.serve(post(signPayload(payload, testWebhookSecret))), http.StatusServiceUnavailable, nil)
}

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func (suite *APITestSuite) TestDuplicateBookingIsSoftRejected() {
	product := suite.createProduct("seller-1", "Tata Ace", "Pickup", "Tata", 100)
	body := map[string]interface{}{"productId": product.ID}

	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), body), http.StatusCreated, nil)

	var soft utils.SoftRejection
	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), body), http.StatusOK, &soft)
	assert.False(suite.T(), soft.Acknowledged)
	assert.NotEmpty(suite.T(), soft.Message)

	// Booking on behalf of someone else is refused.
	body["userId"] = "buyer-2"
	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), body), http.StatusForbidden, nil)

	// Another buyer may book the same product.
	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-2"), body), http.StatusCreated, nil)
}

func (suite *APITestSuite) TestBookingDelete() {
	product := suite.createProduct("seller-1", "Tata Ace", "Pickup", "Tata", 100)
	var booking models.Booking
	suite.decode(suite.do(http.MethodPost, "/booking", suite.token("buyer-1"), map[string]interface{}{"productId": product.ID}),
		http.StatusCreated, &booking)

	path := "/booking/" + booking.ID.String()
	suite.decode(suite.do(http.MethodDelete, path, "", nil), http.StatusUnauthorized, nil)
	suite.decode(suite.do(http.MethodDelete, path, suite.token("buyer-1"), nil), http.StatusOK, nil)
	suite.decode(suite.do(http.MethodGet, path, "", nil), http.StatusNotFound, nil)
	suite.decode(suite.do(http.MethodGet, "/booking/not-a-uuid", "", nil), http.StatusNotFound, nil)
}

func (suite *APITestSuite) TestAdvertisedProductsAreCapped() {
	for i := 0; i < 5; i++ {
		product := suite.createProduct("seller-1", fmt.Sprintf("Truck %d", i), "Pickup", "Tata", 100)
		var updated models.Product
		suite.decode(suite.do(http.MethodPut, "/product/get-ads/"+product.ID.String(), suite.token("seller-1"), nil), http.StatusOK, &updated)
		assert.Equal(suite.T(), models.AdsStatusYes, updated.AdsStatus)
	}

	var advertised []models.Product
	suite.decode(suite.do(http.MethodGet, "/advertise-products", "", nil), http.StatusOK, &advertised)
	suite.Require().Len(advertised, 4)
	assert.Equal(suite.T(), "Truck 4", advertised[0].Name)

	var stopped models.Product
	suite.decode(suite.do(http.MethodPut, "/product/remove-ads/"+advertised[0].ID.String(), suite.token("seller-1"), nil), http.StatusOK, &stopped)
	assert.Equal(suite.T(), models.AdsStatusNo, stopped.AdsStatus)
}

func (suite *APITestSuite) TestReportFlow() {
	product := suite.createProduct("seller-1", "Tata Ace", "Pickup", "Tata", 100)
	path := product.ID.String()

	// Anyone may report a listing.
	suite.decode(suite.do(http.MethodPut, "/product/report-product/"+path, "", nil), http.StatusOK, nil)

	var reported []models.Product
	suite.decode(suite.do(http.MethodGet, "/reported-products", "", nil), http.StatusOK, &reported)
	suite.Require().Len(reported, 1)
	assert.True(suite.T(), reported[0].ReportStatus)

	suite.decode(suite.do(http.MethodPut, "/product/remove-report/"+path, "", nil), http.StatusUnauthorized, nil)
	suite.decode(suite.do(http.MethodPut, "/product/remove-report/"+path, suite.token("seller-1"), nil), http.StatusOK, nil)

	suite.decode(suite.do(http.MethodGet, "/reported-products", "", nil), http.StatusOK, &reported)
	assert.Empty(suite.T(), reported)
}

func (suite *APITestSuite) TestCatalogListings() {
	suite.createProduct("seller-1", "Tata Ace", "Pickup", "Tata", 100)
	suite.createProduct("seller-1", "Isuzu NPR", "Dump Truck", "Isuzu", 400)

	var categories []models.Category
	suite.decode(suite.do(http.MethodGet, "/categories", "", nil), http.StatusOK, &categories)
	assert.Len(suite.T(), categories, 5)

	var brands []models.Brand
	suite.decode(suite.do(http.MethodGet, "/brands", "", nil), http.StatusOK, &brands)
	assert.Len(suite.T(), brands, 6)

	var bySlug []models.Product
	suite.decode(suite.do(http.MethodGet, "/category/"+slugFor(categories, "Pickup"), "", nil), http.StatusOK, &bySlug)
	suite.Require().Len(bySlug, 1)
	assert.Equal(suite.T(), "Tata Ace", bySlug[0].Name)

	suite.decode(suite.do(http.MethodGet, "/brand/"+brandSlugFor(brands, "Isuzu"), "", nil), http.StatusOK, &bySlug)
	suite.Require().Len(bySlug, 1)
	assert.Equal(suite.T(), "Isuzu NPR", bySlug[0].Name)

	suite.decode(suite.do(http.MethodGet, "/category/no-such-category", "", nil), http.StatusNotFound, nil)
	suite.decode(suite.do(http.MethodGet, "/brand/no-such-brand", "", nil), http.StatusNotFound, nil)

	var blogs []models.Blog
	suite.decode(suite.do(http.MethodGet, "/blogs", "", nil), http.StatusOK, &blogs)
	assert.Len(suite.T(), blogs, 2)
}

func slugFor(categories []models.Category, name string) string {
	for _, category := range categories {
		if category.Name == name {
			return category.Slug
		}
	}
	return ""
}

func brandSlugFor(brands []models.Brand, name string) string {
	for _, brand := range brands {
		if brand.Name == name {
			return brand.Slug
		}
	}
	return ""
}

func (suite *APITestSuite) TestMyProductsAndDelete() {
	mine := suite.createProduct("seller-1", "Tata Ace", "Pickup", "Tata", 100)
	suite.createProduct("seller-2", "Isuzu NPR", "Dump Truck", "Isuzu", 400)

	var products []models.Product
	suite.decode(suite.do(http.MethodGet, "/my-products?uid=seller-1", suite.token("seller-1"), nil), http.StatusOK, &products)
	suite.Require().Len(products, 1)
	assert.Equal(suite.T(), mine.ID, products[0].ID)

	path := "/product/" + mine.ID.String()
	suite.decode(suite.do(http.MethodDelete, path, suite.token("seller-2"), nil), http.StatusForbidden, nil)
	suite.decode(suite.do(http.MethodDelete, path, suite.token("seller-1"), nil), http.StatusOK, nil)
	suite.decode(suite.do(http.MethodGet, path, "", nil), http.StatusNotFound, nil)
}

func (suite *APITestSuite) TestUsersFilter() {
	suite.createUser("seller-1", "seller@x.com", "seller")
	suite.createUser("buyer-1", "buyer@x.com", "")

	var users []models.User
	suite.decode(suite.do(http.MethodGet, "/users?userType=seller", "", nil), http.StatusOK, &users)
	suite.Require().Len(users, 1)
	assert.Equal(suite.T(), "seller-1", users[0].UID)

	suite.decode(suite.do(http.MethodGet, "/users", "", nil), http.StatusOK, &users)
	assert.Len(suite.T(), users, 2)

	var isSeller struct {
		IsSeller bool `json:"isSeller"`
	}
	suite.decode(suite.do(http.MethodGet, "/users/seller/buyer-1", "", nil), http.StatusOK, &isSeller)
	assert.False(suite.T(), isSeller.IsSeller)
	suite.decode(suite.do(http.MethodGet, "/users/seller/nobody", "", nil), http.StatusOK, &isSeller)
	assert.False(suite.T(), isSeller.IsSeller)
}

func (suite *APITestSuite) TestUploadProductImages() {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("images", "front.png")
	suite.Require().NoError(err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/product/images", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+suite.token("seller-1"))

	var uploaded struct {
		URLs []string `json:"urls"`
	}
	suite.decode(suite.serve(req), http.StatusCreated, &uploaded)
	suite.Require().Len(uploaded.URLs, 1)
	suite.Require().Len(suite.s3.keys, 1)
	assert.True(suite.T(), strings.HasPrefix(suite.s3.keys[0], "products/seller-1/"))
	assert.True(suite.T(), strings.HasSuffix(suite.s3.keys[0], ".png"))
}
