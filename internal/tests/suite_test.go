package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/truckzone/truckzone-backend/internal/config"
	"github.com/truckzone/truckzone-backend/internal/database"
	"github.com/truckzone/truckzone-backend/internal/i18n"
	"github.com/truckzone/truckzone-backend/internal/middleware"
	"github.com/truckzone/truckzone-backend/internal/models"
	"github.com/truckzone/truckzone-backend/internal/router"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

const (
	testSecret        = "test-secret"
	testWebhookSecret = "whsec_test"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]*services.PaymentIntent
	created []services.IntentParams
}

func (g *fakeGateway) CreateIntent(_ context.Context, params services.IntentParams) (*services.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, params)
	id := fmt.Sprintf("pi_%d", len(g.created))
	intent := &services.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		AmountCents:  params.AmountCents,
		Currency:     params.Currency,
		Metadata:     params.Metadata,
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*services.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.intents[id]; ok {
		return intent, nil
	}
	return nil, fmt.Errorf("no such payment intent: %s", id)
}

func (g *fakeGateway) succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = services.IntentStatusSucceeded
}

type fakeS3 struct {
	s3iface.S3API
	mu   sync.Mutex
	keys []string
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, aws.StringValue(input.Key))
	return &s3.PutObjectOutput{}, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

// APITestSuite runs requests through the full router against in-memory SQLite.
type APITestSuite struct {
	suite.Suite
	db        *gorm.DB
	cfg       *config.Config
	router    *gin.Engine
	gateway   *fakeGateway
	s3        *fakeS3
	publisher *recordingPublisher
	jwt       *utils.JWTManager
	ctx       context.Context
	cancel    context.CancelFunc
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize("en"))
}

func (suite *APITestSuite) SetupTest() {
	suite.cfg = &config.Config{
		Environment: "test",
		Database: config.DatabaseConfig{
			Driver:   "sqlite",
			Path:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
			LogLevel: "silent",
		},
		JWT:       config.JWTConfig{SecretKey: testSecret, AccessTokenTTL: 24},
		Payment:   config.PaymentConfig{Currency: "usd", StripeWebhookSecret: testWebhookSecret},
		AWS:       config.AWSConfig{Region: "us-east-1", S3Bucket: "listings"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		I18n:      config.I18nConfig{DefaultLocale: "en"},
	}

	db, err := database.Initialize(suite.cfg.Database)
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(db))
	suite.Require().NoError(database.SeedInitialData(db))
	suite.db = db

	suite.gateway = &fakeGateway{intents: map[string]*services.PaymentIntent{}}
	suite.s3 = &fakeS3{}
	suite.publisher = &recordingPublisher{}
	suite.jwt = utils.NewJWTManager(testSecret, 24)
	suite.ctx, suite.cancel = context.WithCancel(context.Background())
	suite.router = suite.newRouter()
}

func (suite *APITestSuite) newRouter() *gin.Engine {
	limiters := middleware.NewLimiters(suite.cfg.RateLimit.RequestsPerSecond, suite.cfg.RateLimit.Burst)
	limiters.Run(suite.ctx)

	return router.Initialize(router.Dependencies{
		DB:        suite.db,
		Config:    suite.cfg,
		Gateway:   suite.gateway,
		Publisher: suite.publisher,
		Storage:   services.NewStorageServiceWithClient(suite.s3, suite.cfg.AWS),
		Limiters:  limiters,
	})
}

func (suite *APITestSuite) TearDownTest() {
	suite.cancel()
	database.Close(suite.db)
}

func (suite *APITestSuite) token(uid string) string {
	token, err := suite.jwt.GenerateJWT(uid, uid+"@x.com")
	suite.Require().NoError(err)
	return token
}

func (suite *APITestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewBuffer(data)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return suite.serve(req)
}

func (suite *APITestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) createUser(uid, email, userType string) *models.User {
	var user models.User
	w := suite.do(http.MethodPost, "/user", "", map[string]interface{}{
		"uid":      uid,
		"name":     "User " + uid,
		"email":    email,
		"userType": userType,
	})
	suite.decode(w, http.StatusCreated, &user)
	return &user
}

func (suite *APITestSuite) createProduct(sellerUID, name, category, brand string, price float64) *models.Product {
	var product models.Product
	w := suite.do(http.MethodPost, "/product", suite.token(sellerUID), map[string]interface{}{
		"sellerName": "Seller " + sellerUID,
		"name":       name,
		"category":   category,
		"brand":      brand,
		"price":      price,
		"condition":  "good",
		"location":   "Dhaka",
	})
	suite.decode(w, http.StatusCreated, &product)
	return &product
}

// decode checks the status and unmarshals the envelope's data into out.
func (suite *APITestSuite) decode(w *httptest.ResponseRecorder, status int, out interface{}) envelope {
	suite.Require().Equal(status, w.Code, w.Body.String())

	var resp envelope
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	if out != nil {
		suite.Require().NoError(json.Unmarshal(resp.Data, out))
	}
	return resp
}
