package testutil

import (
	"context"
	"time"

	"github.com/rentdesk/rentdesk/internal/cache"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	"github.com/rentdesk/rentdesk/internal/locker"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/rentdesk/rentdesk/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories used by service tests
type Stores struct {
	InvoiceRepo      *InMemoryInvoiceStore
	PaymentRepo      *InMemoryPaymentStore
	TenancyRepo      *InMemoryTenancyStore
	InviteRepo       *InMemoryInviteStore
	NotificationRepo *InMemoryNotificationStore
	AuditRepo        *InMemoryAuditStore
	MeterRepo        *InMemoryMeterStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *InMemoryPublisherService
	db        *MockPostgresClient
	locker    locker.Locker
	cache     cache.Cache
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.config = config.GetDefaultConfig()
	s.ctx = SetupContext(types.SystemActor())
	s.now = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	s.stores = Stores{
		InvoiceRepo:      NewInMemoryInvoiceStore(),
		PaymentRepo:      NewInMemoryPaymentStore(),
		TenancyRepo:      NewInMemoryTenancyStore(),
		InviteRepo:       NewInMemoryInviteStore(),
		NotificationRepo: NewInMemoryNotificationStore(),
		AuditRepo:        NewInMemoryAuditStore(),
		MeterRepo:        NewInMemoryMeterStore(),
	}
	s.db = NewMockPostgresClient(s.logger)
	s.locker = locker.NewMemoryLocker(s.config.Locker.MaxWait)
	s.cache = cache.NewInMemoryCache(s.config)
	s.publisher = NewInMemoryEventPublisher()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.InvoiceRepo.Clear()
	s.stores.PaymentRepo.Clear()
	s.stores.TenancyRepo.Clear()
	s.stores.InviteRepo.Clear()
	s.stores.NotificationRepo.Clear()
	s.stores.AuditRepo.Clear()
	s.stores.MeterRepo.Clear()
	s.publisher.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetPublisher() *InMemoryPublisherService {
	return s.publisher
}

func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetLocker() locker.Locker {
	return s.locker
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the pinned test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// SetNow moves the pinned test time
func (s *BaseServiceTestSuite) SetNow(t time.Time) {
	s.now = t.UTC()
}

// Clock reads the pinned time on every call, so SetNow takes effect on
// services that were built earlier.
func (s *BaseServiceTestSuite) Clock() func() time.Time {
	return func() time.Time { return s.now }
}

// CreateTenancy stores an active tenancy between landlord and tenant
func (s *BaseServiceTestSuite) CreateTenancy(landlordID, tenantID string, baseRent int64) *tenancy.Tenancy {
	t := tenancy.New(s.ctx, "prop_1", "room_1", landlordID, tenantID, decimal.NewFromInt(baseRent), decimal.Zero, s.now)
	s.Require().NoError(s.stores.TenancyRepo.Create(s.ctx, t))
	return t
}
