package service

import (
	"context"
	"testing"

	"github.com/rentdesk/rentdesk/internal/api/dto"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/testutil"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MeterServiceSuite struct {
	testutil.BaseServiceTestSuite
	meters   MeterService
	invoices InvoiceService
	landlord types.Actor
	tenant   types.Actor
	tenancy  *tenancy.Tenancy
	ctx      context.Context
}

func TestMeterService(t *testing.T) {
	suite.Run(t, new(MeterServiceSuite))
}

func (s *MeterServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.meters = NewMeterService(params)
	s.invoices = NewInvoiceService(params)

	s.landlord = testutil.Landlord("landlord_1")
	s.tenant = testutil.Tenant("tenant_1")
	s.tenancy = s.CreateTenancy(s.landlord.UserID, s.tenant.UserID, 3000000)
	s.ctx = withActor(s.GetContext(), s.landlord)
}

func (s *MeterServiceSuite) marchReading() dto.SubmitMeterReadingRequest {
	return dto.SubmitMeterReadingRequest{
		TenancyID:      s.tenancy.ID,
		Period:         "2025-03",
		ElectricityOld: amount(1200),
		ElectricityNew: amount(1320),
		WaterOld:       amount(40),
		WaterNew:       amount(45),
	}
}

func (s *MeterServiceSuite) TestSubmitReading_NotifiesTenant() {
	resp, err := s.meters.SubmitMeterReading(s.ctx, s.landlord, s.marchReading())
	s.Require().NoError(err)
	s.Equal(types.MeterReadingSourceManual, resp.Source)
	s.Equal(s.tenancy.RoomID, resp.RoomID)
	s.True(resp.ElectricityUsage.Equal(amount(120)))
	s.True(resp.WaterUsage.Equal(amount(5)))

	sent := s.GetPublisher().EventsOfType(types.TemplateMeterSubmitted)
	s.Require().Len(sent, 1)
	s.Equal([]string{s.tenant.UserID}, sent[0].Recipients)
	s.Equal(resp.ID, sent[0].ObjectID)
	s.Equal("120", sent[0].Payload["electricity_usage"])

	trail := s.GetStores().AuditRepo.ForObject(s.ctx, resp.ID)
	s.Require().Len(trail, 1)
	s.Equal(types.AuditActionCreate, trail[0].Action)
	s.Equal(s.landlord.UserID, trail[0].ActorID)
}

func (s *MeterServiceSuite) TestSubmitReading_OncePerRoomAndPeriod() {
	_, err := s.meters.SubmitMeterReading(s.ctx, s.landlord, s.marchReading())
	s.Require().NoError(err)

	_, err = s.meters.SubmitMeterReading(s.ctx, s.landlord, s.marchReading())
	s.Require().Error(err)
	s.True(ierr.IsAlreadyExists(err))
	s.Equal("period", ierr.Field(err))
	s.Len(s.GetPublisher().EventsOfType(types.TemplateMeterSubmitted), 1)

	april := s.marchReading()
	april.Period = "2025-04"
	april.ElectricityOld, april.ElectricityNew = amount(1320), amount(1400)
	_, err = s.meters.SubmitMeterReading(s.ctx, s.landlord, april)
	s.NoError(err)
}

func (s *MeterServiceSuite) TestSubmitReading_Rejected() {
	backwards := s.marchReading()
	backwards.WaterNew = amount(39)
	_, err := s.meters.SubmitMeterReading(s.ctx, s.landlord, backwards)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal("water_new", ierr.Field(err))

	badSource := s.marchReading()
	badSource.Source = "guess"
	_, err = s.meters.SubmitMeterReading(s.ctx, s.landlord, badSource)
	s.Require().Error(err)
	s.Equal("source", ierr.Field(err))

	_, err = s.meters.SubmitMeterReading(withActor(s.GetContext(), s.tenant), s.tenant, s.marchReading())
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))

	readings, err := s.GetStores().MeterRepo.List(s.ctx, &types.MeterReadingFilter{TenancyID: s.tenancy.ID})
	s.Require().NoError(err)
	s.Empty(readings)
	s.Empty(s.GetPublisher().EventsOfType(types.TemplateMeterSubmitted))
}

func (s *MeterServiceSuite) TestListReadings_PartiesOnly() {
	_, err := s.meters.SubmitMeterReading(s.ctx, s.landlord, s.marchReading())
	s.Require().NoError(err)

	filter := types.NewMeterReadingFilter()
	filter.TenancyID = s.tenancy.ID
	list, err := s.meters.ListMeterReadings(s.ctx, s.tenant, filter)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
	s.Equal(1, list.Pagination.Total)

	_, err = s.meters.ListMeterReadings(s.ctx, testutil.Tenant("stranger"), filter)
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.meters.ListMeterReadings(s.ctx, s.tenant, types.NewMeterReadingFilter())
	s.Require().Error(err)
	s.Equal("tenancy_id", ierr.Field(err))
}

func (s *MeterServiceSuite) TestCreateInvoice_BillsMeterUsage() {
	reading, err := s.meters.SubmitMeterReading(s.ctx, s.landlord, s.marchReading())
	s.Require().NoError(err)

	view, err := s.invoices.CreateInvoice(s.ctx, s.landlord, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-03",
		Lines: []dto.InvoiceLineRequest{{
			ItemType:  types.InvoiceLineItemTypeRent,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: amount(3000000),
		}},
		Meter: &dto.MeterChargesRequest{
			ElectricityUnitPrice: amount(3500),
			WaterUnitPrice:       amount(20000),
		},
	})
	s.Require().NoError(err)

	// 3,000,000 rent + 120 kWh x 3,500 + 5 m3 x 20,000
	s.True(view.TotalAmount.Equal(amount(3520000)), "total %s", view.TotalAmount)
	s.Require().Len(view.Lines, 3)
	s.Equal(types.InvoiceLineItemTypeElectricity, view.Lines[1].ItemType)
	s.Equal(reading.ID, view.Lines[1].Meta["meter_reading_id"])
	s.Equal(types.InvoiceLineItemTypeWater, view.Lines[2].ItemType)
	s.True(view.Lines[2].Amount.Equal(amount(100000)))
}

func (s *MeterServiceSuite) TestCreateInvoice_MeterChargesNeedReading() {
	_, err := s.invoices.CreateInvoice(s.ctx, s.landlord, dto.CreateInvoiceRequest{
		TenancyID: s.tenancy.ID,
		Period:    "2025-03",
		Lines:     rentAndPower(3000000, 100, 1750),
		Meter:     &dto.MeterChargesRequest{ElectricityUnitPrice: amount(3500)},
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal("meter", ierr.Field(err))
	exists, err := s.GetStores().InvoiceRepo.ExistsForPeriod(s.ctx, s.tenancy.ID, "2025-03")
	s.Require().NoError(err)
	s.False(exists)
}
