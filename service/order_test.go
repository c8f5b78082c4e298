package service

import (
	"context"
	"errors"
	"testing"

	"bar-order-api/internal/testdb"
	"bar-order-api/models"
	"bar-order-api/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type OrderServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	repo   *store.OrderRepo
	svc    *OrderService
	beer   *models.Product
	baijiu *models.Product
}

func (s *OrderServiceTestSuite) SetupTest() {
	db := testdb.Open(s.T())
	s.db = db
	s.ctx = context.Background()
	s.repo = store.NewOrderRepo(db)
	s.svc = NewOrderService(s.repo, zerolog.Nop())

	products := store.NewProductRepo(db)
	s.beer = &models.Product{Name: "Harbin", Category: models.CategoryBeer,
		AlcoholContent: decimal.RequireFromString("3.60"), Price: decimal.RequireFromString("10.00"),
		TemperatureRequirement: models.ServeCold}
	s.baijiu = &models.Product{Name: "Fenjiu", Category: models.CategoryBaijiu,
		AlcoholContent: decimal.RequireFromString("42.00"), Price: decimal.RequireFromString("88.00"),
		TemperatureRequirement: models.ServeBoth}
	require.NoError(s.T(), products.Create(s.ctx, s.beer))
	require.NoError(s.T(), products.Create(s.ctx, s.baijiu))
}

func (s *OrderServiceTestSuite) input(details ...DetailInput) OrderInput {
	return OrderInput{
		OrderMethod:    ptr(models.MethodStaff),
		TableNumber:    ptr("T5"),
		NumberOfDiners: ptr(4),
		TotalAmount:    dec("108.00"),
		Details:        append([]DetailInput{}, details...),
	}
}

func (s *OrderServiceTestSuite) line(product uint, qty int, temp models.TemperatureChoice) DetailInput {
	return DetailInput{Product: ptr(product), Quantity: ptr(qty), UnitPrice: dec("10.00"), TemperatureChoice: temp}
}

func (s *OrderServiceTestSuite) counts() (int64, int64) {
	return testdb.Count(s.T(), s.db, &models.Order{}), testdb.Count(s.T(), s.db, &models.OrderDetail{})
}

func (s *OrderServiceTestSuite) TestCreateKeepsEveryDetail() {
	in := s.input(
		s.line(s.beer.ID, 2, models.ChoiceCold),
		s.line(s.baijiu.ID, 1, models.ChoiceHot),
		s.line(s.beer.ID, 1, models.ChoiceCold),
	)

	order, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)

	s.Len(order.Details, len(in.Details))
	for _, d := range order.Details {
		s.NotZero(d.Product.ID, "product reference resolves")
	}
	resp := RepresentOrder(order)
	s.Equal("Harbin", resp.Details[0].ProductName)
	s.Equal("Fenjiu", resp.Details[1].ProductName)
	s.Equal(models.ChoiceHot, resp.Details[1].TemperatureChoice)
	s.Equal("108.00", resp.TotalAmount)
}

func (s *OrderServiceTestSuite) TestCreateRobotOrderDerivesTable() {
	in := s.input(s.line(s.beer.ID, 1, models.ChoiceCold))
	in.OrderMethod = ptr(models.MethodRobot)
	in.TableNumber = nil
	in.RobotID = ptr("R7")

	order, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)
	s.Equal("ROBOT_R7", order.TableNumber)
}

func (s *OrderServiceTestSuite) TestCreateRejectionsLeaveNoRows() {
	robot := s.input()
	robot.OrderMethod = ptr(models.MethodRobot)
	robot.Details = []DetailInput{}

	noDiners := s.input(s.line(s.beer.ID, 1, models.ChoiceCold))
	noDiners.NumberOfDiners = ptr(0)

	ghost := s.input(s.line(s.beer.ID, 1, models.ChoiceCold), s.line(12345, 1, models.ChoiceCold))

	cases := []struct {
		name  string
		in    OrderInput
		field string
	}{
		{"robot without id", robot, "robot_id"},
		{"zero diners", noDiners, "number_of_diners"},
		{"unknown product", ghost, "product"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Create(s.ctx, tc.in)
			var verr *ValidationError
			s.Require().True(errors.As(err, &verr), "got %v", err)
			s.Equal(tc.field, verr.Field)

			orders, details := s.counts()
			s.Zero(orders)
			s.Zero(details)
		})
	}
}

func (s *OrderServiceTestSuite) TestUpdateReplacesDetails() {
	order, err := s.svc.Create(s.ctx, s.input(
		s.line(s.beer.ID, 1, models.ChoiceCold),
		s.line(s.baijiu.ID, 1, models.ChoiceHot),
	))
	s.Require().NoError(err)
	oldIDs := []uint{order.Details[0].ID, order.Details[1].ID}

	updated, err := s.svc.Update(s.ctx, order.ID, OrderInput{
		Details: []DetailInput{s.line(s.baijiu.ID, 6, models.ChoiceCold)},
	})
	s.Require().NoError(err)

	s.Require().Len(updated.Details, 1)
	s.NotContains(oldIDs, updated.Details[0].ID)
	s.Equal("T5", updated.TableNumber, "omitted fields keep their value")
	s.Equal(4, updated.NumberOfDiners)

	_, details := s.counts()
	s.EqualValues(1, details)
}

func (s *OrderServiceTestSuite) TestUpdateWithoutDetailsKeepsThem() {
	order, err := s.svc.Create(s.ctx, s.input(s.line(s.beer.ID, 1, models.ChoiceCold)))
	s.Require().NoError(err)

	updated, err := s.svc.Update(s.ctx, order.ID, OrderInput{NumberOfDiners: ptr(6), TotalAmount: dec("12.5")})
	s.Require().NoError(err)
	s.Equal(6, updated.NumberOfDiners)
	s.Equal("12.50", updated.TotalAmount.StringFixed(2))
	s.Require().Len(updated.Details, 1)
	s.Equal(order.Details[0].ID, updated.Details[0].ID)
}

func (s *OrderServiceTestSuite) TestUpdateFailureIsAtomic() {
	order, err := s.svc.Create(s.ctx, s.input(s.line(s.beer.ID, 1, models.ChoiceCold)))
	s.Require().NoError(err)

	_, err = s.svc.Update(s.ctx, order.ID, OrderInput{
		Remarks: ptr("should not stick"),
		Details: []DetailInput{s.line(999, 1, models.ChoiceCold)},
	})
	var verr *ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Equal("product", verr.Field)

	reloaded, err := s.svc.Get(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Nil(reloaded.Remarks)
	s.Require().Len(reloaded.Details, 1)
	s.Equal(order.Details[0].ID, reloaded.Details[0].ID)
}

func (s *OrderServiceTestSuite) TestUpdateMissingOrder() {
	_, err := s.svc.Update(s.ctx, 77, OrderInput{Remarks: ptr("x")})
	var nf *NotFoundError
	s.Require().True(errors.As(err, &nf))
	s.Equal(uint(77), nf.ID)
}

func (s *OrderServiceTestSuite) TestCancelAndCompleteArePermissiveAndIdempotent() {
	order, err := s.svc.Create(s.ctx, s.input())
	s.Require().NoError(err)

	done, err := s.svc.Complete(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, done.Status)

	for i := 0; i < 2; i++ {
		cancelled, err := s.svc.Cancel(s.ctx, order.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCancelled, cancelled.Status)
	}

	done, err = s.svc.Complete(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, done.Status)

	history, err := s.svc.History(s.ctx, order.ID)
	s.Require().NoError(err)
	// placed, completed, cancelled, completed; the repeated cancel adds nothing
	s.Len(history, 4)
}

func (s *OrderServiceTestSuite) TestStatusOperationsOnMissingOrder() {
	var nf *NotFoundError
	_, err := s.svc.Cancel(s.ctx, 404)
	s.True(errors.As(err, &nf))
	_, err = s.svc.Complete(s.ctx, 404)
	s.True(errors.As(err, &nf))
	_, err = s.svc.History(s.ctx, 404)
	s.True(errors.As(err, &nf))
	s.True(errors.As(s.svc.Delete(s.ctx, 404), &nf))
}

func (s *OrderServiceTestSuite) TestListFilter() {
	_, err := s.svc.Create(s.ctx, s.input())
	s.Require().NoError(err)
	qr := s.input()
	qr.OrderMethod = ptr(models.MethodQR)
	_, err = s.svc.Create(s.ctx, qr)
	s.Require().NoError(err)

	all, err := s.svc.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	onlyQR, err := s.svc.List(s.ctx, "QR")
	s.Require().NoError(err)
	s.Require().Len(onlyQR, 1)
	s.Equal(models.MethodQR, onlyQR[0].OrderMethod)

	_, err = s.svc.List(s.ctx, "PIGEON")
	var verr *ValidationError
	s.True(errors.As(err, &verr))
}

func (s *OrderServiceTestSuite) TestDeleteRemovesAggregate() {
	order, err := s.svc.Create(s.ctx, s.input(s.line(s.beer.ID, 1, models.ChoiceCold)))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, order.ID))
	orders, details := s.counts()
	s.Zero(orders)
	s.Zero(details)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
