package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	v1 "github.com/flexprice/flexgym/internal/api/v1"
	"github.com/flexprice/flexgym/internal/domain/pkg"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/service"
	"github.com/flexprice/flexgym/internal/testutil"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	gin.SetMode(gin.TestMode)

	stores := s.GetStores()
	params := service.NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		stores.MemberRepo,
		stores.PackageRepo,
		stores.MembershipRepo,
		stores.ChangeRepo,
		stores.CommissionRepo,
		stores.PaymentRepo,
		stores.CreditRepo,
		stores.InstallmentRepo,
		stores.SessionRepo,
		s.GetSagaRunner(),
	)
	log := s.GetLogger()
	events := s.GetPublisher()
	memberships := service.NewMembershipService(params)

	s.router = NewRouter(Handlers{
		Health:     v1.NewHealthHandler(nil, log),
		Membership: v1.NewMembershipHandler(memberships, events, log),
		Lifecycle:  v1.NewLifecycleHandler(service.NewLifecycleService(params), events, log),
		Payment:    v1.NewPaymentHandler(service.NewPaymentService(params), events, log),
		Session:    v1.NewSessionHandler(service.NewSessionService(params), events, log),
		Preview:    v1.NewPreviewHandler(service.NewCalculatorService(params), log),
		Member:     v1.NewMemberHandler(service.NewMemberService(params), memberships, service.NewCreditService(params), events, log),
		Package:    v1.NewPackageHandler(service.NewPackageService(params), log),
		Trainer:    v1.NewTrainerHandler(service.NewTrainerService(params), log),
	}, s.GetConfig(), log)
}

func (s *RouterSuite) do(method, path, gymID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if gymID != "" {
		req.Header.Set(types.HeaderTenantID, gymID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) errorBody(w *httptest.ResponseRecorder) ierr.ErrorResponse {
	var resp ierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestPackageRoundTrip() {
	w := s.do(http.MethodPost, "/v1/packages", "gym_north", map[string]any{
		"name":          "Quarterly",
		"price":         "12000",
		"duration_days": 90,
		"pt_sessions":   12,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created pkg.Package
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.Equal("gym_north", created.TenantID)
	s.Equal("12000", created.Price.String())

	w = s.do(http.MethodGet, "/v1/packages/"+created.ID, "gym_north", nil)
	s.Equal(http.StatusOK, w.Code)

	// another gym cannot see it
	w = s.do(http.MethodGet, "/v1/packages/"+created.ID, "gym_south", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.False(s.errorBody(w).Success)
}

func (s *RouterSuite) TestValidationErrorRendersHint() {
	w := s.do(http.MethodPost, "/v1/packages", "", map[string]any{
		"name":  "Broken",
		"price": "100",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	resp := s.errorBody(w)
	s.False(resp.Success)
	s.NotEmpty(resp.Error.Display)
}

func (s *RouterSuite) TestMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/v1/memberships", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestUnknownMembership() {
	w := s.do(http.MethodGet, "/v1/memberships/mbr_missing", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.False(s.errorBody(w).Success)
}

func (s *RouterSuite) TestGymHeaderTooLong() {
	w := s.do(http.MethodGet, "/v1/packages", strings.Repeat("g", 51), nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
