package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
	"fundlift-moderation-backend/internal/security"
	"fundlift-moderation-backend/internal/service"
	"fundlift-moderation-backend/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testWebhookKey = "test-webhook-key"

type mockModerationService struct{ mock.Mock }

func (m *mockModerationService) Transition(ctx context.Context, req workflow.Request) (domain.Entity, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Entity), args.Error(1)
}

func (m *mockModerationService) GetEntity(ctx context.Context, t domain.EntityType, id int64) (*service.EntityView, error) {
	args := m.Called(ctx, t, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EntityView), args.Error(1)
}

func (m *mockModerationService) ListEntities(ctx context.Context, f repository.Filter) ([]service.EntityView, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]service.EntityView), args.Get(1).(int64), args.Error(2)
}

type mockPaymentService struct{ mock.Mock }

func (m *mockPaymentService) ConfirmDonation(ctx context.Context, campaignID, amountCents int64) (*domain.Campaign, error) {
	args := m.Called(ctx, campaignID, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *mockPaymentService) ConfirmVerificationPayment(ctx context.Context, verificationID int64) (*domain.StudentVerification, error) {
	args := m.Called(ctx, verificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentVerification), args.Error(1)
}

type mockAuditService struct{ mock.Mock }

func (m *mockAuditService) EntityActivity(ctx context.Context, t domain.EntityType, entityID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	args := m.Called(ctx, t, entityID, page, pageSize)
	return args.Get(0).([]domain.AuditRecord), args.Get(1).(int64), args.Error(2)
}

func (m *mockAuditService) ActorActivity(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	args := m.Called(ctx, actorID, page, pageSize)
	return args.Get(0).([]domain.AuditRecord), args.Get(1).(int64), args.Error(2)
}

type mockNotesService struct{ mock.Mock }

func (m *mockNotesService) AddNote(ctx context.Context, actor domain.Actor, t domain.EntityType, entityID int64, content string) (*domain.Note, error) {
	args := m.Called(ctx, actor, t, entityID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Note), args.Error(1)
}

func (m *mockNotesService) ListNotes(ctx context.Context, t domain.EntityType, entityID int64) ([]domain.Note, error) {
	args := m.Called(ctx, t, entityID)
	return args.Get(0).([]domain.Note), args.Error(1)
}

type testServer struct {
	server     *Server
	moderation *mockModerationService
	payments   *mockPaymentService
	audit      *mockAuditService
	notes      *mockNotesService
	tokens     security.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		moderation: &mockModerationService{},
		payments:   &mockPaymentService{},
		audit:      &mockAuditService{},
		notes:      &mockNotesService{},
		tokens:     security.NewTokenManager("test-secret", "fundlift-auth"),
	}
	ts.server = NewServer(ts.moderation, ts.payments, ts.audit, ts.notes, ts.tokens, testWebhookKey)
	return ts
}

func (ts *testServer) bearer(t *testing.T, roles ...string) string {
	t.Helper()
	token, err := ts.tokens.GenerateActorToken(9, "mod@fundlift.example", roles, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.server.ServeHTTP(rr, req)
	return rr
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestTransitionEndpoint(t *testing.T) {
	t.Run("Approves", func(t *testing.T) {
		ts := newTestServer(t)
		ts.moderation.On("Transition", mock.Anything, mock.MatchedBy(func(req workflow.Request) bool {
			return req.EntityType == domain.EntityCampaign &&
				req.EntityID == 1 &&
				req.RequestedStatus == domain.StatusApproved &&
				req.Actor.ID == 9 &&
				req.Actor.IsModerator()
		})).Return(&domain.Campaign{
			Meta: domain.Meta{ID: 1, Status: domain.StatusApproved, Version: 1},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/moderation/campaign/1/transition",
			jsonBody(t, map[string]string{"requested_status": "APPROVED"}))
		req.Header.Set("Authorization", ts.bearer(t, "moderator"))
		rr := ts.do(req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		ts.moderation.AssertExpectations(t)
	})

	t.Run("MissingToken", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/moderation/campaign/1/transition",
			jsonBody(t, map[string]string{"requested_status": "APPROVED"}))
		rr := ts.do(req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		ts.moderation.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything)
	})

	t.Run("UnknownEntityType", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/moderation/unicorn/1/transition",
			jsonBody(t, map[string]string{"requested_status": "APPROVED"}))
		req.Header.Set("Authorization", ts.bearer(t, "moderator"))
		rr := ts.do(req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/moderation/campaign/1/transition",
			bytes.NewBufferString("{"))
		req.Header.Set("Authorization", ts.bearer(t, "moderator"))
		rr := ts.do(req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("ErrorKindMapping", func(t *testing.T) {
		cases := []struct {
			name string
			err  *domain.WorkflowError
			code int
		}{
			{"NotFound", domain.NewNotFound(domain.EntityCampaign, 1), http.StatusNotFound},
			{"InvalidTransition", domain.NewInvalidTransition(domain.EntityCampaign, domain.StatusApproved, domain.StatusPending), http.StatusUnprocessableEntity},
			{"MissingReason", domain.NewMissingReason(domain.EntityCampaign), http.StatusBadRequest},
			{"InvariantViolation", domain.NewInvariantViolation(domain.ViolationBudgetExceedsGoal, "over budget"), http.StatusUnprocessableEntity},
			{"Unauthorized", domain.NewUnauthorized("nope"), http.StatusForbidden},
			{"Conflict", domain.NewConflict(domain.EntityCampaign, 1), http.StatusConflict},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				ts := newTestServer(t)
				ts.moderation.On("Transition", mock.Anything, mock.Anything).Return(nil, tc.err)

				req := httptest.NewRequest(http.MethodPost, "/api/v1/moderation/campaign/1/transition",
					jsonBody(t, map[string]string{"requested_status": "APPROVED", "reason": "x"}))
				req.Header.Set("Authorization", ts.bearer(t, "moderator"))
				rr := ts.do(req)

				assert.Equal(t, tc.code, rr.Code)

				var body errorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, tc.err.Kind, body.Kind)
			})
		}
	})
}

func TestListEntitiesEndpoint(t *testing.T) {
	t.Run("PassesFilter", func(t *testing.T) {
		ts := newTestServer(t)
		pending := domain.StatusPending
		ts.moderation.On("ListEntities", mock.Anything, mock.MatchedBy(func(f repository.Filter) bool {
			return f.EntityType == domain.EntityWithdrawal &&
				f.Status != nil && *f.Status == pending &&
				f.CampaignID != nil && *f.CampaignID == 7 &&
				f.Page == 2 && f.PageSize == 5
		})).Return([]service.EntityView{}, int64(0), nil)

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/moderation/withdrawal?status=PENDING&campaign_id=7&page=2&page_size=5", nil)
		req.Header.Set("Authorization", ts.bearer(t, "moderator"))
		rr := ts.do(req)

		assert.Equal(t, http.StatusOK, rr.Code)
		ts.moderation.AssertExpectations(t)
	})

	t.Run("RejectsUnknownStatus", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/moderation/campaign?status=LIMBO", nil)
		req.Header.Set("Authorization", ts.bearer(t, "moderator"))
		rr := ts.do(req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuditEndpoints(t *testing.T) {
	ts := newTestServer(t)
	recs := []domain.AuditRecord{{ID: 1, Action: domain.ActionApprove}}
	ts.audit.On("EntityActivity", mock.Anything, domain.EntityCampaign, int64(1), int32(1), int32(20)).
		Return(recs, int64(1), nil)
	ts.audit.On("ActorActivity", mock.Anything, int64(9), int32(1), int32(20)).
		Return(recs, int64(1), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/campaign/1", nil)
	req.Header.Set("Authorization", ts.bearer(t, "moderator"))
	rr := ts.do(req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var paged pagedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &paged))
	assert.EqualValues(t, 1, paged.Total)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/audit/actors/9", nil)
	req.Header.Set("Authorization", ts.bearer(t, "moderator"))
	rr = ts.do(req)
	assert.Equal(t, http.StatusOK, rr.Code)
	ts.audit.AssertExpectations(t)
}

func TestNotesEndpoints(t *testing.T) {
	ts := newTestServer(t)
	note := &domain.Note{ID: 1, EntityType: domain.EntityCampaign, EntityID: 1, AuthorID: 9, Content: "check owner history"}
	ts.notes.On("AddNote", mock.Anything, mock.Anything, domain.EntityCampaign, int64(1), "check owner history").
		Return(note, nil)
	ts.notes.On("ListNotes", mock.Anything, domain.EntityCampaign, int64(1)).
		Return([]domain.Note{*note}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/moderation/campaign/1/notes",
		jsonBody(t, map[string]string{"content": "check owner history"}))
	req.Header.Set("Authorization", ts.bearer(t, "moderator"))
	rr := ts.do(req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/moderation/campaign/1/notes", nil)
	req.Header.Set("Authorization", ts.bearer(t, "moderator"))
	rr = ts.do(req)
	assert.Equal(t, http.StatusOK, rr.Code)
	ts.notes.AssertExpectations(t)
}

func TestPaymentWebhooks(t *testing.T) {
	t.Run("DonationConfirmed", func(t *testing.T) {
		ts := newTestServer(t)
		ts.payments.On("ConfirmDonation", mock.Anything, int64(1), int64(2500)).
			Return(&domain.Campaign{Meta: domain.Meta{ID: 1}, AmountRaisedCents: 2500}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/collaborators/payments/donations",
			jsonBody(t, map[string]int64{"campaign_id": 1, "amount_cents": 2500}))
		req.Header.Set("X-Webhook-Key", testWebhookKey)
		rr := ts.do(req)

		assert.Equal(t, http.StatusOK, rr.Code)
		ts.payments.AssertExpectations(t)
	})

	t.Run("VerificationPaymentConfirmed", func(t *testing.T) {
		ts := newTestServer(t)
		ts.payments.On("ConfirmVerificationPayment", mock.Anything, int64(5)).
			Return(&domain.StudentVerification{Meta: domain.Meta{ID: 5, Status: domain.StatusPending}, PaymentConfirmed: true}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/collaborators/payments/verifications",
			jsonBody(t, map[string]int64{"verification_id": 5}))
		req.Header.Set("X-Webhook-Key", testWebhookKey)
		rr := ts.do(req)

		assert.Equal(t, http.StatusOK, rr.Code)
		ts.payments.AssertExpectations(t)
	})

	t.Run("WrongKey", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/collaborators/payments/donations",
			jsonBody(t, map[string]int64{"campaign_id": 1, "amount_cents": 2500}))
		req.Header.Set("X-Webhook-Key", "wrong")
		rr := ts.do(req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		ts.payments.AssertNotCalled(t, "ConfirmDonation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("JWTDoesNotOpenWebhooks", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/collaborators/payments/donations",
			jsonBody(t, map[string]int64{"campaign_id": 1, "amount_cents": 2500}))
		req.Header.Set("Authorization", ts.bearer(t, "admin"))
		rr := ts.do(req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
