package service

import (
	"context"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/workflow"
)

type paymentCallbackService struct {
	engine *workflow.Engine
}

func NewPaymentCallbackService(engine *workflow.Engine) PaymentCallbackService {
	return &paymentCallbackService{engine: engine}
}

func (s *paymentCallbackService) ConfirmDonation(ctx context.Context, campaignID, amountCents int64) (*domain.Campaign, error) {
	return s.engine.ConfirmDonation(ctx, campaignID, amountCents)
}

func (s *paymentCallbackService) ConfirmVerificationPayment(ctx context.Context, verificationID int64) (*domain.StudentVerification, error) {
	return s.engine.ConfirmVerificationPayment(ctx, verificationID)
}
