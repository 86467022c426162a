package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/hermes"
)

// IntakeConsumer is the durable JetStream consumer for bus submissions.
const IntakeConsumer = "psyche-intake"

// SetupSubscriptions starts consuming submissions from the bus. Malformed and
// rejected submissions are acknowledged so they are not redelivered; storage
// failures are returned to the consumer for redelivery.
func (s *Service) SetupSubscriptions(ctx context.Context) error {
	if s.hermes == nil {
		return nil
	}
	if err := s.hermes.Consume(ctx, IntakeConsumer, hermes.SubjectAssessmentSubmit, s.handleSubmit(ctx)); err != nil {
		return fmt.Errorf("subscribe submissions: %w", err)
	}
	s.logger.Info("consuming submissions", "subject", hermes.SubjectAssessmentSubmit, "durable", IntakeConsumer)
	return nil
}

func (s *Service) handleSubmit(ctx context.Context) hermes.Handler {
	return func(subject string, data []byte) error {
		var evt hermes.AssessmentSubmitEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			s.logger.Error("failed to parse submission", "subject", subject, "error", err)
			return nil
		}
		tenantID, err := uuid.Parse(evt.TenantID)
		if err != nil {
			s.logger.Error("submission has invalid tenant_id", "tenant_id", evt.TenantID)
			return nil
		}
		companyID, err := uuid.Parse(evt.CompanyID)
		if err != nil {
			s.logger.Error("submission has invalid company_id", "company_id", evt.CompanyID)
			return nil
		}

		_, err = s.Submit(ctx, Submission{
			TenantID:     tenantID,
			CompanyID:    companyID,
			Demographics: evt.Demographics,
			Answers:      evt.Answers,
			SubmittedAt:  evt.SubmittedAt,
		})
		if err != nil && IsRejection(err) {
			s.logger.Warn("submission rejected", "company_id", companyID, "source", evt.Source, "error", err)
			return nil
		}
		return err
	}
}
