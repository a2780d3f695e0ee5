package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scamslayer-service/internal/domain"
)

// MinDescriptionLength is the shortest accepted scam description, in characters.
const MinDescriptionLength = 20

// ReportSteps is the number of steps in the report form.
const ReportSteps = 3

// ReportStore persists anonymous reports.
type ReportStore interface {
	InsertReport(ctx context.Context, report domain.Report) error
	RecentReports(ctx context.Context, limit int) ([]domain.Report, error)
}

// SubmissionState is the lifecycle of a report submission.
type SubmissionState string

const (
	SubmissionSubmitting SubmissionState = "submitting"
	SubmissionSubmitted  SubmissionState = "submitted"
	SubmissionFailed     SubmissionState = "failed"
)

// Submission is the explicit result of submitting a report.
type Submission struct {
	State  SubmissionState `json:"state"`
	Report *domain.Report  `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ReportService handles anonymous scam reports.
type ReportService struct {
	store  ReportStore
	logger *zap.Logger
	now    func() time.Time
}

func NewReportService(store ReportStore, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{store: store, logger: logger, now: time.Now}
}

// ValidateStep checks the fields gathered on one form step (1-based).
func ValidateStep(draft domain.ReportDraft, step int) error {
	switch step {
	case 1:
		if !draft.ScamType.Valid() {
			return fmt.Errorf("%w: scam type is required", domain.ErrInvalidReport)
		}
		if utf8.RuneCountInString(strings.TrimSpace(draft.Description)) < MinDescriptionLength {
			return fmt.Errorf("%w: description must be at least %d characters", domain.ErrInvalidReport, MinDescriptionLength)
		}
	case 2:
		if !draft.InfoShared.Valid() {
			return fmt.Errorf("%w: shared information is required", domain.ErrInvalidReport)
		}
		if !draft.ContactMethod.Valid() {
			return fmt.Errorf("%w: contact method is required", domain.ErrInvalidReport)
		}
	case 3:
	default:
		return fmt.Errorf("%w: unknown step %d", domain.ErrInvalidReport, step)
	}
	return nil
}

// ValidateDraft checks every step.
func ValidateDraft(draft domain.ReportDraft) error {
	for step := 1; step <= ReportSteps; step++ {
		if err := ValidateStep(draft, step); err != nil {
			return err
		}
	}
	return nil
}

// Submit validates and stores a report. The returned Submission is never left in the
// Submitting state: it ends as Submitted or Failed.
func (s *ReportService) Submit(ctx context.Context, draft domain.ReportDraft) (Submission, error) {
	sub := Submission{State: SubmissionSubmitting}
	if err := ValidateDraft(draft); err != nil {
		sub.State = SubmissionFailed
		sub.Error = err.Error()
		return sub, err
	}

	code, err := trackingCode()
	if err != nil {
		sub.State = SubmissionFailed
		sub.Error = err.Error()
		return sub, err
	}
	report := domain.Report{
		ID:            uuid.NewString(),
		TrackingCode:  code,
		ScamType:      draft.ScamType,
		Description:   strings.TrimSpace(draft.Description),
		InfoShared:    draft.InfoShared,
		ContactMethod: draft.ContactMethod,
		EvidenceName:  draft.EvidenceName,
		Status:        domain.ReportSubmitted,
		SubmittedAt:   s.now().UTC(),
	}
	if err := s.store.InsertReport(ctx, report); err != nil {
		s.logger.Warn("report submission failed", zap.Error(err))
		sub.State = SubmissionFailed
		sub.Error = "report could not be stored, please retry"
		return sub, fmt.Errorf("%w: insert report: %w", domain.ErrPersistenceFailure, err)
	}

	s.logger.Info("report submitted",
		zap.String("tracking", report.TrackingCode), zap.String("type", string(report.ScamType)))
	sub.State = SubmissionSubmitted
	sub.Report = &report
	return sub, nil
}

// Recent lists the newest reports, capped at 50.
func (s *ReportService) Recent(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	reports, err := s.store.RecentReports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent reports: %w", domain.ErrPersistenceFailure, err)
	}
	return reports, nil
}

const (
	letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
)

// trackingCode returns a code shaped like ABCD-1234-EFGH.
func trackingCode() (string, error) {
	var b strings.Builder
	for i, group := range []string{letters, digits, letters} {
		if i > 0 {
			b.WriteByte('-')
		}
		for j := 0; j < 4; j++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(group))))
			if err != nil {
				return "", fmt.Errorf("tracking code: %w", err)
			}
			b.WriteByte(group[n.Int64()])
		}
	}
	return b.String(), nil
}
