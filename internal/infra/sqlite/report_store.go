package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"scamslayer-service/internal/domain"
)

type reportRow struct {
	ID            string    `db:"id"`
	TrackingCode  string    `db:"tracking_code"`
	ScamType      string    `db:"scam_type"`
	Description   string    `db:"description"`
	InfoShared    string    `db:"info_shared"`
	ContactMethod string    `db:"contact_method"`
	EvidenceName  string    `db:"evidence_name"`
	Status        string    `db:"status"`
	SubmittedAt   time.Time `db:"submitted_at"`
}

// ReportStore keeps anonymous reports next to the ledger tables.
type ReportStore struct {
	db *sqlx.DB
}

func NewReportStore(db *sqlx.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) InsertReport(ctx context.Context, r domain.Report) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO scam_reports (id, tracking_code, scam_type, description, info_shared, contact_method, evidence_name, status, submitted_at)
		VALUES (:id, :tracking_code, :scam_type, :description, :info_shared, :contact_method, :evidence_name, :status, :submitted_at)`,
		reportRow{
			ID:            r.ID,
			TrackingCode:  r.TrackingCode,
			ScamType:      string(r.ScamType),
			Description:   r.Description,
			InfoShared:    string(r.InfoShared),
			ContactMethod: string(r.ContactMethod),
			EvidenceName:  r.EvidenceName,
			Status:        string(r.Status),
			SubmittedAt:   stamp(r.SubmittedAt),
		})
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *ReportStore) RecentReports(ctx context.Context, limit int) ([]domain.Report, error) {
	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM scam_reports ORDER BY submitted_at DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}
	out := make([]domain.Report, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Report{
			ID:            r.ID,
			TrackingCode:  r.TrackingCode,
			ScamType:      domain.ScamType(r.ScamType),
			Description:   r.Description,
			InfoShared:    domain.InfoShared(r.InfoShared),
			ContactMethod: domain.ContactMethod(r.ContactMethod),
			EvidenceName:  r.EvidenceName,
			Status:        domain.ReportStatus(r.Status),
			SubmittedAt:   r.SubmittedAt,
		})
	}
	return out, nil
}
