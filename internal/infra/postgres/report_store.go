package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"scamslayer-service/internal/domain"
)

type reportRow struct {
	bun.BaseModel `bun:"table:scam_reports"`

	ID            string    `bun:"id,pk,type:uuid"`
	TrackingCode  string    `bun:"tracking_code,notnull"`
	ScamType      string    `bun:"scam_type,notnull"`
	Description   string    `bun:"description,notnull"`
	InfoShared    string    `bun:"info_shared,notnull"`
	ContactMethod string    `bun:"contact_method,notnull"`
	EvidenceName  string    `bun:"evidence_name,notnull"`
	Status        string    `bun:"status,notnull"`
	SubmittedAt   time.Time `bun:"submitted_at,notnull"`
}

func toReportRow(r domain.Report) *reportRow {
	return &reportRow{
		ID:            r.ID,
		TrackingCode:  r.TrackingCode,
		ScamType:      string(r.ScamType),
		Description:   r.Description,
		InfoShared:    string(r.InfoShared),
		ContactMethod: string(r.ContactMethod),
		EvidenceName:  r.EvidenceName,
		Status:        string(r.Status),
		SubmittedAt:   r.SubmittedAt,
	}
}

func (row reportRow) report() domain.Report {
	return domain.Report{
		ID:            row.ID,
		TrackingCode:  row.TrackingCode,
		ScamType:      domain.ScamType(row.ScamType),
		Description:   row.Description,
		InfoShared:    domain.InfoShared(row.InfoShared),
		ContactMethod: domain.ContactMethod(row.ContactMethod),
		EvidenceName:  row.EvidenceName,
		Status:        domain.ReportStatus(row.Status),
		SubmittedAt:   row.SubmittedAt,
	}
}

// ReportStore keeps anonymous reports in the scam_reports table.
type ReportStore struct {
	db *bun.DB
}

func NewReportStore(db *bun.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) InsertReport(ctx context.Context, report domain.Report) error {
	if _, err := s.db.NewInsert().Model(toReportRow(report)).Exec(ctx); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *ReportStore) RecentReports(ctx context.Context, limit int) ([]domain.Report, error) {
	var rows []reportRow
	err := s.db.NewSelect().
		Model(&rows).
		Order("submitted_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}
	out := make([]domain.Report, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.report())
	}
	return out, nil
}
