package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamslayer-service/internal/domain"
)

func TestReportStoreRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewReportStore(openTestDB(t))
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, code := range []string{"AAAA-0001-AAAA", "BBBB-0002-BBBB", "CCCC-0003-CCCC"} {
		require.NoError(t, store.InsertReport(ctx, domain.Report{
			ID:            code,
			TrackingCode:  code,
			ScamType:      domain.ScamPhishing,
			Description:   "a message asked me to confirm my bank password",
			InfoShared:    domain.InfoLogin,
			ContactMethod: domain.ContactEmail,
			Status:        domain.ReportSubmitted,
			SubmittedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	recent, err := store.RecentReports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "CCCC-0003-CCCC", recent[0].TrackingCode)
	assert.Equal(t, "BBBB-0002-BBBB", recent[1].TrackingCode)
	assert.Equal(t, domain.ContactEmail, recent[0].ContactMethod)
}
