package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scamslayer-service/internal/domain"
)

// Ledger is the persisted record of profiles, completions and badges.
// Each call may fail independently; no atomicity across calls is assumed.
type Ledger interface {
	// GetProfile returns domain.ErrProfileNotFound when the user has no profile yet.
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	UpsertProfile(ctx context.Context, profile domain.Profile) error
	HasCompletion(ctx context.Context, userID string, scenarioID int) (bool, error)
	// InsertCompletion returns domain.ErrAlreadyCompleted if the pair already exists.
	InsertCompletion(ctx context.Context, record domain.CompletionRecord) error
	HasBadge(ctx context.Context, userID string, badge domain.BadgeKind) (bool, error)
	// InsertBadge is a no-op when the award already exists.
	InsertBadge(ctx context.Context, award domain.BadgeAward) error
	ListCompletions(ctx context.Context, userID string) ([]domain.CompletionRecord, error)
	ListBadges(ctx context.Context, userID string) ([]domain.BadgeAward, error)
}

// Transactor is implemented by ledgers that can apply several writes atomically.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Ledger) error) error
}

// CompletionReverter is implemented by ledgers that can undo a completion's writes.
// A ledger without transactions must implement it.
type CompletionReverter interface {
	DeleteCompletion(ctx context.Context, userID string, scenarioID int) error
	DeleteBadge(ctx context.Context, userID string, badge domain.BadgeKind) error
}

// ErrUnsupportedLedger is returned for a ledger that can neither transact nor revert.
var ErrUnsupportedLedger = errors.New("ledger supports neither transactions nor reverting completions")

// CompletionGuard serialises completions per key across callers (and instances, for shared backends).
type CompletionGuard interface {
	// Acquire returns domain.ErrCompletionInFlight while the key is held.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Outcome is what a completion produced, for display.
type Outcome struct {
	Profile          domain.Profile           `json:"profile"`
	Progress         LevelProgress            `json:"progress"`
	NewBadges        []domain.BadgeInfo       `json:"newBadges"`
	Completion       *domain.CompletionRecord `json:"completion,omitempty"`
	AlreadyCompleted bool                     `json:"alreadyCompleted"`
	LeveledUp        bool                     `json:"leveledUp"`
}

// ProgressionOptions tunes retries of the writes that follow the completion record.
type ProgressionOptions struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultProgressionOptions retries each write three times starting at 100ms.
func DefaultProgressionOptions() ProgressionOptions {
	return ProgressionOptions{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// ProgressionService turns a scored scenario into XP, level and badge changes, once per user and scenario.
type ProgressionService struct {
	ledger Ledger
	guard  CompletionGuard
	opts   ProgressionOptions
	logger *zap.Logger
	now    func() time.Time
}

func NewProgressionService(ledger Ledger, guard CompletionGuard, opts ProgressionOptions, logger *zap.Logger) *ProgressionService {
	return NewProgressionServiceWithClock(ledger, guard, opts, logger, time.Now)
}

// NewProgressionServiceWithClock is test-only for deterministic timestamps.
func NewProgressionServiceWithClock(ledger Ledger, guard CompletionGuard, opts ProgressionOptions, logger *zap.Logger, now func() time.Time) *ProgressionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressionService{ledger: ledger, guard: guard, opts: opts, logger: logger, now: now}
}

// ApplyCompletion records the completion and awards XP and badges.
//
// The completion record is written first and acts as the idempotency marker, so a
// re-driven call after a failure can never award XP twice. When the ledger supports
// transactions all writes commit together; otherwise the writes after the marker are
// retried with backoff and, if they still fail, the marker and any badge this call
// granted are reverted so a later call can apply the completion cleanly.
func (p *ProgressionService) ApplyCompletion(ctx context.Context, userID string, scenario domain.Scenario, score domain.Score) (Outcome, error) {
	if userID == "" {
		return Outcome{}, domain.ErrAuthenticationRequired
	}
	if score.Total <= 0 {
		return Outcome{}, fmt.Errorf("%w: empty score for scenario %d", domain.ErrInvalidScenario, scenario.ID)
	}
	tx, transactional := p.ledger.(Transactor)
	if _, ok := p.ledger.(CompletionReverter); !transactional && !ok {
		return Outcome{}, ErrUnsupportedLedger
	}

	if p.guard != nil {
		release, err := p.guard.Acquire(ctx, completionKey(userID, scenario.ID))
		if err != nil {
			if errors.Is(err, domain.ErrCompletionInFlight) {
				return Outcome{}, err
			}
			return Outcome{}, persistenceErr("acquire completion guard", err)
		}
		defer release()
	}

	var (
		out Outcome
		err error
	)
	if transactional {
		txErr := tx.InTx(ctx, func(ctx context.Context, l Ledger) error {
			out, err = p.apply(ctx, l, userID, scenario, score, false)
			return err
		})
		if err == nil && txErr != nil {
			err = persistenceErr("commit", txErr)
		}
	} else {
		out, err = p.apply(ctx, p.ledger, userID, scenario, score, true)
	}

	switch {
	case errors.Is(err, domain.ErrAlreadyCompleted):
		p.logger.Info("completion already recorded",
			zap.String("user", userID), zap.Int("scenario", scenario.ID))
		return out, err
	case err != nil:
		p.logger.Warn("apply completion failed",
			zap.String("user", userID), zap.Int("scenario", scenario.ID), zap.Error(err))
		return Outcome{}, err
	}

	p.logger.Info("completion applied",
		zap.String("user", userID),
		zap.Int("scenario", scenario.ID),
		zap.Int("score", score.Percentage),
		zap.Int("xp", out.Profile.XP),
		zap.Int("level", out.Profile.Level),
		zap.Int("badges", len(out.NewBadges)))
	return out, nil
}

func (p *ProgressionService) apply(ctx context.Context, l Ledger, userID string, scenario domain.Scenario, score domain.Score, retry bool) (Outcome, error) {
	done, err := l.HasCompletion(ctx, userID, scenario.ID)
	if err != nil {
		return Outcome{}, persistenceErr("check completion", err)
	}
	profile, err := loadProfile(ctx, l, userID)
	if err != nil {
		return Outcome{}, err
	}
	if done {
		return alreadyCompleted(profile), domain.ErrAlreadyCompleted
	}

	// Microsecond precision survives every ledger, so a written profile can be recognised on read-back.
	now := p.now().UTC().Truncate(time.Microsecond)
	next := domain.Profile{
		UserID:    userID,
		XP:        profile.XP + scenario.XPReward,
		UpdatedAt: now,
	}
	next.Level = LevelForXP(next.XP)

	var award *domain.BadgeAward
	if qualifiesForBadge(scenario, score) {
		has, err := l.HasBadge(ctx, userID, scenario.Badge)
		if err != nil {
			return Outcome{}, persistenceErr("check badge", err)
		}
		if !has {
			award = &domain.BadgeAward{UserID: userID, Badge: scenario.Badge, EarnedAt: now}
		}
	}

	record := domain.CompletionRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		ScenarioID:  scenario.ID,
		Score:       score.Percentage,
		CompletedAt: now,
	}
	if err := l.InsertCompletion(ctx, record); err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			return alreadyCompleted(profile), err
		}
		return Outcome{}, persistenceErr("insert completion", err)
	}

	out := Outcome{
		Profile:    next,
		Progress:   ProgressFor(next.XP),
		NewBadges:  []domain.BadgeInfo{},
		Completion: &record,
		LeveledUp:  next.Level > profile.Level,
	}
	// Badge before profile: the badge insert is idempotent, the XP write is not,
	// so the profile upsert is the last write and the one that commits the award.
	if award != nil {
		if err := p.withRetry(ctx, retry, func() error { return l.InsertBadge(ctx, *award) }); err != nil {
			if retry {
				p.revert(ctx, l, record, award)
			}
			return Outcome{}, persistenceErr("insert badge", err)
		}
		out.NewBadges = append(out.NewBadges, award.Badge.Info())
	}
	if err := p.withRetry(ctx, retry, func() error { return l.UpsertProfile(ctx, next) }); err != nil {
		if !retry {
			return Outcome{}, persistenceErr("upsert profile", err)
		}
		landed, checkErr := p.profileLanded(ctx, l, next)
		switch {
		case checkErr != nil:
			p.logger.Error("profile write outcome unknown; keeping completion marker",
				zap.String("user", userID), zap.Int("scenario", scenario.ID), zap.Error(checkErr))
		case landed:
			p.logger.Warn("profile write reported failure but was stored",
				zap.String("user", userID), zap.Int("scenario", scenario.ID), zap.Error(err))
			return out, nil
		default:
			p.revert(ctx, l, record, award)
		}
		return Outcome{}, persistenceErr("upsert profile", err)
	}
	return out, nil
}

// profileLanded reads the profile back to tell a failed write from one that was stored
// but reported an error.
func (p *ProgressionService) profileLanded(ctx context.Context, l Ledger, want domain.Profile) (bool, error) {
	ctx = context.WithoutCancel(ctx)
	var got domain.Profile
	err := p.withRetry(ctx, true, func() error {
		var err error
		got, err = l.GetProfile(ctx, want.UserID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			got = domain.Profile{}
			return nil
		}
		return err
	})
	if err != nil {
		return false, err
	}
	return got.XP == want.XP && got.UpdatedAt.Equal(want.UpdatedAt), nil
}

// revert undoes a non-transactional completion: the badge this call granted, then the
// marker, so a later call can apply the completion again.
func (p *ProgressionService) revert(ctx context.Context, l Ledger, record domain.CompletionRecord, award *domain.BadgeAward) {
	r, ok := l.(CompletionReverter)
	if !ok {
		return
	}
	ctx = context.WithoutCancel(ctx)
	fields := []zap.Field{zap.String("user", record.UserID), zap.Int("scenario", record.ScenarioID)}
	if award != nil {
		err := p.withRetry(ctx, true, func() error { return r.DeleteBadge(ctx, award.UserID, award.Badge) })
		if err != nil {
			// A badge left behind is skipped by the re-drive; a marker left behind would lose the XP.
			p.logger.Error("failed to revert badge award", append(fields, zap.Error(err))...)
		}
	}
	err := p.withRetry(ctx, true, func() error { return r.DeleteCompletion(ctx, record.UserID, record.ScenarioID) })
	if err != nil {
		p.logger.Error("failed to revert completion marker", append(fields, zap.Error(err))...)
	}
}

func (p *ProgressionService) withRetry(ctx context.Context, retry bool, op func() error) error {
	if !retry {
		return op()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.InitialInterval
	if p.opts.MaxInterval > 0 {
		b.MaxInterval = p.opts.MaxInterval
	}
	b.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, p.opts.MaxRetries), ctx))
}

// ProfileSummary is a user's profile with earned badges and completed scenarios.
type ProfileSummary struct {
	Profile     domain.Profile            `json:"profile"`
	Progress    LevelProgress             `json:"progress"`
	Badges      []domain.BadgeInfo        `json:"badges"`
	Completions []domain.CompletionRecord `json:"completions"`
}

// Summary loads the profile, badges and completions concurrently.
func (p *ProgressionService) Summary(ctx context.Context, userID string) (ProfileSummary, error) {
	if userID == "" {
		return ProfileSummary{}, domain.ErrAuthenticationRequired
	}

	var (
		profile     domain.Profile
		awards      []domain.BadgeAward
		completions []domain.CompletionRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = loadProfile(gctx, p.ledger, userID)
		return err
	})
	g.Go(func() error {
		var err error
		awards, err = p.ledger.ListBadges(gctx, userID)
		if err != nil {
			return persistenceErr("list badges", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		completions, err = p.ledger.ListCompletions(gctx, userID)
		if err != nil {
			return persistenceErr("list completions", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ProfileSummary{}, err
	}

	badges := make([]domain.BadgeInfo, 0, len(awards))
	for _, a := range awards {
		badges = append(badges, a.Badge.Info())
	}
	if completions == nil {
		completions = []domain.CompletionRecord{}
	}
	return ProfileSummary{
		Profile:     profile,
		Progress:    ProgressFor(profile.XP),
		Badges:      badges,
		Completions: completions,
	}, nil
}

func loadProfile(ctx context.Context, l Ledger, userID string) (domain.Profile, error) {
	profile, err := l.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{UserID: userID, XP: 0, Level: 1}, nil
	}
	if err != nil {
		return domain.Profile{}, persistenceErr("get profile", err)
	}
	if profile.Level < 1 {
		profile.Level = LevelForXP(profile.XP)
	}
	return profile, nil
}

func alreadyCompleted(profile domain.Profile) Outcome {
	return Outcome{
		Profile:          profile,
		Progress:         ProgressFor(profile.XP),
		NewBadges:        []domain.BadgeInfo{},
		AlreadyCompleted: true,
	}
}

func qualifiesForBadge(scenario domain.Scenario, score domain.Score) bool {
	return scenario.Badge != domain.BadgeNone && score.Percentage >= scenario.RequiredScoreForBadge
}

func completionKey(userID string, scenarioID int) string {
	return userID + ":" + strconv.Itoa(scenarioID)
}

func persistenceErr(op string, err error) error {
	if errors.Is(err, domain.ErrPersistenceFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistenceFailure, op, err)
}
