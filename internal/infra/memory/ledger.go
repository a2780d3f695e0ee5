package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/domain"
)

// Ledger is an in-memory app.Ledger. InTx stages writes on a copy and swaps it in on success.
type Ledger struct {
	mu    sync.Mutex
	state ledgerState
}

type ledgerState struct {
	profiles    map[string]domain.Profile
	completions map[string]domain.CompletionRecord
	badges      map[string]domain.BadgeAward
}

func newLedgerState() ledgerState {
	return ledgerState{
		profiles:    make(map[string]domain.Profile),
		completions: make(map[string]domain.CompletionRecord),
		badges:      make(map[string]domain.BadgeAward),
	}
}

func (s ledgerState) clone() ledgerState {
	out := newLedgerState()
	for k, v := range s.profiles {
		out.profiles[k] = v
	}
	for k, v := range s.completions {
		out.completions[k] = v
	}
	for k, v := range s.badges {
		out.badges[k] = v
	}
	return out
}

func NewLedger() *Ledger {
	return &Ledger{state: newLedgerState()}
}

var (
	_ app.Ledger             = (*Ledger)(nil)
	_ app.Transactor         = (*Ledger)(nil)
	_ app.CompletionReverter = (*Ledger)(nil)
)

func (l *Ledger) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return stateView{&l.state}.GetProfile(ctx, userID)
}

func (l *Ledger) UpsertProfile(ctx context.Context, profile domain.Profile) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return stateView{&l.state}.UpsertProfile(ctx, profile)
}

func (l *Ledger) HasCompletion(ctx context.Context, userID string, scenarioID int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return stateView{&l.state}.HasCompletion(ctx, userID, scenarioID)
}

func (l *Ledger) InsertCompletion(ctx context.Context, record domain.CompletionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return stateView{&l.state}.InsertCompletion(ctx, record)
}

func (l *Ledger) HasBadge(ctx context.Context, userID string, badge domain.BadgeKind) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return stateView{&l.state}.HasBadge(ctx, userID, badge)
}

func (l *Ledger) InsertBadge(ctx context.Context, award domain.BadgeAward) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return stateView{&l.state}.InsertBadge(ctx, award)
}

func (l *Ledger) ListCompletions(ctx context.Context, userID string) ([]domain.CompletionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return stateView{&l.state}.ListCompletions(ctx, userID)
}

func (l *Ledger) ListBadges(ctx context.Context, userID string) ([]domain.BadgeAward, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return stateView{&l.state}.ListBadges(ctx, userID)
}

func (l *Ledger) DeleteCompletion(_ context.Context, userID string, scenarioID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.state.completions, completionID(userID, scenarioID))
	return nil
}

func (l *Ledger) DeleteBadge(_ context.Context, userID string, badge domain.BadgeKind) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.state.badges, badgeID(userID, badge))
	return nil
}

// InTx runs fn against a staged copy. The ledger is locked for the duration.
func (l *Ledger) InTx(ctx context.Context, fn func(ctx context.Context, tx app.Ledger) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	staged := l.state.clone()
	if err := fn(ctx, stateView{&staged}); err != nil {
		return err
	}
	l.state = staged
	return nil
}

// stateView implements app.Ledger over a state without locking.
type stateView struct {
	s *ledgerState
}

func completionID(userID string, scenarioID int) string {
	return userID + "/" + strconv.Itoa(scenarioID)
}

func badgeID(userID string, badge domain.BadgeKind) string {
	return userID + "/" + strconv.Itoa(int(badge))
}

func (v stateView) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	p, ok := v.s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (v stateView) UpsertProfile(_ context.Context, profile domain.Profile) error {
	v.s.profiles[profile.UserID] = profile
	return nil
}

func (v stateView) HasCompletion(_ context.Context, userID string, scenarioID int) (bool, error) {
	_, ok := v.s.completions[completionID(userID, scenarioID)]
	return ok, nil
}

func (v stateView) InsertCompletion(_ context.Context, record domain.CompletionRecord) error {
	key := completionID(record.UserID, record.ScenarioID)
	if _, ok := v.s.completions[key]; ok {
		return domain.ErrAlreadyCompleted
	}
	v.s.completions[key] = record
	return nil
}

func (v stateView) HasBadge(_ context.Context, userID string, badge domain.BadgeKind) (bool, error) {
	_, ok := v.s.badges[badgeID(userID, badge)]
	return ok, nil
}

func (v stateView) InsertBadge(_ context.Context, award domain.BadgeAward) error {
	key := badgeID(award.UserID, award.Badge)
	if _, ok := v.s.badges[key]; ok {
		return nil
	}
	v.s.badges[key] = award
	return nil
}

func (v stateView) ListCompletions(_ context.Context, userID string) ([]domain.CompletionRecord, error) {
	out := []domain.CompletionRecord{}
	for _, rec := range v.s.completions {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScenarioID < out[j].ScenarioID })
	return out, nil
}

func (v stateView) ListBadges(_ context.Context, userID string) ([]domain.BadgeAward, error) {
	out := []domain.BadgeAward{}
	for _, award := range v.s.badges {
		if award.UserID == userID {
			out = append(out, award)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Badge < out[j].Badge })
	return out, nil
}
