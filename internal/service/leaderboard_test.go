package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cat-endurance/internal/config"
	"cat-endurance/internal/constants"
	"cat-endurance/internal/database"
	"cat-endurance/internal/db"
	"cat-endurance/internal/domain"
	"cat-endurance/internal/ranking"
	"cat-endurance/internal/repository"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *repository.RankingRepository {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "leaderboard.db")}
	sqlDB, err := database.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("database.New() error: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return repository.NewRankingRepository(sqlDB, db.New(sqlDB), zerolog.Nop())
}

func newTestService(t *testing.T, store ranking.Store) *LeaderboardService {
	t.Helper()
	svc := NewLeaderboardService(store, &config.Config{}, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func newRecord(id string, duration float64, continent string) domain.ScoreRecord {
	return domain.ScoreRecord{
		PlayerID:          id,
		PlayerName:        "name-" + id,
		CatAvatarID:       "1",
		ContinentID:       continent,
		EnduranceDuration: duration,
	}
}

func mustSubmit(t *testing.T, svc *LeaderboardService, rec domain.ScoreRecord) *domain.SubmitResult {
	t.Helper()
	result, err := svc.SubmitScore(context.Background(), rec)
	if err != nil {
		t.Fatalf("SubmitScore(%s) error: %v", rec.PlayerID, err)
	}
	return result
}

func TestSubmitScore_ReturnsRank(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	mustSubmit(t, svc, newRecord("a", 100, "EU"))
	got := mustSubmit(t, svc, newRecord("b", 150, "AS"))

	want := &domain.SubmitResult{
		Success:           true,
		Rank:              1,
		EnduranceDuration: 150,
		Message:           "Score submitted successfully. Current rank: 1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SubmitScore() mismatch (-want +got):\n%s", diff)
	}

	if rank := svc.PlayerRank(context.Background(), "a"); rank != 2 {
		t.Errorf("PlayerRank(a) = %d, want 2", rank)
	}
}

func TestSubmitScore_StampsCompletedAt(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	rec := newRecord("a", 10, "EU")
	rec.CompletedAt = 42
	mustSubmit(t, svc, rec)

	best := svc.PlayerBest(context.Background(), "a")
	if best == nil {
		t.Fatal("PlayerBest() = nil")
	}
	if best.CompletedAt != fixedNow.UnixMilli() {
		t.Errorf("CompletedAt = %d, want %d", best.CompletedAt, fixedNow.UnixMilli())
	}
}

func TestSubmitScore_Validation(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	tests := []struct {
		name  string
		edit  func(*domain.ScoreRecord)
		field string
	}{
		{"missing player id", func(r *domain.ScoreRecord) { r.PlayerID = "" }, "playerId"},
		{"missing player name", func(r *domain.ScoreRecord) { r.PlayerName = " " }, "playerName"},
		{"missing continent", func(r *domain.ScoreRecord) { r.ContinentID = "" }, "continentId"},
		{"missing cat", func(r *domain.ScoreRecord) { r.CatAvatarID = "" }, "catAvatarId"},
		{"negative duration", func(r *domain.ScoreRecord) { r.EnduranceDuration = -1 }, "enduranceDuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord("p", 10, "EU")
			tt.edit(&rec)

			_, err := svc.SubmitScore(context.Background(), rec)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("SubmitScore() error = %v, want ErrValidation", err)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("ValidationError field = %v, want %q", vErr, tt.field)
			}
		})
	}

	if card, _ := svc.store.ZCard(context.Background(), constants.LeaderboardKey); card != 0 {
		t.Errorf("rejected submissions were indexed: ZCard = %d", card)
	}
}

func TestSubmitScore_ResubmitOverwrites(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	mustSubmit(t, svc, newRecord("p1", 50, "EU"))
	mustSubmit(t, svc, newRecord("p1", 80, "EU"))

	best := svc.PlayerBest(ctx, "p1")
	if best == nil || best.EnduranceDuration != 80 {
		t.Fatalf("PlayerBest() = %+v, want duration 80", best)
	}
	card, err := store.ZCard(ctx, constants.LeaderboardKey)
	if err != nil {
		t.Fatalf("ZCard() error: %v", err)
	}
	if card != 1 {
		t.Errorf("ZCard() = %d, want 1", card)
	}
}

func TestSubmitScore_LowerResubmitStillOverwrites(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	mustSubmit(t, svc, newRecord("p1", 80, "EU"))
	mustSubmit(t, svc, newRecord("p1", 20, "EU"))

	if best := svc.PlayerBest(context.Background(), "p1"); best == nil || best.EnduranceDuration != 20 {
		t.Errorf("PlayerBest() = %+v, want latest duration 20", best)
	}
}

func TestPlayerRank_Ties(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	ctx := context.Background()

	mustSubmit(t, svc, newRecord("a", 200, "EU"))
	mustSubmit(t, svc, newRecord("b", 100, "EU"))
	mustSubmit(t, svc, newRecord("c", 100, "EU"))
	mustSubmit(t, svc, newRecord("d", 50, "EU"))

	want := map[string]int{"a": 1, "b": 2, "c": 2, "d": 4, "zzz": -1}
	for id, wantRank := range want {
		if got := svc.PlayerRank(ctx, id); got != wantRank {
			t.Errorf("PlayerRank(%s) = %d, want %d", id, got, wantRank)
		}
	}
}

func TestLeaderboard_TopN(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	mustSubmit(t, svc, newRecord("p120", 120, "NA"))
	mustSubmit(t, svc, newRecord("p180", 180, "AS"))
	mustSubmit(t, svc, newRecord("p150", 150, "EU"))

	data := svc.Leaderboard(context.Background(), 2, "")

	var ranks []int
	var durations []float64
	for _, e := range data.Entries {
		ranks = append(ranks, e.Rank)
		durations = append(durations, e.EnduranceDuration)
	}
	if diff := cmp.Diff([]int{1, 2}, ranks); diff != "" {
		t.Errorf("ranks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{180, 150}, durations); diff != "" {
		t.Errorf("durations mismatch (-want +got):\n%s", diff)
	}
	if data.TotalPlayers != 3 {
		t.Errorf("TotalPlayers = %d, want 3", data.TotalPlayers)
	}
	if data.LastUpdated != fixedNow.UnixMilli() {
		t.Errorf("LastUpdated = %d, want %d", data.LastUpdated, fixedNow.UnixMilli())
	}
}

func TestLeaderboard_DefaultLimit(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	svc.defaultLimit = 2

	for i := 0; i < 4; i++ {
		mustSubmit(t, svc, newRecord(fmt.Sprintf("p%d", i), float64(i), "EU"))
	}

	if got := len(svc.Leaderboard(context.Background(), 0, "").Entries); got != 2 {
		t.Errorf("len(Entries) = %d, want default limit 2", got)
	}
}

func TestLeaderboard_ContinentFilter(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	mustSubmit(t, svc, newRecord("as1", 300, "AS"))
	mustSubmit(t, svc, newRecord("eu1", 250, "EU"))
	mustSubmit(t, svc, newRecord("as2", 200, "AS"))
	mustSubmit(t, svc, newRecord("eu2", 150, "EU"))
	mustSubmit(t, svc, newRecord("eu3", 100, "EU"))

	data := svc.Leaderboard(context.Background(), 100, "EU")

	if data.ContinentID != "EU" {
		t.Errorf("ContinentID = %q, want EU", data.ContinentID)
	}
	var ids []string
	for i, e := range data.Entries {
		if e.ContinentID != "EU" {
			t.Errorf("entry %s has continent %s", e.PlayerID, e.ContinentID)
		}
		if e.Rank != i+1 {
			t.Errorf("entry %s rank = %d, want %d", e.PlayerID, e.Rank, i+1)
		}
		ids = append(ids, e.PlayerID)
	}
	if diff := cmp.Diff([]string{"eu1", "eu2", "eu3"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if data.TotalPlayers != 3 {
		t.Errorf("TotalPlayers = %d, want filtered count 3", data.TotalPlayers)
	}
}

func TestLeaderboard_FilterDoesNotBackfill(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	mustSubmit(t, svc, newRecord("as1", 300, "AS"))
	mustSubmit(t, svc, newRecord("as2", 250, "AS"))
	mustSubmit(t, svc, newRecord("eu1", 100, "EU"))

	data := svc.Leaderboard(context.Background(), 2, "EU")
	if len(data.Entries) != 0 {
		t.Errorf("len(Entries) = %d, want 0 (EU player sits outside the top 2 window)", len(data.Entries))
	}
}

func TestLeaderboard_SkipsAndPurgesCorruptRecords(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	mustSubmit(t, svc, newRecord("good", 100, "EU"))
	if err := store.HSet(ctx, constants.PlayerScoresKey, "synthetic", "{not json"); err != nil {
		t.Fatalf("HSet() error: %v", err)
	}
	if err := store.ZAdd(ctx, constants.LeaderboardKey, "synthetic", 500); err != nil {
		t.Fatalf("ZAdd() error: %v", err)
	}

	data := svc.Leaderboard(ctx, 10, "")
	if len(data.Entries) != 1 || data.Entries[0].PlayerID != "good" || data.Entries[0].Rank != 1 {
		t.Fatalf("Entries = %+v, want only the good record at rank 1", data.Entries)
	}
	if _, ok, _ := store.HGet(ctx, constants.PlayerScoresKey, "synthetic"); ok {
		t.Error("corrupt hash record was not purged")
	}
}

func TestLeaderboard_StoreErrorYieldsEmpty(t *testing.T) {
	svc := newTestService(t, &failingStore{err: errors.New("store down")})

	data := svc.Leaderboard(context.Background(), 10, "AS")
	if data.Entries == nil || len(data.Entries) != 0 {
		t.Errorf("Entries = %#v, want empty non-nil slice", data.Entries)
	}
	if data.TotalPlayers != 0 || data.ContinentID != "AS" {
		t.Errorf("data = %+v, want zero totals for AS", data)
	}
}

func TestContinentStats(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	mustSubmit(t, svc, newRecord("e1", 1, "EU"))
	mustSubmit(t, svc, newRecord("e2", 2, "EU"))
	mustSubmit(t, svc, newRecord("n1", 3, "NA"))
	mustSubmit(t, svc, newRecord("a1", 4, "AS"))
	mustSubmit(t, svc, newRecord("x1", 5, "XX"))
	if err := store.HSet(ctx, constants.PlayerScoresKey, "broken", "null"); err != nil {
		t.Fatalf("HSet() error: %v", err)
	}

	got := svc.ContinentStats(ctx)
	want := []domain.ContinentStats{
		{ContinentID: "EU", ContinentName: "Europe", PlayerCount: 2, Flag: "🌍"},
		{ContinentID: "AS", ContinentName: "Asia", PlayerCount: 1, Flag: "🌏"},
		{ContinentID: "NA", ContinentName: "North America", PlayerCount: 1, Flag: "🌎"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ContinentStats() mismatch (-want +got):\n%s", diff)
	}
	if _, ok, _ := store.HGet(ctx, constants.PlayerScoresKey, "broken"); ok {
		t.Error("corrupt record survived ContinentStats")
	}
}

func TestContinentStats_StoreError(t *testing.T) {
	svc := newTestService(t, &failingStore{err: errors.New("store down")})
	if got := svc.ContinentStats(context.Background()); got == nil || len(got) != 0 {
		t.Errorf("ContinentStats() = %#v, want empty slice", got)
	}
}

func TestPlayerBest_NotFound(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	if got := svc.PlayerBest(context.Background(), "ghost"); got != nil {
		t.Errorf("PlayerBest() = %+v, want nil", got)
	}
}

func TestCleanupLeaderboard_KeepsTopThousand(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	err := store.Atomic(ctx, func(tx ranking.Store) error {
		for i := 1; i <= 1005; i++ {
			id := fmt.Sprintf("p%04d", i)
			if err := tx.HSet(ctx, constants.PlayerScoresKey, id, `{"playerId":"`+id+`"}`); err != nil {
				return err
			}
			if err := tx.ZAdd(ctx, constants.LeaderboardKey, id, float64(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding error: %v", err)
	}

	removed, err := svc.CleanupLeaderboard(ctx)
	if err != nil {
		t.Fatalf("CleanupLeaderboard() error: %v", err)
	}
	if removed != 5 {
		t.Errorf("removed = %d, want 5", removed)
	}

	card, _ := store.ZCard(ctx, constants.LeaderboardKey)
	if card != 1000 {
		t.Errorf("ZCard() = %d, want 1000", card)
	}
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("p%04d", i)
		if _, ok, _ := store.ZScore(ctx, constants.LeaderboardKey, id); ok {
			t.Errorf("%s should have been pruned", id)
		}
		if _, ok, _ := store.HGet(ctx, constants.PlayerScoresKey, id); ok {
			t.Errorf("%s record should have been pruned", id)
		}
	}
	if _, ok, _ := store.ZScore(ctx, constants.LeaderboardKey, "p0006"); !ok {
		t.Error("p0006 should have been kept")
	}

	removed, err = svc.CleanupLeaderboard(ctx)
	if err != nil || removed != 0 {
		t.Errorf("second CleanupLeaderboard() = %d, %v, want 0, nil", removed, err)
	}
}

func TestCleanupCorruptedData(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	mustSubmit(t, svc, newRecord("good", 10, "EU"))
	if err := store.HSet(ctx, constants.PlayerScoresKey, "bad", "]]"); err != nil {
		t.Fatalf("HSet() error: %v", err)
	}
	if err := store.ZAdd(ctx, constants.LeaderboardKey, "bad", 99); err != nil {
		t.Fatalf("ZAdd() error: %v", err)
	}

	removed, err := svc.CleanupCorruptedData(ctx)
	if err != nil {
		t.Fatalf("CleanupCorruptedData() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok, _ := store.HGet(ctx, constants.PlayerScoresKey, "bad"); ok {
		t.Error("corrupt record still in hash")
	}
	if _, ok, _ := store.ZScore(ctx, constants.LeaderboardKey, "bad"); ok {
		t.Error("corrupt record still in index")
	}
	if _, ok, _ := store.HGet(ctx, constants.PlayerScoresKey, "good"); !ok {
		t.Error("good record was removed")
	}

	removed, err = svc.CleanupCorruptedData(ctx)
	if err != nil || removed != 0 {
		t.Errorf("second CleanupCorruptedData() = %d, %v, want 0, nil", removed, err)
	}
}

func TestReconcile(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	mustSubmit(t, svc, newRecord("both", 10, "EU"))
	// index entry without a record
	if err := store.ZAdd(ctx, constants.LeaderboardKey, "orphan", 5); err != nil {
		t.Fatalf("ZAdd() error: %v", err)
	}
	// record without an index entry
	if err := store.HSet(ctx, constants.PlayerScoresKey, "unindexed", `{"playerId":"unindexed","enduranceDuration":42}`); err != nil {
		t.Fatalf("HSet() error: %v", err)
	}

	report, err := svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if diff := cmp.Diff(domain.ReconcileReport{OrphanedIndex: 1, Reindexed: 1}, report); diff != "" {
		t.Errorf("Reconcile() mismatch (-want +got):\n%s", diff)
	}

	if _, ok, _ := store.ZScore(ctx, constants.LeaderboardKey, "orphan"); ok {
		t.Error("orphan still indexed")
	}
	score, ok, _ := store.ZScore(ctx, constants.LeaderboardKey, "unindexed")
	if !ok || score != 42 {
		t.Errorf("unindexed score = %v, %v, want 42, true", score, ok)
	}
}

func TestRunMaintenance(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	svc.maxSize = 1
	ctx := context.Background()

	mustSubmit(t, svc, newRecord("a", 10, "EU"))
	mustSubmit(t, svc, newRecord("b", 20, "EU"))
	if err := store.HSet(ctx, constants.PlayerScoresKey, "bad", "{"); err != nil {
		t.Fatalf("HSet() error: %v", err)
	}

	report, err := svc.RunMaintenance(ctx)
	if err != nil {
		t.Fatalf("RunMaintenance() error: %v", err)
	}
	want := domain.MaintenanceReport{Pruned: 1, Corrupted: 1}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("RunMaintenance() mismatch (-want +got):\n%s", diff)
	}
	if rank := svc.PlayerRank(ctx, "b"); rank != 1 {
		t.Errorf("PlayerRank(b) = %d, want 1", rank)
	}
}

func TestSubmitScore_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("store down")
	svc := newTestService(t, &failingStore{err: storeErr})

	_, err := svc.SubmitScore(context.Background(), newRecord("a", 1, "EU"))
	if !errors.Is(err, storeErr) {
		t.Errorf("SubmitScore() error = %v, want wrapped store error", err)
	}
	if errors.Is(err, ErrValidation) {
		t.Error("store failure reported as validation error")
	}
}

func TestSeedTestData(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	results := svc.SeedTestData(ctx)
	if len(results) != 6 {
		t.Fatalf("len(results) = %d, want 6", len(results))
	}

	data := svc.Leaderboard(ctx, 10, "")
	var names []string
	for _, e := range data.Entries {
		names = append(names, e.PlayerName)
	}
	want := []string{"CatMaster", "WaterWhiskers", "BubblePaws", "SoapyTail", "CleanKitty", "ShowerCat"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("seeded order mismatch (-want +got):\n%s", diff)
	}

	best := svc.PlayerBest(ctx, "test_player_1")
	if best == nil {
		t.Fatal("PlayerBest(test_player_1) = nil")
	}
	if wantAt := fixedNow.Add(-time.Hour).UnixMilli(); best.CompletedAt != wantAt {
		t.Errorf("CompletedAt = %d, want backdated %d", best.CompletedAt, wantAt)
	}
	if best.Difficulty != domain.DifficultyHard {
		t.Errorf("Difficulty = %q, want hard", best.Difficulty)
	}
}

type failingStore struct {
	err error
}

func (f *failingStore) ZAdd(context.Context, string, string, float64) error { return f.err }
func (f *failingStore) ZScore(context.Context, string, string) (float64, bool, error) {
	return 0, false, f.err
}
func (f *failingStore) ZRevRange(context.Context, string, int, int) ([]string, error) {
	return nil, f.err
}
func (f *failingStore) ZCountAbove(context.Context, string, float64) (int, error) { return 0, f.err }
func (f *failingStore) ZCard(context.Context, string) (int, error)                { return 0, f.err }
func (f *failingStore) ZRem(context.Context, string, ...string) (int, error)      { return 0, f.err }
func (f *failingStore) ZRemRangeByRank(context.Context, string, int, int) ([]string, error) {
	return nil, f.err
}
func (f *failingStore) HSet(context.Context, string, string, string) error { return f.err }
func (f *failingStore) HGet(context.Context, string, string) (string, bool, error) {
	return "", false, f.err
}
func (f *failingStore) HDel(context.Context, string, ...string) (int, error) { return 0, f.err }
func (f *failingStore) HGetAll(context.Context, string) (map[string]string, error) {
	return nil, f.err
}
func (f *failingStore) Ping(context.Context) error { return f.err }
func (f *failingStore) Atomic(ctx context.Context, fn func(ranking.Store) error) error {
	return fn(f)
}
