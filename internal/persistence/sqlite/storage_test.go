package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/dance-group-manager/internal/persistence"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	storage, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() {
		if err := storage.Close(); err != nil {
			t.Errorf("close storage: %v", err)
		}
	})

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return storage
}

func seedUserAndGroup(t *testing.T, storage *Storage) {
	t.Helper()
	ctx := context.Background()

	users := NewUserRepository(storage.Pool())
	if err := users.CreateUser(ctx, persistence.User{
		ID:           "user-1",
		Email:        "dancer@example.com",
		DisplayName:  "김지은",
		PasswordHash: "hash",
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	groups := NewGroupRepository(storage.Pool())
	if err := groups.CreateGroup(ctx, persistence.Group{ID: "group-1", Name: "크루"}); err != nil {
		t.Fatalf("create group: %v", err)
	}
}

func TestScheduleRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	seedUserAndGroup(t, storage)
	ctx := context.Background()
	repo := NewScheduleRepository(storage.Pool())

	startsAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	endsAt := startsAt.Add(2 * time.Hour)
	lat, lng := 37.5, 127.0

	schedule := persistence.Schedule{
		ID:        "sched-1",
		GroupID:   "group-1",
		Title:     "정기 연습",
		StartsAt:  startsAt,
		EndsAt:    &endsAt,
		Latitude:  &lat,
		Longitude: &lng,
		CreatorID: "user-1",
	}
	if err := repo.CreateSchedule(ctx, schedule); err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	loaded, err := repo.GetSchedule(ctx, "sched-1")
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if !loaded.StartsAt.Equal(startsAt) {
		t.Fatalf("expected start %v, got %v", startsAt, loaded.StartsAt)
	}
	if loaded.EndsAt == nil || !loaded.EndsAt.Equal(endsAt) {
		t.Fatalf("expected end %v, got %v", endsAt, loaded.EndsAt)
	}
	if loaded.Latitude == nil || *loaded.Latitude != lat {
		t.Fatalf("expected latitude %v, got %v", lat, loaded.Latitude)
	}

	later := startsAt.Add(3 * time.Hour)
	filter := persistence.ScheduleFilter{GroupID: "group-1", EndsBefore: &later}
	listed, err := repo.ListSchedules(ctx, filter)
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 schedule, got %d", len(listed))
	}

	if err := repo.DeleteSchedule(ctx, "sched-1"); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}
	if _, err := repo.GetSchedule(ctx, "sched-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAttendanceRepositoryUniqueKey(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	seedUserAndGroup(t, storage)
	ctx := context.Background()

	schedules := NewScheduleRepository(storage.Pool())
	startsAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := schedules.CreateSchedule(ctx, persistence.Schedule{
		ID:        "sched-1",
		GroupID:   "group-1",
		Title:     "정기 연습",
		StartsAt:  startsAt,
		CreatorID: "user-1",
	}); err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	repo := NewAttendanceRepository(storage.Pool())
	record := persistence.Attendance{
		ID:         "att-1",
		ScheduleID: "sched-1",
		UserID:     "user-1",
		Status:     "present",
		CheckedAt:  startsAt,
	}
	if err := repo.CreateAttendance(ctx, record); err != nil {
		t.Fatalf("create attendance: %v", err)
	}

	record.ID = "att-2"
	if err := repo.CreateAttendance(ctx, record); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on second check-in, got %v", err)
	}

	listed, err := repo.ListAttendanceForSchedule(ctx, "sched-1")
	if err != nil {
		t.Fatalf("list attendance: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 record, got %d", len(listed))
	}
}

func TestRepositoriesKeepProvidedTimestamps(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	seedUserAndGroup(t, storage)
	ctx := context.Background()

	createdAt := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)

	schedules := NewScheduleRepository(storage.Pool())
	if err := schedules.CreateSchedule(ctx, persistence.Schedule{
		ID:        "sched-1",
		GroupID:   "group-1",
		Title:     "정기 연습",
		StartsAt:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		CreatorID: "user-1",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}); err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	schedule, err := schedules.GetSchedule(ctx, "sched-1")
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if !schedule.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at %v, got %v", createdAt, schedule.CreatedAt)
	}

	checkedAt := time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC)
	attendance := NewAttendanceRepository(storage.Pool())
	if err := attendance.CreateAttendance(ctx, persistence.Attendance{
		ID:         "att-1",
		ScheduleID: "sched-1",
		UserID:     "user-1",
		Status:     "present",
		CheckedAt:  checkedAt,
		CreatedAt:  checkedAt,
	}); err != nil {
		t.Fatalf("create attendance: %v", err)
	}
	record, err := attendance.GetAttendance(ctx, "sched-1", "user-1")
	if err != nil {
		t.Fatalf("get attendance: %v", err)
	}
	if !record.CreatedAt.Equal(checkedAt) {
		t.Fatalf("expected created_at %v, got %v", checkedAt, record.CreatedAt)
	}
}

func TestGroupRepositoryHierarchyAndMemberships(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	seedUserAndGroup(t, storage)
	ctx := context.Background()
	repo := NewGroupRepository(storage.Pool())

	parent := "group-1"
	if err := repo.CreateGroup(ctx, persistence.Group{ID: "group-2", Name: "공연팀", ParentGroupID: &parent}); err != nil {
		t.Fatalf("create sub-group: %v", err)
	}
	if err := repo.CreateProject(ctx, persistence.Project{ID: "proj-1", GroupID: "group-2", Name: "봄 공연"}); err != nil {
		t.Fatalf("create project: %v", err)
	}

	if err := repo.PutMembership(ctx, persistence.Membership{UserID: "user-1", EntityID: "group-1", Role: "member"}); err != nil {
		t.Fatalf("put membership: %v", err)
	}
	// Upsert replaces the role.
	if err := repo.PutMembership(ctx, persistence.Membership{UserID: "user-1", EntityID: "group-1", Role: "leader"}); err != nil {
		t.Fatalf("upsert membership: %v", err)
	}

	memberships, err := repo.ListMembershipsForEntity(ctx, "group-1")
	if err != nil {
		t.Fatalf("list memberships: %v", err)
	}
	if len(memberships) != 1 || memberships[0].Role != "leader" {
		t.Fatalf("expected single leader membership, got %+v", memberships)
	}

	loaded, err := repo.GetGroup(ctx, "group-2")
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if loaded.ParentGroupID == nil || *loaded.ParentGroupID != "group-1" {
		t.Fatalf("expected parent group-1, got %v", loaded.ParentGroupID)
	}
}

func TestSessionRepositoryRevocation(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	seedUserAndGroup(t, storage)
	ctx := context.Background()
	repo := NewSessionRepository(storage.Pool())

	expiresAt := time.Now().UTC().Add(time.Hour)
	if _, err := repo.CreateSession(ctx, persistence.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "token-1",
		ExpiresAt: expiresAt,
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	revoked, err := repo.RevokeSession(ctx, "token-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("revoke session: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("expected revoked_at to be set")
	}

	// Revoking an already revoked session reports not found.
	if _, err := repo.RevokeSession(ctx, "token-1", time.Now().UTC()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecurrenceRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	seedUserAndGroup(t, storage)
	ctx := context.Background()
	repo := NewRecurrenceRepository(storage.Pool())

	count := 4
	rule := persistence.RecurrenceRule{
		ID:              "rule-1",
		GroupID:         "group-1",
		Frequency:       2,
		Weekdays:        []time.Weekday{time.Monday, time.Wednesday},
		StartsOn:        time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 120,
		Title:           "정기 연습",
		EndKind:         2,
		EndCount:        &count,
	}
	if err := repo.CreateRecurrence(ctx, rule); err != nil {
		t.Fatalf("create recurrence: %v", err)
	}

	loaded, err := repo.GetRecurrence(ctx, "rule-1")
	if err != nil {
		t.Fatalf("get recurrence: %v", err)
	}
	if len(loaded.Weekdays) != 2 || loaded.Weekdays[0] != time.Monday || loaded.Weekdays[1] != time.Wednesday {
		t.Fatalf("unexpected weekdays: %v", loaded.Weekdays)
	}
	if loaded.EndCount == nil || *loaded.EndCount != 4 {
		t.Fatalf("expected end count 4, got %v", loaded.EndCount)
	}

	rules, err := repo.ListRecurrencesForGroup(ctx, "group-1")
	if err != nil {
		t.Fatalf("list recurrences: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
}
