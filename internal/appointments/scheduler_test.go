package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coaching-platform/internal/appointmenttypes"
	"github.com/coachdesk/coaching-platform/internal/rooms"
	"github.com/coachdesk/coaching-platform/pkg/logging"
)

type memStore struct {
	mu sync.Mutex
	// keyed by (coachID, startTime) for scheduled rows, mirroring the
	// partial unique index in the schema
	slots map[string]uuid.UUID
	byID  map[uuid.UUID]*Appointment

	insertErr error
	freeCheck bool // when true, AnyOverlapping always reports free
}

func newMemStore() *memStore {
	return &memStore{
		slots: make(map[string]uuid.UUID),
		byID:  make(map[uuid.UUID]*Appointment),
	}
}

func slotKey(coachID uuid.UUID, start time.Time) string {
	return coachID.String() + "/" + start.UTC().Format(time.RFC3339)
}

func (m *memStore) Insert(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	key := slotKey(a.CoachID, a.StartTime)
	if _, taken := m.slots[key]; taken {
		return ErrSlotTaken
	}
	m.slots[key] = a.ID
	copied := *a
	m.byID[a.ID] = &copied
	return nil
}

func (m *memStore) GetForCoach(_ context.Context, coachID, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.CoachID != coachID {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memStore) Update(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return ErrNotFound
	}
	copied := *a
	m.byID[a.ID] = &copied
	return nil
}

func (m *memStore) Delete(_ context.Context, coachID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.CoachID != coachID {
		return ErrNotFound
	}
	delete(m.slots, slotKey(a.CoachID, a.StartTime))
	delete(m.byID, id)
	return nil
}

func (m *memStore) AnyOverlapping(_ context.Context, coachID uuid.UUID, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.freeCheck {
		return false, nil
	}
	for _, a := range m.byID {
		if a.CoachID == coachID && a.Status == StatusScheduled &&
			a.StartTime.Before(end) && a.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

type fakeTypes struct {
	err error
}

func (f *fakeTypes) GetTypeForCoach(_ context.Context, coachID, typeID uuid.UUID) (*appointmenttypes.AppointmentType, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &appointmenttypes.AppointmentType{ID: typeID, CoachID: coachID, Name: "Session", DefaultDuration: 60}, nil
}

type fakeProvider struct {
	mu        sync.Mutex
	createErr error
	deleteErr error
	created   []string
	createTTL time.Duration
	deleted   []string
}

func (f *fakeProvider) CreateRoom(_ context.Context, name string, ttl time.Duration, _ rooms.RoomConfig) (*rooms.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name)
	f.createTTL = ttl
	return &rooms.Room{Name: name, URL: "https://rooms.example.com/" + name, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (f *fakeProvider) GetRoom(_ context.Context, name string) (*rooms.Room, error) {
	return &rooms.Room{Name: name}, nil
}

func (f *fakeProvider) DeleteRoom(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return f.deleteErr
}

func (f *fakeProvider) CreateMeetingToken(_ context.Context, _, _ string, _ bool) (string, error) {
	return "tok", nil
}

type fakeNotifier struct {
	confirmed []string
	cancelled []string
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, email, _, _ string, _, _ time.Time, _ string) {
	f.confirmed = append(f.confirmed, email)
}

func (f *fakeNotifier) BookingCancelled(_ context.Context, email, _, _ string, _ time.Time, _ string) {
	f.cancelled = append(f.cancelled, email)
}

func newTestScheduler(store *memStore, provider rooms.Provider, notifier Notifier) *Scheduler {
	s := NewScheduler(store, &fakeTypes{}, provider, notifier, nil,
		SchedulerConfig{RoomTTLMargin: 30 * time.Minute}, logging.New("error"))
	// Pin the clock before the fixture booking times.
	return s.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
}

func TestCreateVideoAttachesRoom(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{}
	s := newTestScheduler(store, provider, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, apt.Status)
	require.True(t, apt.HasRoom())
	require.Equal(t, "coachdesk-"+apt.ID.String(), *apt.RoomName)
	require.NotNil(t, apt.MeetingURL)
	require.Equal(t, 90*time.Minute, provider.createTTL, "ttl should be duration plus margin")
}

func TestCreatePhoneSkipsRoom(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{}
	s := newTestScheduler(store, provider, nil)

	params := validCreateParams()
	params.MeetingType = MeetingPhone
	apt, err := s.Create(context.Background(), params)
	require.NoError(t, err)
	require.False(t, apt.HasRoom())
	require.Empty(t, provider.created)
}

func TestCreateDegradesWhenRoomCreationFails(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{createErr: errors.New("provider timeout")}
	s := newTestScheduler(store, provider, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err, "room failure must not fail the booking")
	require.Equal(t, StatusScheduled, apt.Status)
	require.Nil(t, apt.RoomName)
	require.Nil(t, apt.MeetingURL)
}

func TestCreateDeletesRoomWhenInsertFails(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("db down")
	provider := &fakeProvider{}
	s := newTestScheduler(store, provider, nil)

	_, err := s.Create(context.Background(), validCreateParams())
	require.Error(t, err)
	require.Len(t, provider.created, 1)
	require.Equal(t, provider.created, provider.deleted, "orphaned room must be torn down")
}

func TestCreateRejectsPastStart(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store, &fakeProvider{}, nil)

	params := validCreateParams()
	params.StartTime = time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	params.EndTime = params.StartTime.Add(time.Hour)
	_, err := s.Create(context.Background(), params)
	require.Error(t, err)
	require.True(t, IsValidation(err))
}

func TestCreateRejectsOverlappingSlot(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store, &fakeProvider{}, nil)

	params := validCreateParams()
	params.MeetingType = MeetingPhone
	_, err := s.Create(context.Background(), params)
	require.NoError(t, err)

	second := *params
	clientID := uuid.New()
	second.ClientID = &clientID
	_, err = s.Create(context.Background(), &second)
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateRejectsForeignAppointmentType(t *testing.T) {
	store := newMemStore()
	s := NewScheduler(store, &fakeTypes{err: appointmenttypes.ErrTypeNotFound}, &fakeProvider{}, nil, nil,
		SchedulerConfig{}, logging.New("error"))

	_, err := s.Create(context.Background(), validCreateParams())
	require.True(t, IsValidation(err))
}

func TestConcurrentCreatesOneWinsOneConflicts(t *testing.T) {
	store := newMemStore()
	store.freeCheck = true // force both requests past the overlap pre-check
	s := newTestScheduler(store, &fakeProvider{}, nil)

	params := validCreateParams()
	params.MeetingType = MeetingPhone

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := *params
			clientID := uuid.New()
			p.ClientID = &clientID
			_, err := s.Create(context.Background(), &p)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var conflicts, successes int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, conflicts)
}

func TestCreateNotifiesProspectOnly(t *testing.T) {
	store := newMemStore()
	notifier := &fakeNotifier{}
	s := newTestScheduler(store, &fakeProvider{}, notifier)

	_, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)
	require.Empty(t, notifier.confirmed, "client bookings do not email")

	params := validCreateParams()
	params.ClientID = nil
	email := "prospect@example.com"
	params.ProspectEmail = &email
	params.StartTime = params.StartTime.Add(2 * time.Hour)
	params.EndTime = params.EndTime.Add(2 * time.Hour)
	_, err = s.Create(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, []string{"prospect@example.com"}, notifier.confirmed)
}

func TestCancelDeletesRoomAndRecordsReason(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{}
	s := newTestScheduler(store, provider, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)

	cancelled, err := s.Cancel(context.Background(), apt.CoachID, apt.ID, apt.CoachID, "client requested")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, apt.CoachID, *cancelled.CancelledBy)
	require.Equal(t, "client requested", *cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	require.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), *cancelled.CancelledAt,
		"cancelled_at comes from the scheduler clock")
	require.Equal(t, []string{*apt.RoomName}, provider.deleted)
}

func TestCancelWithoutRoomSkipsProviderCall(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{createErr: errors.New("provider down")}
	s := newTestScheduler(store, provider, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)
	require.False(t, apt.HasRoom())

	cancelled, err := s.Cancel(context.Background(), apt.CoachID, apt.ID, apt.CoachID, "")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Empty(t, provider.deleted, "no room, no delete call")
}

func TestCancelSurvivesRoomDeleteFailure(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{deleteErr: errors.New("provider 500")}
	s := newTestScheduler(store, provider, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)
	require.True(t, apt.HasRoom())

	cancelled, err := s.Cancel(context.Background(), apt.CoachID, apt.ID, apt.CoachID, "moved")
	require.NoError(t, err, "room cleanup failure must not block cancellation")
	require.Equal(t, StatusCancelled, cancelled.Status)
}

func TestCancelTwiceRejected(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store, &fakeProvider{}, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)

	_, err = s.Cancel(context.Background(), apt.CoachID, apt.ID, apt.CoachID, "")
	require.NoError(t, err)

	_, err = s.Cancel(context.Background(), apt.CoachID, apt.ID, apt.CoachID, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteAndNoShow(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store, &fakeProvider{}, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)

	notes := "good session"
	done, err := s.Complete(context.Background(), apt.CoachID, apt.ID, &notes)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)
	require.Equal(t, "good session", *done.Notes)

	params := validCreateParams()
	params.CoachID = apt.CoachID
	params.StartTime = apt.StartTime.Add(3 * time.Hour)
	params.EndTime = apt.EndTime.Add(3 * time.Hour)
	second, err := s.Create(context.Background(), params)
	require.NoError(t, err)

	missed, err := s.MarkNoShow(context.Background(), second.CoachID, second.ID, nil)
	require.NoError(t, err)
	require.Equal(t, StatusNoShow, missed.Status)
}

func TestMutationsRejectedOnTerminalAppointment(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store, &fakeProvider{}, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)
	_, err = s.Complete(context.Background(), apt.CoachID, apt.ID, nil)
	require.NoError(t, err)

	title := "new title"
	_, err = s.Update(context.Background(), apt.CoachID, apt.ID, &UpdateParams{Title: &title})
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Complete(context.Background(), apt.CoachID, apt.ID, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.MarkNoShow(context.Background(), apt.CoachID, apt.ID, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateToVideoAttachesRoom(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{}
	s := newTestScheduler(store, provider, nil)

	params := validCreateParams()
	params.MeetingType = MeetingPhone
	apt, err := s.Create(context.Background(), params)
	require.NoError(t, err)
	require.False(t, apt.HasRoom())

	video := MeetingVideo
	updated, err := s.Update(context.Background(), apt.CoachID, apt.ID, &UpdateParams{MeetingType: &video})
	require.NoError(t, err)
	require.True(t, updated.HasRoom())
	require.Len(t, provider.created, 1)
}

func TestHardDeleteTearsDownRoom(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{}
	s := newTestScheduler(store, provider, nil)

	apt, err := s.Create(context.Background(), validCreateParams())
	require.NoError(t, err)

	require.NoError(t, s.HardDelete(context.Background(), apt.CoachID, apt.ID))
	require.Equal(t, []string{*apt.RoomName}, provider.deleted)

	_, err = store.GetForCoach(context.Background(), apt.CoachID, apt.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
