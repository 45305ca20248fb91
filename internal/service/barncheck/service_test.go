package barncheck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// --- Fakes ---

type memoryStore struct {
	animals       []models.Animal
	logs          []models.ReturnLog
	notifications []models.Notification
	admins        map[string]models.User

	animalsErr error
	logErr     error
	createErr  error
}

func (m *memoryStore) FindAnimals(_ context.Context, farmID string) ([]models.Animal, error) {
	if m.animalsErr != nil {
		return nil, m.animalsErr
	}
	var out []models.Animal
	for _, a := range m.animals {
		if a.FarmID == farmID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) FindReturnLog(_ context.Context, animalID primitive.ObjectID, farmID string, date models.Date) (*models.ReturnLog, error) {
	if m.logErr != nil {
		return nil, m.logErr
	}
	for i := range m.logs {
		l := m.logs[i]
		if l.AnimalID == animalID && l.FarmID == farmID && l.Date == date {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = primitive.NewObjectID()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memoryStore) FindFarmAdmin(_ context.Context, farmID string) (*models.User, error) {
	u, ok := m.admins[farmID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type recordingRelay struct {
	sent []models.Notification
	err  error
}

func (r *recordingRelay) Relay(_ context.Context, n models.Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

var today = models.Date{Year: 2026, Month: time.October, Day: 17}

func newFixture() (*memoryStore, models.Animal, models.Animal) {
	bessie := models.Animal{ID: primitive.NewObjectID(), FarmID: "F1", Name: "Bessie", TagNumber: "A1", Species: "cow"}
	clucky := models.Animal{ID: primitive.NewObjectID(), FarmID: "F1", Name: "Clucky", TagNumber: "H1", Species: "hen"}
	other := models.Animal{ID: primitive.NewObjectID(), FarmID: "F2", Name: "Dolly", TagNumber: "A1", Species: "sheep"}
	return &memoryStore{animals: []models.Animal{bessie, clucky, other}}, bessie, clucky
}

func newTestService(store *memoryStore, relay Relay) *Service {
	svc := NewService(Stores{Animals: store, ReturnLogs: store, Notifications: store, Users: store}, relay, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 22, 0, 0, 0, time.Local) }
	return svc
}

// --- Tests ---

func TestCheckAllMissing(t *testing.T) {
	store, _, _ := newFixture()
	svc := newTestService(store, nil)

	res, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F1", UserID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bessie (A1)", "Clucky (H1)"}, res.MissingAnimals)
	assert.Equal(t, today, res.Date)
	assert.Equal(t, 1, res.AlertsGenerated)
	require.Len(t, store.notifications, 1)

	n := store.notifications[0]
	assert.Equal(t, models.BarnCheckAlertTitle, n.Title)
	assert.Equal(t, "admin-1", n.UserID)
	assert.Equal(t, "F1", n.FarmID)
	assert.Contains(t, n.Message, "Bessie (A1)")
	assert.Contains(t, n.Message, "Clucky (H1)")
	assert.Contains(t, n.Message, "2026-10-17")
}

func TestCheckRepeatedRunsAreIndependent(t *testing.T) {
	store, _, _ := newFixture()
	svc := newTestService(store, nil)
	req := models.CheckRequest{FarmID: "F1", UserID: "admin-1"}

	first, err := svc.Check(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Check(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.MissingAnimals, second.MissingAnimals)
	assert.Equal(t, 1, second.AlertsGenerated)
	assert.Len(t, store.notifications, 2)
	assert.NotEqual(t, store.notifications[0].ID, store.notifications[1].ID)
}

func TestCheckAfterScanOnlyReportsRemaining(t *testing.T) {
	store, bessie, _ := newFixture()
	store.logs = append(store.logs, models.ReturnLog{AnimalID: bessie.ID, FarmID: "F1", Date: today, Returned: true, Location: models.LocationBarnEntrance})
	svc := newTestService(store, nil)

	res, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F1", UserID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Clucky (H1)"}, res.MissingAnimals)
}

func TestCheckAnyRecordSuppressesAlert(t *testing.T) {
	store, bessie, clucky := newFixture()
	store.logs = append(store.logs,
		models.ReturnLog{AnimalID: bessie.ID, FarmID: "F1", Date: today, Returned: true},
		models.ReturnLog{AnimalID: clucky.ID, FarmID: "F1", Date: today, Returned: false, Reason: "at the vet"},
	)
	svc := newTestService(store, nil)

	res, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F1"})
	require.NoError(t, err)
	assert.Empty(t, res.MissingAnimals)
	assert.Zero(t, res.AlertsGenerated)
	assert.Empty(t, res.Alerts)
	assert.Empty(t, store.notifications)
}

func TestCheckIgnoresOtherDays(t *testing.T) {
	store, bessie, clucky := newFixture()
	yesterday := models.Date{Year: 2026, Month: time.October, Day: 16}
	store.logs = append(store.logs,
		models.ReturnLog{AnimalID: bessie.ID, FarmID: "F1", Date: yesterday, Returned: true},
		models.ReturnLog{AnimalID: clucky.ID, FarmID: "F1", Date: yesterday, Returned: true},
	)
	svc := newTestService(store, nil)

	res, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F1", UserID: "u"})
	require.NoError(t, err)
	assert.Len(t, res.MissingAnimals, 2)

	res, err = svc.Check(context.Background(), models.CheckRequest{FarmID: "F1", UserID: "u", Date: yesterday})
	require.NoError(t, err)
	assert.Empty(t, res.MissingAnimals)
}

func TestCheckEmptyFarm(t *testing.T) {
	store, _, _ := newFixture()
	svc := newTestService(store, nil)

	res, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F-empty"})
	require.NoError(t, err)
	assert.Zero(t, res.AlertsGenerated)
	assert.Empty(t, store.notifications)
}

func TestCheckScheduledRunAddressesFarmAdmin(t *testing.T) {
	store, _, _ := newFixture()
	adminID := primitive.NewObjectID()
	store.admins = map[string]models.User{"F1": {ID: adminID, FarmID: "F1", Role: models.RoleAdmin}}
	svc := newTestService(store, nil)

	_, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F1"})
	require.NoError(t, err)
	require.Len(t, store.notifications, 1)
	assert.Equal(t, adminID.Hex(), store.notifications[0].UserID)
}

func TestCheckWithoutAdminStillStoresAlert(t *testing.T) {
	store, _, _ := newFixture()
	svc := newTestService(store, nil)

	_, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F1"})
	require.NoError(t, err)
	require.Len(t, store.notifications, 1)
	assert.Empty(t, store.notifications[0].UserID)
}

func TestCheckPropagatesStoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *memoryStore)
	}{
		{name: "animals", mutate: func(m *memoryStore) { m.animalsErr = errors.New("timeout") }},
		{name: "logs", mutate: func(m *memoryStore) { m.logErr = errors.New("timeout") }},
		{name: "notification", mutate: func(m *memoryStore) { m.createErr = errors.New("timeout") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _ := newFixture()
			tt.mutate(store)
			svc := newTestService(store, nil)

			res, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F1", UserID: "u"})
			assert.Nil(t, res)
			assert.ErrorContains(t, err, "timeout")
		})
	}
}

func TestCheckRelaysAlertAndToleratesRelayFailure(t *testing.T) {
	store, _, _ := newFixture()
	relay := &recordingRelay{err: errors.New("whatsapp down")}
	svc := newTestService(store, relay)

	res, err := svc.Check(context.Background(), models.CheckRequest{FarmID: "F1", UserID: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AlertsGenerated)
	require.Len(t, relay.sent, 1)
	assert.Equal(t, store.notifications[0].ID, relay.sent[0].ID)
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "1 animal has not returned to the barn on 2026-10-17: Bessie (A1).",
		formatMessage(today, []string{"Bessie (A1)"}))
}
