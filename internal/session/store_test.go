package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/scriptsbot/internal/domain"
)

// storeAt returns a store whose clock is controlled by the test.
func storeAt(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	s := NewStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestAddSessionLifecycle(t *testing.T) {
	s, _ := storeAt(t)

	_, ok := s.GetAdd(100)
	assert.False(t, ok)

	s.SetAdd(100, AddSession{State: StateName, ChatID: 55})
	sess, ok := s.GetAdd(100)
	require.True(t, ok)
	assert.Equal(t, StateName, sess.State)
	assert.Equal(t, int64(55), sess.ChatID)
	assert.False(t, sess.Touched.IsZero())

	sess.State = StateDescription
	sess.Draft.Name = "backup"
	s.SetAdd(100, sess)
	sess, ok = s.GetAdd(100)
	require.True(t, ok)
	assert.Equal(t, StateDescription, sess.State)
	assert.Equal(t, "backup", sess.Draft.Name)

	assert.True(t, s.DeleteAdd(100))
	assert.False(t, s.DeleteAdd(100), "second delete reports no session")
}

func TestAddSessionsIsolatedPerUser(t *testing.T) {
	s, _ := storeAt(t)
	s.SetAdd(1, AddSession{State: StateName})
	s.SetAdd(2, AddSession{State: StateLink})

	a, _ := s.GetAdd(1)
	b, _ := s.GetAdd(2)
	assert.Equal(t, StateName, a.State)
	assert.Equal(t, StateLink, b.State)

	s.DeleteAdd(1)
	_, ok := s.GetAdd(2)
	assert.True(t, ok, "deleting one user's session leaves the other")
}

func TestPageSessionKeyedByChatAndMessage(t *testing.T) {
	s, _ := storeAt(t)
	scripts := []domain.Script{{ID: "a"}, {ID: "b"}}

	k1 := PageKey{ChatID: 10, MessageID: 500}
	k2 := PageKey{ChatID: 10, MessageID: 501}
	s.SetPage(k1, PageSession{Scripts: scripts, Page: 0, PageSize: 5})
	s.SetPage(k2, PageSession{Scripts: scripts[:1], Page: 2, PageSize: 5})

	p1, ok := s.GetPage(k1)
	require.True(t, ok)
	assert.Len(t, p1.Scripts, 2)
	assert.Equal(t, 0, p1.Page)
	assert.False(t, p1.Created.IsZero())

	p2, ok := s.GetPage(k2)
	require.True(t, ok)
	assert.Equal(t, 2, p2.Page)

	s.DeletePage(k1)
	_, ok = s.GetPage(k1)
	assert.False(t, ok)
	_, ok = s.GetPage(k2)
	assert.True(t, ok)
}

func TestSweepAddsExpiresOnlyStale(t *testing.T) {
	s, now := storeAt(t)
	s.SetAdd(1, AddSession{State: StateName})

	*now = now.Add(20 * time.Minute)
	s.SetAdd(2, AddSession{State: StateLink})
	s.SetPage(PageKey{ChatID: 9, MessageID: 1}, PageSession{Page: 0, PageSize: 5})

	*now = now.Add(15 * time.Minute)
	removed := s.SweepAdds(30 * time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := s.GetAdd(1)
	assert.False(t, ok, "stale session swept")
	_, ok = s.GetAdd(2)
	assert.True(t, ok, "fresh session survives")

	_, ok = s.GetPage(PageKey{ChatID: 9, MessageID: 1})
	assert.True(t, ok, "pagination sessions are never swept")

	adds, pages := s.Counts()
	assert.Equal(t, 1, adds)
	assert.Equal(t, 1, pages)
}

func TestSweepAddsBoundaryIsExclusive(t *testing.T) {
	s, now := storeAt(t)
	s.SetAdd(7, AddSession{State: StateConfirm})

	*now = now.Add(30 * time.Minute)
	assert.Equal(t, 0, s.SweepAdds(30*time.Minute), "exactly max age is kept")

	*now = now.Add(time.Second)
	assert.Equal(t, 1, s.SweepAdds(30*time.Minute))
}

func TestSetAddRefreshesTouch(t *testing.T) {
	s, now := storeAt(t)
	s.SetAdd(3, AddSession{State: StateName})

	*now = now.Add(25 * time.Minute)
	sess, _ := s.GetAdd(3)
	sess.State = StateDescription
	s.SetAdd(3, sess)

	*now = now.Add(25 * time.Minute)
	assert.Equal(t, 0, s.SweepAdds(30*time.Minute), "progress resets idle clock")
}
