package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type doc struct {
	ID   string
	Body string
	At   time.Time
}

func docKey(d doc) string { return d.ID }

var docLess = ByTimeDesc(func(d doc) time.Time { return d.At })

func ids(docs []doc) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID+":"+d.Body)
	}
	return out
}

func TestMerge_ReplacesByIDAndKeepsOthers(t *testing.T) {
	a := []doc{{ID: "1", Body: "x"}, {ID: "2", Body: "y"}}
	b := []doc{{ID: "2", Body: "z"}}

	got := Merge(a, b, docKey, nil)
	assert.Equal(t, []string{"1:x", "2:z"}, ids(got))
	// no muta existing
	assert.Equal(t, "y", a[1].Body)
}

func TestMerge_Idempotent(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := []doc{
		{ID: "a", Body: "1", At: base},
		{ID: "b", Body: "1", At: base.Add(time.Hour)},
		{ID: "c", Body: "1", At: base},
	}

	once := Merge(nil, snap, docKey, docLess)
	twice := Merge(once, snap, docKey, docLess)
	assert.Equal(t, ids(once), ids(twice))
	assert.Equal(t, []string{"b:1", "a:1", "c:1"}, ids(once))
}

func TestMerge_MissingTimestampSortsLast(t *testing.T) {
	now := time.Now()
	got := Merge(nil, []doc{{ID: "old"}, {ID: "new", At: now}}, docKey, docLess)
	assert.Equal(t, []string{"new:", "old:"}, ids(got))
}

func TestMerger_CombinesSources(t *testing.T) {
	m := NewMerger(docKey, docLess)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	m.Merge([]doc{{ID: "t1", Body: "adopter", At: base}})
	m.Merge([]doc{{ID: "t2", Body: "shelter", At: base.Add(time.Minute)}, {ID: "t1", Body: "both", At: base}})

	assert.Equal(t, []string{"t2:shelter", "t1:both"}, ids(m.View()))
	assert.Equal(t, 2, m.Len())
}

// fakeSource simula el store: opcionalmente rechaza queries ordenadas de
// forma sincrónica o asincrónica y lleva la cuenta de suscripciones vivas.
type fakeSource struct {
	mu          sync.Mutex
	docs        []doc
	syncFail    func(Query) error
	asyncFail   func(Query) error
	active      map[int]bool
	next        int
	subscribed  []Query
	onSnapshots map[int]func([]doc)
}

func newFakeSource(docs ...doc) *fakeSource {
	return &fakeSource{docs: docs, active: map[int]bool{}, onSnapshots: map[int]func([]doc){}}
}

func (s *fakeSource) Subscribe(q Query, onSnapshot func([]doc), onError func(error)) (Unsubscribe, error) {
	s.mu.Lock()
	s.subscribed = append(s.subscribed, q)
	if s.syncFail != nil {
		if err := s.syncFail(q); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	id := s.next
	s.next++
	s.active[id] = true
	s.onSnapshots[id] = onSnapshot
	docs := append([]doc(nil), s.docs...)
	var asyncErr error
	if s.asyncFail != nil {
		asyncErr = s.asyncFail(q)
	}
	s.mu.Unlock()

	// entrega sincrónica dentro de Subscribe, como hacen algunos stores
	if asyncErr != nil {
		onError(asyncErr)
	} else {
		onSnapshot(docs)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.active, id)
		delete(s.onSnapshots, id)
	}, nil
}

func (s *fakeSource) push(docs ...doc) {
	s.mu.Lock()
	cbs := make([]func([]doc), 0, len(s.onSnapshots))
	for _, cb := range s.onSnapshots {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(docs)
	}
}

func (s *fakeSource) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *fakeSource) queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.subscribed...)
}

func failOrdered(q Query) error {
	if q.OrderBy != nil {
		return ErrIndexRequired
	}
	return nil
}

func baseQuery() Query {
	return Query{Collection: "threads"}.Where("adopterId", "u1").Ordered("lastMessageAt", true)
}

func TestFeed_PrimaryReady(t *testing.T) {
	src := newFakeSource(doc{ID: "1", Body: "x"})
	m := NewMerger(docKey, docLess)

	f := Start[doc](src, baseQuery(), m, Config{})
	<-f.Ready()

	st := f.Status()
	assert.Equal(t, StateReady, st.State)
	assert.False(t, st.Fallback)
	assert.NoError(t, st.Err)
	assert.Equal(t, []string{"1:x"}, ids(m.View()))

	f.Close()
	assert.Equal(t, 0, src.activeCount())
}

func TestFeed_FailoverOnSyncError(t *testing.T) {
	src := newFakeSource(doc{ID: "1", Body: "x"})
	src.syncFail = failOrdered
	m := NewMerger(docKey, docLess)

	f := Start[doc](src, baseQuery(), m, Config{})
	defer f.Close()
	<-f.Ready()

	st := f.Status()
	assert.Equal(t, StateReady, st.State)
	assert.True(t, st.Fallback)

	qs := src.queries()
	require.Len(t, qs, 2)
	assert.NotNil(t, qs[0].OrderBy)
	assert.Nil(t, qs[1].OrderBy)
	assert.Equal(t, qs[0].Filters, qs[1].Filters)
	assert.Equal(t, 1, src.activeCount())
}

func TestFeed_FailoverOnAsyncErrorReleasesPrimary(t *testing.T) {
	src := newFakeSource(doc{ID: "1", Body: "x"})
	src.asyncFail = failOrdered
	m := NewMerger(docKey, docLess)

	f := Start[doc](src, baseQuery(), m, Config{})
	<-f.Ready()

	assert.Equal(t, StateReady, f.Status().State)
	assert.True(t, f.Status().Fallback)
	// la primaria se libera aunque Subscribe haya devuelto ok
	assert.Equal(t, 1, src.activeCount())

	f.Close()
	assert.Equal(t, 0, src.activeCount())
}

func TestFeed_FallbackFailureIsExplicit(t *testing.T) {
	src := newFakeSource()
	boom := errors.New("permission denied")
	src.syncFail = func(Query) error { return boom }

	var mu sync.Mutex
	var seen []Status
	m := NewMerger(docKey, docLess)
	f := Start[doc](src, baseQuery(), m, Config{OnChange: func(st Status) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	}})
	defer f.Close()
	<-f.Ready()

	st := f.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.ErrorIs(t, st.Err, ErrLoadFailed)
	assert.Contains(t, st.Err.Error(), "permission denied")
	assert.Equal(t, 0, src.activeCount())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, StateFailed, seen[0].State)
}

func TestFeed_IgnoresSnapshotsAfterClose(t *testing.T) {
	src := newFakeSource(doc{ID: "1", Body: "x"})
	m := NewMerger(docKey, docLess)

	f := Start[doc](src, baseQuery(), m, Config{})
	<-f.Ready()
	f.Close()
	f.Close()

	src.push(doc{ID: "2", Body: "late"})
	assert.Equal(t, []string{"1:x"}, ids(m.View()))
}

func TestFeed_LiveUpdatesNotify(t *testing.T) {
	src := newFakeSource(doc{ID: "1", Body: "x"})
	m := NewMerger(docKey, nil)

	changes := make(chan Status, 4)
	f := Start[doc](src, baseQuery(), m, Config{OnChange: func(st Status) { changes <- st }})
	defer f.Close()
	<-changes

	src.push(doc{ID: "1", Body: "edited"})
	<-changes
	assert.Equal(t, []string{"1:edited"}, ids(m.View()))
}

func TestCollect_MergesFeedsAndReleases(t *testing.T) {
	adopterSide := newFakeSource(doc{ID: "t1", Body: "a"})
	shelterSide := newFakeSource(doc{ID: "t1", Body: "a"}, doc{ID: "t2", Body: "b"})
	shelterSide.syncFail = failOrdered

	m := NewMerger(docKey, nil)
	got, err := Collect(context.Background(), m,
		Start[doc](adopterSide, baseQuery(), m, Config{}),
		Start[doc](shelterSide, Query{Collection: "threads"}.Where("shelterId", "u1").Ordered("lastMessageAt", true), m, Config{}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1:a", "t2:b"}, ids(got))
	assert.Equal(t, 0, adopterSide.activeCount())
	assert.Equal(t, 0, shelterSide.activeCount())
}

func TestCollect_ReportsFailure(t *testing.T) {
	src := newFakeSource()
	src.syncFail = func(Query) error { return errors.New("down") }

	m := NewMerger(docKey, nil)
	_, err := Collect(context.Background(), m, Start[doc](src, baseQuery(), m, Config{}))
	assert.ErrorIs(t, err, ErrLoadFailed)
}

// silentSource nunca entrega nada: sirve para probar cancelación.
type silentSource struct{}

func (silentSource) Subscribe(Query, func([]doc), func(error)) (Unsubscribe, error) {
	return func() {}, nil
}

func TestCollect_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	m := NewMerger(docKey, nil)
	_, err := Collect(ctx, m, Start[doc](silentSource{}, baseQuery(), m, Config{}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQuery_IndexKey(t *testing.T) {
	q := baseQuery()
	assert.Equal(t, "threads:adopterId+lastMessageAt", q.IndexKey())
	assert.Equal(t, "", q.Unordered().IndexKey())
	// Where no comparte backing array con el original
	q2 := q.Where("petId", "p1")
	assert.Len(t, q.Filters, 1)
	assert.Len(t, q2.Filters, 2)
}
