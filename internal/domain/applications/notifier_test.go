package applications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pet-adoption-marketplace/internal/domain/threads"
	"pet-adoption-marketplace/internal/platform/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testMessenger struct {
	mu      sync.Mutex
	ensured []threads.Patch
	posted  []string
	fails   int
}

func (m *testMessenger) Ensure(ctx context.Context, p threads.Patch) (threads.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured = append(m.ensured, p)
	return threads.Thread{}, nil
}

func (m *testMessenger) PostSystemMessage(ctx context.Context, p threads.Patch, text string) (threads.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return threads.Message{}, errors.New("store unavailable")
	}
	m.posted = append(m.posted, text)
	return threads.Message{Text: text}, nil
}

func TestThreadNotifier_RoutesByText(t *testing.T) {
	d := notify.New(notify.Config{Workers: 1, Backoff: time.Millisecond}, nil)
	m := &testMessenger{fails: 1}
	n := NewThreadNotifier(d, m)

	key := threads.Key{PetID: "p1", AdopterID: "u1", ShelterID: "s1"}
	n.Notify(Notification{Patch: threads.Patch{Key: key, Opening: openingText}})
	n.Notify(Notification{Patch: threads.Patch{Key: key}, Text: "System: hello"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.ensured, 1)
	assert.Equal(t, openingText, m.ensured[0].Opening)
	// el primer intento falla y se reintenta
	assert.Equal(t, []string{"System: hello"}, m.posted)
}

func TestPetLabel(t *testing.T) {
	assert.Equal(t, "System: Your application for this pet was approved!", approvedText(Application{}))
	assert.Equal(t, "System: The previous approval for Rex was revoked. The listing is open again.", revokedText(Application{PetName: " Rex "}))
}
