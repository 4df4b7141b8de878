package applications

import (
	"context"
	"fmt"
	"strings"

	"pet-adoption-marketplace/internal/domain/threads"
	"pet-adoption-marketplace/internal/platform/notify"
)

// Notification es un efecto best-effort sobre el thread pet/adopter/shelter.
// Text vacío = solo asegurar que el thread exista.
type Notification struct {
	Patch threads.Patch
	Text  string
}

// Notifier nunca bloquea ni devuelve error: el cambio de estado de la
// solicitud no depende de que el aviso llegue.
type Notifier interface {
	Notify(n Notification)
}

type ThreadMessenger interface {
	Ensure(ctx context.Context, p threads.Patch) (threads.Thread, error)
	PostSystemMessage(ctx context.Context, p threads.Patch, text string) (threads.Message, error)
}

// ThreadNotifier encola cada aviso en el dispatcher (reintentos acotados).
type ThreadNotifier struct {
	d *notify.Dispatcher
	m ThreadMessenger
}

func NewThreadNotifier(d *notify.Dispatcher, m ThreadMessenger) *ThreadNotifier {
	return &ThreadNotifier{d: d, m: m}
}

func (n *ThreadNotifier) Notify(x Notification) {
	n.d.Submit(notify.Job{
		Name: "thread-notify",
		Run: func(ctx context.Context) error {
			if strings.TrimSpace(x.Text) == "" {
				_, err := n.m.Ensure(ctx, x.Patch)
				return err
			}
			_, err := n.m.PostSystemMessage(ctx, x.Patch, x.Text)
			return err
		},
	})
}

const (
	openingText = "Started conversation"
)

func petLabel(a Application) string {
	if v := strings.TrimSpace(a.PetName); v != "" {
		return v
	}
	return "this pet"
}

func approvedText(a Application) string {
	return fmt.Sprintf("System: Your application for %s was approved!", petLabel(a))
}

func rejectedText(a Application) string {
	return fmt.Sprintf("System: Your application for %s was not approved.", petLabel(a))
}

func reopenedText(a Application) string {
	return fmt.Sprintf("System: Your application for %s has been reopened for consideration.", petLabel(a))
}

func revokedText(a Application) string {
	return fmt.Sprintf("System: The previous approval for %s was revoked. The listing is open again.", petLabel(a))
}
