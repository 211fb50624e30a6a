package notify

import (
	"context"
	"strings"

	"github.com/hackmate/hackathon-helper/internal/settings"
	"github.com/hackmate/hackathon-helper/internal/storage"
	log "github.com/sirupsen/logrus"
)

// Notifier fans change notifications out to every visible, opted-in
// user. It runs synchronously right after a successful mutation;
// per-recipient failures are logged and never abort the fan-out.
type Notifier struct {
	users      storage.UserStorage
	settings   *settings.Service
	dispatcher Dispatcher
}

func NewNotifier(users storage.UserStorage, settingsSvc *settings.Service, dispatcher Dispatcher) *Notifier {
	return &Notifier{users: users, settings: settingsSvc, dispatcher: dispatcher}
}

func (n *Notifier) EventCreated(ctx context.Context, e storage.Event) {
	n.fanOut(ctx, e, storage.CategoryNewEvent, "📅 New event: "+e.Title, func(viewerZone string) string {
		return FormatEvent(e, viewerZone)
	})
}

// EventUpdated sends nothing when the diff is empty. Callers pass the
// diff with visibility changes already excluded.
func (n *Notifier) EventUpdated(ctx context.Context, e storage.Event, diff storage.Diff) {
	if len(diff) == 0 {
		return
	}
	n.fanOut(ctx, e, storage.CategoryEventUpdated, "✏️ Event updated: "+e.Title, func(viewerZone string) string {
		return strings.Join(updateFragments(e, diff, viewerZone), "\n")
	})
}

// EventCancelled is built from the pre-delete snapshot.
func (n *Notifier) EventCancelled(ctx context.Context, snapshot storage.Event) {
	n.fanOut(ctx, snapshot, storage.CategoryEventCancelled, "❌ Event cancelled: "+snapshot.Title,
		func(viewerZone string) string {
			return FormatEventRange(snapshot, viewerZone)
		})
}

func (n *Notifier) fanOut(
	ctx context.Context,
	e storage.Event,
	category storage.Category,
	title string,
	body func(viewerZone string) string,
) {
	users, err := n.users.ListActiveUsers(ctx)
	if err != nil {
		log.Errorf("failed to list users for %s notification: %v", category, err)
		return
	}

	for _, u := range users {
		if !e.VisibleTo(u.Role) {
			continue
		}
		userSettings, err := n.settings.GetOrCreate(ctx, u.ID, u.Role)
		if err != nil {
			log.Errorf("failed to load settings for user %q: %v", u.ID, err)
			continue
		}
		if !settings.EnabledFor(userSettings, category) {
			continue
		}
		if err := n.dispatcher.Send(ctx, u.ID, title, body(u.Timezone)); err != nil {
			log.Errorf("failed to send %s notification to user %q: %v", category, u.ID, err)
		}
	}
}
