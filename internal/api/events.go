package api

import "context"

// Event subjects published to JetStream when a bus is configured.
const (
	topicRegistered    = "voltvault.auth.registered"
	topicItemCreated   = "voltvault.vault.item.created"
	topicItemUpdated   = "voltvault.vault.item.updated"
	topicItemDeleted   = "voltvault.vault.item.deleted"
	topicFolderDeleted = "voltvault.vault.folder.deleted"
)

// publish sends an event best-effort; failures are logged, never surfaced
// to the client.
func (a *API) publish(ctx context.Context, subject string, payload map[string]any) {
	if a.bus == nil || subject == "" {
		return
	}
	if err := a.bus.Publish(ctx, subject, payload); err != nil {
		a.log.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}
