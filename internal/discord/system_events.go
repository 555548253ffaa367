package discord

type SystemEventType string

const (
	SystemEventRefreshCommands SystemEventType = "refresh_commands"
)

// SystemEvent asks the bot to do background work outside an interaction.
type SystemEvent struct {
	Type SystemEventType
	// GuildID is the scope; empty means global.
	GuildID string
}

// eventBus is a bounded queue; publishing never blocks.
type eventBus chan SystemEvent

func newEventBus() eventBus { return make(eventBus, 16) }

// publish reports whether the event was queued.
func (b eventBus) publish(evt SystemEvent) bool {
	select {
	case b <- evt:
		return true
	default:
		return false
	}
}
