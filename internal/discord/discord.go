package discord

import "context"

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
}

type ButtonStyle string

const (
	ButtonStyleSuccess ButtonStyle = "success"
	ButtonStyleDanger  ButtonStyle = "danger"
)

type Button struct {
	ID    string
	Label string
	Emoji string
	Style ButtonStyle
}

type PanelMessage struct {
	ChannelID string
	Embed     Embed
	Buttons   []Button
}

type CommandOptionType string

const (
	CommandOptionString  CommandOptionType = "string"
	CommandOptionChannel CommandOptionType = "channel"
	CommandOptionRole    CommandOptionType = "role"
)

type CommandOptionChoice struct {
	Name  string
	Value string
}

type CommandOptionDefinition struct {
	Type        CommandOptionType
	Name        string
	Description string
	Required    bool
	Choices     []CommandOptionChoice
}

type SlashCommandDefinition struct {
	Name        string
	Description string
	AdminOnly   bool
	Options     []CommandOptionDefinition
}

// CommandEvent is a slash command interaction. The capability flags are
// resolved by the gateway adapter; the dispatcher only consumes them.
type CommandEvent struct {
	GuildID          string
	ChannelID        string
	CommandName      string
	UserID           string
	IsAdministrator  bool
	RoleIDs          []string
	Options          map[string]string
	RespondEphemeral func(content string) error
}

// ComponentEvent is a message component (button) interaction.
type ComponentEvent struct {
	GuildID          string
	ChannelID        string
	ComponentID      string
	UserID           string
	IsAdministrator  bool
	RoleIDs          []string
	RespondEphemeral func(content string) error
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	// UpsertSlashCommands registers the command set, guild-scoped when
	// guildID is non-empty and globally otherwise.
	UpsertSlashCommands(guildID string, defs []SlashCommandDefinition) error
	RegisterCommandHandler(handler func(CommandEvent))
	RegisterComponentHandler(handler func(ComponentEvent))
	SendChannelEmbed(channelID string, embed Embed) error
	SendPanelMessage(msg PanelMessage) error
	Run() error
}
