package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/dawamlab/dawam/internal/discord"
)

type Client struct {
	session *discordgo.Session
	token   string
}

func NewClient(token string) discordpkg.Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds)
	return s.Open()
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) UpsertSlashCommands(guildID string, defs []discordpkg.SlashCommandDefinition) error {
	appID := c.applicationID()
	if appID == "" {
		return fmt.Errorf("discord application id is not available")
	}
	payload := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			continue
		}
		payload = append(payload, buildApplicationCommand(def))
	}
	// Bulk overwrite keeps the registered set exactly in sync with defs,
	// removing stale commands from older deployments.
	_, err := c.session.ApplicationCommandBulkOverwrite(appID, guildID, payload)
	return err
}

func buildApplicationCommand(def discordpkg.SlashCommandDefinition) *discordgo.ApplicationCommand {
	cmd := &discordgo.ApplicationCommand{
		Name:        def.Name,
		Description: def.Description,
	}
	if def.AdminOnly {
		adminPerm := int64(discordgo.PermissionAdministrator)
		cmd.DefaultMemberPermissions = &adminPerm
	}
	for _, opt := range def.Options {
		cmd.Options = append(cmd.Options, buildCommandOption(opt))
	}
	return cmd
}

func buildCommandOption(opt discordpkg.CommandOptionDefinition) *discordgo.ApplicationCommandOption {
	out := &discordgo.ApplicationCommandOption{
		Name:        opt.Name,
		Description: opt.Description,
		Required:    opt.Required,
	}
	switch opt.Type {
	case discordpkg.CommandOptionChannel:
		out.Type = discordgo.ApplicationCommandOptionChannel
		out.ChannelTypes = []discordgo.ChannelType{discordgo.ChannelTypeGuildText}
	case discordpkg.CommandOptionRole:
		out.Type = discordgo.ApplicationCommandOptionRole
	default:
		out.Type = discordgo.ApplicationCommandOptionString
	}
	for _, choice := range opt.Choices {
		out.Choices = append(out.Choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  choice.Name,
			Value: choice.Value,
		})
	}
	return out
}

func (c *Client) RegisterCommandHandler(handler func(discordpkg.CommandEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name == "" {
			return
		}
		userID, isAdmin, roleIDs := interactionMember(ic)
		if userID == "" {
			return
		}
		options := make(map[string]string, len(data.Options))
		for _, opt := range data.Options {
			if opt == nil {
				continue
			}
			options[opt.Name] = commandOptionValue(opt)
		}
		slog.Info("slash command interaction received", "guild_id", ic.GuildID, "channel_id", ic.ChannelID, "command", data.Name, "user_id", userID)
		handler(discordpkg.CommandEvent{
			GuildID:          ic.GuildID,
			ChannelID:        ic.ChannelID,
			CommandName:      data.Name,
			UserID:           userID,
			IsAdministrator:  isAdmin,
			RoleIDs:          roleIDs,
			Options:          options,
			RespondEphemeral: c.ephemeralResponder(s, ic),
		})
	})
}

func (c *Client) RegisterComponentHandler(handler func(discordpkg.ComponentEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionMessageComponent {
			return
		}
		data := ic.MessageComponentData()
		if data.CustomID == "" {
			return
		}
		userID, isAdmin, roleIDs := interactionMember(ic)
		if userID == "" {
			return
		}
		slog.Info("component interaction received", "guild_id", ic.GuildID, "channel_id", ic.ChannelID, "component_id", data.CustomID, "user_id", userID)
		handler(discordpkg.ComponentEvent{
			GuildID:          ic.GuildID,
			ChannelID:        ic.ChannelID,
			ComponentID:      data.CustomID,
			UserID:           userID,
			IsAdministrator:  isAdmin,
			RoleIDs:          roleIDs,
			RespondEphemeral: c.ephemeralResponder(s, ic),
		})
	})
}

func (c *Client) ephemeralResponder(s *discordgo.Session, ic *discordgo.InteractionCreate) func(string) error {
	return func(content string) error {
		return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
	}
}

func interactionMember(ic *discordgo.InteractionCreate) (userID string, isAdmin bool, roleIDs []string) {
	if ic.Member != nil {
		if ic.Member.User != nil {
			userID = ic.Member.User.ID
		}
		isAdmin = ic.Member.Permissions&discordgo.PermissionAdministrator != 0
		roleIDs = ic.Member.Roles
	}
	if userID == "" && ic.User != nil {
		userID = ic.User.ID
	}
	return userID, isAdmin, roleIDs
}

func commandOptionValue(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionString:
		return opt.StringValue()
	case discordgo.ApplicationCommandOptionChannel, discordgo.ApplicationCommandOptionRole:
		// Channel and role options carry the snowflake ID as the raw value.
		if v, ok := opt.Value.(string); ok {
			return v
		}
	}
	return ""
}

func (c *Client) SendChannelEmbed(channelID string, embed discordpkg.Embed) error {
	_, err := c.session.ChannelMessageSendEmbed(channelID, buildMessageEmbed(embed))
	return err
}

func (c *Client) SendPanelMessage(msg discordpkg.PanelMessage) error {
	buttons := make([]discordgo.MessageComponent, 0, len(msg.Buttons))
	for _, b := range msg.Buttons {
		button := discordgo.Button{
			CustomID: b.ID,
			Label:    b.Label,
			Style:    buttonStyle(b.Style),
		}
		if b.Emoji != "" {
			button.Emoji = &discordgo.ComponentEmoji{Name: b.Emoji}
		}
		buttons = append(buttons, button)
	}
	_, err := c.session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{buildMessageEmbed(msg.Embed)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		},
	})
	return err
}

func buildMessageEmbed(embed discordpkg.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	for _, f := range embed.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return out
}

func buttonStyle(style discordpkg.ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case discordpkg.ButtonStyleDanger:
		return discordgo.DangerButton
	default:
		return discordgo.SuccessButton
	}
}

func (c *Client) applicationID() string {
	if c.session == nil || c.session.State == nil {
		return ""
	}
	if c.session.State.Application != nil && c.session.State.Application.ID != "" {
		return c.session.State.Application.ID
	}
	if c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}

func (c *Client) Run() error {
	select {}
}
