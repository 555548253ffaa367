package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"slashroute/internal/command"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

// responder implements command.Responder for one interaction. The first reply
// answers the interaction; later ones are sent as followups.
type responder struct {
	s       *discordgo.Session
	i       *discordgo.Interaction
	replied bool
}

var _ command.Responder = (*responder)(nil)

func (r *responder) Reply(ctx context.Context, embed *discordgo.MessageEmbed, ephemeral bool) error {
	if r.replied {
		return FollowupEmbed(ctx, r.s, r.i, embed, ephemeral)
	}
	r.replied = true
	return RespondEmbed(ctx, r.s, r.i, embed, ephemeral)
}

// RespondEmbed answers an interaction with an embed.
func RespondEmbed(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction, embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
}

// FollowupEmbed sends an additional embed for an answered interaction.
func FollowupEmbed(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction, embed *discordgo.MessageEmbed, ephemeral bool) error {
	params := &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err := s.FollowupMessageCreate(i, true, params, discordgo.WithContext(ctx))
	return err
}

// RespondChoices answers an autocomplete interaction.
func RespondChoices(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction, choices []slash.Choice) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: AutocompleteChoices(choices)},
	}, discordgo.WithContext(ctx))
}

// ErrorMessage renders a dispatch failure for the user.
func ErrorMessage(err error) string {
	var de *slash.DispatchError
	if !errors.As(err, &de) {
		return fmt.Sprintf("Error running command: %v", err)
	}
	cmd := "/" + strings.Join(de.Path, " ")
	switch {
	case errors.Is(err, slash.ErrUnrecognizedCommand):
		if len(de.Path) == 0 {
			return "This command is not available anymore. It may take a minute for the command list to refresh."
		}
		return fmt.Sprintf("`%s` is not a complete command. It may take a minute for the command list to refresh.", cmd)
	case errors.Is(err, slash.ErrMissingOption):
		return fmt.Sprintf("`%s` needs the `%s` option.", cmd, de.Option)
	case errors.Is(err, slash.ErrBadOptionType):
		return fmt.Sprintf("The `%s` option of `%s` has the wrong type. The command list may be outdated.", de.Option, cmd)
	case errors.Is(err, slash.ErrBadOptionValue):
		return fmt.Sprintf("The value given for `%s` is not allowed in `%s`.", de.Option, cmd)
	}
	return fmt.Sprintf("Error running `%s`: %v", cmd, de.Err)
}
