package discord

import (
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

// maxAutocompleteChoices is the platform cap on suggestions per response.
const maxAutocompleteChoices = 25

// ApplicationCommand converts a compiled descriptor into its discordgo form.
func ApplicationCommand(d *slash.CommandDescriptor) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Type:                     discordgo.ApplicationCommandType(d.Type),
		Name:                     d.Name,
		NameLocalizations:        localePtr(d.NameLocalizations),
		Description:              d.Description,
		DescriptionLocalizations: localePtr(d.DescriptionLocalizations),
		Options:                  applicationOptions(d.Options),
	}
}

// ApplicationCommands converts every descriptor of a tree.
func ApplicationCommands(ds []*slash.CommandDescriptor) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, len(ds))
	for i, d := range ds {
		out[i] = ApplicationCommand(d)
	}
	return out
}

func applicationOptions(opts []*slash.OptionDescriptor) []*discordgo.ApplicationCommandOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*discordgo.ApplicationCommandOption, len(opts))
	for i, o := range opts {
		ao := &discordgo.ApplicationCommandOption{
			Type:                     discordgo.ApplicationCommandOptionType(o.Type),
			Name:                     o.Name,
			NameLocalizations:        locales(o.NameLocalizations),
			Description:              o.Description,
			DescriptionLocalizations: locales(o.DescriptionLocalizations),
			Required:                 o.Required,
			Autocomplete:             o.Autocomplete,
			MinValue:                 o.MinValue,
			MinLength:                o.MinLength,
			Options:                  applicationOptions(o.Options),
		}
		// discordgo omits zero maximums from the payload.
		if o.MaxValue != nil {
			ao.MaxValue = *o.MaxValue
		}
		if o.MaxLength != nil {
			ao.MaxLength = *o.MaxLength
		}
		for _, c := range o.Choices {
			ao.Choices = append(ao.Choices, &discordgo.ApplicationCommandOptionChoice{
				Name:              c.Name,
				NameLocalizations: locales(c.NameLocalizations),
				Value:             c.Value,
			})
		}
		out[i] = ao
	}
	return out
}

// AutocompleteChoices converts completer suggestions, truncated to the
// platform limit.
func AutocompleteChoices(choices []slash.Choice) []*discordgo.ApplicationCommandOptionChoice {
	if len(choices) > maxAutocompleteChoices {
		choices = choices[:maxAutocompleteChoices]
	}
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
	for _, c := range choices {
		names := make(map[string]string, len(c.Names))
		for tag, text := range c.Names {
			names[slash.NormalizeLocale(tag)] = text
		}
		out = append(out, &discordgo.ApplicationCommandOptionChoice{
			Name:              c.Name,
			NameLocalizations: locales(names),
			Value:             c.Value,
		})
	}
	return out
}

func locales(m map[string]string) map[discordgo.Locale]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[discordgo.Locale]string, len(m))
	for tag, text := range m {
		out[discordgo.Locale(tag)] = text
	}
	return out
}

func localePtr(m map[string]string) *map[discordgo.Locale]string {
	l := locales(m)
	if l == nil {
		return nil
	}
	return &l
}
