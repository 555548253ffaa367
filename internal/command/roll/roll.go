package roll

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"slashroute/internal/command"
	"slashroute/internal/middleware"
	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

var suggestions = []string{"1d20", "1d20+5", "2d6", "2d20", "3d6", "4d6", "1d100", "2d6+1d4*2-3"}

var modes = slash.StringChoices(
	slash.Choice{Name: "Normal", Value: "normal"},
	slash.Choice{Name: "Advantage", Value: "advantage", Names: map[string]string{"de_DE": "Vorteil"}},
	slash.Choice{Name: "Disadvantage", Value: "disadvantage", Names: map[string]string{"de_DE": "Nachteil"}},
)

type RollCommand struct {
	// Intn defaults to math/rand/v2.
	Intn Intn
}

func (c *RollCommand) Category() string         { return "🎲 Gameplay" }
func (c *RollCommand) UserPermissions() []int64 { return nil }

func (c *RollCommand) Declaration() slash.Command {
	return slash.Command{
		Name:        "roll",
		Description: "Roll dices like `2d20+1d6-2`",
		Descriptions: map[string]string{
			"de_DE": "Würfle wie `2d20+1d6-2`",
		},
		Options: []slash.Option{
			{
				Ident:        "formula",
				Description:  "Supports `2d6+1d4*2-3` and similar math",
				Kind:         slash.KindText,
				MaxLength:    ptr(100),
				Autocomplete: true,
			},
			{
				Ident:       "mode",
				Description: "Roll twice and keep the higher or lower total",
				Kind:        slash.KindText,
				Optional:    true,
				Choices:     modes,
			},
		},
		Handler:   slash.HandlerFunc(c.run),
		Completer: slash.CompleterFunc(c.complete),
	}
}

func (c *RollCommand) run(ctx context.Context, inv *slash.Invocation) error {
	cctx, err := command.From(inv)
	if err != nil {
		return err
	}
	intn := c.Intn
	if intn == nil {
		intn = rand.IntN
	}

	formula := inv.Args.String("formula")
	res, err := Evaluate(formula, intn)
	if err != nil {
		return cctx.Notice(ctx, capitalize(err.Error())+".")
	}

	mode := "normal"
	if choice, ok := inv.Args.Choice("mode"); ok {
		mode = choice.Value.(string)
	}
	desc := fmt.Sprintf("**User Input**:\t`%s`\n**Calculation**:\t%s\n", formula, res.Calculation)
	if mode != "normal" && res.HasDice {
		second, err := Evaluate(formula, intn)
		if err != nil {
			return cctx.Notice(ctx, capitalize(err.Error())+".")
		}
		desc += fmt.Sprintf("**Second roll**:\t%s\n", second.Calculation)
		if (mode == "advantage") == (second.Total > res.Total) {
			res = second
		}
	}
	desc += fmt.Sprintf("**Result**:\t**%d**", res.Total)

	return cctx.Reply(ctx, &discordgo.MessageEmbed{
		Title:       "🎲 Dice Roll",
		Description: desc,
	})
}

func (c *RollCommand) complete(_ context.Context, comp *slash.Completion) ([]slash.Choice, error) {
	partial := strings.ToLower(strings.ReplaceAll(comp.Partial.String, " ", ""))
	var out []slash.Choice
	for _, s := range suggestions {
		if strings.HasPrefix(s, partial) {
			out = append(out, slash.Choice{Name: s, Value: s})
		}
	}
	if len(out) == 0 && partial != "" {
		if _, err := Evaluate(partial, func(int) int { return 0 }); err == nil {
			out = append(out, slash.Choice{Name: partial, Value: partial})
		}
	}
	return out, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func ptr[T any](v T) *T { return &v }

func init() {
	command.RegisterCommand(
		&RollCommand{},
		middleware.WithDisabledCheck(),
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
	)
}
