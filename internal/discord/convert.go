package discord

import (
	"math"

	"slashroute/pkg/slash"

	"github.com/bwmarrin/discordgo"
)

// Request converts chat-input interaction data into a routing request. Entity
// options are hydrated from the resolved maps; ids missing from them become
// unresolved references.
func Request(data discordgo.ApplicationCommandInteractionData) *slash.Request {
	return &slash.Request{
		Name:    data.Name,
		Options: convertOptions(data.Options, data.Resolved),
	}
}

func convertOptions(opts []*discordgo.ApplicationCommandInteractionDataOption, res *discordgo.ApplicationCommandInteractionDataResolved) []slash.RequestOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]slash.RequestOption, 0, len(opts))
	for _, o := range opts {
		if o == nil {
			continue
		}
		ro := slash.RequestOption{Name: o.Name, Focused: o.Focused}
		switch o.Type {
		case discordgo.ApplicationCommandOptionSubCommand:
			ro.Kind = slash.NodeSubCommand
			ro.Options = convertOptions(o.Options, res)
		case discordgo.ApplicationCommandOptionSubCommandGroup:
			ro.Kind = slash.NodeGroup
			ro.Options = convertOptions(o.Options, res)
		default:
			ro.Kind = slash.NodeValue
			ro.Value = convertValue(o, res)
		}
		out = append(out, ro)
	}
	return out
}

// convertValue tags the raw option value. Values whose Go type does not match
// the option type come back with TagInvalid and fail decoding as a bad type.
// Focused options carry the user's partial input, which is always text.
func convertValue(o *discordgo.ApplicationCommandInteractionDataOption, res *discordgo.ApplicationCommandInteractionDataResolved) slash.Value {
	if s, ok := o.Value.(string); ok && o.Focused {
		return slash.String(s)
	}
	if res == nil {
		res = &discordgo.ApplicationCommandInteractionDataResolved{}
	}

	switch o.Type {
	case discordgo.ApplicationCommandOptionString:
		if s, ok := o.Value.(string); ok {
			return slash.String(s)
		}
	case discordgo.ApplicationCommandOptionInteger:
		return numeric(o.Value)
	case discordgo.ApplicationCommandOptionNumber:
		switch v := o.Value.(type) {
		case float64:
			return slash.Number(v)
		case int64:
			return slash.Number(float64(v))
		}
	case discordgo.ApplicationCommandOptionBoolean:
		if b, ok := o.Value.(bool); ok {
			return slash.Boolean(b)
		}
	case discordgo.ApplicationCommandOptionUser:
		id, _ := o.Value.(string)
		if u, ok := res.Users[id]; ok && u != nil {
			return slash.UserValue(user(u), member(res.Members[id], u))
		}
		return slash.Unresolved(slash.TagUnresolvedUser, id)
	case discordgo.ApplicationCommandOptionRole:
		id, _ := o.Value.(string)
		if r, ok := res.Roles[id]; ok && r != nil {
			return slash.RoleValue(role(r))
		}
		return slash.Unresolved(slash.TagUnresolvedRole, id)
	case discordgo.ApplicationCommandOptionChannel:
		id, _ := o.Value.(string)
		if c, ok := res.Channels[id]; ok && c != nil {
			return slash.ChannelValue(channel(c))
		}
		return slash.Unresolved(slash.TagUnresolvedChannel, id)
	case discordgo.ApplicationCommandOptionMentionable:
		id, _ := o.Value.(string)
		if u, ok := res.Users[id]; ok && u != nil {
			return slash.UserValue(user(u), member(res.Members[id], u))
		}
		if r, ok := res.Roles[id]; ok && r != nil {
			return slash.RoleValue(role(r))
		}
		return slash.Unresolved(slash.TagUnresolvedMentionable, id)
	case discordgo.ApplicationCommandOptionAttachment:
		id, _ := o.Value.(string)
		if a, ok := res.Attachments[id]; ok && a != nil {
			return slash.AttachmentValue(attachment(a))
		}
		return slash.Unresolved(slash.TagUnresolvedAttachment, id)
	}
	return slash.Value{}
}

// numeric maps JSON numbers of integer options. Integral values within the
// int64 range become integers; anything else keeps the integer tag but is
// marked invalid so that decoding reports a bad value.
func numeric(raw any) slash.Value {
	switch v := raw.(type) {
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return slash.Integer(int64(v))
		}
		return slash.InvalidInteger(v)
	case int64:
		return slash.Integer(v)
	case int:
		return slash.Integer(int64(v))
	}
	return slash.Value{}
}

func user(u *discordgo.User) *slash.User {
	return &slash.User{ID: u.ID, Username: u.Username, GlobalName: u.GlobalName, Bot: u.Bot}
}

func member(m *discordgo.Member, u *discordgo.User) *slash.Member {
	if m == nil {
		return nil
	}
	out := &slash.Member{
		Nick:        m.Nick,
		Roles:       append([]string(nil), m.Roles...),
		JoinedAt:    m.JoinedAt,
		Permissions: m.Permissions,
	}
	switch {
	case m.User != nil:
		out.User = user(m.User)
	case u != nil:
		out.User = user(u)
	}
	return out
}

func role(r *discordgo.Role) *slash.Role {
	return &slash.Role{ID: r.ID, Name: r.Name, Color: r.Color, Permissions: r.Permissions, Mentionable: r.Mentionable}
}

func channel(c *discordgo.Channel) *slash.Channel {
	return &slash.Channel{ID: c.ID, Name: c.Name, Type: int(c.Type), ParentID: c.ParentID}
}

func attachment(a *discordgo.MessageAttachment) *slash.Attachment {
	return &slash.Attachment{ID: a.ID, Filename: a.Filename, URL: a.URL, ContentType: a.ContentType, Size: a.Size}
}
