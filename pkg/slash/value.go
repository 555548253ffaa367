package slash

import (
	"fmt"
	"strconv"
	"time"
)

// Tag identifies the kind of a resolved value as delivered by the host platform.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagString
	TagInteger
	TagNumber
	TagBoolean
	TagUser
	TagRole
	TagChannel
	TagAttachment
	TagUnresolvedUser
	TagUnresolvedRole
	TagUnresolvedChannel
	TagUnresolvedMentionable
	TagUnresolvedAttachment
)

var tagNames = map[Tag]string{
	TagString:                "string",
	TagInteger:               "integer",
	TagNumber:                "number",
	TagBoolean:               "boolean",
	TagUser:                  "user",
	TagRole:                  "role",
	TagChannel:               "channel",
	TagAttachment:            "attachment",
	TagUnresolvedUser:        "unresolved-user",
	TagUnresolvedRole:        "unresolved-role",
	TagUnresolvedChannel:     "unresolved-channel",
	TagUnresolvedMentionable: "unresolved-mentionable",
	TagUnresolvedAttachment:  "unresolved-attachment",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// Snowflake is a platform entity identifier.
type Snowflake uint64

// ParseSnowflake parses the decimal wire form of an identifier.
func ParseSnowflake(s string) (Snowflake, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid snowflake %q", s)
	}
	return Snowflake(id), nil
}

func (s Snowflake) String() string { return strconv.FormatUint(uint64(s), 10) }

// User is a hydrated user reference.
type User struct {
	ID         string
	Username   string
	GlobalName string
	Bot        bool
}

// Member is the partial guild member data attached to a user value.
type Member struct {
	User        *User
	Nick        string
	Roles       []string
	JoinedAt    time.Time
	Permissions int64
}

// Role is a hydrated role reference.
type Role struct {
	ID          string
	Name        string
	Color       int
	Permissions int64
	Mentionable bool
}

// Channel is a partial channel reference.
type Channel struct {
	ID       string
	Name     string
	Type     int
	ParentID string
}

// Attachment is a hydrated attachment reference.
type Attachment struct {
	ID          string
	Filename    string
	URL         string
	ContentType string
	Size        int
}

// Mentionable is the decoded form of a mentionable option: either a user
// (optionally with member data) or a role.
type Mentionable struct {
	User   *User
	Member *Member
	Role   *Role
}

// ID returns the identifier of whichever entity is set.
func (m Mentionable) ID() string {
	if m.User != nil {
		return m.User.ID
	}
	if m.Role != nil {
		return m.Role.ID
	}
	return ""
}

// Value is a resolved option value. Only the fields matching Tag are meaningful.
type Value struct {
	Tag Tag

	String  string
	Integer int64
	Number  float64
	Boolean bool
	// Overflow marks an integer the platform sent outside the int64 range
	// or with a fractional part; Number keeps the raw value.
	Overflow bool

	User       *User
	Member     *Member
	Role       *Role
	Channel    *Channel
	Attachment *Attachment

	// ID carries the raw identifier of unresolved references.
	ID string
}

func String(s string) Value               { return Value{Tag: TagString, String: s} }
func Integer(i int64) Value               { return Value{Tag: TagInteger, Integer: i} }
func Number(f float64) Value              { return Value{Tag: TagNumber, Number: f} }

// InvalidInteger is an integer-typed value that does not fit an int64.
func InvalidInteger(f float64) Value { return Value{Tag: TagInteger, Number: f, Overflow: true} }

func Boolean(b bool) Value                { return Value{Tag: TagBoolean, Boolean: b} }
func RoleValue(r *Role) Value             { return Value{Tag: TagRole, Role: r} }
func ChannelValue(c *Channel) Value       { return Value{Tag: TagChannel, Channel: c} }
func AttachmentValue(a *Attachment) Value { return Value{Tag: TagAttachment, Attachment: a} }

// UserValue builds a user value; m may be nil when the platform sent no member data.
func UserValue(u *User, m *Member) Value {
	return Value{Tag: TagUser, User: u, Member: m}
}

// Unresolved builds an unresolved reference. tag must be one of the TagUnresolved* tags.
func Unresolved(tag Tag, id string) Value {
	return Value{Tag: tag, ID: id}
}

// Raw returns the primitive payload of text, integer and number values.
func (v Value) Raw() any {
	switch v.Tag {
	case TagString:
		return v.String
	case TagInteger:
		if v.Overflow {
			return v.Number
		}
		return v.Integer
	case TagNumber:
		return v.Number
	case TagBoolean:
		return v.Boolean
	}
	return nil
}
