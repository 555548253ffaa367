package slash

import (
	"errors"
	"fmt"
)

// Kind is the declared value-kind of an option. The set is closed; every kind
// has exactly one codec, checked by CheckCodecs.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindText
	KindInteger
	KindFloat
	KindBoolean
	KindUser
	KindMember
	KindRole
	KindChannel
	KindMentionable
	KindAttachment
	KindUserID
	KindRoleID
	KindChannelID
	KindMentionableID
	KindAttachmentID

	kindCount
)

var kindNames = map[Kind]string{
	KindText:          "text",
	KindInteger:       "integer",
	KindFloat:         "float",
	KindBoolean:       "boolean",
	KindUser:          "user",
	KindMember:        "member",
	KindRole:          "role",
	KindChannel:       "channel",
	KindMentionable:   "mentionable",
	KindAttachment:    "attachment",
	KindUserID:        "user-id",
	KindRoleID:        "role-id",
	KindChannelID:     "channel-id",
	KindMentionableID: "mentionable-id",
	KindAttachmentID:  "attachment-id",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown option kind %q", s)
}

// Kinds returns every supported kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, 0, int(kindCount)-1)
	for k := KindText; k < kindCount; k++ {
		ks = append(ks, k)
	}
	return ks
}

// OptionType is the numeric node type used in registration descriptors.
type OptionType int

const (
	OptionSubCommand      OptionType = 1
	OptionSubCommandGroup OptionType = 2
	OptionString          OptionType = 3
	OptionInteger         OptionType = 4
	OptionBoolean         OptionType = 5
	OptionUser            OptionType = 6
	OptionChannel         OptionType = 7
	OptionRole            OptionType = 8
	OptionMentionable     OptionType = 9
	OptionNumber          OptionType = 10
	OptionAttachment      OptionType = 11
)

type codec struct {
	wire   OptionType
	decode func(Value) (any, error)
	// zero is the fallback for default-flagged options; nil means the kind has none.
	zero any
}

var codecs = map[Kind]codec{
	KindText: {wire: OptionString, zero: "", decode: func(v Value) (any, error) {
		if v.Tag != TagString {
			return nil, ErrBadOptionType
		}
		return v.String, nil
	}},
	KindInteger: {wire: OptionInteger, zero: int64(0), decode: func(v Value) (any, error) {
		if v.Tag != TagInteger {
			return nil, ErrBadOptionType
		}
		if v.Overflow {
			return nil, ErrBadOptionValue
		}
		return v.Integer, nil
	}},
	KindFloat: {wire: OptionNumber, zero: float64(0), decode: func(v Value) (any, error) {
		if v.Tag != TagNumber {
			return nil, ErrBadOptionType
		}
		return v.Number, nil
	}},
	KindBoolean: {wire: OptionBoolean, zero: false, decode: func(v Value) (any, error) {
		if v.Tag != TagBoolean {
			return nil, ErrBadOptionType
		}
		return v.Boolean, nil
	}},
	KindUser: {wire: OptionUser, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagUser:
			if v.User == nil {
				return nil, ErrBadOptionValue
			}
			return v.User, nil
		case TagUnresolvedUser:
			return nil, ErrBadOptionValue
		}
		return nil, ErrBadOptionType
	}},
	KindMember: {wire: OptionUser, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagUser:
			if v.User == nil || v.Member == nil {
				return nil, ErrBadOptionValue
			}
			m := *v.Member
			if m.User == nil {
				m.User = v.User
			}
			return &m, nil
		case TagUnresolvedUser:
			return nil, ErrBadOptionValue
		}
		return nil, ErrBadOptionType
	}},
	KindRole: {wire: OptionRole, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagRole:
			if v.Role == nil {
				return nil, ErrBadOptionValue
			}
			return v.Role, nil
		case TagUnresolvedRole:
			return nil, ErrBadOptionValue
		}
		return nil, ErrBadOptionType
	}},
	KindChannel: {wire: OptionChannel, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagChannel:
			if v.Channel == nil {
				return nil, ErrBadOptionValue
			}
			return v.Channel, nil
		case TagUnresolvedChannel:
			return nil, ErrBadOptionValue
		}
		return nil, ErrBadOptionType
	}},
	KindMentionable: {wire: OptionMentionable, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagUser:
			if v.User == nil {
				return nil, ErrBadOptionValue
			}
			return Mentionable{User: v.User, Member: v.Member}, nil
		case TagRole:
			if v.Role == nil {
				return nil, ErrBadOptionValue
			}
			return Mentionable{Role: v.Role}, nil
		case TagUnresolvedMentionable, TagUnresolvedUser, TagUnresolvedRole:
			return nil, ErrBadOptionValue
		}
		return nil, ErrBadOptionType
	}},
	KindAttachment: {wire: OptionAttachment, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagAttachment:
			if v.Attachment == nil {
				return nil, ErrBadOptionValue
			}
			return v.Attachment, nil
		case TagUnresolvedAttachment:
			return nil, ErrBadOptionValue
		}
		return nil, ErrBadOptionType
	}},
	KindUserID: {wire: OptionUser, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagUser:
			if v.User == nil {
				return nil, ErrBadOptionValue
			}
			return snowflake(v.User.ID)
		case TagUnresolvedUser:
			return snowflake(v.ID)
		}
		return nil, ErrBadOptionType
	}},
	KindRoleID: {wire: OptionRole, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagRole:
			if v.Role == nil {
				return nil, ErrBadOptionValue
			}
			return snowflake(v.Role.ID)
		case TagUnresolvedRole:
			return snowflake(v.ID)
		}
		return nil, ErrBadOptionType
	}},
	KindChannelID: {wire: OptionChannel, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagChannel:
			if v.Channel == nil {
				return nil, ErrBadOptionValue
			}
			return snowflake(v.Channel.ID)
		case TagUnresolvedChannel:
			return snowflake(v.ID)
		}
		return nil, ErrBadOptionType
	}},
	KindMentionableID: {wire: OptionMentionable, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagUser:
			if v.User == nil {
				return nil, ErrBadOptionValue
			}
			return snowflake(v.User.ID)
		case TagRole:
			if v.Role == nil {
				return nil, ErrBadOptionValue
			}
			return snowflake(v.Role.ID)
		case TagUnresolvedMentionable, TagUnresolvedUser, TagUnresolvedRole:
			return snowflake(v.ID)
		}
		return nil, ErrBadOptionType
	}},
	KindAttachmentID: {wire: OptionAttachment, decode: func(v Value) (any, error) {
		switch v.Tag {
		case TagAttachment:
			if v.Attachment == nil {
				return nil, ErrBadOptionValue
			}
			return snowflake(v.Attachment.ID)
		case TagUnresolvedAttachment:
			return snowflake(v.ID)
		}
		return nil, ErrBadOptionType
	}},
}

func snowflake(s string) (any, error) {
	id, err := ParseSnowflake(s)
	if err != nil {
		return nil, ErrBadOptionValue
	}
	return id, nil
}

// CheckCodecs verifies that every kind in Kinds has a codec with a wire type
// and a decoder. NewTree runs it before accepting any schema.
func CheckCodecs() error {
	var errs []error
	for _, k := range Kinds() {
		c, ok := codecs[k]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("kind %s has no codec", k))
		case c.decode == nil:
			errs = append(errs, fmt.Errorf("kind %s has no decoder", k))
		case c.wire == 0:
			errs = append(errs, fmt.Errorf("kind %s has no wire type", k))
		}
	}
	if len(codecs) != len(Kinds()) {
		errs = append(errs, fmt.Errorf("codec table has %d entries for %d kinds", len(codecs), len(Kinds())))
	}
	return errors.Join(errs...)
}

// Decode converts a resolved value into the Go value for kind. It checks the
// value's tag only; numeric and length bounds are the platform's concern.
func Decode(kind Kind, v Value) (any, error) {
	c, ok := codecs[kind]
	if !ok {
		return nil, ErrBadOptionType
	}
	return c.decode(v)
}

// HasDefault reports whether kind has a well-defined fallback value.
func HasDefault(kind Kind) bool {
	c, ok := codecs[kind]
	return ok && c.zero != nil
}

// WireType returns the descriptor type for kind.
func WireType(kind Kind) OptionType {
	return codecs[kind].wire
}
