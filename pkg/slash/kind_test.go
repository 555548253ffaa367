package slash

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCodecs(t *testing.T) {
	require.NoError(t, CheckCodecs())
	for _, k := range Kinds() {
		assert.NotZero(t, WireType(k), "kind %s", k)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("duration")
	assert.Error(t, err)
}

func TestDecodeMatchingTag(t *testing.T) {
	user := &User{ID: "10", Username: "ana"}
	member := &Member{Nick: "an"}
	role := &Role{ID: "20", Name: "mods"}
	channel := &Channel{ID: "30", Name: "general"}
	file := &Attachment{ID: "40", Filename: "a.png"}

	tests := []struct {
		kind Kind
		in   Value
		want any
	}{
		{KindText, String("hi"), "hi"},
		{KindInteger, Integer(-7), int64(-7)},
		{KindFloat, Number(2.5), 2.5},
		{KindBoolean, Boolean(true), true},
		{KindUser, UserValue(user, nil), user},
		{KindMember, UserValue(user, member), &Member{User: user, Nick: "an"}},
		{KindRole, RoleValue(role), role},
		{KindChannel, ChannelValue(channel), channel},
		{KindMentionable, RoleValue(role), Mentionable{Role: role}},
		{KindMentionable, UserValue(user, member), Mentionable{User: user, Member: member}},
		{KindAttachment, AttachmentValue(file), file},
		{KindUserID, UserValue(user, nil), Snowflake(10)},
		{KindUserID, Unresolved(TagUnresolvedUser, "11"), Snowflake(11)},
		{KindRoleID, Unresolved(TagUnresolvedRole, "21"), Snowflake(21)},
		{KindChannelID, ChannelValue(channel), Snowflake(30)},
		{KindMentionableID, Unresolved(TagUnresolvedMentionable, "50"), Snowflake(50)},
		{KindMentionableID, RoleValue(role), Snowflake(20)},
		{KindAttachmentID, Unresolved(TagUnresolvedAttachment, "41"), Snowflake(41)},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, err := Decode(tt.kind, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		in   Value
		want error
	}{
		{"integer as text", KindText, Integer(1), ErrBadOptionType},
		{"text as integer", KindInteger, String("1"), ErrBadOptionType},
		{"number as integer", KindInteger, Number(1), ErrBadOptionType},
		{"integer overflow", KindInteger, InvalidInteger(1e20), ErrBadOptionValue},
		{"role as user", KindUser, RoleValue(&Role{ID: "1"}), ErrBadOptionType},
		{"unresolved user", KindUser, Unresolved(TagUnresolvedUser, "1"), ErrBadOptionValue},
		{"member without member data", KindMember, UserValue(&User{ID: "1"}, nil), ErrBadOptionValue},
		{"channel as mentionable", KindMentionable, ChannelValue(&Channel{ID: "1"}), ErrBadOptionType},
		{"malformed id", KindRoleID, Unresolved(TagUnresolvedRole, "abc"), ErrBadOptionValue},
		{"zero id", KindChannelID, Unresolved(TagUnresolvedChannel, "0"), ErrBadOptionValue},
		{"unknown kind", KindInvalid, String("x"), ErrBadOptionType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.kind, tt.in)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMissingPolicy(t *testing.T) {
	required := &option{Option: Option{Kind: KindText}}
	_, err := required.missing()
	assert.ErrorIs(t, err, ErrMissingOption)

	optional := &option{Option: Option{Kind: KindUser, Optional: true}}
	v, err := optional.missing()
	require.NoError(t, err)
	assert.Nil(t, v)

	for kind, want := range map[Kind]any{KindText: "", KindInteger: int64(0), KindFloat: 0.0, KindBoolean: false} {
		o := &option{Option: Option{Kind: kind, Default: true}}
		v, err := o.missing()
		require.NoError(t, err)
		assert.Equal(t, want, v, "kind %s", kind)
	}
	assert.False(t, HasDefault(KindUser))
}
