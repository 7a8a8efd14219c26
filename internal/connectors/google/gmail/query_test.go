package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryBuilders(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"from", From("boss@example.com"), "from:boss@example.com"},
		{"to", To("team@example.com"), "to:team@example.com"},
		{"subject single word", Subject("invoice"), "subject:invoice"},
		{"subject phrase quoted", Subject("quarterly report"), `subject:"quarterly report"`},
		{"has attachment", HasAttachment(), "has:attachment"},
		{"unread", IsUnread(), "is:unread"},
		{"read", IsRead(), "is:read"},
		{"starred", IsStarred(), "is:starred"},
		{"important", IsImportant(), "is:important"},
		{"inbox", InInbox(), "in:inbox"},
		{"sent", InSent(), "in:sent"},
		{"drafts", InDrafts(), "in:drafts"},
		{"trash", InTrash(), "in:trash"},
		{"spam", InSpam(), "in:spam"},
		{"label", LabelNamed("Work"), "label:Work"},
		{"label with space quoted", LabelNamed("Follow Up"), `label:"Follow Up"`},
		{"newer than days", NewerThanDays(7), "newer_than:7d"},
		{"newer than months", NewerThanMonths(2), "newer_than:2m"},
		{"older than days", OlderThanDays(30), "older_than:30d"},
		{"older than months", OlderThanMonths(6), "older_than:6m"},
		{"after", After("2026/01/15"), "after:2026/01/15"},
		{"before", Before("2026/02/01"), "before:2026/02/01"},
		{"filename", Filename("report.pdf"), "filename:report.pdf"},
		{"larger", LargerThan(1048576), "larger:1048576"},
		{"smaller", SmallerThan(4096), "smaller:4096"},
		{"category", InCategory("promotions"), "category:promotions"},
		{"words", HasWords("project deadline"), "project deadline"},
		{"raw", Raw("is:unread from:me"), "is:unread from:me"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.String())
		})
	}
}

func TestQueryAnd(t *testing.T) {
	q := NewerThanDays(7).And(HasAttachment()).And(From("boss@example.com"))
	assert.Equal(t, "newer_than:7d has:attachment from:boss@example.com", q.String())
}

func TestQueryAndWithEmpty(t *testing.T) {
	assert.Equal(t, "is:unread", Query{}.And(IsUnread()).String())
	assert.Equal(t, "is:unread", IsUnread().And(Query{}).String())
}

func TestQueryOr(t *testing.T) {
	q := IsUnread().Or(IsStarred())
	assert.Equal(t, "(is:unread) OR (is:starred)", q.String())
}

func TestQueryNot(t *testing.T) {
	q := IsStarred().Not()
	assert.Equal(t, "-(is:starred)", q.String())
}

func TestQueryIsZero(t *testing.T) {
	assert.True(t, Query{}.IsZero())
	assert.False(t, IsUnread().IsZero())
}

func TestSearchOptionsBuild(t *testing.T) {
	q := SearchOptions{
		From:          "alice@example.com",
		Subject:       "status update",
		Unread:        true,
		NewerThanDays: 2,
		Labels:        []string{"Work", "Follow Up"},
		HasAttachment: true,
	}.Build()

	assert.Equal(t,
		`from:alice@example.com subject:"status update" is:unread newer_than:2d label:Work label:"Follow Up" has:attachment`,
		q.String())
}

func TestSearchOptionsBuildExcludeStarred(t *testing.T) {
	q := SearchOptions{Starred: false, ExcludeStarred: true}.Build()
	assert.Equal(t, "-is:starred", q.String())
}

func TestSearchOptionsBuildEmpty(t *testing.T) {
	assert.True(t, SearchOptions{}.Build().IsZero())
}
