package gmail

import (
	"fmt"
	"strings"
)

// Query is a composable Gmail search expression.
//
// Queries combine with And/Or/Not:
//
//	q := NewerThanDays(7).And(HasAttachment()).And(From("boss@example.com"))
//	messages, err := client.Search(ctx, q, 25)
type Query struct {
	q string
}

// Raw wraps a literal Gmail query string.
func Raw(query string) Query {
	return Query{q: query}
}

func (q Query) String() string {
	return q.q
}

// IsZero reports whether the query is empty.
func (q Query) IsZero() bool {
	return q.q == ""
}

// And combines two queries; both must match.
func (q Query) And(other Query) Query {
	switch {
	case q.q == "":
		return other
	case other.q == "":
		return q
	}
	return Query{q: q.q + " " + other.q}
}

// Or combines two queries; either may match.
func (q Query) Or(other Query) Query {
	return Query{q: fmt.Sprintf("(%s) OR (%s)", q.q, other.q)}
}

// Not negates the query.
func (q Query) Not() Query {
	return Query{q: fmt.Sprintf("-(%s)", q.q)}
}

// quoteIfSpaced wraps multi-word values in quotes, matching how the
// Gmail search syntax expects phrases.
func quoteIfSpaced(value string) string {
	if strings.Contains(value, " ") {
		return `"` + value + `"`
	}
	return value
}

// From matches messages from a specific sender.
func From(address string) Query { return Query{q: "from:" + address} }

// To matches messages to a specific recipient.
func To(address string) Query { return Query{q: "to:" + address} }

// Subject matches messages whose subject contains text.
func Subject(text string) Query { return Query{q: "subject:" + quoteIfSpaced(text)} }

// HasWords matches messages containing the given words.
func HasWords(words string) Query { return Query{q: words} }

// HasAttachment matches messages with attachments.
func HasAttachment() Query { return Query{q: "has:attachment"} }

// IsUnread matches unread messages.
func IsUnread() Query { return Query{q: "is:unread"} }

// IsRead matches read messages.
func IsRead() Query { return Query{q: "is:read"} }

// IsStarred matches starred messages.
func IsStarred() Query { return Query{q: "is:starred"} }

// IsImportant matches important messages.
func IsImportant() Query { return Query{q: "is:important"} }

// InInbox matches messages in the inbox.
func InInbox() Query { return Query{q: "in:inbox"} }

// InSent matches sent messages.
func InSent() Query { return Query{q: "in:sent"} }

// InDrafts matches draft messages.
func InDrafts() Query { return Query{q: "in:drafts"} }

// InTrash matches trashed messages.
func InTrash() Query { return Query{q: "in:trash"} }

// InSpam matches spam messages.
func InSpam() Query { return Query{q: "in:spam"} }

// LabelNamed matches messages carrying a label.
func LabelNamed(name string) Query { return Query{q: "label:" + quoteIfSpaced(name)} }

// NewerThanDays matches messages newer than n days.
func NewerThanDays(n int) Query { return Query{q: fmt.Sprintf("newer_than:%dd", n)} }

// NewerThanMonths matches messages newer than n months.
func NewerThanMonths(n int) Query { return Query{q: fmt.Sprintf("newer_than:%dm", n)} }

// OlderThanDays matches messages older than n days.
func OlderThanDays(n int) Query { return Query{q: fmt.Sprintf("older_than:%dd", n)} }

// OlderThanMonths matches messages older than n months.
func OlderThanMonths(n int) Query { return Query{q: fmt.Sprintf("older_than:%dm", n)} }

// After matches messages after a date (YYYY/MM/DD).
func After(date string) Query { return Query{q: "after:" + date} }

// Before matches messages before a date (YYYY/MM/DD).
func Before(date string) Query { return Query{q: "before:" + date} }

// Filename matches messages with an attachment matching name.
func Filename(name string) Query { return Query{q: "filename:" + name} }

// LargerThan matches messages larger than size in bytes.
func LargerThan(bytes int64) Query { return Query{q: fmt.Sprintf("larger:%d", bytes)} }

// SmallerThan matches messages smaller than size in bytes.
func SmallerThan(bytes int64) Query { return Query{q: fmt.Sprintf("smaller:%d", bytes)} }

// InCategory matches messages in an inbox category
// (primary, social, promotions, updates, forums).
func InCategory(name string) Query { return Query{q: "category:" + name} }

// SearchOptions builds a query from flat parameters, for callers that
// prefer filling a struct over chaining combinators.
type SearchOptions struct {
	From           string
	To             string
	Subject        string
	Unread         bool
	Starred        bool
	ExcludeStarred bool
	HasAttachment  bool
	NewerThanDays  int
	OlderThanDays  int
	Labels         []string
}

// Build assembles the options into a Query.
func (o SearchOptions) Build() Query {
	var parts []string

	if o.From != "" {
		parts = append(parts, "from:"+o.From)
	}
	if o.To != "" {
		parts = append(parts, "to:"+o.To)
	}
	if o.Subject != "" {
		parts = append(parts, "subject:"+quoteIfSpaced(o.Subject))
	}
	if o.Unread {
		parts = append(parts, "is:unread")
	}
	if o.Starred {
		parts = append(parts, "is:starred")
	}
	if o.ExcludeStarred {
		parts = append(parts, "-is:starred")
	}
	if o.NewerThanDays > 0 {
		parts = append(parts, fmt.Sprintf("newer_than:%dd", o.NewerThanDays))
	}
	if o.OlderThanDays > 0 {
		parts = append(parts, fmt.Sprintf("older_than:%dd", o.OlderThanDays))
	}
	for _, label := range o.Labels {
		parts = append(parts, "label:"+quoteIfSpaced(label))
	}
	if o.HasAttachment {
		parts = append(parts, "has:attachment")
	}

	return Query{q: strings.Join(parts, " ")}
}
