package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScopesAreGmailPlusCalendar(t *testing.T) {
	scopes := DefaultScopes()

	assert.Equal(t, append(GmailScopes(), CalendarScopes()...), scopes)
	assert.Contains(t, scopes, ScopeGmailSend)
	assert.Contains(t, scopes, ScopeCalendarFull)
	assert.NotContains(t, scopes, ScopeDriveFull)
}

func TestAllScopesCoverEveryService(t *testing.T) {
	scopes := AllScopes()

	for _, s := range [][]string{GmailScopes(), CalendarScopes(), DriveScopes(), SheetsScopes()} {
		for _, scope := range s {
			assert.Contains(t, scopes, scope)
		}
	}
}

func TestScopesByName(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"default", DefaultScopes()},
		{"gmail", GmailScopes()},
		{"calendar", CalendarScopes()},
		{"drive", DriveScopes()},
		{"sheets", SheetsScopes()},
		{"all", AllScopes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ScopesByName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// Empty name falls back to the default set.
	got, ok := ScopesByName("")
	require.True(t, ok)
	assert.Equal(t, DefaultScopes(), got)

	_, ok = ScopesByName("contacts")
	assert.False(t, ok)
}

func TestScopeSetsAreFreshCopies(t *testing.T) {
	first := GmailScopes()
	first[0] = "mutated"

	assert.Equal(t, ScopeGmailReadonly, GmailScopes()[0])
}
