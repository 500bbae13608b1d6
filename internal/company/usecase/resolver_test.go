package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuflow-backend/internal/company/domain"
)

func TestResolver_Resolve(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		name      string
		subject   string
		from      string
		wantName  string
		wantEmail string
	}{
		{
			name:      "keyword then name in subject",
			subject:   "Invoice - Acme Corp",
			from:      "Billing <billing@acme.com>",
			wantName:  "Acme Corp",
			wantEmail: "billing@acme.com",
		},
		{
			name:      "keyword with colon separator",
			subject:   "Statement: Globex",
			from:      "accounts@globex.com",
			wantName:  "Globex",
			wantEmail: "accounts@globex.com",
		},
		{
			name:      "name then keyword in subject",
			subject:   "Acme Corp Invoice",
			from:      "noreply@acme.com",
			wantName:  "Acme Corp",
			wantEmail: "noreply@acme.com",
		},
		{
			name:      "preposition before name",
			subject:   "Contract for Globex Industries",
			from:      "legal@globex.com",
			wantName:  "Globex Industries",
			wantEmail: "legal@globex.com",
		},
		{
			name:      "reply prefix stripped",
			subject:   "Re: Initech",
			from:      "peter@initech.com",
			wantName:  "Initech",
			wantEmail: "peter@initech.com",
		},
		{
			name:      "title case run in plain subject",
			subject:   "Meeting with Acme Holdings tomorrow",
			from:      "someone@acme.com",
			wantName:  "Acme Holdings",
			wantEmail: "someone@acme.com",
		},
		{
			name:      "display name with stop words removed",
			subject:   "hi",
			from:      "Stripe Billing Team <support@stripe.com>",
			wantName:  "Stripe",
			wantEmail: "support@stripe.com",
		},
		{
			name:      "personal name falls through to domain",
			subject:   "hello",
			from:      "J. Smith <j@randomdomain.io>",
			wantName:  "Randomdomain",
			wantEmail: "j@randomdomain.io",
		},
		{
			name:      "generic display name falls through to domain",
			subject:   "hi",
			from:      "Support <support@acme.io>",
			wantName:  "Acme",
			wantEmail: "support@acme.io",
		},
		{
			name:      "bare address uses domain label",
			subject:   "hello",
			from:      "billing@acme.com",
			wantName:  "Acme",
			wantEmail: "billing@acme.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := resolver.Resolve(tt.subject, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, resolved.Name)
			assert.Equal(t, tt.wantEmail, resolved.Email)
		})
	}
}

func TestResolver_Unresolvable(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		name    string
		subject string
		from    string
	}{
		{"no address and no name", "hello", "undisclosed-recipients"},
		{"empty from", "Invoice - Acme Corp", ""},
		{"address without domain", "hello", "Support <support@>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.Resolve(tt.subject, tt.from)
			assert.ErrorIs(t, err, domain.ErrCompanyNameUnresolved)
		})
	}
}

func TestCleanName_Normalizes(t *testing.T) {
	assert.Equal(t, "Acme Corp", cleanName(`  "Acme   Corp"  `))
	assert.Equal(t, "Acme Corp", cleanName("Acme Corp,"))
	assert.Equal(t, "", cleanName("   "))
}
