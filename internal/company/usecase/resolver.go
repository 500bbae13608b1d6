package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"docuflow-backend/internal/company/domain"
)

// Resolved is the outcome of company inference for one message.
type Resolved struct {
	Name  string
	Email string
}

// nameRule is one naming heuristic. Rules are evaluated in order; the first
// non-empty result wins.
type nameRule func(subject, displayName, email string) string

// Resolver infers a company (name + canonical email) from the Subject and
// From headers of a message.
type Resolver struct {
	rules []nameRule
}

func NewResolver() *Resolver {
	return &Resolver{
		rules: []nameRule{
			subjectKeywordRule,
			subjectTitleCaseRule,
			displayNameRule,
			domainLabelRule,
		},
	}
}

// Resolve extracts the sender address and runs the naming cascade. It returns
// domain.ErrCompanyNameUnresolved when no rule produces a name; callers skip
// the message in that case rather than inventing an "Unknown" company.
func (r *Resolver) Resolve(subject, from string) (*Resolved, error) {
	email := extractAddress(from)
	if email == "" {
		return nil, domain.ErrCompanyNameUnresolved
	}

	displayName := extractDisplayName(from)
	for _, rule := range r.rules {
		if name := rule(subject, displayName, email); name != "" {
			return &Resolved{Name: name, Email: email}, nil
		}
	}
	return nil, domain.ErrCompanyNameUnresolved
}

var (
	addrPattern = regexp.MustCompile(`<([^<>]+)>`)

	// "Invoice - Acme Corp", "Statement: Globex"
	keywordThenName = regexp.MustCompile(`(?i)\b(?:invoice|document|contract|report|statement|receipt)s?\s*[-:]\s*(.+)$`)
	// "Acme Corp Invoice", "Globex - Statement"
	nameThenKeyword = regexp.MustCompile(`(?i)^(.+?)\s*[-:]?\s+(?:invoice|document|contract|report|statement|receipt)s?\b`)
	// "Contract for Initech"
	prepositionName = regexp.MustCompile(`(?i)\b(?:for|to|from)\s+(.+)$`)
	// "Re: Acme Corp", "Fwd: Initech Contract"
	replyPrefixName = regexp.MustCompile(`(?i)^(?:re|fwd?|fw)\s*:\s*(.+)$`)
	// First run of two or more Title-Case words.
	titleCaseRun = regexp.MustCompile(`\b[A-Z][A-Za-z0-9&'.]*(?:\s+[A-Z][A-Za-z0-9&'.]*)+\b`)
)

// senderStopWords are generic sender terms that never name a company.
var senderStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {},
	"team": {}, "support": {}, "no-reply": {}, "noreply": {}, "donotreply": {},
	"info": {}, "admin": {}, "mail": {}, "mailer": {}, "postmaster": {},
	"notification": {}, "notifications": {}, "newsletter": {}, "news": {},
	"hello": {}, "contact": {}, "sales": {}, "billing": {}, "accounts": {},
	"service": {}, "services": {}, "help": {}, "alert": {}, "alerts": {},
}

func subjectKeywordRule(subject, _, _ string) string {
	if m := keywordThenName.FindStringSubmatch(subject); m != nil {
		if name := cleanName(m[1]); name != "" {
			return name
		}
	}
	if m := nameThenKeyword.FindStringSubmatch(subject); m != nil {
		if name := cleanName(m[1]); name != "" && startsUpper(name) {
			return name
		}
	}
	if m := prepositionName.FindStringSubmatch(subject); m != nil {
		if name := cleanName(m[1]); name != "" && startsUpper(name) {
			return name
		}
	}
	if m := replyPrefixName.FindStringSubmatch(subject); m != nil {
		if name := cleanName(m[1]); name != "" && startsUpper(name) {
			return name
		}
	}
	return ""
}

func subjectTitleCaseRule(subject, _, _ string) string {
	return cleanName(titleCaseRun.FindString(subject))
}

// displayNameRule uses the text before '<' in the From header. Generic sender
// terms are dropped, and names built around single-letter initials
// ("J. Smith") are treated as personal names, not companies.
func displayNameRule(_, displayName, _ string) string {
	var kept []string
	hasLongWord := false
	for _, word := range strings.Fields(displayName) {
		if isInitial(word) {
			return ""
		}
		lower := strings.ToLower(strings.Trim(word, ".,;"))
		if _, stop := senderStopWords[lower]; stop {
			continue
		}
		kept = append(kept, word)
		if len([]rune(lower)) > 2 {
			hasLongWord = true
		}
	}
	if len(kept) == 0 || !hasLongWord {
		return ""
	}
	return cleanName(strings.Join(kept, " "))
}

// domainLabelRule capitalizes the first label of the sender's domain:
// j@randomdomain.io -> "Randomdomain".
func domainLabelRule(_, _, email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	label := email[at+1:]
	if dot := strings.Index(label, "."); dot >= 0 {
		label = label[:dot]
	}
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + strings.ToLower(label[1:])
}

// extractAddress takes addr from "Name <addr>", or the whole header value
// when no angle brackets are present.
func extractAddress(from string) string {
	if m := addrPattern.FindStringSubmatch(from); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(from)
}

func extractDisplayName(from string) string {
	if idx := strings.Index(from, "<"); idx > 0 {
		return strings.Trim(strings.TrimSpace(from[:idx]), `"'`)
	}
	return ""
}

func cleanName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	name = strings.TrimRight(name, ".,;:-")
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > 100 {
		name = strings.TrimSpace(name[:100])
	}
	return name
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// isInitial reports whether a word is a bare initial like "J" or "J.".
func isInitial(word string) bool {
	w := strings.TrimSuffix(word, ".")
	return len([]rune(w)) == 1 && unicode.IsLetter([]rune(w)[0])
}
