package logger

import (
	"regexp"
	"strings"
)

// addressPattern finds sending-inbox addresses inside free-form values such
// as upstream error messages.
var addressPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// RedactEmail masks the mailbox of a sending-inbox address. The domain is
// kept since inbox issues are triaged per sending domain, and plus tags
// (warmup+... style aliases) are dropped with the rest of the mailbox.
//
//	RedactEmail("sdr.one+warmup@acme-mail.com") == "sd***@acme-mail.com"
//	RedactEmail("ab@acme.com")                  == "***@acme.com"
func RedactEmail(email string) string {
	mailbox, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***@***"
	}
	mailbox, _, _ = strings.Cut(mailbox, "+")
	if len(mailbox) <= 2 {
		return "***@" + domain
	}
	return mailbox[:2] + "***@" + domain
}

// redactAddresses masks every address in val. Inbox IDs and other values
// without an "@" pass through unchanged.
func redactAddresses(val string) string {
	if !strings.Contains(val, "@") {
		return val
	}
	return addressPattern.ReplaceAllStringFunc(val, RedactEmail)
}
