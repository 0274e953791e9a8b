package collector

import "strings"

// freeMailDomains are consumer mailbox providers. An address there says less about the
// owner than a company or personal domain does.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"outlook.com":    true,
	"hotmail.com":    true,
	"proton.me":      true,
	"protonmail.com": true,
	"icloud.com":     true,
}

const noreplySuffix = "users.noreply.github.com"

// EmailDomain returns the lower-cased domain of addr, or "".
func EmailDomain(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr[at+1:]))
}

// IsFreeMail reports whether addr belongs to a consumer provider or a platform relay address.
func IsFreeMail(addr string) bool {
	domain := EmailDomain(addr)
	return freeMailDomains[domain] || strings.HasSuffix(domain, noreplySuffix)
}

// EmailConfidence grades an address found in commit metadata.
func EmailConfidence(addr string) string {
	if IsFreeMail(addr) {
		return Low
	}
	return Medium
}
