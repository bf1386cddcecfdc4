package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
)

var (
	ErrMissingNetID     = errors.New("auth: assertion carries no netid or email")
	ErrInvalidNetID     = errors.New("auth: netid is malformed")
	ErrDomainNotTrusted = errors.New("auth: email domain not allowed")

	netIDPattern = regexp.MustCompile(`^[a-z][a-z0-9]{1,31}$`)
)

// NormalizeNetID lowercases and checks a NetID such as "abc123".
func NormalizeNetID(raw string) (string, error) {
	netID := strings.ToLower(strings.TrimSpace(raw))
	if netID == "" {
		return "", ErrMissingNetID
	}
	if !netIDPattern.MatchString(netID) {
		return "", ErrInvalidNetID
	}
	return netID, nil
}

// ResolveIdentity derives the caller identity from verified assertion claims.
// An explicit netid claim wins; otherwise the local part of the email is used.
// When allowedDomain is set the email must belong to it.
func ResolveIdentity(claims SSOClaims, allowedDomain string) (domain.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	local, host := splitEmail(email)

	if domainName := strings.ToLower(strings.TrimSpace(allowedDomain)); domainName != "" {
		if host != domainName {
			return domain.Identity{}, ErrDomainNotTrusted
		}
	}

	candidate := claims.NetID
	if strings.TrimSpace(candidate) == "" {
		candidate = local
	}
	netID, err := NormalizeNetID(candidate)
	if err != nil {
		return domain.Identity{}, err
	}

	displayName := strings.TrimSpace(claims.Name)
	if displayName == "" {
		displayName = netID
	}
	return domain.Identity{NetID: netID, Email: email, DisplayName: displayName}, nil
}

func splitEmail(email string) (string, string) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", ""
	}
	return email[:at], email[at+1:]
}
