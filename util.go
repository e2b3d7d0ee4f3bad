package main

import (
	"log/slog"
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/idna"
)

const inputMessage = "incorrect input, use valid <URL>.zip"

// ASCII characters that RFC 3986 never allows unencoded
const invalidURIChars = " \"<>\\^`{|}"

// lookup maps hosts like idna.Lookup but keeps STD3-disallowed ASCII such as "_".
var lookup = idna.New(idna.MapForLookup(), idna.BidiRule(), idna.StrictDomainName(false))

var supportedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"s3":    true,
	"file":  true,
}

// ValidateArchiveURL accepts exactly one well-formed URL whose path ends with ".zip".
// Non-IP hosts are converted to their ASCII form.
func ValidateArchiveURL(args []string) (*url.URL, error) {
	if len(args) != 1 {
		return nil, errorf(KindInvalidInput, "input", "%s: got %d arguments", inputMessage, len(args))
	}
	for _, c := range args[0] {
		if c < 0x20 || c == 0x7f || strings.ContainsRune(invalidURIChars, c) {
			return nil, errorf(KindInvalidInput, "input", "%s: invalid character %q", inputMessage, c)
		}
	}
	u, err := url.Parse(args[0])
	if err != nil {
		return nil, errorf(KindInvalidInput, "input", "%s: %w", inputMessage, err)
	}
	if !strings.HasSuffix(u.Path, ".zip") {
		return nil, errorf(KindInvalidInput, "input", "%s: path %q", inputMessage, u.Path)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if !supportedSchemes[u.Scheme] {
		return nil, errorf(KindInvalidInput, "input", "%s: unsupported scheme %q", inputMessage, u.Scheme)
	}
	if u.Scheme == "file" {
		return u, nil
	}
	host := u.Hostname()
	if host == "" {
		return nil, errorf(KindInvalidInput, "input", "%s: no host", inputMessage)
	}
	if net.ParseIP(host) != nil {
		return u, nil
	}
	ascii, err := lookup.ToASCII(host)
	if err != nil {
		return nil, errorf(KindInvalidInput, "input", "%s: host %q: %w", inputMessage, host, err)
	}
	if ascii != host {
		slog.Debug("idna", "host", host, "ascii", ascii)
		if port := u.Port(); port != "" {
			u.Host = net.JoinHostPort(ascii, port)
		} else {
			u.Host = ascii
		}
	}
	return u, nil
}

func ismatch(name string, patterns []string) bool {
	for _, pat := range patterns {
		if matched, _ := filepath.Match(pat, name); matched {
			slog.Debug("match", "name", name, "pattern", pat)
			return true
		}
	}
	return false
}

func exclude(names []string, patterns []string) []string {
	if len(patterns) == 0 {
		return names
	}
	res := make([]string, 0, len(names))
	for _, name := range names {
		if !ismatch(name, patterns) {
			res = append(res, name)
		}
	}
	return res
}
