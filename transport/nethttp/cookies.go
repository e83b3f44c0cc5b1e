package nethttp

import (
	"bufio"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const httpOnlyPrefix = "#HttpOnly_"

// loadCookieFile reads cookies in the Netscape cookie file format into jar.
// A missing file is not an error.
func loadCookieFile(jar http.CookieJar, path string) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "opening cookie file")
	}
	defer f.Close()

	byOrigin := make(map[string][]*http.Cookie)
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		cookie, origin, ok, err := parseCookieLine(sc.Text())
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}
		if ok {
			byOrigin[origin] = append(byOrigin[origin], cookie)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "reading cookie file")
	}

	for origin, cookies := range byOrigin {
		u, err := url.Parse(origin)
		if err != nil {
			return errors.Wrapf(err, "cookie origin %q", origin)
		}
		jar.SetCookies(u, cookies)
	}
	return nil
}

// parseCookieLine parses one tab separated record:
// domain, include subdomains, path, secure, expiry, name, value.
func parseCookieLine(line string) (cookie *http.Cookie, origin string, ok bool, err error) {
	line = strings.TrimRight(line, "\r")

	httpOnly := false
	if strings.HasPrefix(line, httpOnlyPrefix) {
		line = strings.TrimPrefix(line, httpOnlyPrefix)
		httpOnly = true
	}
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, "", false, nil
	}

	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		return nil, "", false, errors.Errorf("expected 7 fields, got %d", len(fields))
	}

	domain := fields[0]
	host := strings.TrimPrefix(domain, ".")
	secure := strings.EqualFold(fields[3], "TRUE")

	expiry, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, "", false, errors.Wrap(err, "parsing expiry")
	}

	cookie = &http.Cookie{
		Name:     fields[5],
		Value:    fields[6],
		Path:     fields[2],
		Secure:   secure,
		HttpOnly: httpOnly,
	}
	if strings.EqualFold(fields[1], "TRUE") {
		cookie.Domain = host
	}
	if expiry > 0 {
		cookie.Expires = time.Unix(expiry, 0)
	}

	scheme := "http"
	if secure {
		scheme = "https"
	}
	return cookie, scheme + "://" + host + "/", true, nil
}
