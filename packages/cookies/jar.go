package cookies

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

// Jar stores cookies across requests. Callers run AddCookieHeader before
// dispatching a request and ExtractCookies after it returns. Domain, path,
// secure and expiry rules are the jar's business; adapters only carry
// headers and URL metadata.
type Jar interface {
	ExtractCookies(resp Response, req Request)
	AddCookieHeader(req Request)
	Clear()
}

// StdJar is a Jar backed by net/http/cookiejar and the public suffix list.
type StdJar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

var _ Jar = (*StdJar)(nil)

func NewStdJar() *StdJar {
	return &StdJar{jar: newCookieJar()}
}

func newCookieJar() *cookiejar.Jar {
	// cookiejar.New never returns an error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// ExtractCookies stores every Set-Cookie header of resp, scoped to the URL
// of req. Headers the standard parser rejects are skipped.
func (j *StdJar) ExtractCookies(resp Response, req Request) {
	u, err := parseURL(req.FullURL())
	if err != nil {
		return
	}

	var parsed []*http.Cookie
	for _, line := range resp.Info().HeaderValues("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		parsed = append(parsed, c)
	}
	if len(parsed) == 0 {
		return
	}

	j.current().SetCookies(u, parsed)
}

// AddCookieHeader sets the Cookie header of req from the matching cookies.
// A Cookie header the caller already set is left alone.
func (j *StdJar) AddCookieHeader(req Request) {
	if req.HasHeader("Cookie") {
		return
	}
	u, err := parseURL(req.FullURL())
	if err != nil {
		return
	}

	matched := j.current().Cookies(u)
	if len(matched) == 0 {
		return
	}

	pairs := make([]string, 0, len(matched))
	for _, c := range matched {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	req.AddUnredirectedHeader("Cookie", strings.Join(pairs, "; "))
}

// Clear drops every stored cookie.
func (j *StdJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar = newCookieJar()
}

// Set stores a cookie for rawURL directly, as if a response had set it.
func (j *StdJar) Set(rawURL string, c *http.Cookie) error {
	u, err := parseURL(rawURL)
	if err != nil {
		return errors.Wrapf(err, "parsing cookie url %q", rawURL)
	}
	j.current().SetCookies(u, []*http.Cookie{c})
	return nil
}

// Cookies returns the cookies a request to rawURL would carry.
func (j *StdJar) Cookies(rawURL string) ([]*http.Cookie, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing cookie url %q", rawURL)
	}
	return j.current().Cookies(u), nil
}

func (j *StdJar) current() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

// Snapshot returns a name to value copy of the cookies a request to rawURL
// would carry. Jars that cannot list cookies yield an empty map.
func Snapshot(jar Jar, rawURL string) map[string]string {
	out := map[string]string{}
	lister, ok := jar.(interface {
		Cookies(rawURL string) ([]*http.Cookie, error)
	})
	if !ok {
		return out
	}
	found, err := lister.Cookies(rawURL)
	if err != nil {
		return out
	}
	for _, c := range found {
		out[c.Name] = c.Value
	}
	return out
}
