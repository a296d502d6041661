// Package httpauth provides ~/.netrc credential lookup for the HTTP
// adapters talking to the catalog and the hub.
package httpauth

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/git-lfs/go-netrc/netrc"
)

// NetrcTransport returns a transport carrying ~/.netrc credentials for the
// host of baseURL, or the default transport when none are configured.
func NetrcTransport(baseURL string) http.RoundTripper {
	home, err := os.UserHomeDir()
	if err != nil {
		return http.DefaultTransport
	}
	rc, err := netrc.ParseFile(filepath.Join(home, ".netrc"))
	if err != nil || rc == nil {
		return http.DefaultTransport
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return http.DefaultTransport
	}
	machine := rc.FindMachine(u.Hostname(), "")
	if machine == nil {
		return http.DefaultTransport
	}
	return &basicAuthTransport{
		base:     http.DefaultTransport,
		login:    machine.Login,
		password: machine.Password,
	}
}

type basicAuthTransport struct {
	base     http.RoundTripper
	login    string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.login, t.password)
	return t.base.RoundTrip(req)
}
