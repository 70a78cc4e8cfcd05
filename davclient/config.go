package davclient

import "net/http"

type config struct {
	Endpoint string
	User     string
	Password string
	Client   *http.Client
}

type Option func(*config)

func WithEndpoint(e string) Option {
	return func(c *config) {
		c.Endpoint = e
	}
}

func WithAuth(user string, password string) Option {
	return func(c *config) {
		c.User = user
		c.Password = password
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.Client = hc
	}
}
