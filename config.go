package ncfile

import "github.com/aaronsegura/ncfile/davclient"

type config struct {
	Dav         davclient.IDavClient
	StagingRoot string
}

type Option func(*config)

func WithDavClient(cli davclient.IDavClient) Option {
	return func(c *config) {
		c.Dav = cli
	}
}

func WithStagingRoot(dir string) Option {
	return func(c *config) {
		c.StagingRoot = dir
	}
}
