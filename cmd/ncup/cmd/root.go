package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aaronsegura/ncfile"
	"github.com/aaronsegura/ncfile/cmd/ncup/config"
	"github.com/aaronsegura/ncfile/davclient"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
)

const (
	defaultConfigFileEnv = "NCUP_CONFIG"
)

var cmds []CreateFunc

type Context struct {
	NC     *ncfile.Client
	Config *config.Config
}

type CreateFunc func(ctx *Context) *cobra.Command

func register(cr CreateFunc) {
	cmds = append(cmds, cr)
}

func initContext(ctx *Context, cfgs []string) error {
	var c *config.Config
	var err error
	for _, cfg := range cfgs {
		c, err = config.Parse(cfg)
		if err != nil {
			continue
		}
	}
	if err != nil {
		return fmt.Errorf("no valid config file found, last err:%w", err)
	}
	ctx.Config = c
	logger.Init("", c.LogLevel, 0, 0, 0, true)
	dav, err := davclient.New(
		davclient.WithEndpoint(c.Endpoint),
		davclient.WithAuth(c.User, c.Password),
		davclient.WithHTTPClient(&http.Client{Timeout: time.Duration(c.Timeout) * time.Second}),
	)
	if err != nil {
		return err
	}
	opts := []ncfile.Option{ncfile.WithDavClient(dav)}
	if len(c.CacheDir) != 0 {
		opts = append(opts, ncfile.WithStagingRoot(c.CacheDir))
	}
	cli, err := ncfile.New(opts...)
	if err != nil {
		return err
	}
	ctx.NC = cli
	return nil
}

func NewRoot() *cobra.Command {
	var configFile string
	ctx := &Context{}
	var rootCmd = &cobra.Command{
		Use:   "ncup",
		Short: "Nextcloud file CLI tool",
	}
	for _, cr := range cmds {
		rootCmd.AddCommand(cr(ctx))
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		envConfigFile, _ := os.LookupEnv(defaultConfigFileEnv)
		return initContext(ctx, []string{configFile, "/etc/ncup/ncup_config.json", envConfigFile})
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	return rootCmd
}
