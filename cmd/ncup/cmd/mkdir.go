package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func NewMkdirCmd(c *Context) *cobra.Command {
	var parents bool
	subc := &cobra.Command{
		Use:   "mkdir <remote-dir>",
		Short: "Create a remote folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			ctx := context.Background()
			if parents {
				return c.NC.MkdirWithParents(ctx, pos[0])
			}
			return c.NC.Mkdir(ctx, pos[0])
		},
	}
	subc.PersistentFlags().BoolVarP(&parents, "parents", "p", false, "create missing parent folders too")
	return subc
}

func init() {
	register(NewMkdirCmd)
}
