package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func NewMvCmd(c *Context) *cobra.Command {
	var overwrite bool
	subc := &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Move or rename a remote file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return c.NC.Move(context.Background(), pos[0], pos[1], overwrite)
		},
	}
	subc.PersistentFlags().BoolVarP(&overwrite, "overwrite", "f", false, "overwrite an existing destination")
	return subc
}

func init() {
	register(NewMvCmd)
}
