package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewRmCmd(c *Context) *cobra.Command {
	subc := &cobra.Command{
		Use:   "rm <remote-paths...>",
		Short: "Delete remote files or folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			ctx := context.Background()
			for _, p := range pos {
				if err := c.NC.Delete(ctx, p); err != nil {
					return fmt.Errorf("delete %s failed, err:%w", p, err)
				}
			}
			return nil
		},
	}
	return subc
}

func init() {
	register(NewRmCmd)
}
