package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "Show the coin balance earned from quizzes",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openClient(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		fmt.Println(color.YellowString("● %d coins", env.ledger.Get()))
		return nil
	},
}
