package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the mentor a question",
	Long: `Sends one question in the active session and prints the answer.
When no session exists yet, one is created first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if askSession != "" {
			if err := application.repo.SetActive(askSession); err != nil {
				return err
			}
		} else if _, ok := application.repo.ActiveSession(); !ok {
			if _, err := application.repo.Create(""); err != nil {
				return err
			}
		}

		question := strings.Join(args, " ")
		reply, err := application.controller.Submit(cmd.Context(), question)
		if err != nil {
			return err
		}

		if reply.IsError() {
			log.Error(reply.Text)
			return nil
		}

		fmt.Println(reply.Text)
		if reply.Source != "" {
			fmt.Printf("\nSource: %s\n", reply.Source)
		}
		if current, ok := application.notifier.Current(); ok {
			log.Warn(current.Text)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "Session id to ask in (defaults to the active session)")
	rootCmd.AddCommand(askCmd)
}
