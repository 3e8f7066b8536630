package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/csmentor/csmentor/internal/session"
)

var listDeleted bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		var sessions []*session.Session
		if listDeleted {
			sessions = application.repo.Deleted()
		} else {
			sessions = application.repo.Sessions()
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMESSAGES\tACTIVE\tCREATED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%s\n",
				s.ID, s.Name, len(s.Messages), s.Active, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a session and make it active",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		created, err := application.repo.Create(name)
		if err != nil {
			return err
		}
		fmt.Printf("Created session %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		return application.repo.Rename(args[0], args[1])
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Move a session to the deleted list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		return application.repo.SoftDelete(args[0])
	},
}

var sessionsRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a deleted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.repo.Restore(args[0]); err != nil {
			return err
		}
		if current, ok := application.notifier.Current(); ok {
			fmt.Println(current.Text)
		}
		return nil
	},
}

var sessionsActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Make a session the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		return application.repo.SetActive(args[0])
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all sessions, including the deleted list",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.repo.ClearAll(); err != nil {
			return err
		}
		fmt.Println("All sessions cleared.")
		return nil
	},
}

var sessionsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write a manual snapshot of all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.repo.SaveSnapshot(); err != nil {
			return err
		}
		fmt.Println("Sessions saved.")
		return nil
	},
}

var sessionsAutosaveCmd = &cobra.Command{
	Use:   "autosave <on|off>",
	Short: "Toggle automatic persistence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseToggle(args[0])
		if err != nil {
			return err
		}

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.repo.SetAutoSave(enabled); err != nil {
			return err
		}
		fmt.Printf("Auto-save %s.\n", map[bool]string{true: "enabled", false: "disabled"}[enabled])
		return nil
	},
}

func parseToggle(value string) (bool, error) {
	switch value {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", value)
	}
	return enabled, nil
}

func init() {
	sessionsListCmd.Flags().BoolVar(&listDeleted, "deleted", false, "List deleted sessions instead")
	sessionsCmd.AddCommand(
		sessionsListCmd,
		sessionsNewCmd,
		sessionsRenameCmd,
		sessionsDeleteCmd,
		sessionsRestoreCmd,
		sessionsActivateCmd,
		sessionsClearCmd,
		sessionsSaveCmd,
		sessionsAutosaveCmd,
	)
	rootCmd.AddCommand(sessionsCmd)
}
