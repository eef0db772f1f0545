package cmd

import (
	"github.com/spf13/cobra"

	"github.com/donaldgifford/launchpad/internal/ui"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the command that starts a server",
	Long: `Resolve the latest release of the server, make sure its binary is cached and
print the absolute path of the executable. With --json the full command object
{"command", "args", "env"} is printed instead.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print the command as JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	w := ui.NewWriter(noColor)

	c, err := resolveCommand(cmd.Context())
	if err != nil {
		w.Error(err.Error())

		return err
	}

	if resolveJSON {
		return w.JSON(c)
	}

	w.Println(c.Command)

	return nil
}
