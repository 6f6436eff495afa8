package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/marklet/marklet/internal/client"
)

var watchResyncEvery time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow your bookmark list live",
	Long: `Keeps the bookmark list on screen and redraws it whenever the
server reports a change. A periodic refresh covers feed outages.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchResyncEvery, "resync-every", 2*time.Minute,
		"safety-net refresh interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	api, _, err := newAPI()
	if err != nil {
		return err
	}

	log := cliLogger()
	session := client.NewSession(api, log)
	mirror := client.NewMirror(api, log)
	listener := client.NewListener(api.EventsURL(), log)
	controller := client.NewController(session, mirror, listener, log, watchResyncEvery)

	controller.OnRender(func(s client.AppState) {
		fmt.Print("\033[H\033[2J") // clear screen
		if s.LoggedIn {
			color.Green("bookmarks for %s", s.Identity.Email)
		}
		renderRows(s.Rows)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ident, ok := controller.Start(ctx)
	if !ok {
		return fmt.Errorf("not authenticated (run 'markletctl login' first)")
	}
	defer listener.Unsubscribe()

	color.HiBlack("watching as %s, ctrl-c to stop", ident.Email)
	controller.Run(ctx)
	return nil
}
