package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/haskoe/ledger/web"
)

type WebCmd struct {
	Period string `arg:"" help:"Period served by the API."`
	Port   int    `help:"Port to listen on." default:"8080"`
	Watch  bool   `help:"Reload tables and notify clients when they change." short:"w"`
}

func (cmd *WebCmd) Run(kctx *kong.Context, globals *Globals) error {
	s, err := newSession(kctx, globals, "web "+cmd.Period)
	if err != nil {
		return err
	}
	defer s.report()

	server := web.New(s.settings, cmd.Period, s.logger)
	server.Port = cmd.Port
	server.Version = Version
	server.WatchEnabled = cmd.Watch

	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printInfof(s.stderr, "Serving %s on http://%s:%d", pathStyle.Render(s.settings.CompanyDir()), server.Host, server.Port)
	return server.Start(ctx)
}
