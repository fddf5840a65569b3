package main

import (
	"github.com/spf13/cobra"

	"github.com/petasbytes/olier/internal/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Flags())
			if err != nil {
				return err
			}
			ui := web.UI{
				Title:       a.cfg.UI.Title,
				Disclaimer:  a.cfg.UI.Disclaimer,
				FeedbackURL: a.cfg.UI.FeedbackURL,
				SearchSite:  a.cfg.UI.SearchSite,
			}
			srv := web.New(ui, a.store, a.runner, a.log)
			srv.IdleTTL = a.cfg.Session.IdleTTL
			return srv.ListenAndServe(cmd.Context(), a.cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", ":8501", "listen address")
	return cmd
}
