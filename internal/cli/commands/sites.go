package commands

import (
	"net/http"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/searchlens-labs/searchlens/internal/auth"
	"github.com/searchlens-labs/searchlens/internal/provider"
	"github.com/searchlens-labs/searchlens/internal/provider/gsc"
)

// newSiteLister builds a client for site enumeration; no site selection is
// needed to list properties.
func newSiteLister(cmd *cobra.Command, httpClient *http.Client) (provider.SiteLister, error) {
	return gsc.New(cmd.Context(), httpClient, "")
}

// NewSitesCommand creates the sites command group.
func NewSitesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List and select Search Console properties",
		RunE:  runSitesList,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "select <site-url>",
		Short: "Persist the property to query",
		Args:  cobra.ExactArgs(1),
		RunE:  runSitesSelect,
	})
	return cmd
}

func runSitesList(cmd *cobra.Command, _ []string) error {
	ctxc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	store, err := ctxc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	oauthCfg, err := auth.LoadOAuthConfig(ctxc.Cfg.CredentialsPath)
	if err != nil {
		return err
	}
	httpClient, err := auth.Client(cmd.Context(), oauthCfg, store, ctxc.Cfg.Account)
	if err != nil {
		return err
	}
	client, err := newSiteLister(cmd, httpClient)
	if err != nil {
		return err
	}

	sites, err := client.ListSites(cmd.Context())
	if err != nil {
		return provider.Wrap(err)
	}

	selected, _ := store.SelectedSite()

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Site", "Permission"})
	for _, site := range sites {
		marker := ""
		if site.URL == selected {
			marker = "*"
		}
		t.AppendRow(table.Row{marker, site.URL, site.PermissionLevel})
	}
	t.Render()
	return nil
}

func runSitesSelect(cmd *cobra.Command, args []string) error {
	ctxc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	store, err := ctxc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SelectSite(args[0]); err != nil {
		return err
	}
	cmd.Printf("selected %s\n", args[0])
	return nil
}
