package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/searchlens-labs/searchlens/internal/auth"
	"github.com/searchlens-labs/searchlens/internal/state"
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Search Console credentials",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Authorize via the browser consent flow",
			RunE:  runAuthLogin,
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Delete the stored token",
			RunE:  runAuthLogout,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether a token is stored",
			RunE:  runAuthStatus,
		},
	)
	return cmd
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
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
	if err := auth.Login(cmd.Context(), oauthCfg, store, ctxc.Cfg.Account, cmd.OutOrStdout(), cmd.InOrStdin()); err != nil {
		return err
	}
	cmd.Println(ctxc.Styles.Success.Render("authorized"))
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	ctxc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	store, err := ctxc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.DeleteToken(ctxc.Cfg.Account); err != nil {
		return err
	}
	cmd.Println("token deleted")
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	ctxc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	store, err := ctxc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	token, err := store.Token(ctxc.Cfg.Account)
	if errors.Is(err, state.ErrNoToken) {
		cmd.Println("not authorized (run 'searchlens auth login')")
		return nil
	}
	if err != nil {
		return err
	}
	if token.Valid() {
		cmd.Println("authorized")
	} else {
		cmd.Println("token expired; it will refresh on next use")
	}
	return nil
}
