package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/noah-isme/incident-admin/internal/client"
	"github.com/noah-isme/incident-admin/internal/tui"
	"github.com/noah-isme/incident-admin/internal/usertable"
)

var (
	browseAPIURL   string
	browseEmail    string
	browsePassword string
	browseQuery    string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the users list in the terminal",
	Long: `Signs in to the admin API and opens an interactive users table.

The --query flag seeds the table the same way a link to /admin/users does, e.g.
  usersctl browse --email admin@example.com --query "q=jane&pageIndex=1"`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseAPIURL, "api-url", "", "API base URL (default http://localhost:PORT+API_PREFIX)")
	browseCmd.Flags().StringVar(&browseEmail, "email", "", "account email")
	browseCmd.Flags().StringVar(&browsePassword, "password", "", "account password (prompted when empty)")
	browseCmd.Flags().StringVar(&browseQuery, "query", "", "initial table query string")
	_ = browseCmd.MarkFlagRequired("email")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	query, err := url.ParseQuery(browseQuery)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}

	baseURL := browseAPIURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d%s", cfg.Port, cfg.APIPrefix)
	}
	api, err := client.New(baseURL)
	if err != nil {
		return err
	}

	password := browsePassword
	if password == "" {
		if password, err = promptPassword(cmd); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	res, err := api.Login(ctx, browseEmail, password)
	cancel()
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !res.Success || res.Data == nil {
		return errors.New(res.Message)
	}
	logr.Sugar().Debugw("signed in", "user", res.Data.Email, "role", res.Data.Role)

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := api.Logout(ctx); err != nil {
			logr.Sugar().Warnw("logout failed", "error", err)
		}
	}()

	model := tui.New(api, tui.Config{
		Viewer:   usertable.Viewer{ID: res.Data.ID, Role: res.Data.Role},
		Defaults: usertable.Defaults(cfg.Table),
		Debounce: cfg.Table.SearchDebounce,
		Query:    query,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
