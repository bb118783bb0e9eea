package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/code-comments/internal/auth"
	"github.com/evcraddock/code-comments/internal/chrome"
	"github.com/evcraddock/code-comments/internal/codecomments"
	"github.com/evcraddock/code-comments/internal/comment"
	"github.com/evcraddock/code-comments/internal/config"
	"github.com/evcraddock/code-comments/internal/db"
	"github.com/evcraddock/code-comments/internal/logging"
	"github.com/evcraddock/code-comments/internal/notify"
	"github.com/evcraddock/code-comments/internal/source"
	"github.com/evcraddock/code-comments/internal/vcs"
	"github.com/evcraddock/code-comments/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  "Start the HTTP server with the source browser, the comment pages and the comments API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if flagDB != "" {
				cfg.DBPath = flagDB
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = strconv.Itoa(port)
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides the config)")

	return cmd
}

func runServe(cfg config.Config) error {
	logging.Setup(cfg.DevMode)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	href := chrome.NewHref(chrome.HrefConfig{
		Base:         cfg.BasePath(),
		NewTicketURL: cfg.TicketURL,
		WikiURL:      cfg.WikiURL,
	})

	mailer := notify.NewMailer(notify.Config{
		BaseURL:    cfg.Origin(),
		SiteName:   cfg.SiteName,
		DevMode:    cfg.DevMode,
		SMTPHost:   cfg.SMTPHost,
		SMTPPort:   cfg.SMTPPort,
		SMTPUser:   cfg.SMTPUser,
		SMTPPass:   cfg.SMTPPass,
		SMTPFrom:   cfg.SMTPFrom,
		Recipients: cfg.NotifyRecipients,
	}, href)
	comments := comment.NewRepository(database, mailer)

	repo := vcs.NewGit(cfg.RepoDir, cfg.RepoName)
	plugin := codecomments.New(comments, codecomments.Config{
		RepoName:          repo.Name(),
		FormattingHelpURL: cfg.FormattingHelpURL,
	})

	env := chrome.NewEnv()
	if err := env.Register(source.Components(repo)...); err != nil {
		return fmt.Errorf("registering source pages: %w", err)
	}
	if err := env.Register(plugin.Components()...); err != nil {
		return fmt.Errorf("registering code comments: %w", err)
	}

	users := auth.NewUserStore(database, cfg.AdminUsers)
	identifier := auth.NewIdentifier(users, auth.NewAPIKeyStore(database), cfg.TrustedUserHeader)

	dispatcher, err := chrome.NewDispatcher(env, chrome.Options{
		Href:           href,
		Identify:       identifier.Identify,
		SiteName:       cfg.SiteName,
		DefaultHandler: cfg.DefaultHandler,
		CookieSecret:   []byte(cfg.CookieSecret),
		Debug:          cfg.DevMode,
		SecureCookies:  strings.HasPrefix(cfg.BaseURL, "https://"),
	})
	if err != nil {
		return err
	}

	srv := web.NewServer(web.Options{
		DB:          database,
		Dispatcher:  dispatcher,
		Identify:    identifier.Middleware,
		BasePath:    cfg.BasePath(),
		HtdocsDir:   cfg.HtdocsDir,
		CORSOrigins: cfg.CORSOrigins,
		BehindProxy: cfg.BehindProxy,
		Version:     Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("serving repository", "name", repo.Name(), "dir", cfg.RepoDir, "url", cfg.BaseURL)
	return srv.ListenAndServe(ctx, ":"+cfg.Port)
}
