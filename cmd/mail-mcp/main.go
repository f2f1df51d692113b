// Mail MCP server exposes IMAP/SMTP mail operations through Model Context Protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-mcp/internal/config"
	"github.com/hal9000y/mail-mcp/internal/llm"
	"github.com/hal9000y/mail-mcp/internal/mailbox"
	"github.com/hal9000y/mail-mcp/internal/tool"
	"github.com/hal9000y/mail-mcp/internal/transport"
)

func main() {
	httpAddr := flag.String("http-addr", "", "HTTP SERVER listen addr, empty to disable")
	envFileParam := flag.String("env-file", "", "Path to env file")
	configFile := flag.String("config", "", "Path to YAML config file")
	enableStdio := flag.Bool("stdio", true, "Enable stdio transport for MCP (disables stdout logging)")
	logFile := flag.String("log-file", "", "Path to log file (only used with stdio transport, otherwise logs to stdout)")

	flag.Parse()

	persistLogs := setupLogger(enableStdio, logFile)
	defer persistLogs()

	if !*enableStdio && *httpAddr == "" {
		panic("-stdio or -http-addr must be provided")
	}

	cfg := mustLoadConfig(envFileParam, configFile)
	if err := cfg.Validate(); err != nil {
		log.Println(fmt.Errorf("incomplete configuration, mail tools will fail: %w", err))
	}

	reg, err := tool.NewMailRegistry(newServices(cfg))
	if err != nil {
		panic(fmt.Errorf("tool.NewMailRegistry failed: %w", err))
	}
	mailT := tool.NewServer(reg)

	shutdown := make(chan os.Signal, 1)

	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	var errHTTPCh <-chan error
	if *httpAddr != "" {
		ln := mustListen(httpAddr)

		mux := http.NewServeMux()
		mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return mailT }, nil))

		var stopHTTP func()
		stopHTTP, errHTTPCh = serveHTTP(&http.Server{Handler: mux}, ln)
		defer stopHTTP()
	}

	var errStdioCh <-chan error
	if *enableStdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(mailT)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		log.Println("Error http server", err)
	case err := <-errStdioCh:
		log.Println("Error stdio", err)
	case <-shutdown:
		log.Println("Shutdown signal received")
	}
}

func newServices(cfg config.Config) tool.Services {
	dialer := mailbox.NewIMAPDialer(mailbox.IMAPConfig{
		Host:     cfg.IMAP.Host,
		Port:     cfg.IMAP.Port,
		Username: cfg.Account.User,
		Password: cfg.Account.Password,
		TLS:      cfg.IMAP.TLS,
		Insecure: cfg.IMAP.Insecure,
	})

	var gen llm.Generator = llm.Unconfigured{}
	if cfg.LLM.APIKey != "" {
		gen = llm.NewOpenAI(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	} else {
		log.Println("LLM_API_KEY is not set, generate_draft_reply will fail")
	}

	return tool.Services{
		Account: cfg.Account.User,
		Sender: transport.NewSMTP(transport.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.Account.User,
			Password: cfg.Account.Password,
			TLS:      cfg.SMTP.TLS,
			StartTLS: cfg.SMTP.StartTLS,
		}),
		Reader:    mailbox.NewReader(dialer),
		Generator: gen,
		MaxTokens: cfg.LLM.MaxTokens,
		Drafts:    mailbox.NewDrafts(dialer, cfg.DraftsMailboxes()...),
	}
}

func serveStdio(srv *mcp.Server) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		log.Println("Starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			err = fmt.Errorf("srv.Run failed: %w", err)
			errStdioCh <- err
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Println("Stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		log.Println("Starting http server on", ln.Addr().String())

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			log.Println(err)
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Println(fmt.Errorf("srv.Shutdown failed: %w", err))
		}

		<-errHTTPCh
		log.Println("HTTP server stopped")
	}, errHTTPCh
}

func mustListen(httpAddr *string) net.Listener {
	ln, err := net.Listen("tcp", *httpAddr)
	if err != nil {
		panic(fmt.Errorf("net.Listen failed: %w", err))
	}

	return ln
}

func mustLoadConfig(envFileParam, configFile *string) config.Config {
	if envFileParam != nil && *envFileParam != "" {
		if err := godotenv.Load(*envFileParam); err != nil {
			panic(fmt.Errorf("godotenv.Load failed: %w", err))
		}
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Errorf("config.Load failed: %w", err))
	}

	return cfg
}

func setupLogger(enableStdio *bool, logFile *string) func() {
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		log.SetOutput(f)

		return func() {
			if err := f.Close(); err != nil {
				log.Println(fmt.Errorf("f.Close failed: %w", err))
			}
		}
	}

	if *enableStdio {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stdout)
	}

	return func() {}
}
