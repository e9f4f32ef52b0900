package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tidechat/internal/api"
	"tidechat/internal/config"
	"tidechat/internal/diag"
	"tidechat/internal/display"
	"tidechat/internal/stream"
	"tidechat/internal/tui"
)

const version = "0.1.0"

var activeProfile string

func main() {
	args := os.Args[1:]

	// Parse global flags first (--profile)
	args = parseGlobalFlags(args)

	if dir, err := config.LogDir(); err == nil {
		_ = diag.Init(dir)
	}

	// No args → launch interactive mode (default)
	if len(args) == 0 {
		if err := tui.Run(version, activeProfile); err != nil {
			display.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	// Explicit -i flag also launches interactive mode
	if args[0] == "-i" || args[0] == "--interactive" || args[0] == "interactive" {
		if err := tui.Run(version, activeProfile); err != nil {
			display.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	var err error

	switch args[0] {
	case "send", "ask":
		err = cmdSend(args[1:])
	case "set":
		err = cmdSet(args[1:])
	case "config":
		err = cmdConfig()
	case "ping":
		err = cmdPing()
	case "profiles":
		err = cmdProfiles()
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Printf("tidechat %s\n", version)
	default:
		display.Error(fmt.Sprintf("Unknown command: %s", args[0]))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		display.Error(err.Error())
		os.Exit(1)
	}
}

// ─── send ────────────────────────────────────────────────────────────────────

func cmdSend(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: tidechat send <message>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println(`  tidechat send "What time is high tide tomorrow?"`)
		fmt.Println(`  tidechat --profile staging send "hello"`)
		return nil
	}
	message := strings.Join(args, " ")

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := api.NewClient(cfg)
	printer := display.NewStreamPrinter(os.Stdout, diag.Anomaly)

	// The reveal runs on its own clock; envelopes land in the queue as fast
	// as they arrive and show up at a steady pace.
	envCh := make(chan stream.Envelope, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- client.SendMessageStream(message, cfg.SessionID, func(env stream.Envelope) {
			envCh <- env
		})
		close(envCh)
	}()

	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	var sendErr error
loop:
	for {
		select {
		case env, ok := <-envCh:
			if !ok {
				sendErr = <-errCh
				break loop
			}
			if env.Kind == stream.KindEnd {
				if node := env.NodeName(); node != "" {
					diag.Info("stream end", "node", node)
				}
			}
			printer.HandleEnvelope(env)
		case <-ticker.C:
			printer.Tick(3)
		}
	}

	if sendErr != nil {
		display.ClearLine()
		return fmt.Errorf("sending message: %w", sendErr)
	}

	printer.Finish()
	return nil
}

// ─── set ─────────────────────────────────────────────────────────────────────

func cmdSet(args []string) error {
	if len(args) < 2 {
		fmt.Println("Usage: tidechat set <key> <value>")
		fmt.Println()
		fmt.Println("Keys:")
		fmt.Println("  webhook  Webhook URL the chat posts to  (e.g. https://host/webhook/chat)")
		fmt.Println("  host     Base URL used for reachability checks")
		fmt.Println("  timeout  Request timeout in seconds")
		return nil
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]

	switch key {
	case "webhook":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("webhook URL must be http(s), got %q", value)
		}
		cfg.WebhookURL = value
	case "host":
		cfg.Host = strings.TrimRight(value, "/")
	case "timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("timeout must be a positive number of seconds, got %q", value)
		}
		cfg.TimeoutSeconds = n
	default:
		return fmt.Errorf("unknown config key: %s (valid: webhook, host, timeout)", key)
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	display.Success(fmt.Sprintf("%s set to %s", key, value))
	return nil
}

// ─── config ──────────────────────────────────────────────────────────────────

func cmdConfig() error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	display.Header("Tidechat Configuration")

	display.Info("Profile:", config.ProfileName(activeProfile))

	webhook := cfg.WebhookURL
	if webhook == "" {
		webhook = display.Dim + "(not set)" + display.Reset
	}
	display.Info("Webhook:", webhook)

	host := cfg.Host
	if host == "" {
		host = display.Dim + "(not set)" + display.Reset
	}
	display.Info("Host:", host)

	display.Info("Timeout:", cfg.Timeout().String())
	display.Info("Session:", cfg.SessionID)

	if dir, err := config.LogDir(); err == nil {
		display.Info("Logs:", dir)
	}
	fmt.Println()

	return nil
}

// ─── ping ────────────────────────────────────────────────────────────────────

func cmdPing() error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg)

	display.Spinner("Checking host...")
	if err := client.Ping(); err != nil {
		display.ClearLine()
		return err
	}
	display.ClearLine()
	display.Success("Host is reachable")
	return nil
}

// ─── profiles ────────────────────────────────────────────────────────────────

func cmdProfiles() error {
	profiles, err := config.ListProfiles()
	if err != nil {
		return err
	}

	display.Header(fmt.Sprintf("Profiles (%d)", len(profiles)))

	if len(profiles) == 0 {
		display.Warn("No profiles found.")
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p == config.ProfileName(activeProfile) {
			marker = display.Green + "●" + display.Reset
		}
		fmt.Printf("  %s %s\n", marker, p)
	}
	fmt.Println()

	return nil
}

// ─── global flags ────────────────────────────────────────────────────────────

func parseGlobalFlags(args []string) []string {
	var remaining []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--profile" {
			if i+1 < len(args) {
				i++
				activeProfile = args[i]
			}
			continue
		}
		remaining = append(remaining, args[i])
	}
	return remaining
}

// ─── usage ───────────────────────────────────────────────────────────────────

func printUsage() {
	fmt.Printf(`%stidechat%s — terminal client for streaming chat webhooks (v%s)

%sUsage:%s
  tidechat                                           Launch interactive chat (default)
  tidechat [--profile <name>] <command> [arguments]  Run a specific command

%sGetting Started:%s
  set webhook <url>         Point the chat at your webhook endpoint
  config                    Show current configuration
  ping                      Check that the configured host responds

%sSettings:%s
  set webhook <url>         Webhook URL the chat posts to
  set host <url>            Base URL used for reachability checks
  set timeout <seconds>     Request timeout (default: %d)

%sChat:%s
  send|ask "<message>"      Send one message and stream the reply to stdout

%sProfiles:%s
  profiles                  List all config profiles
  --profile <name>          Use a named config profile (default: unnamed)

%sExamples:%s
  tidechat                                           # Start interactive chat
  tidechat set webhook https://flows.example.com/webhook/chat
  tidechat send "What time is high tide tomorrow?"
  tidechat --profile staging config

`, display.Bold, display.Reset, version,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset, config.DefaultTimeoutSeconds,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset)
}
