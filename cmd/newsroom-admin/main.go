// ABOUTME: Admin CLI for the newsroom gateway.
// ABOUTME: Manages webhook subscriptions and mints development tokens over HTTP.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/ledekit/newsroom/internal/auth"
)

const banner = `
                                                        _           _
 _ __   _____      _____ _ __ ___   ___  _ __ ___     / \   __| |_ __ ___ (_)_ __
| '_ \ / _ \ \ /\ / / __| '__/ _ \ / _ \| '_ ' _ \   / _ \ / _' | '_ ' _ \| | '_ \
| | | |  __/\ V  V /\__ \ | | (_) | (_) | | | | | | / ___ \ (_| | | | | | | | | | |
|_| |_|\___| \_/\_/ |___/_|  \___/ \___/|_| |_| |_|/_/   \_\__,_|_| |_| |_|_|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath())
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "status":
		err = cmdStatus(cfg)
	case "webhooks":
		err = cmdWebhooks(cfg, args)
	case "token":
		err = cmdToken(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: newsroom-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  status                  Check gateway health")
	fmt.Println("  webhooks                List webhook subscriptions")
	fmt.Println("  webhooks list           List webhook subscriptions")
	fmt.Println("  webhooks add            Create a subscription")
	fmt.Println("  webhooks remove <id>    Delete a subscription by ID")
	fmt.Println("  token create            Mint a development JWT (needs auth.jwt_secret)")
	fmt.Println()
	yellow.Println("Config:")
	fmt.Println("  ~/.config/newsroom/admin.toml (or NEWSROOM_ADMIN_CONFIG)")
	fmt.Println("  NEWSROOM_URL and NEWSROOM_TOKEN override the file")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  newsroom-admin webhooks add --event approval_required --url https://hooks.example.com/a --secret s3cret")
	fmt.Println("  newsroom-admin token create --user alice --scope macro:editor --scope global:admin")
	fmt.Println()
}

// request performs an authenticated API call and decodes the JSON response
// into out when it is non-nil.
func request(cfg *Config, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, cfg.Gateway.URL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.Auth.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Auth.Token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func cmdStatus(cfg *Config) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := request(cfg, http.MethodGet, "/healthz", nil, &health); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ %s: %s\n", cfg.Gateway.URL, health.Status)
	return nil
}

func cmdWebhooks(cfg *Config, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "list":
		return webhooksList(cfg)
	case "add":
		return webhooksAdd(cfg, args)
	case "remove":
		if len(args) < 1 {
			return fmt.Errorf("usage: newsroom-admin webhooks remove <id>")
		}
		return webhooksRemove(cfg, args[0])
	default:
		return fmt.Errorf("unknown webhooks subcommand: %s", sub)
	}
}

type webhookRow struct {
	ID         string  `json:"id"`
	Event      string  `json:"event"`
	URL        string  `json:"url"`
	HasSecret  bool    `json:"has_secret"`
	Topic      *string `json:"topic"`
	MaxRetries int     `json:"max_retries"`
	RetryDelay string  `json:"retry_delay"`
	Active     bool    `json:"active"`
}

func webhooksList(cfg *Config) error {
	var resp struct {
		Webhooks []webhookRow `json:"webhooks"`
	}
	if err := request(cfg, http.MethodGet, "/api/webhooks", nil, &resp); err != nil {
		return err
	}

	if len(resp.Webhooks) == 0 {
		fmt.Println("No webhook subscriptions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEVENT\tURL\tDESK\tSIGNED\tRETRIES\tDELAY\tACTIVE")
	for _, hook := range resp.Webhooks {
		desk := "*"
		if hook.Topic != nil {
			desk = *hook.Topic
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\t%s\t%t\n",
			hook.ID, hook.Event, hook.URL, desk, hook.HasSecret,
			hook.MaxRetries, hook.RetryDelay, hook.Active)
	}
	return w.Flush()
}

func webhooksAdd(cfg *Config, args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	event := flags["event"]
	rawURL := flags["url"]
	if event == "" || rawURL == "" {
		return fmt.Errorf("usage: newsroom-admin webhooks add --event <type> --url <url> [--secret s] [--desk d] [--retries n] [--delay 30s]")
	}

	body := map[string]any{
		"event": event,
		"url":   rawURL,
	}
	if s := flags["secret"]; s != "" {
		body["secret"] = s
	}
	if d := flags["desk"]; d != "" {
		body["topic"] = d
	}
	if r := flags["retries"]; r != "" {
		var n int
		if _, err := fmt.Sscanf(r, "%d", &n); err != nil {
			return fmt.Errorf("invalid --retries: %q", r)
		}
		body["max_retries"] = n
	}
	if d := flags["delay"]; d != "" {
		body["retry_delay"] = d
	}

	var created webhookRow
	if err := request(cfg, http.MethodPost, "/api/webhooks", body, &created); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created webhook %s (%s -> %s)\n", created.ID, created.Event, created.URL)
	return nil
}

func webhooksRemove(cfg *Config, id string) error {
	if err := request(cfg, http.MethodDelete, "/api/webhooks/"+id, nil, nil); err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	green.Printf("  ✓ Deleted webhook %s\n", id)
	return nil
}

func cmdToken(cfg *Config, args []string) error {
	if len(args) < 1 || args[0] != "create" {
		return fmt.Errorf("usage: newsroom-admin token create --user <id> [--email e] [--scope g:r]... [--ttl 720h]")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured; token minting is for local development only")
	}

	var userID, email string
	var scopes []string
	ttl := 720 * time.Hour

	flagArgs := args[1:]
	for i := 0; i < len(flagArgs); i++ {
		switch flagArgs[i] {
		case "--user":
			if i+1 >= len(flagArgs) {
				return fmt.Errorf("--user requires a value")
			}
			userID = flagArgs[i+1]
			i++
		case "--email":
			if i+1 >= len(flagArgs) {
				return fmt.Errorf("--email requires a value")
			}
			email = flagArgs[i+1]
			i++
		case "--scope":
			if i+1 >= len(flagArgs) {
				return fmt.Errorf("--scope requires a value")
			}
			scopes = append(scopes, flagArgs[i+1])
			i++
		case "--ttl":
			if i+1 >= len(flagArgs) {
				return fmt.Errorf("--ttl requires a value")
			}
			parsed, err := time.ParseDuration(flagArgs[i+1])
			if err != nil {
				return fmt.Errorf("invalid --ttl: %w", err)
			}
			ttl = parsed
			i++
		default:
			return fmt.Errorf("unknown flag: %s", flagArgs[i])
		}
	}

	if userID == "" {
		return fmt.Errorf("--user is required")
	}
	if email == "" {
		email = userID + "@localhost"
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	token, err := verifier.Generate(userID, email, scopes, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)
	green.Printf("  ✓ Token for %s", userID)
	if len(scopes) > 0 {
		gray.Printf(" [%s]", strings.Join(scopes, " "))
	}
	gray.Printf(" (expires %s)\n", time.Now().Add(ttl).Format("Jan 02, 2006"))
	fmt.Println(token)
	return nil
}

// parseFlags reads "--name value" and "--name=value" pairs into a map.
func parseFlags(args []string) (map[string]string, error) {
	flags := make(map[string]string)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s", arg)
		}
		name := strings.TrimPrefix(arg, "--")
		if eq := strings.Index(name, "="); eq >= 0 {
			flags[name[:eq]] = name[eq+1:]
			continue
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("--%s requires a value", name)
		}
		flags[name] = args[i+1]
		i++
	}
	return flags, nil
}
