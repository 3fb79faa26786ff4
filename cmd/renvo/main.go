// Command renvo is the terminal client for the Renvo property-management
// platform: sign in, read notifications, chat with your property manager,
// and follow renovation projects.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
	"github.com/renvo/client-core/internal/core/store"
	"github.com/renvo/client-core/internal/infrastructure/api"
	"github.com/renvo/client-core/internal/infrastructure/credstore"
	"github.com/renvo/client-core/internal/infrastructure/push"
	"github.com/renvo/client-core/internal/pkg/config"
	"github.com/renvo/client-core/pkg/logger"
)

const commandTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	a := newApp()
	args := os.Args[2:]

	switch os.Args[1] {
	case "login":
		return a.runLogin(args)
	case "register":
		return a.runRegister(args)
	case "logout":
		return a.runLogout(args)
	case "whoami":
		return a.runWhoami(args)
	case "profile":
		return a.runProfile(args)
	case "notifications":
		return a.runNotifications(args)
	case "conversations":
		return a.runConversations(args)
	case "messages":
		return a.runMessages(args)
	case "send":
		return a.runSend(args)
	case "properties":
		return a.runProperties(args)
	case "renovations":
		return a.runRenovations(args)
	case "watch":
		return a.runWatch(args)
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: renvo <subcommand> [flags]

Subcommands:
  login          Sign in with email and password
  register       Create a customer account
  logout         Sign out and discard stored credentials
  whoami         Show the signed-in user
  profile        Update the local profile (profile update [flags])
  notifications  List notifications; mark them read (notifications read <id> | --all)
  conversations  List conversations
  messages       Show the message timeline of a partner (messages <partner-id>)
  send           Send a message (send <partner-id> <text>)
  properties     List properties
  renovations    List renovations; advance one (renovations advance <id> <status>)
  watch          Poll for new notifications (and messages with --partner)
`)
}

type app struct {
	client        *api.Client
	session       *store.SessionStore
	notifications *store.NotificationStore
	conversations *store.ConversationStore
	renovations   *store.RenovationStore
}

func newApp() *app {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client := api.NewClient(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.HTTPTimeout}, log)
	creds := credstore.NewFile(cfg.Credentials.Path, cfg.Credentials.Key)

	session := store.NewSessionStore(creds, client, client, log)
	client.SetUnauthorizedHandler(session.ForceLogout)

	return &app{
		client:        client,
		session:       session,
		notifications: store.NewNotificationStore(client, log),
		conversations: store.NewConversationStore(client, log),
		renovations:   store.NewRenovationStore(client, log),
	}
}

// ensureSession restores the stored session and fails when nobody is signed in.
func (a *app) ensureSession(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("%w, run `renvo login` first", domain.ErrNotAuthenticated)
	}
	return nil
}

func newFlagSet(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	output := fs.String("output", "text", "output format: text, json, or yaml")
	return fs, output
}

func (a *app) runLogin(args []string) error {
	fs, _ := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.session.Login(ctx, ports.LoginInput{Email: *email, Password: *password}); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}
	u := a.session.User()
	fmt.Printf("signed in as %s (%s)\n", u.Name, u.Email)
	return nil
}

func (a *app) runRegister(args []string) error {
	fs, _ := newFlagSet("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	phone := fs.String("phone", "", "phone number (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	in := ports.RegisterInput{Name: *name, Email: *email, Password: *password, Phone: *phone}
	if err := a.session.Register(ctx, in); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}
	u := a.session.User()
	fmt.Printf("account created, signed in as %s (%s)\n", u.Name, u.Email)
	return nil
}

func (a *app) runLogout(args []string) error {
	fs, _ := newFlagSet("logout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	a.session.Logout(ctx)
	fmt.Println("signed out")
	return nil
}

func (a *app) runWhoami(args []string) error {
	fs, output := newFlagSet("whoami")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	u := a.session.User()
	return render(*output, u, func() {
		fmt.Printf("%s <%s> role=%s\n", u.Name, u.Email, u.Role)
	})
}

func (a *app) runProfile(args []string) error {
	if len(args) < 1 || args[0] != "update" {
		return fmt.Errorf("usage: renvo profile update [flags]")
	}
	fs, _ := newFlagSet("profile update")
	name := fs.String("name", "", "new display name")
	avatarURL := fs.String("avatar-url", "", "new avatar URL")
	phone := fs.String("phone", "", "new phone number")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	var patch domain.UserPatch
	if fs.Changed("name") {
		patch.Name = name
	}
	if fs.Changed("avatar-url") {
		patch.AvatarURL = avatarURL
	}
	if fs.Changed("phone") {
		patch.Phone = phone
	}
	if err := a.session.UpdateUser(ctx, patch); err != nil {
		return err
	}
	fmt.Println("profile updated")
	return nil
}

func (a *app) runNotifications(args []string) error {
	if len(args) > 0 && args[0] == "read" {
		return a.runNotificationsRead(args[1:])
	}

	fs, output := newFlagSet("notifications")
	unreadOnly := fs.Bool("unread", false, "show unread notifications only")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.notifications.Fetch(ctx); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}

	items := a.notifications.Notifications()
	if *unreadOnly {
		filtered := items[:0:0]
		for _, n := range items {
			if !n.IsRead {
				filtered = append(filtered, n)
			}
		}
		items = filtered
	}
	unread := a.notifications.UnreadCount()
	return render(*output, items, func() {
		for _, n := range items {
			marker := " "
			if !n.IsRead {
				marker = "*"
			}
			fmt.Printf("%s %s  [%s] %s - %s\n", marker, n.ID, n.Type, n.Title, n.Body)
		}
		fmt.Printf("%d unread\n", unread)
	})
}

func (a *app) runNotificationsRead(args []string) error {
	fs, _ := newFlagSet("notifications read")
	all := fs.Bool("all", false, "mark every notification read")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.notifications.Fetch(ctx); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}

	if *all {
		if err := a.notifications.MarkAllRead(ctx); err != nil {
			return fmt.Errorf("%s", store.UserMessage(err))
		}
		fmt.Println("all notifications marked read")
		return nil
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: renvo notifications read <id> | --all")
	}
	if err := a.notifications.MarkRead(ctx, fs.Arg(0)); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}
	fmt.Println("notification marked read")
	return nil
}

func (a *app) runConversations(args []string) error {
	fs, output := newFlagSet("conversations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.conversations.FetchConversations(ctx); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}

	list := a.conversations.Conversations()
	return render(*output, list, func() {
		for _, c := range list {
			last := ""
			if c.LastMessage != nil {
				last = c.LastMessage.Content
			}
			fmt.Printf("%s  %s (%d unread)  %s\n", c.Partner.ID, c.Partner.Name, c.UnreadCount, last)
		}
	})
}

func (a *app) runMessages(args []string) error {
	fs, output := newFlagSet("messages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: renvo messages <partner-id>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.conversations.Select(ctx, fs.Arg(0)); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}

	msgs := a.conversations.Messages()
	return render(*output, msgs, func() {
		for _, m := range msgs {
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.SenderID, m.Content)
		}
	})
}

func (a *app) runSend(args []string) error {
	fs, _ := newFlagSet("send")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: renvo send <partner-id> <text>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.conversations.Select(ctx, fs.Arg(0)); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}

	content := strings.Join(fs.Args()[1:], " ")
	msg, err := a.conversations.Send(ctx, content)
	if err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}
	fmt.Printf("sent (id %s)\n", msg.ID)
	return nil
}

func (a *app) runProperties(args []string) error {
	fs, output := newFlagSet("properties")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.renovations.FetchProperties(ctx); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}

	list := a.renovations.Properties()
	return render(*output, list, func() {
		for _, p := range list {
			fmt.Printf("%s  %s - %s, %s %s\n", p.ID, p.Name, p.Address, p.ZipCode, p.City)
		}
	})
}

func (a *app) runRenovations(args []string) error {
	if len(args) > 0 && args[0] == "advance" {
		return a.runRenovationsAdvance(args[1:])
	}

	fs, output := newFlagSet("renovations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.renovations.FetchRenovations(ctx); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}

	list := a.renovations.Renovations()
	return render(*output, list, func() {
		for _, r := range list {
			fmt.Printf("%s  [%s] %s (property %s)\n", r.ID, r.Status, r.Title, r.PropertyID)
		}
	})
}

func (a *app) runRenovationsAdvance(args []string) error {
	fs, _ := newFlagSet("renovations advance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: renvo renovations advance <id> <status>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if err := a.renovations.FetchRenovations(ctx); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}
	next := domain.RenovationStatus(fs.Arg(1))
	if err := a.renovations.AdvanceRenovation(ctx, fs.Arg(0), next); err != nil {
		return err
	}
	fmt.Printf("renovation %s is now %s\n", fs.Arg(0), next)
	return nil
}

// printSink announces each applied event on top of the store updates.
type printSink struct {
	inner push.Sink
}

func (s printSink) ApplyNotification(n domain.Notification) {
	s.inner.ApplyNotification(n)
	fmt.Printf("[%s] %s - %s\n", n.Type, n.Title, n.Body)
}

func (s printSink) ApplyMessage(partnerID string, m domain.Message) {
	s.inner.ApplyMessage(partnerID, m)
	fmt.Printf("%s: %s\n", m.SenderID, m.Content)
}

func (a *app) runWatch(args []string) error {
	fs, _ := newFlagSet("watch")
	interval := fs.Duration("interval", 10*time.Second, "poll interval")
	partner := fs.String("partner", "", "also watch this partner's conversation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	seenNotifications := map[string]bool{}
	if err := a.notifications.Fetch(ctx); err != nil {
		return fmt.Errorf("%s", store.UserMessage(err))
	}
	for _, n := range a.notifications.Notifications() {
		seenNotifications[n.ID] = true
	}

	seenMessages := map[string]bool{}
	if *partner != "" {
		if err := a.conversations.Select(ctx, *partner); err != nil {
			return fmt.Errorf("%s", store.UserMessage(err))
		}
		for _, m := range a.conversations.Messages() {
			seenMessages[m.ID] = true
		}
	}

	dispatcher := push.NewDispatcher(0, printSink{inner: push.StoreSink{
		Notifications: a.notifications,
		Conversations: a.conversations,
	}}, logger.Get())
	dispatcher.Start(ctx)

	fmt.Println("watching, ctrl-c to stop")
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		list, err := a.client.ListNotifications(ctx)
		if err != nil {
			lg := logger.Get()
			lg.Warn().Err(err).Msg("notification poll failed")
		} else {
			for _, n := range list.Notifications {
				if seenNotifications[n.ID] {
					continue
				}
				seenNotifications[n.ID] = true
				dispatcher.Enqueue(push.Event{Kind: push.KindNotification, Notification: &n})
			}
		}

		if *partner == "" {
			continue
		}
		msgs, err := a.client.ListMessages(ctx, *partner)
		if err != nil {
			lg := logger.Get()
			lg.Warn().Err(err).Msg("message poll failed")
			continue
		}
		for _, m := range msgs {
			if seenMessages[m.ID] {
				continue
			}
			seenMessages[m.ID] = true
			dispatcher.Enqueue(push.Event{Kind: push.KindMessage, PartnerID: *partner, Message: &m})
		}
	}
}

// render writes v in the requested format; the text callback handles the
// human-readable default.
func render(output string, v any, text func()) error {
	switch output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(v)
	case "text":
		text()
		return nil
	default:
		return fmt.Errorf("unknown output format: %q", output)
	}
}
