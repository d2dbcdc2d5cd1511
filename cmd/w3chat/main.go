// Command w3chat is a line-oriented front end for the w3chat session engine.
// The wallet signature flow happens outside; pass the resulting address and
// token, or rely on a previously stored session.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/w3chat/w3chat-client/pkg/client"
	"github.com/w3chat/w3chat-client/pkg/protocol"
)

func main() {
	configPath := flag.String("config", "~/.w3chat/config.toml", "Path to config file")
	serverURL := flag.String("server", "", "Server URL (overrides config)")
	address := flag.String("address", "", "Wallet address for a fresh session")
	token := flag.String("token", "", "Session token for a fresh session")
	verbose := flag.Bool("v", false, "Verbose engine logging")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}

	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stderr, "w3chat ", log.LstdFlags)
	}

	store, err := client.OpenStore(expandPath(cfg.State.DatabasePath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "State error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := client.NewEngine(client.Config{
		ServerURL:      cfg.Server.URL,
		Store:          store,
		ConnectTimeout: cfg.ConnectTimeout(),
		PingInterval:   cfg.PingInterval(),
		Logger:         logger,
	})
	defer engine.Close()

	if *token != "" && *address != "" {
		err = engine.Login(client.Session{Token: *token, Address: protocol.NormalizeAddress(*address)})
	} else {
		err = engine.Restore(*address)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connect error: %v\n", err)
		os.Exit(1)
	}

	session := engine.Session()
	fmt.Printf("Connected as %s\n", session.Address)
	printState(engine)

	go printUpdates(engine)
	runPrompt(engine)
}

func printUpdates(engine *client.Engine) {
	for u := range engine.Updates() {
		switch u.Kind {
		case client.UpdateChannelCreated:
			fmt.Printf("* channel created: %s\n", u.Channel)
		case client.UpdateMessage:
			msgs, err := engine.Messages(u.Channel)
			if err != nil || len(msgs) == 0 {
				continue
			}
			last := msgs[len(msgs)-1]
			fmt.Printf("[%s] %s: %s\n", u.Channel, last.From, last.Body)
		case client.UpdateNotification:
			fmt.Printf("* notifications changed (%d pending)\n", len(engine.Notifications()))
		case client.UpdateRejectionNotice:
			fmt.Printf("* rejection notices changed (%d)\n", len(engine.RejectionNotices()))
		case client.UpdateConnection:
			if u.Err != nil {
				fmt.Printf("* connection %s: %v\n", u.State, u.Err)
			} else {
				fmt.Printf("* connection %s\n", u.State)
			}
		}
	}
}

func printState(engine *client.Engine) {
	channels := engine.Channels()
	if len(channels) == 0 {
		fmt.Println("No channels available")
	}
	for _, ch := range channels {
		marker := " "
		if ch.HasUnread {
			marker = "*"
		}
		fmt.Printf("%s %s (%s)\n", marker, ch.ID, ch.OtherParticipant)
	}
	for id, n := range engine.Notifications() {
		fmt.Printf("? channel request from %s (%s)\n", n.From, id)
	}
	for id, n := range engine.RejectionNotices() {
		fmt.Printf("! %s (dismiss with /dismiss %s)\n", n.Message, id)
	}
}

func runPrompt(engine *client.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), protocol.MaxMessageLength+1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := engine.SendChat(engine.Selected(), line); err != nil {
				fmt.Printf("not sent: %v\n", err)
			}
			continue
		}

		cmd, arg, _ := strings.Cut(line[1:], " ")
		arg = strings.TrimSpace(arg)
		var err error
		switch cmd {
		case "request":
			err = engine.RequestChannel(arg)
		case "approve":
			err = engine.ResolveChannelRequest(arg, client.DecisionApprove)
		case "reject":
			err = engine.ResolveChannelRequest(arg, client.DecisionReject)
		case "select":
			var msgs []client.Message
			msgs, err = engine.SelectChannel(arg)
			for _, m := range msgs {
				who := m.From
				if m.IsOwn {
					who = "me"
				}
				fmt.Printf("%s: %s\n", who, m.Body)
			}
		case "back":
			engine.Deselect()
		case "dismiss":
			err = engine.DismissRejectionNotice(arg)
		case "list":
			printState(engine)
		case "logout":
			engine.Logout()
			fmt.Println("Logged out")
			return
		case "quit":
			return
		default:
			fmt.Printf("unknown command /%s\n", cmd)
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}
