// tmicat connects to Twitch chat, joins channels, and prints every inbound
// line to stdout, optionally archiving them to a database.
//
// The whole registration handshake is enqueued before the dial even starts;
// the client engine holds it and flushes in order the moment the link is
// ready.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lawnchairsociety/tmi/internal/archive"
	"github.com/lawnchairsociety/tmi/internal/client"
	"github.com/lawnchairsociety/tmi/internal/command"
	"github.com/lawnchairsociety/tmi/internal/config"
	"github.com/lawnchairsociety/tmi/internal/logger"
	"github.com/lawnchairsociety/tmi/internal/transport"
)

func main() {
	configFile := flag.String("config", "data/tmi.yaml", "Path to client config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	server := flag.String("server", "", "Chat server address (overrides config)")
	nick := flag.String("nick", "", "Login nickname (overrides config; empty means anonymous)")
	channels := flag.String("channels", "", "Comma-separated channels to join (overrides config)")
	useWebSocket := flag.Bool("ws", false, "Connect over WebSocket instead of TCP")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *server != "" {
		cfg.Server.Address = *server
	}
	if *nick != "" {
		cfg.Identity.Nick = *nick
	}
	if *channels != "" {
		cfg.Channels = strings.Split(*channels, ",")
	}
	if *useWebSocket {
		cfg.Server.Transport = config.TransportWebSocket
		if *server == "" {
			cfg.Server.Address = config.DefaultWebSocketAddress
		}
	}
	if len(cfg.Channels) == 0 {
		log.Fatal("No channels to join; set channels in the config or pass -channels")
	}

	loginNick := cfg.Identity.Nick
	if cfg.Identity.Anonymous() {
		// Anonymous read-only login; any justinfan nick works.
		loginNick = fmt.Sprintf("justinfan%d", rand.Intn(90000)+10000)
	}

	var store *archive.Archive
	if cfg.Archive.Enabled {
		store, err = archive.Open(archive.DialectType(cfg.Archive.Driver), cfg.Archive.DSN)
		if err != nil {
			log.Fatalf("Failed to open archive: %v", err)
		}
		defer store.Close()
	}

	var tr transport.Transport
	if cfg.Server.Transport == config.TransportWebSocket {
		tr = transport.NewWebSocket(cfg.Server.Address)
	} else {
		var tlsConf *tls.Config
		if cfg.Server.TLS {
			tlsConf = &tls.Config{}
		}
		tr = transport.NewTCP(cfg.Server.Address, tlsConf)
	}

	done := make(chan error, 1)
	var engine *client.Engine
	engine = client.New(tr, client.Options{
		OnLine: func(line string) {
			// Keepalive: the server drops clients that do not answer.
			if token, ok := strings.CutPrefix(line, "PING "); ok {
				if err := engine.Enqueue(command.Pong(token)); err != nil {
					logger.Warning("failed to answer PING", "error", err)
				}
			}
			fmt.Println(line)
			if store != nil {
				if err := store.Record(channelOf(line), line, time.Now()); err != nil {
					logger.Warning("failed to archive line", "error", err)
				}
			}
		},
		OnClose: func(err error) {
			done <- err
		},
	})

	// Registration handshake, queued ahead of the dial. The engine
	// guarantees these hit the wire first and in this order.
	if len(cfg.Capabilities) > 0 {
		mustEnqueue(engine, command.CapReq(cfg.Capabilities...))
	}
	if token := cfg.Identity.NormalizedToken(); token != "" && !cfg.Identity.Anonymous() {
		mustEnqueue(engine, command.Pass(token))
	}
	mustEnqueue(engine, command.Nick(loginNick))
	for _, channel := range cfg.Channels {
		mustEnqueue(engine, command.Join(strings.TrimSpace(channel)))
	}

	logger.Info("connecting",
		"address", cfg.Server.Address,
		"transport", cfg.Server.Transport,
		"nick", loginNick,
		"channels", strings.Join(cfg.Channels, ","))
	engine.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		engine.Enqueue(command.Quit())
		engine.Close()
		<-done
	case err := <-done:
		if err != nil {
			log.Fatalf("Connection failed: %v", err)
		}
	}
}

func mustEnqueue(engine *client.Engine, cmd command.Command) {
	if err := engine.Enqueue(cmd); err != nil {
		log.Fatalf("Failed to enqueue %s: %v", cmd.Verb(), err)
	}
}

// channelOf makes a best-effort guess at the channel a raw line belongs to
// by picking its first #-prefixed token. Lines without one (PING, numerics
// for the whole connection) are archived unattributed.
func channelOf(line string) string {
	for _, field := range strings.Fields(line) {
		if strings.HasPrefix(field, "#") {
			return field
		}
	}
	return ""
}
