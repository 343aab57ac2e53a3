package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mqy/topicsync/auth"
	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/engine"
	"github.com/mqy/topicsync/gateway"
	"github.com/mqy/topicsync/store"
	"github.com/mqy/topicsync/ws"
)

var (
	flagGatewayURL     = flag.String("gateway-url", "http://127.0.0.1:8000", "backend base url, http(s)://host:port")
	flagChannelURL     = flag.String("channel-url", "ws://127.0.0.1:8000/ws", "realtime channel url, ws(s)://host:port/path")
	flagIdentityDB     = flag.String("identity-db", "topicsync.db", "bbolt file that caches the user id")
	flagResetIdentity  = flag.Bool("reset-identity", false, "forget the cached user id and request a new one")
	flagRequestTimeout = flag.Duration("request-timeout", 10*time.Second, "gateway request timeout")

	flagSubmitTopic = flag.String("submit-topic", "", "submit this topic to the brainstorm chat once started")

	flagMetricsAddr    = flag.String("metrics-addr", "127.0.0.1:9100", "metrics server address, ip:port")
	flagDisableMetrics = flag.Bool("disable-metrics", false, "disable prometheus metrics")
)

func main() {
	flag.Parse()

	// NOTE: os.Exit() does not call defers.
	os.Exit(run())
}

func run() int {
	defer glog.Flush()

	if v := validateFlags(); v > 0 {
		return v
	}

	identity, err := store.OpenIdentityStore(*flagIdentityDB)
	if err != nil {
		return errorf("--identity-db: %v", err)
	}
	defer func() {
		_ = identity.Close()
	}()
	if *flagResetIdentity {
		if err := identity.Reset(); err != nil {
			return errorf("--reset-identity: %v", err)
		}
	}

	// gateway and channel share cookies, the backend may pin a session on either.
	jar := gateway.NewJar()
	gw, err := gateway.NewHTTPGateway(gateway.Config{
		BaseURL: *flagGatewayURL,
		Timeout: *flagRequestTimeout,
		Jar:     jar,
	})
	if err != nil {
		return errorf("--gateway-url: %v", err)
	}
	channel := ws.NewClient(ws.Config{URL: *flagChannelURL, Jar: jar})

	session := engine.NewSession(engine.Config{
		Gateway:  gw,
		Channel:  channel,
		Identity: auth.NewResolver(identity, gw),
	})

	if !*flagDisableMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{},
		))
		srv := &http.Server{Addr: *flagMetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				glog.Errorf("metrics server error: %v", err)
			}
		}()
		defer srv.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	glog.Infof("topicsync client is starting, gateway: %s, channel: %s", *flagGatewayURL, *flagChannelURL)

	if err := session.Start(ctx); err != nil {
		_ = session.Close()
		return errorf("session start error: %v", err)
	}

	runDone := make(chan error, 1)
	go func() {
		runDone <- session.Run(ctx)
	}()

	states, unsubscribe := session.Store().Subscribe()
	defer unsubscribe()

	if *flagSubmitTopic != "" {
		if _, err := session.SubmitTopic(ctx, *flagSubmitTopic); err != nil {
			glog.Errorf("--submit-topic: %v", err)
		}
	}

	glog.Infof("`kill -USR1 %d` to log topics; `CTRL+c` or `kill %d` to stop", os.Getpid(), os.Getpid())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	for {
		select {
		case st := <-states:
			if glog.V(2) {
				logTopics(st, session.BrainstormTopic())
			}
		case err := <-runDone:
			_ = session.Close()
			return errorf("event loop exited: %v", err)
		case sig := <-sigCh:
			if sig == syscall.SIGUSR1 {
				logTopics(session.Store().Snapshot(), session.BrainstormTopic())
				continue
			}
			glog.Infof("received signal `%s` stopping", sig.String())
			cancel()
			_ = session.Close()
			<-runDone
			glog.Info("topicsync client exited")
			return 0
		}
	}
}

func logTopics(st *chatstore.State, brainstorm chatstore.TopicID) {
	topics := st.VisibleTopics(brainstorm)
	glog.Infof("%d topics, tab: %s, topic: %q, chat: %q", len(topics), st.Nav.Tab, st.Nav.CurrentTopic, st.Nav.CurrentChat)
	for _, t := range topics {
		glog.Infof("  topic %s %q: %d chats, unread: %v", t.ID, t.Title, len(t.Chats), t.HasUnreadChats)
		for _, id := range t.ChatOrder {
			c := t.Chats[id]
			glog.Infof("    chat %s %q: %d messages, unread: %v", c.ID, c.Name, len(c.Messages), c.HasUnreadMessages)
		}
	}
}

func validateFlags() int {
	if err := validateURL(*flagGatewayURL, "http", "https"); err != nil {
		return errorf("--gateway-url: %v", err)
	}
	if err := validateURL(*flagChannelURL, "ws", "wss"); err != nil {
		return errorf("--channel-url: %v", err)
	}
	if *flagIdentityDB == "" {
		return errorf("--identity-db is required")
	}
	if *flagRequestTimeout <= 0 {
		return errorf("--request-timeout MUST be positive")
	}
	if !*flagDisableMetrics {
		if err := validateAddr(*flagMetricsAddr); err != nil {
			return errorf("--metrics-addr: %v", err)
		}
	}
	return 0
}

func validateURL(s string, schemes ...string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("error parse `%s`: %v", s, err)
	}
	if u.Host == "" {
		return fmt.Errorf("`%s` has no host", s)
	}
	for _, scheme := range schemes {
		if u.Scheme == scheme {
			return nil
		}
	}
	return fmt.Errorf("`%s`: expect scheme in %v", s, schemes)
}

func validateAddr(s string) error {
	ips, _, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("error split host port from `%s`: %v", s, err)
	}
	ip := net.ParseIP(ips)
	if ip == nil {
		return fmt.Errorf("error parse IP from host `%s`", ips)
	}
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("`%s` is not loopback or private address", ips)
	}
	return nil
}

func errorf(fmt string, args ...interface{}) int {
	glog.Errorf(fmt, args...)
	return 1
}
