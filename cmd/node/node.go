package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	chordImpl "go.miragespace.co/copper/chord"
	"go.miragespace.co/copper/console"
	"go.miragespace.co/copper/kv/memory"
	"go.miragespace.co/copper/overlay"
	"go.miragespace.co/copper/spec/transport"
	"go.miragespace.co/copper/timing"
	"go.miragespace.co/copper/util"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func Generate() *cli.Command {
	ip := util.OutboundIPv4()
	return &cli.Command{
		Name:  "node",
		Usage: "start a ring node",
		Description: `Start a node that owns the arc of the key space between its predecessor and itself.
	Without --join the node starts a new ring on its own. With --join it asks the given node to make room for it.`,
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:     "config",
				Usage:    "YAML file with the same settings as the flags below. Flags given on the command line win",
				Category: "Node Options",
			},
			&cli.BoolFlag{
				Name:     "console",
				Usage:    "read console commands from stdin. Replies are delivered to this node",
				Category: "Node Options",
			},

			&cli.StringFlag{
				Name:     "listen",
				Aliases:  []string{"listen-addr"},
				Value:    fmt.Sprintf("%s:7000", ip.String()),
				Usage:    "IPv4 address and port to listen on. This is also the address other nodes reach this node at",
				Category: "Network Options",
			},
			&cli.StringFlag{
				Name:     "max-message-size",
				Value:    "64KiB",
				Usage:    "largest message accepted per connection, such as 64KiB or 1MiB",
				Category: "Network Options",
			},
			&cli.StringFlag{
				Name:     "listen-http",
				Usage:    "serve /stats, /graph and /metrics on this address",
				Category: "Network Options",
			},

			&cli.Uint64Flag{
				Name:     "id",
				Usage:    "position of this node on the ring, in [0, ring-size)",
				Category: "Chord Options",
			},
			&cli.StringFlag{
				Name:     "join",
				Usage:    "address of any node already in the ring. Absent of this flag starts a new ring",
				Category: "Chord Options",
			},
			&cli.Uint64Flag{
				Name:     "ring-size",
				Value:    65536,
				Usage:    "number of identifiers on the ring. Every node of a ring must use the same value",
				Category: "Chord Options",
			},
		},
		Action: cmdNode,
	}
}

func cmdNode(ctx *cli.Context) error {
	logger, ok := ctx.App.Metadata["logger"].(*zap.Logger)
	if !ok || logger == nil {
		return fmt.Errorf("unable to obtain logger from app context")
	}

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}
	s, err := cfg.resolve()
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", s.identity.HostPort())
	if err != nil {
		return fmt.Errorf("error setting up ring listener: %w", err)
	}

	tcp := overlay.NewTCP(overlay.TransportConfig{
		Logger:         logger.With(zap.String("component", "transport")),
		Endpoint:       s.identity,
		MaxMessageSize: s.maxMessageSize,
	})

	conf := chordImpl.NodeConfig{
		Logger:     logger.With(zap.String("component", "chord")),
		Identity:   s.identity,
		Space:      s.space,
		Transport:  tcp,
		KVProvider: memory.New(),
	}
	if err := conf.Validate(); err != nil {
		listener.Close()
		return fmt.Errorf("error validating node config: %w", err)
	}
	node := chordImpl.NewLocalNode(conf)

	var con *console.Console
	if s.console {
		con, err = console.New(console.Config{
			Logger:    logger.With(zap.String("component", "console")),
			Transport: tcp,
			Self:      s.identity,
			Node:      s.identity,
			Acks:      node,
			Embedded:  true,
		})
		if err != nil {
			listener.Close()
			return err
		}
		node.Reporter = con
	}

	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return tcp.AcceptWithListener(gCtx, listener)
	})

	g.Go(func() error {
		// the process follows the node: once it stops dispatching, everything else stops
		defer cancel()
		return node.Run(gCtx)
	})

	if s.listenHTTP != "" {
		httpListener, err := net.Listen("tcp", s.listenHTTP)
		if err != nil {
			cancel()
			return multierr.Append(fmt.Errorf("error setting up http listener: %w", err), g.Wait())
		}
		srv := &http.Server{
			Handler:           chordImpl.ChordStatsHandler(node),
			ReadHeaderTimeout: timing.HTTPReadHeaderTimeout,
			ErrorLog:          util.GetStdLogger(logger, "http"),
		}
		g.Go(func() error {
			logger.Info("Serving introspection", zap.String("listen", httpListener.Addr().String()))
			if err := srv.Serve(httpListener); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timing.ShutdownTimeout)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if s.bootstrap.IsValid() {
		if err := node.Join(gCtx, s.bootstrap); err != nil {
			cancel()
			return multierr.Append(fmt.Errorf("error joining ring through %s: %w", s.bootstrap.HostPort(), err), g.Wait())
		}
	} else {
		logger.Info("Starting a new ring", zap.Object("identity", s.identity))
	}

	if con != nil {
		// stdin cannot be interrupted, so the console is not part of the group
		go func() {
			if err := con.Run(gCtx, os.Stdin); err != nil {
				logger.Warn("Console stopped", zap.Error(err))
			}
		}()
	}

	err = g.Wait()
	return multierr.Append(err, stopTransport(tcp))
}

func stopTransport(t *overlay.TCP) error {
	if err := t.Stop(); err != nil && !errors.Is(err, transport.ErrClosed) {
		return err
	}
	return nil
}
