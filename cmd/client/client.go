package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.miragespace.co/copper/console"
	"go.miragespace.co/copper/overlay"
	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/spec/transport"
	"go.miragespace.co/copper/util"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func Generate() *cli.Command {
	ip := util.OutboundIPv4()
	return &cli.Command{
		Name:  "client",
		Usage: "send get and put requests to a ring node",
		Description: `Read commands from stdin and send them to --node. Answers and acks are delivered to --listen and printed.
	exit stops the client. stop_all also asks the ring to shut down.`,
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "listen",
				Value:    fmt.Sprintf("%s:7100", ip.String()),
				Usage:    "IPv4 address and port replies are delivered to",
				Category: "Network Options",
			},
			&cli.StringFlag{
				Name:     "node",
				Required: true,
				Usage:    "address of the ring node to talk to",
				Category: "Network Options",
			},
			&cli.StringFlag{
				Name:     "max-message-size",
				Value:    "64KiB",
				Usage:    "largest reply accepted per connection",
				Category: "Network Options",
			},
		},
		Action: cmdClient,
	}
}

func cmdClient(ctx *cli.Context) error {
	logger, ok := ctx.App.Metadata["logger"].(*zap.Logger)
	if !ok || logger == nil {
		return fmt.Errorf("unable to obtain logger from app context")
	}

	self, err := protocol.ParseAddress(ctx.String("listen"), 0)
	if err != nil {
		return fmt.Errorf("error parsing listen address: %w", err)
	}
	node, err := protocol.ParseAddress(ctx.String("node"), 0)
	if err != nil {
		return fmt.Errorf("error parsing node address: %w", err)
	}
	maxMessageSize, err := util.ParseByteSize(ctx.String("max-message-size"))
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", self.HostPort())
	if err != nil {
		return fmt.Errorf("error setting up reply listener: %w", err)
	}

	tcp := overlay.NewTCP(overlay.TransportConfig{
		Logger:         logger.With(zap.String("component", "transport")),
		Endpoint:       self,
		MaxMessageSize: maxMessageSize,
	})

	con, err := console.New(console.Config{
		Logger:    logger.With(zap.String("component", "console")),
		Transport: tcp,
		Self:      self,
		Node:      node,
	})
	if err != nil {
		listener.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return tcp.AcceptWithListener(gCtx, listener)
	})
	g.Go(func() error {
		return con.Listen(gCtx)
	})

	// stdin cannot be interrupted, so the input loop is not part of the group
	inputDone := make(chan error, 1)
	go func() {
		inputDone <- con.Run(gCtx, os.Stdin)
	}()

	var inputErr error
	select {
	case inputErr = <-inputDone:
	case <-gCtx.Done():
	}
	if pending := con.PendingAcks(); pending > 0 {
		logger.Info("Stopping with unacknowledged puts", zap.Int("pending", pending))
	}
	cancel()

	err = multierr.Combine(inputErr, g.Wait())
	if stopErr := tcp.Stop(); stopErr != nil && !errors.Is(stopErr, transport.ErrClosed) {
		err = multierr.Append(err, stopErr)
	}
	return err
}
