// dummy-client is a reference Jamulus client: it registers presence on a
// real server and answers its interrogation without any real audio
// pipeline, for exercising server-side behavior in tests.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"

	"github.com/jamulus-net/jamdir/dummyclient"
	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/hostport"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	port     = flag.Int("port", 0, "UDP port to listen on (0 lets the OS choose)")
	logData  = flag.Bool("log-data", false, "Log every inbound/outbound protocol message")
	logAudio = flag.Bool("log-audio", false, "Log every inbound/outbound AUDIO datagram")
	server   = flag.String("server", "", "Jamulus server HOST[:PORT] to register with (required)")
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	if *server == "" {
		log.Fatal("dummy-client: --server is required")
	}

	serverAddr, err := hostport.Resolve(*server)
	rtx.Must(err, "Could not resolve server address %q", *server)

	ep, err := endpoint.New(endpoint.Config{
		LocalPort:   *port,
		LogEnabled:  *logData || *logAudio,
		LogData:     *logData,
		LogAudio:    *logAudio,
		AcksEnabled: true,
	})
	rtx.Must(err, "Could not bind dummy client endpoint")
	defer ep.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("dummy-client: shutting down")
		cancel()
	}()

	c := dummyclient.New(ep, serverAddr)
	rtx.Must(c.Register(), "Could not send registration frame to %s", serverAddr)

	log.Println("dummy-client: registered with", serverAddr)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Println("dummy-client: exited with error:", err)
		os.Exit(1)
	}
}
