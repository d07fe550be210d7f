// dummy-server is a reference Jamulus server: it tracks connected clients,
// answers the standard interrogation and ping/empty-message flows, and
// optionally registers itself with a real directory, for exercising
// client-side behavior in tests.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/jamulus-net/jamdir/dummyserver"
	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/hostport"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	port          = flag.Int("port", endpoint.DefaultPort, "UDP port to listen on")
	logData       = flag.Bool("log-data", false, "Log every inbound/outbound protocol message")
	logAudio      = flag.Bool("log-audio", false, "Log every inbound/outbound AUDIO datagram")
	promAddr      = flag.String("prom", ":9090", "Prometheus metrics export address and port")
	centralServer = flag.String("centralserver", "", "Directory server HOST[:PORT] to register presence with (optional)")
	channels      = flag.Int("channels", 10, "Number of audio channels; only printed in the startup log line, not sent in any message")
	clients       = flag.Int("clients", 10, "Maximum client count reported in directory registration")
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	promSrv := prometheusx.MustStartPrometheus(*promAddr)
	defer promSrv.Shutdown(ctx)

	ep, err := endpoint.New(endpoint.Config{
		LocalPort:   *port,
		LogEnabled:  *logData || *logAudio,
		LogData:     *logData,
		LogAudio:    *logAudio,
		AcksEnabled: true,
	})
	rtx.Must(err, "Could not bind dummy server endpoint on port %d", *port)
	defer ep.Close()

	srv := dummyserver.New(ep)

	var centralAddr = (*net.UDPAddr)(nil)
	if *centralServer != "" {
		centralAddr, err = hostport.Resolve(*centralServer)
		rtx.Must(err, "Could not resolve central server %q", *centralServer)
		rtx.Must(srv.Register(centralAddr, "dummy-server", *port, uint8(*clients)),
			"Could not register with central server %s", centralAddr)
		log.Println("dummy-server: registered with", centralAddr)
	}

	log.Println("dummy-server: listening on", ep.LocalAddr(), "reporting", *channels, "channels,", *clients, "max clients")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("dummy-server: shutting down")
		cancel()
	}()

	runErr := srv.Run(ctx)

	if centralAddr != nil {
		if err := srv.Unregister(centralAddr); err != nil {
			log.Println("dummy-server: failed to unregister:", err)
		}
	}

	if runErr != nil && ctx.Err() == nil {
		log.Println("dummy-server: exited with error:", runErr)
		os.Exit(1)
	}
}
