// central-server runs the Jamulus directory server: it accepts
// registrations from audio servers and answers CLM_REQ_SERVER_LIST from
// discovering clients.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/jamulus-net/jamdir/central"
	"github.com/jamulus-net/jamdir/endpoint"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	port     = flag.Int("port", endpoint.DefaultPort, "UDP port to listen on")
	logData  = flag.Bool("log-data", false, "Log every inbound/outbound protocol message")
	logAudio = flag.Bool("log-audio", false, "Log every inbound/outbound AUDIO datagram")
	promAddr = flag.String("prom", ":9090", "Prometheus metrics export address and port")
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
	rtx.Must(err, "Could not bind directory server endpoint on port %d", *port)
	defer ep.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("central-server: shutting down")
		cancel()
	}()

	srv := central.New(ep)
	log.Println("central-server: listening on", ep.LocalAddr())
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Println("central-server: exited with error:", err)
		os.Exit(1)
	}
}
