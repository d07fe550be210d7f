// central-proxy runs the Jamulus directory aggregator: it periodically
// polls a configured set of upstream directory servers, merges their
// listings, and serves the filtered result to discovering clients.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/hostport"
	"github.com/jamulus-net/jamdir/proxy"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	port          = flag.Int("port", endpoint.DefaultPort, "UDP port to listen on")
	logData       = flag.Bool("log-data", false, "Log every inbound/outbound protocol message")
	logAudio      = flag.Bool("log-audio", false, "Log every inbound/outbound AUDIO datagram")
	promAddr      = flag.String("prom", ":9090", "Prometheus metrics export address and port")
	interval      = flag.Int("interval", 300, "Seconds between polls of each upstream directory")
	centralservers flagx.StringArray
	filters        flagx.StringArray
)

func init() {
	flag.Var(&centralservers, "centralserver", "Upstream directory server HOST[:PORT] to poll (repeatable, required)")
	flag.Var(&filters, "filter", "Country id to allow through to clients (repeatable, empty means no filtering)")
}

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	if len(centralservers) == 0 {
		log.Fatal("central-proxy: at least one --centralserver is required")
	}

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
	rtx.Must(err, "Could not bind aggregator endpoint on port %d", *port)
	defer ep.Close()

	var upstreams []proxy.Upstream
	for _, hp := range centralservers {
		addr, err := hostport.Resolve(hp)
		rtx.Must(err, "Could not resolve upstream directory %q", hp)
		upstreams = append(upstreams, proxy.Upstream{Host: hp, Addr: addr})
	}

	var countryFilter []uint16
	for _, f := range filters {
		n, err := strconv.Atoi(f)
		rtx.Must(err, "Invalid --filter value %q", f)
		countryFilter = append(countryFilter, uint16(n))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("central-proxy: shutting down")
		cancel()
	}()

	agg := proxy.New(ep, upstreams, time.Duration(*interval)*time.Second, countryFilter, time.Now())
	log.Println("central-proxy: listening on", ep.LocalAddr(), "polling", len(upstreams), "upstream(s)")
	if err := agg.Run(ctx); err != nil && ctx.Err() == nil {
		log.Println("central-proxy: exited with error:", err)
		os.Exit(1)
	}
}
