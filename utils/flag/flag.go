/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/
package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
)

var (
	ServiceName = flag.String("service", APIServer, "name of the running service, used in logging")
	ByPassAuth  = flag.Bool("bypass_auth", false, "skip jwt validation on incoming requests, development only")
)

func init() {
	flag.Parse()
}
