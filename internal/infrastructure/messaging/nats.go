// Package messaging connects to the NATS broker used for notifications.
package messaging

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// OpenNATS connects with unlimited reconnects; disconnects are logged and
// publishes are buffered by the client meanwhile.
func OpenNATS(url, name string, log zerolog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats: disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats: reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats: connection closed")
		}),
	)
}
