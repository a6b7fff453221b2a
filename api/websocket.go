package api

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog/log"
)

// feed is one websocket client's view of a subscription. next blocks until
// there is an update to send and reports false once the subscription is
// closed.
type feed struct {
	clientID    string
	next        func() (interface{}, bool)
	unsubscribe func()
}

// serveFeed upgrades the request and streams the feed to the client until
// either side goes away.
//
// Note: subscribers only see updates made by the instance they are connected
// to. Scaled out, clients would need to consume the queue instead.
func serveFeed(w http.ResponseWriter, r *http.Request, subscribe func() feed) {
	log.Info().Msg("client requesting subscription")

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Err(err).Msg("failed to establish subscription connection")
		Render(w, r, ErrInternalServer)
		return
	}

	f := subscribe()
	var once sync.Once
	stop := func() { once.Do(f.unsubscribe) }

	go watchDisconnect(conn, f.clientID, stop)

	go func() {
		defer conn.Close()
		defer stop()

		for {
			msg, ok := f.next()
			if !ok {
				return
			}

			body, err := json.Marshal(msg)
			if err != nil {
				log.Err(err).Str("clientId", f.clientID).Msg("failed to marshal subscription message")
				continue
			}

			log.Debug().Str("clientId", f.clientID).RawJSON("message", body).Msg("sending update to client")
			if err = wsutil.WriteServerText(conn, body); err != nil {
				log.Err(err).Str("clientId", f.clientID).Msg("failed to write server message, disconnecting client")
				return
			}
		}
	}()
}

// watchDisconnect drains client frames so a closed connection unsubscribes
// right away instead of on the next failed write.
func watchDisconnect(conn net.Conn, clientID string, stop func()) {
	for {
		if _, _, err := wsutil.ReadClientData(conn); err != nil {
			log.Debug().Err(err).Str("clientId", clientID).Msg("client disconnected")
			stop()
			return
		}
	}
}
