package handlers

import (
	"context"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/ateliercarvalho/atelier/internal/admin"
	"github.com/ateliercarvalho/atelier/internal/apiclient"
)

// liveSearchInbound is a message from the admin panel.
type liveSearchInbound struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

// liveSearchOutbound is a message to the admin panel.
type liveSearchOutbound struct {
	Type      string           `json:"type"`
	Seq       uint64           `json:"seq,omitempty"`
	Query     string           `json:"query"`
	Customers []admin.Customer `json:"customers"`
	Error     string           `json:"error,omitempty"`
}

// LiveSearch handles GET /api/admin/customers/live. The socket receives
// {"type":"query","query":"..."} messages as the user types and answers
// with the results of the latest query once typing pauses. The empty query,
// sent on connect, lists every customer.
func (h *AdminHandler) LiveSearch(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveLiveSearch(conn, r)
	}).ServeHTTP(w, r)
}

func (h *AdminHandler) serveLiveSearch(conn *websocket.Conn, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	searcher := admin.NewSearcher(h.customers, h.searchDelay, h.logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range searcher.Results() {
			msg := liveSearchOutbound{Type: "results", Seq: res.Seq, Query: res.Query, Customers: res.Customers}
			if msg.Customers == nil {
				msg.Customers = []admin.Customer{}
			}
			if res.Err != nil {
				msg = liveSearchOutbound{Type: "error", Seq: res.Seq, Query: res.Query, Error: MsgGeneric}
				if apiclient.IsUnauthorized(res.Err) {
					msg.Error = MsgSessionExpired
					_ = websocket.JSON.Send(conn, msg)
					_ = conn.Close()
					return
				}
			}
			if err := websocket.JSON.Send(conn, msg); err != nil {
				h.logger.Debug("live search send failed", "error", err)
				return
			}
		}
	}()

	searcher.Query(ctx, "")
	for {
		var in liveSearchInbound
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			break
		}
		switch in.Type {
		case "query":
			searcher.Query(ctx, in.Query)
		case "ping":
			_ = websocket.JSON.Send(conn, liveSearchOutbound{Type: "pong"})
		}
	}

	searcher.Close()
	<-done
}
