package cache

import (
	"encoding/json"
	"net"
	"time"
)

// ServeConn answers requests on a single daemon connection until the peer
// closes it. Errors are reported to the peer, never raised here.
func ServeConn(conn net.Conn, store Store) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		if err := enc.Encode(Dispatch(req, store)); err != nil {
			return
		}
	}
}

// Dispatch applies one protocol request to store.
func Dispatch(req Request, store Store) Response {
	switch req.Op {
	case "get":
		v, err := store.Get(req.Key)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Value: v}
	case "put":
		ttl := time.Duration(req.TTLSeconds) * time.Second
		if err := store.Put(req.Key, req.Value, ttl); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case "delete":
		if err := store.Delete(req.Key); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case "sweep":
		removed, err := store.ClearExpired()
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Removed: removed}
	case "stats":
		stats, err := store.Stats()
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Stats: &stats}
	default:
		return Response{Error: "unknown op"}
	}
}
