package cache

import (
	"encoding/json"
	"net"
	"time"
)

// Client implements Store over a Unix socket served by cache-daemon.
type Client struct {
	socketPath string
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

func (c *Client) roundTrip(req Request) (Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, 500*time.Millisecond)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()
	if err := json.NewEncoder(conn).Encode(&req); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, err
	}
	if !resp.OK {
		return Response{}, wireError(resp.Error)
	}
	return resp, nil
}

func (c *Client) Get(key string) ([]byte, error) {
	resp, err := c.roundTrip(Request{Op: "get", Key: key})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), resp.Value...), nil
}

func (c *Client) Put(key string, value []byte, ttl time.Duration) error {
	_, err := c.roundTrip(Request{Op: "put", Key: key, Value: value, TTLSeconds: int64(ttl / time.Second)})
	return err
}

func (c *Client) Delete(key string) error {
	_, err := c.roundTrip(Request{Op: "delete", Key: key})
	return err
}

func (c *Client) ClearExpired() (int, error) {
	resp, err := c.roundTrip(Request{Op: "sweep"})
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *Client) Stats() (Stats, error) {
	resp, err := c.roundTrip(Request{Op: "stats"})
	if err != nil {
		return Stats{}, err
	}
	if resp.Stats == nil {
		return Stats{}, nil
	}
	return *resp.Stats, nil
}

// wireError maps daemon error strings back onto the sentinel errors so
// errors.Is works the same on both sides of the socket.
func wireError(msg string) error {
	switch msg {
	case ErrNotFound.Error():
		return ErrNotFound
	case ErrExpired.Error():
		return ErrExpired
	}
	return &simpleError{s: msg}
}

type simpleError struct{ s string }

func (e *simpleError) Error() string { return e.s }
