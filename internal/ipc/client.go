package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Skipper.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AwaitInit blocks until initialization finishes or the timeout elapses.
func (c *Client) AwaitInit(timeout time.Duration) (*AwaitInitResponse, error) {
	var resp AwaitInitResponse
	req := AwaitInitRequest{TimeoutMillis: timeout.Milliseconds()}
	if err := c.client.Call("Skipper.AwaitInit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InitStep returns the current initialization step.
func (c *Client) InitStep() (*InitStepResponse, error) {
	var resp InitStepResponse
	if err := c.client.Call("Skipper.InitStep", InitStepRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NotifyUIReady delivers the "shell rendered" acknowledgment.
func (c *Client) NotifyUIReady() (*NotifyUIReadyResponse, error) {
	var resp NotifyUIReadyResponse
	if err := c.client.Call("Skipper.NotifyUIReady", NotifyUIReadyRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// KillSidecar requests termination of the spawned sidecar.
func (c *Client) KillSidecar() (*KillSidecarResponse, error) {
	var resp KillSidecarResponse
	if err := c.client.Call("Skipper.KillSidecar", KillSidecarRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Skipper.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ServerURL reads the persisted custom server URL.
func (c *Client) ServerURL() (*ServerURLResponse, error) {
	var resp ServerURLResponse
	if err := c.client.Call("Skipper.ServerURL", ServerURLRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetServerURL persists a custom server URL; empty clears it.
func (c *Client) SetServerURL(url string) (*SetServerURLResponse, error) {
	var resp SetServerURLResponse
	if err := c.client.Call("Skipper.SetServerURL", SetServerURLRequest{URL: url}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WSL reads the WSL launch toggle.
func (c *Client) WSL() (*WSLResponse, error) {
	var resp WSLResponse
	if err := c.client.Call("Skipper.WSL", WSLRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetWSL persists the WSL launch toggle.
func (c *Client) SetWSL(enabled bool) (*SetWSLResponse, error) {
	var resp SetWSLResponse
	if err := c.client.Call("Skipper.SetWSL", SetWSLRequest{Enabled: enabled}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Display reads the windowing backend decision.
func (c *Client) Display() (*DisplayResponse, error) {
	var resp DisplayResponse
	if err := c.client.Call("Skipper.Display", DisplayRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetDisplay persists the native Wayland preference.
func (c *Client) SetDisplay(preferWayland bool) (*SetDisplayResponse, error) {
	var resp SetDisplayResponse
	if err := c.client.Call("Skipper.SetDisplay", SetDisplayRequest{PreferWayland: preferWayland}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists recent launch attempts.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Skipper.History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Skipper.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
