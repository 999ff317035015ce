// Package linkplay talks to speakers running LinkPlay-based firmware over
// their HTTP API and UPnP event service.
package linkplay

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
)

const (
	apiPath = "/httpapi.asp"

	// DefaultUPnPPort is where the firmware serves its UPnP description and events.
	DefaultUPnPPort = 49152
)

// Options configures a Client.
type Options struct {
	Host     string
	Port     int
	HTTPS    bool
	Insecure bool
	Timeout  time.Duration

	// UPnPPort overrides DefaultUPnPPort.
	UPnPPort int

	Cache    *InfoCache
	Listener *EventListener
	Logger   *zap.Logger

	// MasterID maps a master's UUID to the device ID the engine knows it by.
	MasterID func(uuid string) string

	// HTTPClient replaces the default client; used by tests.
	HTTPClient *http.Client
}

// Client is a core.Transport for one LinkPlay device.
type Client struct {
	deviceID string
	host     string
	baseURL  string
	upnpURL  string
	http     *http.Client
	cache    *InfoCache
	listener *EventListener
	masterID func(string) string
	log      *zap.Logger

	mu       sync.Mutex
	last     *core.RawStatus
	follower bool
}

var _ core.Transport = (*Client)(nil)

// NewClient creates a client for the device at opts.Host.
func NewClient(deviceID string, opts Options) *Client {
	scheme := "http"
	if opts.HTTPS {
		scheme = "https"
	}
	hostport := opts.Host
	if opts.Port != 0 {
		hostport = net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	}
	upnpPort := opts.UPnPPort
	if upnpPort == 0 {
		upnpPort = DefaultUPnPPort
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 5 * time.Second
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.Insecure {
			// Most units ship a self-signed certificate.
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
		httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	masterID := opts.MasterID
	if masterID == nil {
		masterID = func(uuid string) string { return uuid }
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		deviceID: deviceID,
		host:     opts.Host,
		baseURL:  scheme + "://" + hostport,
		upnpURL:  "http://" + net.JoinHostPort(opts.Host, strconv.Itoa(upnpPort)),
		http:     httpClient,
		cache:    opts.Cache,
		listener: opts.Listener,
		masterID: masterID,
		log:      log.Named("linkplay").With(zap.String("device", deviceID)),
	}
}

// call issues one httpapi command and returns the raw response body.
func (c *Client) call(ctx context.Context, command string) ([]byte, error) {
	u := c.baseURL + apiPath + "?command=" + command
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// GetStatus fetches getPlayerStatus and merges in the cached device details.
// The snapshot is stamped with the time the request was issued, so a slow
// response never outranks an event the device pushed while it was in flight.
func (c *Client) GetStatus(ctx context.Context) (*core.RawStatus, error) {
	issued := time.Now()
	body, err := c.call(ctx, "getPlayerStatus")
	if err != nil {
		return nil, lerrors.Transport("get status", c.deviceID, err)
	}
	raw, err := parsePlayerStatus(body)
	if err != nil {
		return nil, lerrors.Transport("get status", c.deviceID, err)
	}
	raw.Origin = core.OriginPoll
	raw.Timestamp = issued

	// Group membership changes together with the follower mode, so the cached
	// details are refreshed whenever the device enters or leaves it.
	follower := raw.Mode == core.ModeFollower
	c.mu.Lock()
	changed := follower != c.follower
	c.follower = follower
	c.mu.Unlock()
	if changed {
		c.cache.invalidate(ctx, c.infoKey())
		c.cache.invalidate(ctx, c.slavesKey())
	}

	info, err := c.DeviceInfo(ctx)
	if err != nil {
		c.log.Debug("device info unavailable", zap.Error(err))
	} else {
		info.apply(raw, c.masterID)
	}

	c.remember(raw)
	return raw, nil
}

// DeviceInfo returns the device's name, identity, group, and inputs.
func (c *Client) DeviceInfo(ctx context.Context) (*DeviceInfo, error) {
	key := c.infoKey()
	body, ok := c.cache.get(ctx, key)
	if !ok {
		var err error
		body, err = c.call(ctx, "getStatusEx")
		if err != nil {
			return nil, lerrors.Transport("get device info", c.deviceID, err)
		}
	}

	info, err := parseStatusEx(body)
	if err != nil {
		return nil, lerrors.Transport("get device info", c.deviceID, err)
	}
	if !ok {
		c.cache.put(ctx, key, body)
	}
	if !info.Slave {
		info.Slaves = c.slaveCount(ctx)
	}
	return info, nil
}

// slaveCount asks a grouped-capable device how many speakers follow it.
// Firmware without multiroom support answers with something other than JSON,
// which counts as none.
func (c *Client) slaveCount(ctx context.Context) int {
	key := c.slavesKey()
	body, ok := c.cache.get(ctx, key)
	if !ok {
		var err error
		body, err = c.call(ctx, "multiroom:getSlaveList")
		if err != nil {
			c.log.Debug("slave list unavailable", zap.Error(err))
			return 0
		}
	}
	n, err := parseSlaveList(body)
	if err != nil {
		c.log.Debug("slave list unreadable", zap.Error(err))
		return 0
	}
	if !ok {
		c.cache.put(ctx, key, body)
	}
	return n
}

func (c *Client) infoKey() string {
	return "statusex:" + c.baseURL
}

func (c *Client) slavesKey() string {
	return "slaves:" + c.baseURL
}

// SendCommand issues a setPlayerCmd request. The firmware acknowledges with "OK".
func (c *Client) SendCommand(ctx context.Context, name string, args ...string) error {
	command, err := playerCommand(name, args)
	if err != nil {
		return err
	}
	body, err := c.call(ctx, command)
	if err != nil {
		return lerrors.Transport(name, c.deviceID, err)
	}
	if reply := strings.TrimSpace(string(body)); !strings.EqualFold(reply, "OK") {
		return lerrors.Transport(name, c.deviceID, fmt.Errorf("unexpected reply %q", reply))
	}
	return nil
}

// playerCommand maps a transport command name to its httpapi form.
func playerCommand(name string, args []string) (string, error) {
	arg := func() (string, error) {
		if len(args) != 1 || args[0] == "" {
			return "", fmt.Errorf("%s: expected one argument, got %d", name, len(args))
		}
		return url.PathEscape(args[0]), nil
	}

	switch name {
	case core.CommandPlay:
		if len(args) == 0 {
			return "setPlayerCmd:resume", nil
		}
		a, err := arg()
		if err != nil {
			return "", err
		}
		return "setPlayerCmd:play:" + a, nil
	case core.CommandPause, core.CommandResume, core.CommandStop, core.CommandNext, core.CommandPrev:
		return "setPlayerCmd:" + name, nil
	case core.CommandSeek, core.CommandLoopMode, core.CommandSwitchMode:
		a, err := arg()
		if err != nil {
			return "", err
		}
		return "setPlayerCmd:" + name + ":" + a, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

func (c *Client) remember(raw *core.RawStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = raw
}

func (c *Client) lastStatus() *core.RawStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
