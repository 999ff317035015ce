package linkplay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
)

const (
	avTransportEventPath      = "/upnp/event/AVTransport1"
	renderingControlEventPath = "/upnp/event/RenderingControl1"

	defaultSubscriptionTimeout = 300 * time.Second
)

// ErrEventsDisabled is returned by SubscribeEvents when the client has no listener.
var ErrEventsDisabled = errors.New("event subscriptions are disabled")

// Subscription is an active GENA subscription.
type Subscription struct {
	SID     string
	Timeout time.Duration
	URL     string
}

func parseSecondTimeout(h string) (time.Duration, bool) {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0, false
	}
	if strings.EqualFold(h, "infinite") {
		return 0, true
	}
	secs, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(h), "second-"))
	if err != nil {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// Subscribe starts a GENA subscription to eventPath on the device's UPnP port.
func (c *Client) Subscribe(ctx context.Context, eventPath, callbackURL string, requested time.Duration) (Subscription, error) {
	u := c.upnpURL + eventPath
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", u, nil)
	if err != nil {
		return Subscription{}, err
	}
	req.Header.Set("CALLBACK", "<"+callbackURL+">")
	req.Header.Set("NT", "upnp:event")
	if requested > 0 {
		req.Header.Set("TIMEOUT", fmt.Sprintf("Second-%d", int(requested.Seconds())))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Subscription{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Subscription{}, fmt.Errorf("subscribe failed: %s", resp.Status)
	}

	sid := strings.TrimSpace(resp.Header.Get("SID"))
	if sid == "" {
		return Subscription{}, errors.New("subscribe response missing SID header")
	}
	to, _ := parseSecondTimeout(resp.Header.Get("TIMEOUT"))
	return Subscription{SID: sid, Timeout: to, URL: u}, nil
}

// Renew extends sub.
func (c *Client) Renew(ctx context.Context, sub Subscription, requested time.Duration) (Subscription, error) {
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", sub.URL, nil)
	if err != nil {
		return Subscription{}, err
	}
	req.Header.Set("SID", sub.SID)
	if requested > 0 {
		req.Header.Set("TIMEOUT", fmt.Sprintf("Second-%d", int(requested.Seconds())))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Subscription{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Subscription{}, fmt.Errorf("renew failed: %s", resp.Status)
	}

	if to, ok := parseSecondTimeout(resp.Header.Get("TIMEOUT")); ok {
		sub.Timeout = to
	}
	return sub, nil
}

// Unsubscribe ends sub. A device that already forgot the subscription
// answers 412, which counts as success.
func (c *Client) Unsubscribe(ctx context.Context, sub Subscription) error {
	req, err := http.NewRequestWithContext(ctx, "UNSUBSCRIBE", sub.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("SID", sub.SID)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusPreconditionFailed {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unsubscribe failed: %s", resp.Status)
	}
	return nil
}

// SubscribeEvents subscribes to AVTransport and RenderingControl events and
// delivers each notification as a status snapshot. The channel closes when
// ctx ends or a renewal fails.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan *core.RawStatus, error) {
	if c.listener == nil {
		return nil, ErrEventsDisabled
	}

	token := uuid.NewString()
	payloads := c.listener.register(token)
	callback, err := c.listener.callbackURL(token, c.host)
	if err != nil {
		c.listener.unregister(token)
		return nil, lerrors.Transport("subscribe events", c.deviceID, err)
	}

	var subs []Subscription
	for _, path := range []string{avTransportEventPath, renderingControlEventPath} {
		sub, err := c.Subscribe(ctx, path, callback, defaultSubscriptionTimeout)
		if err != nil {
			c.endSubscriptions(subs)
			c.listener.unregister(token)
			return nil, lerrors.Transport("subscribe events", c.deviceID, err)
		}
		subs = append(subs, sub)
	}

	c.log.Debug("subscribed to events", zap.String("callback", callback), zap.Int("services", len(subs)))

	out := make(chan *core.RawStatus, 8)
	go c.pump(ctx, token, subs, payloads, out)
	return out, nil
}

func (c *Client) pump(ctx context.Context, token string, subs []Subscription, payloads <-chan []byte, out chan<- *core.RawStatus) {
	defer close(out)
	defer c.listener.unregister(token)
	defer func() { c.endSubscriptions(subs) }()

	renew := time.NewTimer(renewAfter(subs))
	defer renew.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-renew.C:
			for i, sub := range subs {
				renewed, err := c.Renew(ctx, sub, defaultSubscriptionTimeout)
				if err != nil {
					c.log.Warn("event renewal failed", zap.String("sid", sub.SID), zap.Error(err))
					return
				}
				subs[i] = renewed
			}
			renew.Reset(renewAfter(subs))

		case payload := <-payloads:
			raw, ok := c.eventStatus(ctx, payload)
			if !ok {
				continue
			}
			select {
			case out <- raw:
			case <-ctx.Done():
				return
			}
		}
	}
}

// eventStatus overlays a notification onto the last full status, fetching
// one first if none is known yet.
func (c *Client) eventStatus(ctx context.Context, payload []byte) (*core.RawStatus, bool) {
	vars, err := ParseEvent(payload)
	if err != nil {
		c.log.Debug("malformed event", zap.Error(err))
		return nil, false
	}

	base := c.lastStatus()
	if base == nil {
		if base, err = c.GetStatus(ctx); err != nil {
			c.log.Debug("no base status for event", zap.Error(err))
			return nil, false
		}
	}

	raw, touched := overlayEvent(base, vars)
	if !touched {
		return nil, false
	}
	raw.Timestamp = time.Now()
	c.remember(raw)
	return raw, true
}

func (c *Client) endSubscriptions(subs []Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, sub := range subs {
		if err := c.Unsubscribe(ctx, sub); err != nil {
			c.log.Debug("unsubscribe failed", zap.String("sid", sub.SID), zap.Error(err))
		}
	}
}

// renewAfter returns half the shortest granted timeout.
func renewAfter(subs []Subscription) time.Duration {
	shortest := defaultSubscriptionTimeout
	for _, s := range subs {
		if s.Timeout > 0 && s.Timeout < shortest {
			shortest = s.Timeout
		}
	}
	return shortest / 2
}
