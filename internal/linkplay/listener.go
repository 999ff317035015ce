package linkplay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxEventBody = 1 << 20

func init() {
	chi.RegisterMethod("NOTIFY")
}

// EventListener receives UPnP NOTIFY callbacks for every subscribed device.
// Each subscription registers a random token that forms its callback path.
type EventListener struct {
	callbackHost string
	listen       string
	log          *zap.Logger

	mu    sync.Mutex
	sinks map[string]chan []byte
	ln    net.Listener
	port  int
}

// NewEventListener creates a listener bound to listen once Listen is called.
// callbackHost is the address devices use to reach this process; when empty
// it is derived per device from the local address that routes to it.
func NewEventListener(callbackHost, listen string, log *zap.Logger) *EventListener {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventListener{
		callbackHost: callbackHost,
		listen:       listen,
		log:          log.Named("events"),
		sinks:        make(map[string]chan []byte),
	}
}

// Handler returns the HTTP handler serving NOTIFY callbacks.
func (l *EventListener) Handler() http.Handler {
	r := chi.NewRouter()
	r.MethodFunc("NOTIFY", "/notify/{token}", l.handleNotify)
	return r
}

func (l *EventListener) handleNotify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	sink, ok := l.sinks[token]
	if ok {
		select {
		case sink <- body:
		default:
			l.log.Debug("dropped event for slow subscriber", zap.String("token", token))
		}
	}
	l.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Listen binds the callback port.
func (l *EventListener) Listen() error {
	ln, err := net.Listen("tcp", l.listen)
	if err != nil {
		return fmt.Errorf("listen for events: %w", err)
	}
	l.mu.Lock()
	l.ln = ln
	l.port = ln.Addr().(*net.TCPAddr).Port
	l.mu.Unlock()
	return nil
}

// Serve handles callbacks until ctx is cancelled. Listen must be called first.
func (l *EventListener) Serve(ctx context.Context) error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()
	if ln == nil {
		return errors.New("event listener is not bound")
	}

	srv := &http.Server{
		Handler:           l.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	l.log.Info("event listener started", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// register creates the sink for token.
func (l *EventListener) register(token string) <-chan []byte {
	ch := make(chan []byte, 16)
	l.mu.Lock()
	l.sinks[token] = ch
	l.mu.Unlock()
	return ch
}

func (l *EventListener) unregister(token string) {
	l.mu.Lock()
	delete(l.sinks, token)
	l.mu.Unlock()
}

// callbackURL returns the URL a device at deviceHost should NOTIFY for token.
func (l *EventListener) callbackURL(token, deviceHost string) (string, error) {
	l.mu.Lock()
	port := l.port
	l.mu.Unlock()
	if port == 0 {
		return "", errors.New("event listener is not bound")
	}

	host := l.callbackHost
	if host == "" {
		var err error
		if host, err = localAddrFor(deviceHost); err != nil {
			return "", err
		}
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/notify/" + token, nil
}

// localAddrFor returns the local IP the kernel would use to reach host.
func localAddrFor(host string) (string, error) {
	conn, err := net.Dial("udp", net.JoinHostPort(host, "80"))
	if err != nil {
		return "", fmt.Errorf("find callback address: %w", err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
