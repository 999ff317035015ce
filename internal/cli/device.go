package cli

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tessro/linkctl/internal/control"
	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
	"github.com/tessro/linkctl/internal/session"
	"github.com/tessro/linkctl/internal/wizard"
)

// openDevice polls every configured device once and returns the control
// surface for the device named by --device.
func openDevice(ctx context.Context) (*session.Manager, *control.Facade, error) {
	m := newManager()
	id, err := pickDevice(m, deviceFlag)
	if err != nil {
		return nil, nil, err
	}

	res := m.Refresh(ctx)
	for _, err := range res.Errors {
		log.Debug("refresh failed", zap.Error(err))
	}

	f, err := m.Facade(id, true)
	if err != nil {
		return nil, nil, err
	}
	if state, _ := f.CurrentState(); state.Sync == core.SyncUninitialized {
		if err := errorFor(res.Errors, id); err != nil {
			return nil, nil, err
		}
	}
	return m, f, nil
}

// pickDevice resolves key, falling back to an interactive picker when
// several devices are configured and none was named.
func pickDevice(m *session.Manager, key string) (string, error) {
	id, err := m.Resolve(key)
	if err == nil || key != "" || len(cfg.Devices) < 2 || !wizard.IsTerminal() {
		return id, err
	}

	devices := make([]core.Device, len(cfg.Devices))
	for i, d := range cfg.Devices {
		devices[i] = core.Device{ID: d.ID, Name: d.DisplayName(), Host: d.Host}
	}
	picked, perr := wizard.RunDevicePicker(devices)
	if perr != nil {
		return "", perr
	}
	if picked == nil {
		return "", err
	}
	return picked.ID, nil
}

// errorFor returns the refresh failure reported for device id, if any.
func errorFor(errs []error, id string) error {
	for _, err := range errs {
		var te *lerrors.TransportError
		if errors.As(err, &te) && te.Device == id {
			return err
		}
	}
	return nil
}
