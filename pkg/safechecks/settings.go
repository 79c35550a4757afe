package safechecks

import (
	"context"

	"github.com/safechecks/safechecks/internal/settings"
	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
)

// Settings returns the effective settings: saved values over the defaults.
func (c *Client) Settings() (model.Settings, error) {
	saved, found, err := c.store.Settings()
	if err != nil {
		return model.Settings{}, err
	}
	if !found {
		return settings.Defaults(), nil
	}
	return settings.Merge(settings.Defaults(), saved), nil
}

// SaveSettings validates s and stores it locally.
func (c *Client) SaveSettings(s model.Settings) error {
	if problems := settings.Check(s); len(problems) > 0 {
		return errclass.ErrValidation.WithMessagef("settings: %s: %s", problems[0].Where, problems[0].Message)
	}
	return c.store.SaveSettings(s)
}

// PushSettings uploads the effective settings to the remote.
func (c *Client) PushSettings(ctx context.Context) error {
	s, err := c.Settings()
	if err != nil {
		return err
	}
	return c.sync.PushSettings(ctx, s)
}

// PullSettings replaces local settings with the remote copy. It returns
// false when the remote has none.
func (c *Client) PullSettings(ctx context.Context) (bool, error) {
	_, found, err := c.sync.PullSettings(ctx)
	return found, err
}

// ResetSettings drops saved settings so the defaults apply again.
func (c *Client) ResetSettings() error {
	return c.store.Delete(store.KeySettings)
}
