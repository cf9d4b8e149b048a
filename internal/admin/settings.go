package admin

import (
	"context"
	"fmt"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
)

type SettingsService struct {
	client *apiclient.Client
}

func NewSettingsService(client *apiclient.Client) *SettingsService {
	return &SettingsService{client: client}
}

func (s *SettingsService) Get(ctx context.Context) (*GeneralSettings, error) {
	var out GeneralSettings
	if err := s.client.Get(ctx, "/generalsettings", nil, &out); err != nil {
		return nil, fmt.Errorf("admin: get settings: %w", err)
	}
	return &out, nil
}

// Save replaces the studio settings. Record ids are not sent back.
func (s *SettingsService) Save(ctx context.Context, settings GeneralSettings) error {
	settings.StudioInfo.ID = ""
	settings.Notifications.ID = ""
	if err := s.client.Post(ctx, "/generalsettings", settings, nil); err != nil {
		return fmt.Errorf("admin: save settings: %w", err)
	}
	return nil
}
