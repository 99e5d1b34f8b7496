package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Zoom        ZoomConfig
	Share       ShareConfig
	Archive     ArchiveConfig
	Journal     JournalConfig
}

type ServerConfig struct {
	Port int
}

type ZoomConfig struct {
	AccountID     string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	APIBaseURL    string
	AuthBaseURL   string
	// ReadyDelay is how long a job waits before touching the Zoom API, giving
	// the platform time to materialize the recording asset.
	ReadyDelay time.Duration
	Directory  DirectoryRule
}

// DirectoryRule describes how phone-user emails map to archive initials.
type DirectoryRule struct {
	EmailPrefix     string
	EmailSuffix     string
	SpecialEmail    string
	SpecialInitials string
}

type ShareConfig struct {
	Address   string
	ShareName string
	Username  string
	Password  string
	Domain    string
}

type ArchiveConfig struct {
	StagingDir string
	KeepStaged bool
}

type JournalConfig struct {
	Path string
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("callarchive_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("port", 4000)
	v.SetDefault("zoom_app_account_id", "")
	v.SetDefault("zoom_app_client_id", "")
	v.SetDefault("zoom_app_client_secret", "")
	v.SetDefault("zoom_webhook_secret_token", "")
	v.SetDefault("zoom_api_base_url", "https://api.zoom.us/v2")
	v.SetDefault("zoom_auth_base_url", "https://zoom.us")
	v.SetDefault("zoom_recording_ready_delay", "20s")
	v.SetDefault("directory_email_prefix", "xyz+")
	v.SetDefault("directory_email_suffix", "@example.com.au")
	v.SetDefault("directory_special_email", "boss@example.com.au")
	v.SetDefault("directory_special_initials", "BOS")
	v.SetDefault("samba_address", "")
	v.SetDefault("samba_share", "recordings")
	v.SetDefault("samba_username", "")
	v.SetDefault("samba_password", "")
	v.SetDefault("samba_domain", "")
	v.SetDefault("archive_staging_dir", "out")
	v.SetDefault("archive_keep_staged", false)
	v.SetDefault("journal_db_path", "data/archive")

	env := resolveEnvironment(v)
	port := v.GetInt("port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT: %d", port)
	}

	webhookSecret := strings.TrimSpace(v.GetString("zoom_webhook_secret_token"))
	if webhookSecret == "" {
		if !isLocalEnvironment(env) {
			return Config{}, fmt.Errorf("ZOOM_WEBHOOK_SECRET_TOKEN is required outside local/dev environments")
		}
		webhookSecret = "callarchive-local-dev"
	}

	accountID := strings.TrimSpace(v.GetString("zoom_app_account_id"))
	clientID := strings.TrimSpace(v.GetString("zoom_app_client_id"))
	clientSecret := strings.TrimSpace(v.GetString("zoom_app_client_secret"))
	if !isLocalEnvironment(env) && (accountID == "" || clientID == "" || clientSecret == "") {
		return Config{}, fmt.Errorf("ZOOM_APP_ACCOUNT_ID, ZOOM_APP_CLIENT_ID and ZOOM_APP_CLIENT_SECRET are required outside local/dev environments")
	}

	readyDelay := v.GetDuration("zoom_recording_ready_delay")
	if readyDelay < 0 {
		readyDelay = 0
	}

	return Config{
		Environment: env,
		Server: ServerConfig{
			Port: port,
		},
		Zoom: ZoomConfig{
			AccountID:     accountID,
			ClientID:      clientID,
			ClientSecret:  clientSecret,
			WebhookSecret: webhookSecret,
			APIBaseURL:    strings.TrimRight(strings.TrimSpace(v.GetString("zoom_api_base_url")), "/"),
			AuthBaseURL:   strings.TrimRight(strings.TrimSpace(v.GetString("zoom_auth_base_url")), "/"),
			ReadyDelay:    readyDelay,
			Directory: DirectoryRule{
				EmailPrefix:     v.GetString("directory_email_prefix"),
				EmailSuffix:     v.GetString("directory_email_suffix"),
				SpecialEmail:    strings.TrimSpace(v.GetString("directory_special_email")),
				SpecialInitials: strings.TrimSpace(v.GetString("directory_special_initials")),
			},
		},
		Share: ShareConfig{
			Address:   strings.TrimSpace(v.GetString("samba_address")),
			ShareName: strings.TrimSpace(v.GetString("samba_share")),
			Username:  strings.TrimSpace(v.GetString("samba_username")),
			Password:  v.GetString("samba_password"),
			Domain:    strings.TrimSpace(v.GetString("samba_domain")),
		},
		Archive: ArchiveConfig{
			StagingDir: strings.TrimSpace(v.GetString("archive_staging_dir")),
			KeepStaged: v.GetBool("archive_keep_staged"),
		},
		Journal: JournalConfig{
			Path: strings.TrimSpace(v.GetString("journal_db_path")),
		},
	}, nil
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"callarchive_env", "app_env", "go_env"} {
		if env := strings.ToLower(strings.TrimSpace(v.GetString(key))); env != "" {
			return env
		}
	}
	return ""
}

func isLocalEnvironment(env string) bool {
	switch env {
	case "", "dev", "development", "local", "test":
		return true
	}
	return false
}
