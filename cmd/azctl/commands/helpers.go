package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cloudslab-io/azapi/internal/constants"
	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/cloudslab-io/azapi/pkg/azclient"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	timeFormat = time.RFC3339
)

// Common static errors used throughout the commands package.
var (
	ErrNoCredentialsConfigured = errors.New("no credentials configured. Use global flags, AZCTL_* environment variables, or 'azctl config set'")
	ErrInvalidPairFormat       = errors.New("invalid format. Expected key=value")
	ErrConfigKeyUnknown        = errors.New("unknown config key")
	ErrConfigValueRequired     = errors.New("config value is required")
)

// configKeys are the settings 'azctl config' persists. They match the viper
// keys the global flags bind to.
var configKeys = []string{
	"subscription",
	"tenant",
	"client-id",
	"client-secret",
	"token",
	"management-endpoint",
	"hub",
	"hub-connection-string",
	"hub-token",
	"output",
}

// CreateClient builds an azapi.Client from the resolved viper configuration.
func CreateClient() (azapi.Client, error) {
	config := &azapi.Config{
		SubscriptionID:      viper.GetString("subscription"),
		ManagementEndpoint:  viper.GetString("management-endpoint"),
		TenantID:            viper.GetString("tenant"),
		ClientID:            viper.GetString("client-id"),
		ClientSecret:        viper.GetString("client-secret"),
		AccessToken:         viper.GetString("token"),
		HubConnectionString: viper.GetString("hub-connection-string"),
		HubEndpoint:         viper.GetString("hub"),
		SharedAccessKeyName: viper.GetString("shared-access-key-name"),
		SharedAccessKey:     viper.GetString("shared-access-key"),
		HubAccessToken:      viper.GetString("hub-token"),
	}

	if !hasManagementCredentials(config) && !hasHubCredentials(config) {
		return nil, ErrNoCredentialsConfigured
	}

	return azclient.New(config)
}

func hasManagementCredentials(config *azapi.Config) bool {
	return config.AccessToken != "" || (config.ClientID != "" && config.ClientSecret != "")
}

func hasHubCredentials(config *azapi.Config) bool {
	return config.HubConnectionString != "" ||
		config.HubAccessToken != "" ||
		(config.HubEndpoint != "" && config.SharedAccessKey != "")
}

// encodeOutput renders v as JSON or YAML when the output flag asks for it.
// It reports whether it handled the rendering; table output stays with the
// caller.
func encodeOutput(v any) (bool, error) {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		if err := encoder.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode output as JSON: %w", err)
		}

		return true, nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(constants.JSONIndentSize)

		if err := encoder.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode output as YAML: %w", err)
		}

		return true, nil
	default:
		return false, nil
	}
}

// titleCase renders service enum values ("registered", "enqueued") for table
// output.
func titleCase(value string) string {
	if value == "" {
		return NotAvailable
	}

	return cases.Title(language.English).String(strings.ToLower(value))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}

	return t.Format(timeFormat)
}

func formatString(value string) string {
	if value == "" {
		return NotAvailable
	}

	return value
}

// parsePairs parses repeated key=value flag values into a nested document.
// Dots in keys descend into nested maps, so "location.building=43" becomes
// {"location": {"building": "43"}}.
func parsePairs(pairs []string) (map[string]any, error) {
	doc := map[string]any{}

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPairFormat, pair)
		}

		target := doc

		parts := strings.Split(key, ".")
		for _, part := range parts[:len(parts)-1] {
			child, ok := target[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				target[part] = child
			}

			target = child
		}

		target[parts[len(parts)-1]] = parseScalar(value)
	}

	return doc, nil
}

// parseScalar keeps flag values typed in twin documents: JSON literals stay
// numbers, booleans, and null; everything else is a string.
func parseScalar(value string) any {
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err == nil {
		switch parsed.(type) {
		case float64, bool, nil:
			return parsed
		}
	}

	return value
}
