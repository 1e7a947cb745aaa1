// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateServerSettings(&settings.Server); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateCatalogSettings(&settings.Catalog); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateServerSettings validates the HTTP server settings
func validateServerSettings(settings *ServerSettings) error {
	var errs []string

	if port, err := strconv.Atoi(settings.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid server port: %s", settings.Port))
	}

	for _, origin := range settings.CORS.Origins {
		if origin == "*" {
			continue
		}
		if _, err := url.ParseRequestURI(origin); err != nil {
			errs = append(errs, fmt.Sprintf("invalid CORS origin: %s", origin))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("server settings errors: %v", errs)
	}
	return nil
}

// validateCatalogSettings validates the catalog settings
func validateCatalogSettings(settings *CatalogSettings) error {
	var errs []string

	if settings.StaticBaseURL == "" {
		errs = append(errs, "catalog.staticbaseurl must not be empty")
	} else if _, err := url.ParseRequestURI(settings.StaticBaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid catalog.staticbaseurl: %s", settings.StaticBaseURL))
	}

	// A trailing slash would double up when the audio path is appended
	if strings.HasSuffix(settings.StaticBaseURL, "/") {
		settings.StaticBaseURL = strings.TrimRight(settings.StaticBaseURL, "/")
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog settings errors: %v", errs)
	}
	return nil
}

// validateOutputSettings validates the database output settings
func validateOutputSettings(settings *OutputSettings) error {
	var errs []string

	if !settings.SQLite.Enabled && !settings.MySQL.Enabled {
		errs = append(errs, "one of output.sqlite or output.mysql must be enabled")
	}
	if settings.SQLite.Enabled && settings.MySQL.Enabled {
		errs = append(errs, "only one of output.sqlite and output.mysql may be enabled")
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		errs = append(errs, "output.sqlite.path must not be empty")
	}
	if settings.MySQL.Enabled {
		if settings.MySQL.Host == "" || settings.MySQL.Database == "" {
			errs = append(errs, "output.mysql.host and output.mysql.database must not be empty")
		}
		if port, err := strconv.Atoi(settings.MySQL.Port); err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("invalid output.mysql.port: %s", settings.MySQL.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("output settings errors: %v", errs)
	}
	return nil
}
