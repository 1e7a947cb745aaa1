package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Server.Host = "0.0.0.0"
	s.Server.Port = "8000"
	s.Server.CORS.Origins = []string{"http://localhost:5173"}
	s.Catalog.StaticBaseURL = "http://localhost:8000/static"
	s.Catalog.StaticDir = "static"
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "birds.db"
	return s
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"invalid port", func(s *Settings) { s.Server.Port = "notaport" }},
		{"port out of range", func(s *Settings) { s.Server.Port = "70000" }},
		{"invalid cors origin", func(s *Settings) { s.Server.CORS.Origins = []string{"not a url"} }},
		{"empty static base url", func(s *Settings) { s.Catalog.StaticBaseURL = "" }},
		{"no store enabled", func(s *Settings) { s.Output.SQLite.Enabled = false }},
		{"both stores enabled", func(s *Settings) { s.Output.MySQL.Enabled = true }},
		{"sqlite without path", func(s *Settings) { s.Output.SQLite.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			require.Error(t, err)

			var ve ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestValidateTrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Catalog.StaticBaseURL = "http://localhost:8000/static/"
	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, "http://localhost:8000/static", s.Catalog.StaticBaseURL)
}
