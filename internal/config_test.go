package internal

import (
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("PORT", "50051")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("BADGER_FILEPATH", "/tmp/badger")
	t.Setenv("BLUGE_FILEPATH", "/tmp/bluge")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MEETING_SECRET", "meeting")
}

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	setRequired(t)

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)
	req.NoError(config.Validate())

	req.Equal(StoreBadger, config.StoreDriver)
	req.Equal("approval", config.ConnectionPolicy)
	req.Equal(50, config.SearchCap)
	req.Equal(2*time.Minute, config.MaxIdle)
	req.Equal(30*time.Second, config.HeartbeatInterval)
	req.Nil(config.LimitMessages)
}

func TestConfig_Validate(t *testing.T) {
	zero := 0
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = StorePostgres }},
		{"no queue", func(c *Config) { c.QueueSize = 0 }},
		{"idle below heartbeat", func(c *Config) { c.MaxIdle = 10 * time.Second }},
		{"zero message page", func(c *Config) { c.LimitMessages = &zero }},
	}
	for _, tt := range tests {
		t.Run("should refuse "+tt.name, func(t *testing.T) {
			setRequired(t)
			var config Config
			_, err := env.UnmarshalFromEnviron(&config)
			require.NoError(t, err)

			tt.mutate(&config)

			require.Error(t, config.Validate())
		})
	}
}

func TestConfig_Missing_Required(t *testing.T) {
	setRequired(t)
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	require.Error(t, err)
}
