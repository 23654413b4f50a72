package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGinMode(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"production", "release"},
		{"prod", "release"},
		{"test", "test"},
		{"development", "debug"},
		{"", "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, GinMode(tt.env))
		})
	}
}

func TestResolveEnv(t *testing.T) {
	t.Setenv("ENV", "")
	assert.Equal(t, "development", ResolveEnv("development"))

	t.Setenv("ENV", "production")
	assert.Equal(t, "production", ResolveEnv("development"))
}
