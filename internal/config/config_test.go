package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "Formie", cfg.PluginName)
	require.True(t, cfg.CsrfEnabled())
	require.True(t, cfg.AdminChangesAllowed())
	require.Equal(t, "CRAFT_CSRF_TOKEN", cfg.CsrfParam)
	require.True(t, cfg.CaptchaEnabled("honeypot"))
	require.False(t, cfg.CaptchaEnabled("javascript"))

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, "forms", cfg.FormsPath)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	cfg, err := Load("testdata/formie.yaml")
	require.NoError(t, err)

	require.Equal(t, "Forms", cfg.PluginName)
	require.False(t, cfg.AdminChangesAllowed())
	require.False(t, cfg.CsrfEnabled())
	require.Equal(t, "FORM_TOKEN", cfg.CsrfParam)
	require.Equal(t, "X-CSRF-Token", cfg.CsrfHeader)
	require.Equal(t, []string{"freeform"}, cfg.InstalledPlugins)

	require.True(t, cfg.CaptchaEnabled("javascript"))
	require.Equal(t, 5, cfg.Captchas["javascript"].MinTime)
	require.True(t, cfg.CaptchaEnabled("honeypot"), "defaults for unlisted captchas survive")

	statuses := cfg.StatusModels()
	require.Len(t, statuses, 2)
	require.True(t, statuses[0].IsDefault)
	require.Equal(t, "archived", statuses[1].Handle)

	require.Len(t, cfg.FormTemplateModels(), 1)
	require.Equal(t, "_emails/plain", cfg.EmailTemplateModels()[0].Path)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	_, err := Load("testdata/bad_status.yaml")
	require.ErrorContains(t, err, "more than one default status")
}
