package email

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_SendConfirmationCode(t *testing.T) {
	tm, err := NewTemplateManager("")
	require.NoError(t, err)

	provider := NewLogProvider()
	mailer := NewMailer(provider, tm)

	require.NoError(t, mailer.SendConfirmationCode(context.Background(), "user@test.kg", "Иван", "0427"))

	sent := provider.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"user@test.kg"}, sent[0].To)
	assert.Contains(t, sent[0].HTMLBody, "0427")
	assert.Contains(t, sent[0].HTMLBody, "Иван")
	t.Logf("письмо: %s", sent[0].Subject)
}

func TestTemplateManager_UnknownTemplate(t *testing.T) {
	tm, err := NewTemplateManager("")
	require.NoError(t, err)

	_, err = tm.Render("missing", nil)
	assert.Error(t, err)
}

func TestSMTPConfig_Validate(t *testing.T) {
	_, err := NewSMTPProvider(&SMTPConfig{Port: 587, FromEmail: "a@b.kg"})
	assert.Error(t, err, "без хоста провайдер не создается")

	err = (&SMTPConfig{Port: 70000}).Validate()
	require.Error(t, err)
	for _, part := range []string{"smtp host", "smtp port", "from email"} {
		assert.Contains(t, err.Error(), part)
	}

	cfg := &SMTPConfig{Host: "smtp.test", Port: 587, FromEmail: "a@b.kg"}
	p, err := NewSMTPProvider(cfg)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, defaultSendTimeout, cfg.sendTimeout())
}

func TestTemplateManager_DirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TemplateConfirmationCode+".html"), []byte("код: {{.Code}}"), 0o644))

	tm, err := NewTemplateManager(dir)
	require.NoError(t, err)

	body, err := tm.Render(TemplateConfirmationCode, TemplateData{"Code": "1234"})
	require.NoError(t, err)
	assert.Equal(t, "код: 1234", body)
}
