package mail

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		bindings map[string]string
		want     string
	}{
		{
			name:     "single binding",
			body:     "<p>Hello {{name}}</p>",
			bindings: map[string]string{"name": "Ada"},
			want:     "<p>Hello Ada</p>",
		},
		{
			name:     "repeated placeholder",
			body:     "{{name}} and {{name}}",
			bindings: map[string]string{"name": "Ada"},
			want:     "Ada and Ada",
		},
		{
			name:     "unmatched placeholder stays",
			body:     "Hello {{name}}, your code is {{code}}",
			bindings: map[string]string{"name": "Ada"},
			want:     "Hello Ada, your code is {{code}}",
		},
		{
			name:     "binding absent from template is ignored",
			body:     "Hello",
			bindings: map[string]string{"name": "Ada"},
			want:     "Hello",
		},
		{
			name:     "values are not substituted again",
			body:     "{{a}} {{b}}",
			bindings: map[string]string{"a": "{{b}}", "b": "B"},
			want:     "{{b}} B",
		},
		{
			name:     "no escaping",
			body:     "{{html}}",
			bindings: map[string]string{"html": "<b>bold</b>"},
			want:     "<b>bold</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(tt.body, tt.bindings))
		})
	}
}

func TestValidTemplateName(t *testing.T) {
	for _, name := range []string{"default", "welcome.html", "auth/reset"} {
		assert.True(t, validTemplateName(name), name)
	}
	for _, name := range []string{"", ".", "..", "../secret", "/etc/passwd", "a/../b", `..\win`, "a//b"} {
		assert.False(t, validTemplateName(name), name)
	}
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default"), []byte("Hello {{name}}"), 0o600))

	bucket, err := openTemplateBucket(context.Background(), dir)
	require.NoError(t, err)
	defer bucket.Close()

	body, err := loadTemplate(context.Background(), bucket, "default")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{name}}", body)

	_, err = loadTemplate(context.Background(), bucket, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrTemplateNotFound))
	assert.True(t, errors.Is(err, domainerrors.ErrConfiguration))

	var notFound *domainerrors.TemplateNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Template)

	_, err = loadTemplate(context.Background(), bucket, "../default")
	assert.True(t, errors.Is(err, domainerrors.ErrTemplateNotFound))
}

func TestOpenTemplateBucket_MissingDirectory(t *testing.T) {
	_, err := openTemplateBucket(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrConfiguration))
}

func TestOpenTemplateBucket_URL(t *testing.T) {
	bucket, err := openTemplateBucket(context.Background(), "mem://")
	require.NoError(t, err)
	defer bucket.Close()

	require.NoError(t, bucket.WriteAll(context.Background(), "welcome", []byte("Hi {{name}}"), nil))

	body, err := loadTemplate(context.Background(), bucket, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "Hi {{name}}", body)

	_, err = openTemplateBucket(context.Background(), "unknown-scheme://bucket")
	assert.True(t, errors.Is(err, domainerrors.ErrConfiguration))
}
