package email

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	templates := fstest.MapFS{
		"orders/confirmation_subject.txt":  {Data: []byte("Your order at {{.site_name}}")},
		"orders/confirmation_message.txt":  {Data: []byte("Hello {{.name}},\n\nthank you for your order.\n")},
		"orders/confirmation_message.html": {Data: []byte("<p>Hello {{.name}},</p>")},
	}
	renderer := NewRenderer(templates)
	context := map[string]any{
		"site_name": "harry.email",
		"name":      "Harry",
	}

	t.Run("Subject", func(t *testing.T) {
		subject, err := renderer.Subject("orders/confirmation", context)

		require.NoError(t, err)
		assert.Equal(t, "Your order at harry.email", subject)
	})

	t.Run("Text", func(t *testing.T) {
		text, err := renderer.Text("orders/confirmation", context)

		require.NoError(t, err)
		assert.Equal(t, "Hello Harry,\n\nthank you for your order.\n", text)
	})

	t.Run("HTML", func(t *testing.T) {
		html, err := renderer.HTML("orders/confirmation", context)

		require.NoError(t, err)
		assert.Equal(t, "<p>Hello Harry,</p>", html)
	})

	t.Run("HTMLEscapesContextValues", func(t *testing.T) {
		html, err := renderer.HTML("orders/confirmation", map[string]any{"name": "<script>"})

		require.NoError(t, err)
		assert.Equal(t, "<p>Hello &lt;script&gt;,</p>", html)
	})

	t.Run("MissingHTMLTemplateReturnsNotExist", func(t *testing.T) {
		_, err := renderer.HTML("orders/shipping", context)

		assert.True(t, errors.Is(err, fs.ErrNotExist), "error should wrap fs.ErrNotExist")
	})

	t.Run("MissingTextTemplateReturnsNotExist", func(t *testing.T) {
		_, err := renderer.Text("orders/shipping", context)

		assert.True(t, errors.Is(err, fs.ErrNotExist), "error should wrap fs.ErrNotExist")
	})

	t.Run("MissingSubjectTemplateReturnsNotExist", func(t *testing.T) {
		_, err := renderer.Subject("orders/shipping", context)

		assert.True(t, errors.Is(err, fs.ErrNotExist), "error should wrap fs.ErrNotExist")
	})
}
