package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type linkForm struct {
	Short string `form:"short" validate:"notblank,shortcode,max=64"`
	URL   string `form:"url" validate:"notblank,http_url"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		form    linkForm
		wantErr bool
		message string
	}{
		{name: "valid", form: linkForm{Short: "abc", URL: "http://example.com"}},
		{name: "blank short", form: linkForm{Short: "  ", URL: "http://example.com"}, wantErr: true, message: "short is required."},
		{name: "slash in short", form: linkForm{Short: "a/b", URL: "http://example.com"}, wantErr: true, message: "short may only contain letters, digits, '-' and '_'."},
		{name: "ftp url", form: linkForm{Short: "abc", URL: "ftp://example.com"}, wantErr: true, message: "url must be an http or https URL."},
		{name: "no host", form: linkForm{Short: "abc", URL: "https://"}, wantErr: true, message: "url must be an http or https URL."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.form)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, tt.message, Message(err))
		})
	}
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://example.com/path?q=1"))
	assert.False(t, IsHTTPURL("javascript:alert(1)"))
	assert.False(t, IsHTTPURL(""))
}
