package proxy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bagaking/gemini-proxy/gemini"
)

func TestParseMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "empty body", body: "", want: gemini.DefaultMessage},
		{name: "whitespace body", body: " \n\t", want: gemini.DefaultMessage},
		{name: "empty object", body: `{}`, want: gemini.DefaultMessage},
		{name: "message", body: `{"message":"hi"}`, want: "hi"},
		{name: "unicode escape", body: `{"message":"café"}`, want: "café"},
		{name: "empty string", body: `{"message":""}`, want: gemini.DefaultMessage},
		{name: "null", body: `{"message":null}`, want: gemini.DefaultMessage},
		{name: "false", body: `{"message":false}`, want: gemini.DefaultMessage},
		{name: "zero", body: `{"message":0}`, want: gemini.DefaultMessage},
		{name: "number", body: `{"message":42}`, want: "42"},
		{name: "true", body: `{"message":true}`, want: "true"},
		{name: "object", body: `{"message":{ "a" : 1 }}`, want: `{"a":1}`},
		{name: "array body", body: `["x"]`, want: gemini.DefaultMessage},
		{name: "string body", body: `"x"`, want: gemini.DefaultMessage},
		{name: "other fields", body: `{"text":"x","message":"y"}`, want: "y"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseMessage([]byte(tc.body))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseMessage_Malformed(t *testing.T) {
	for _, body := range []string{`{`, `{"message":}`, `not json`, `{} {}`, `null`, ` null `} {
		_, err := parseMessage([]byte(body))
		require.Error(t, err, body)
		require.Contains(t, err.Error(), "parse request body", body)
	}
}
