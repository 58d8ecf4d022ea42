package templates

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/bmi-tracker/config"
)

type stubResolver struct {
	geo Geo
	err error
}

func (s stubResolver) Lookup(context.Context, string) (Geo, error) { return s.geo, s.err }

func TestRenderLoginNotification(t *testing.T) {
	cfg := &config.Config{AppName: "BMI Tracker"}
	data := NewLoginNotificationData(cfg, "Ana", "ana@example.com",
		WithIP("203.0.113.9"),
		WithUserAgent("curl/8"),
		WithTime(time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)),
	)

	subject, text, html, err := Render(LoginNotification, data)
	require.NoError(t, err)
	assert.Equal(t, "New login to your BMI Tracker account", subject)
	assert.Contains(t, text, "203.0.113.9")
	assert.Contains(t, text, "01 April 2026, 12:30 UTC")
	assert.Contains(t, text, "Location: unknown")
	assert.Contains(t, html, "curl/8")
}

func TestLocalize(t *testing.T) {
	data := ToMap(EmailData{IP: "203.0.113.9", TimeAt: time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)})

	Localize(context.Background(), stubResolver{geo: Geo{City: "Jakarta", Country: "Indonesia", Timezone: "Asia/Jakarta"}}, data)

	assert.Equal(t, "Jakarta, Indonesia", data["Location"])
	assert.Equal(t, "01 April 2026, 19:30 WIB", data["Time"])
}

func TestLocalizeLeavesDataOnFailure(t *testing.T) {
	data := map[string]any{"IP": "203.0.113.9", "Time": "as sent"}
	Localize(context.Background(), stubResolver{err: errors.New("offline")}, data)
	assert.Equal(t, "as sent", data["Time"])
	assert.NotContains(t, data, "Location")
}

func TestIPAPIResolverSkipsPrivateAddresses(t *testing.T) {
	_, err := IPAPIResolver{}.Lookup(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	_, err = IPAPIResolver{}.Lookup(context.Background(), "127.0.0.1")
	assert.Error(t, err)
}

func TestFormatGeo(t *testing.T) {
	assert.Equal(t, "Bandung, West Java, Indonesia", FormatGeo(Geo{City: "Bandung", Region: "West Java", Country: "Indonesia"}))
	assert.Equal(t, "", FormatGeo(Geo{}))
}
