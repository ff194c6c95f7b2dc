package ua

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		name, raw, browser, device string
		bot                        bool
	}{
		{
			name:    "chrome desktop",
			raw:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.6422.112 Safari/537.36",
			browser: "Chrome",
			device:  "Desktop",
		},
		{
			name:    "safari iphone",
			raw:     "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
			browser: "Safari",
			device:  "Mobile",
		},
		{
			name:   "googlebot",
			raw:    "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			bot:  true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.raw)
			if tc.browser != "" && got.Browser != tc.browser {
				t.Errorf("browser = %q, want %q", got.Browser, tc.browser)
			}
			if tc.device != "" && got.Device != tc.device {
				t.Errorf("device = %q, want %q", got.Device, tc.device)
			}
			if got.IsBot != tc.bot {
				t.Errorf("bot = %v, want %v", got.IsBot, tc.bot)
			}
		})
	}
}

func TestEmptyHeader(t *testing.T) {
	if got := Parse(""); got.Device != "Other" {
		t.Fatalf("unexpected info for empty header: %+v", got)
	}
}
