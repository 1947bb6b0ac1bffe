package ui

import "testing"

func TestInitTheme(t *testing.T) {
	original := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(original) })

	tests := []struct {
		name    string
		noColor bool
		env     map[string]string
		want    string
	}{
		{"flag disables color", true, nil, "none"},
		{"NO_COLOR disables color", false, map[string]string{"NO_COLOR": "1"}, "none"},
		{"theme from environment", false, map[string]string{"PEULER_THEME": "light"}, "light"},
		{"unknown theme falls back", false, map[string]string{"PEULER_THEME": "neon"}, "dark"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			InitTheme(tt.noColor)
			if got := GetCurrentTheme().Name; got != tt.want {
				t.Errorf("theme = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPaintHonorsNoColor(t *testing.T) {
	original := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(original) })

	SetCurrentTheme(NoColorTheme)
	if got := Paint(ColorGreen(), "233168"); got != "233168" {
		t.Errorf("Paint under no color = %q", got)
	}
	if GetCurrentTUITheme() != NoColorTUITheme {
		t.Error("TUI theme must follow the no-color theme")
	}

	SetCurrentTheme(DarkTheme)
	if got := Paint(ColorGreen(), "x"); got != DarkTheme.Success+"x"+DarkTheme.Reset {
		t.Errorf("Paint under dark = %q", got)
	}
}
