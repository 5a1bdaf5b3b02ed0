package banner

import (
	"github.com/charmbracelet/lipgloss"
)

var bannerColor = lipgloss.AdaptiveColor{Light: "#D7005F", Dark: "#FF5FAF"}

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(bannerColor).
		Bold(true)

	ascii := `
    __                 ____            __
   / /___  ____ _____/ / /____  _____/ /_
  / / __ \/ __ '/ __  / __/ _ \/ ___/ __/
 / / /_/ / /_/ / /_/ / /_/  __(__  ) /_
/_/\____/\__,_/\__,_/\__/\___/____/\__/`

	return "\n" + style.Render(ascii) + "\n"
}
