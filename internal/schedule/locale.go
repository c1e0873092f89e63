package schedule

// Display strings per locale. Locale only ever affects formatting,
// never data values.

func breakTitle(locale string) string {
	if locale == "de" {
		return "Pause"
	}
	return "Break"
}

func weekLabel(locale string) string {
	if locale == "de" {
		return "KW"
	}
	return "Week"
}

func dateTimeLayout(locale string) string {
	if locale == "de" {
		return "02.01.2006 15:04"
	}
	return "2006-01-02 15:04"
}
